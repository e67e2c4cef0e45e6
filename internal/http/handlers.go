package httpapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog/hlog"
	"github.com/rs/zerolog/log"

	"github.com/dbaidya811/phone-location-app/internal/config"
	"github.com/dbaidya811/phone-location-app/internal/core"
	"github.com/dbaidya811/phone-location-app/internal/metrics"
	"github.com/dbaidya811/phone-location-app/internal/phone"
)

type Router struct {
	cfg config.Config
	svc *core.Service
}

func NewRouter(cfg config.Config, svc *core.Service) http.Handler {
	r := chi.NewRouter()
	// Logging middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(hlog.NewHandler(log.Logger))
	r.Use(hlog.RequestIDHandler("req_id", "Request-Id"))
	r.Use(hlog.AccessHandler(func(r *http.Request, status, size int, dur time.Duration) {
		hlog.FromRequest(r).Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", status).
			Int("size", size).
			Dur("duration", dur).
			Msg("request")
	}))
	r.Use(middleware.Recoverer)

	api := &Router{cfg: cfg, svc: svc}

	r.MethodFunc(http.MethodGet, "/healthz", api.handleHealth)
	r.MethodFunc(http.MethodGet, "/readyz", api.handleReady)

	// Metrics
	r.MethodFunc(http.MethodGet, "/metrics", metrics.Handler)

	// Phone lookup + live sharing
	r.MethodFunc(http.MethodGet, "/", api.handleIndex)
	r.MethodFunc(http.MethodPost, "/", api.handleLookup)
	r.MethodFunc(http.MethodGet, "/share/{token}", api.handleShare)
	r.MethodFunc(http.MethodGet, "/live/{token}", api.handleLive)
	r.MethodFunc(http.MethodGet, "/api/loc/{token}", api.handlePollLocation)
	r.MethodFunc(http.MethodPost, "/api/loc/{token}", api.handleReportLocation)

	// IP finder
	r.MethodFunc(http.MethodGet, "/ip", api.handleIPForm)
	r.MethodFunc(http.MethodPost, "/ip", api.handleIPCreate)
	r.MethodFunc(http.MethodGet, "/r/{token}", api.handleTrackedRedirect)
	r.MethodFunc(http.MethodPost, "/ip/log/{token}", api.handleLogHit)
	r.MethodFunc(http.MethodGet, "/ip/view/{token}", api.handleIPView)

	return r
}

// ---- phone lookup ----

func (rt *Router) handleIndex(w http.ResponseWriter, r *http.Request) {
	render(w, r, "index.html", map[string]string{
		"Error": r.URL.Query().Get("err"),
	})
}

func (rt *Router) handleLookup(w http.ResponseWriter, r *http.Request) {
	raw := strings.TrimSpace(r.FormValue("phone_number"))
	if raw == "" {
		redirectWithError(w, r, "/", "Please enter a phone number")
		return
	}

	res, err := rt.svc.LookupNumber(r.Context(), raw)
	if err != nil {
		if errors.Is(err, phone.ErrInvalidNumber) {
			redirectWithError(w, r, "/", "Invalid phone number. Please include country code (e.g., +880 for Bangladesh)")
			return
		}
		redirectWithError(w, r, "/", "Error processing phone number")
		return
	}

	base := rt.baseURL(r)
	render(w, r, "result.html", map[string]any{
		"Number":   res.Number,
		"Location": res.Location,
		"Carrier":  res.Carrier,
		"Circle":   res.Circle,
		"Coords":   res.Coords,
		"Zoom":     res.Zoom,
		"Token":    res.Token,
		"ShareURL": base + "/share/" + res.Token,
		"LiveURL":  base + "/live/" + res.Token,
	})
}

// ---- live location ----

func (rt *Router) handleShare(w http.ResponseWriter, r *http.Request) {
	render(w, r, "share.html", map[string]string{
		"Token": chi.URLParam(r, "token"),
	})
}

func (rt *Router) handleLive(w http.ResponseWriter, r *http.Request) {
	render(w, r, "live.html", map[string]string{
		"Token": chi.URLParam(r, "token"),
	})
}

type locResponse struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
	Ts  float64 `json:"ts"`
}

func (rt *Router) handlePollLocation(w http.ResponseWriter, r *http.Request) {
	tok := chi.URLParam(r, "token")
	rec, ok := rt.svc.PollLocation(tok)
	if !ok {
		writeJSON(w, map[string]any{"ok": true, "loc": nil}, http.StatusOK)
		return
	}
	writeJSON(w, map[string]any{"ok": true, "loc": locResponse{
		Lat: rec.Lat,
		Lng: rec.Lng,
		Ts:  float64(rec.Ts.UnixNano()) / 1e9,
	}}, http.StatusOK)
}

func (rt *Router) handleReportLocation(w http.ResponseWriter, r *http.Request) {
	tok := chi.URLParam(r, "token")

	var payload map[string]any
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeJSON(w, map[string]any{"ok": false, "error": "invalid_payload"}, http.StatusBadRequest)
		return
	}
	lat, errLat := asFloat(payload["lat"])
	lng, errLng := asFloat(payload["lng"])
	if errLat != nil || errLng != nil {
		writeJSON(w, map[string]any{"ok": false, "error": "invalid_payload"}, http.StatusBadRequest)
		return
	}

	rt.svc.ReportLocation(tok, lat, lng)
	writeJSON(w, map[string]any{"ok": true}, http.StatusOK)
}

// ---- IP finder ----

func (rt *Router) handleIPForm(w http.ResponseWriter, r *http.Request) {
	render(w, r, "ipform.html", map[string]string{
		"Error": r.URL.Query().Get("err"),
	})
}

func (rt *Router) handleIPCreate(w http.ResponseWriter, r *http.Request) {
	target := strings.TrimSpace(r.FormValue("target"))
	if target == "" {
		redirectWithError(w, r, "/ip", "Please enter a target URL")
		return
	}

	tok := rt.svc.CreateTrack(target)
	normalized, _ := rt.svc.TrackTarget(tok)

	base := rt.baseURL(r)
	render(w, r, "ipcreated.html", map[string]string{
		"Target":   normalized,
		"ShortURL": base + "/r/" + tok,
		"ViewURL":  base + "/ip/view/" + tok,
	})
}

func (rt *Router) handleTrackedRedirect(w http.ResponseWriter, r *http.Request) {
	tok := chi.URLParam(r, "token")
	target, ok := rt.svc.TrackTarget(tok)
	if !ok {
		http.NotFound(w, r)
		return
	}
	metrics.Redirects.Inc()

	// Test override: log the given address immediately, skip the interstitial.
	if ip := r.URL.Query().Get("ip"); ip != "" {
		rt.svc.LogHit(r.Context(), tok, ip, r.UserAgent())
		http.Redirect(w, r, target, http.StatusFound)
		return
	}

	render(w, r, "interstitial.html", map[string]string{
		"Token":  tok,
		"Target": target,
	})
}

type logHitPayload struct {
	IP string `json:"ip"`
}

func (rt *Router) handleLogHit(w http.ResponseWriter, r *http.Request) {
	tok := chi.URLParam(r, "token")
	if _, ok := rt.svc.TrackTarget(tok); !ok {
		writeJSON(w, map[string]any{"ok": false, "error": "invalid_token"}, http.StatusBadRequest)
		return
	}

	var payload logHitPayload
	if r.Body != nil && r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			writeJSON(w, map[string]any{"ok": false, "error": "bad_request"}, http.StatusBadRequest)
			return
		}
	}

	ip := strings.TrimSpace(payload.IP)
	if ip == "" {
		ip = clientIP(r)
	}

	rt.svc.LogHit(r.Context(), tok, ip, r.UserAgent())
	writeJSON(w, map[string]any{"ok": true}, http.StatusOK)
}

func (rt *Router) handleIPView(w http.ResponseWriter, r *http.Request) {
	tok := chi.URLParam(r, "token")
	view, err := rt.svc.ViewTrack(tok)
	if err != nil {
		redirectWithError(w, r, "/ip", "Unknown tracking link")
		return
	}
	render(w, r, "ipview.html", map[string]any{"View": view})
}

// ---- plumbing ----

func (rt *Router) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("ok"))
}

func (rt *Router) handleReady(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("ready"))
}

// baseURL prefers the configured external URL and falls back to the request
// host so share links work on a bare LAN deployment.
func (rt *Router) baseURL(r *http.Request) string {
	if rt.cfg.BaseURL != "" {
		return strings.TrimRight(rt.cfg.BaseURL, "/")
	}
	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	return scheme + "://" + r.Host
}

// asFloat accepts JSON numbers and numeric strings, matching how loose the
// reporting clients are about payload types.
func asFloat(v any) (float64, error) {
	switch t := v.(type) {
	case float64:
		return t, nil
	case string:
		return strconv.ParseFloat(t, 64)
	default:
		return 0, fmt.Errorf("not a number: %v", v)
	}
}

func redirectWithError(w http.ResponseWriter, r *http.Request, path, msg string) {
	http.Redirect(w, r, path+"?err="+url.QueryEscape(msg), http.StatusSeeOther)
}

func writeJSON(w http.ResponseWriter, v any, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func clientIP(r *http.Request) string {
	// Try X-Forwarded-For or Real-IP first
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		parts := strings.Split(xff, ",")
		return strings.TrimSpace(parts[0])
	}
	if rip := r.Header.Get("X-Real-Ip"); rip != "" {
		return rip
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
