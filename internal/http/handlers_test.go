package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/dbaidya811/phone-location-app/internal/config"
	"github.com/dbaidya811/phone-location-app/internal/core"
	"github.com/dbaidya811/phone-location-app/internal/geocode"
	"github.com/dbaidya811/phone-location-app/internal/ipgeo"
	"github.com/dbaidya811/phone-location-app/internal/phone"
	"github.com/dbaidya811/phone-location-app/internal/prefix"
	"github.com/dbaidya811/phone-location-app/internal/store"
)

type fakeIPGeo struct {
	info *ipgeo.Info
	err  error
}

func (f *fakeIPGeo) Lookup(context.Context, string) (*ipgeo.Info, error) {
	return f.info, f.err
}

type failingGeocoder struct{}

func (failingGeocoder) Search(context.Context, string) (*geocode.Point, error) {
	return nil, errors.New("down")
}

func newTestRouter() (http.Handler, *core.Service) {
	resolver := phone.NewResolver(prefix.Table{}, failingGeocoder{}, "BD")
	ip := &fakeIPGeo{info: &ipgeo.Info{City: "Dhaka", Country: "Bangladesh", Lat: 23.8, Lng: 90.4}}
	svc := core.NewService(store.NewMemoryLive(), store.NewMemoryTrack(), resolver, ip)
	return NewRouter(config.Config{}, svc), svc
}

func do(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		if strings.HasPrefix(body, "{") {
			req.Header.Set("Content-Type", "application/json")
		} else {
			req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		}
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func TestIndex(t *testing.T) {
	h, _ := newTestRouter()

	rr := do(t, h, http.MethodGet, "/", "")
	if rr.Code != http.StatusOK {
		t.Errorf("status = %d", rr.Code)
	}

	t.Run("FlashError", func(t *testing.T) {
		rr := do(t, h, http.MethodGet, "/?err=bad+number", "")
		if !strings.Contains(rr.Body.String(), "bad number") {
			t.Error("flash message not rendered")
		}
	})
}

func TestLookup(t *testing.T) {
	h, _ := newTestRouter()

	t.Run("Valid", func(t *testing.T) {
		rr := do(t, h, http.MethodPost, "/", "phone_number=%2B8801712345678")
		if rr.Code != http.StatusOK {
			t.Fatalf("status = %d", rr.Code)
		}
		body := rr.Body.String()
		if !strings.Contains(body, "/share/") || !strings.Contains(body, "/live/") {
			t.Error("result page must carry share and live links")
		}
	})

	t.Run("Invalid", func(t *testing.T) {
		rr := do(t, h, http.MethodPost, "/", "phone_number=123")
		if rr.Code != http.StatusSeeOther {
			t.Fatalf("status = %d, want redirect", rr.Code)
		}
		if !strings.Contains(rr.Header().Get("Location"), "err=") {
			t.Error("redirect must carry an error message")
		}
	})

	t.Run("Empty", func(t *testing.T) {
		rr := do(t, h, http.MethodPost, "/", "phone_number=")
		if rr.Code != http.StatusSeeOther {
			t.Errorf("status = %d, want redirect", rr.Code)
		}
	})
}

func TestLiveAPI(t *testing.T) {
	h, _ := newTestRouter()

	t.Run("PollUnknown", func(t *testing.T) {
		rr := do(t, h, http.MethodGet, "/api/loc/unknown", "")
		if rr.Code != http.StatusOK {
			t.Fatalf("status = %d", rr.Code)
		}
		var body map[string]any
		if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
			t.Fatal(err)
		}
		if body["ok"] != true || body["loc"] != nil {
			t.Errorf("got %v, want ok with null loc", body)
		}
	})

	t.Run("ReportThenPoll", func(t *testing.T) {
		rr := do(t, h, http.MethodPost, "/api/loc/t1", `{"lat":1.5,"lng":2.5}`)
		if rr.Code != http.StatusOK {
			t.Fatalf("report status = %d", rr.Code)
		}

		rr = do(t, h, http.MethodGet, "/api/loc/t1", "")
		var body struct {
			OK  bool `json:"ok"`
			Loc *struct {
				Lat float64 `json:"lat"`
				Lng float64 `json:"lng"`
				Ts  float64 `json:"ts"`
			} `json:"loc"`
		}
		if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
			t.Fatal(err)
		}
		if body.Loc == nil || body.Loc.Lat != 1.5 || body.Loc.Lng != 2.5 {
			t.Errorf("got %+v", body.Loc)
		}
		if body.Loc.Ts == 0 {
			t.Error("timestamp missing")
		}
	})

	t.Run("StringCoordinatesAccepted", func(t *testing.T) {
		rr := do(t, h, http.MethodPost, "/api/loc/t2", `{"lat":"3.5","lng":"4.5"}`)
		if rr.Code != http.StatusOK {
			t.Errorf("status = %d", rr.Code)
		}
	})

	t.Run("InvalidPayload", func(t *testing.T) {
		rr := do(t, h, http.MethodPost, "/api/loc/t1", `{"lat":"abc","lng":2.5}`)
		if rr.Code != http.StatusBadRequest {
			t.Fatalf("status = %d, want 400", rr.Code)
		}
		if !strings.Contains(rr.Body.String(), "invalid_payload") {
			t.Errorf("body = %s", rr.Body.String())
		}

		// Store must be unchanged from before the bad report.
		rr = do(t, h, http.MethodGet, "/api/loc/t1", "")
		if !strings.Contains(rr.Body.String(), "1.5") {
			t.Error("record changed by rejected payload")
		}
	})

	t.Run("MalformedJSON", func(t *testing.T) {
		rr := do(t, h, http.MethodPost, "/api/loc/t1", `{nope`)
		if rr.Code != http.StatusBadRequest {
			t.Errorf("status = %d, want 400", rr.Code)
		}
	})
}

func TestIPFinder(t *testing.T) {
	h, svc := newTestRouter()

	t.Run("CreateForm", func(t *testing.T) {
		rr := do(t, h, http.MethodPost, "/ip", "target=example.com")
		if rr.Code != http.StatusOK {
			t.Fatalf("status = %d", rr.Code)
		}
		body := rr.Body.String()
		if !strings.Contains(body, "/r/") || !strings.Contains(body, "/ip/view/") {
			t.Error("created page must carry share and view links")
		}
		if !strings.Contains(body, "http://example.com") {
			t.Error("scheme not prepended to target")
		}
	})

	t.Run("EmptyTarget", func(t *testing.T) {
		rr := do(t, h, http.MethodPost, "/ip", "target=")
		if rr.Code != http.StatusSeeOther {
			t.Errorf("status = %d, want redirect", rr.Code)
		}
	})

	t.Run("RedirectUnknown", func(t *testing.T) {
		rr := do(t, h, http.MethodGet, "/r/unknown", "")
		if rr.Code != http.StatusNotFound {
			t.Errorf("status = %d, want 404", rr.Code)
		}
	})

	t.Run("RedirectWithOverrideIP", func(t *testing.T) {
		tok := svc.CreateTrack("example.com")
		rr := do(t, h, http.MethodGet, "/r/"+tok+"?ip=8.8.8.8", "")
		if rr.Code != http.StatusFound {
			t.Fatalf("status = %d, want 302", rr.Code)
		}
		if got := rr.Header().Get("Location"); got != "http://example.com" {
			t.Errorf("Location = %q", got)
		}
		view, err := svc.ViewTrack(tok)
		if err != nil || len(view.Hits) != 1 {
			t.Fatalf("hits = %+v, %v", view, err)
		}
		if view.Hits[0].IP != "8.8.8.8" {
			t.Errorf("hit ip = %q", view.Hits[0].IP)
		}
	})

	t.Run("Interstitial", func(t *testing.T) {
		tok := svc.CreateTrack("example.com")
		rr := do(t, h, http.MethodGet, "/r/"+tok, "")
		if rr.Code != http.StatusOK {
			t.Fatalf("status = %d", rr.Code)
		}
		if !strings.Contains(rr.Body.String(), tok) {
			t.Error("interstitial must reference the token")
		}
		// No hit before the client posts back.
		view, _ := svc.ViewTrack(tok)
		if len(view.Hits) != 0 {
			t.Errorf("hits = %d, want 0", len(view.Hits))
		}
	})

	t.Run("LogHit", func(t *testing.T) {
		tok := svc.CreateTrack("example.com")
		rr := do(t, h, http.MethodPost, "/ip/log/"+tok, `{"ip":"8.8.8.8"}`)
		if rr.Code != http.StatusOK {
			t.Fatalf("status = %d", rr.Code)
		}
		view, _ := svc.ViewTrack(tok)
		if len(view.Hits) != 1 || view.Hits[0].City != "Dhaka" {
			t.Errorf("hits = %+v", view.Hits)
		}
	})

	t.Run("LogHitNoBody", func(t *testing.T) {
		// Falls back to the server-detected peer address.
		tok := svc.CreateTrack("example.com")
		rr := do(t, h, http.MethodPost, "/ip/log/"+tok, "")
		if rr.Code != http.StatusOK {
			t.Fatalf("status = %d", rr.Code)
		}
		view, _ := svc.ViewTrack(tok)
		if len(view.Hits) != 1 {
			t.Fatalf("hits = %d, want 1", len(view.Hits))
		}
	})

	t.Run("LogHitUnknownToken", func(t *testing.T) {
		rr := do(t, h, http.MethodPost, "/ip/log/unknown", `{"ip":"8.8.8.8"}`)
		if rr.Code != http.StatusBadRequest {
			t.Fatalf("status = %d, want 400", rr.Code)
		}
		if !strings.Contains(rr.Body.String(), "invalid_token") {
			t.Errorf("body = %s", rr.Body.String())
		}
	})

	t.Run("LogHitBadJSON", func(t *testing.T) {
		tok := svc.CreateTrack("example.com")
		rr := do(t, h, http.MethodPost, "/ip/log/"+tok, `{bad`)
		if rr.Code != http.StatusBadRequest {
			t.Fatalf("status = %d, want 400", rr.Code)
		}
		if !strings.Contains(rr.Body.String(), "bad_request") {
			t.Errorf("body = %s", rr.Body.String())
		}
	})

	t.Run("View", func(t *testing.T) {
		tok := svc.CreateTrack("example.com")
		svc.LogHit(context.Background(), tok, "8.8.8.8", "ua")
		rr := do(t, h, http.MethodGet, "/ip/view/"+tok, "")
		if rr.Code != http.StatusOK {
			t.Fatalf("status = %d", rr.Code)
		}
		if !strings.Contains(rr.Body.String(), "8.8.8.8") {
			t.Error("hit log not rendered")
		}
	})

	t.Run("ViewUnknown", func(t *testing.T) {
		rr := do(t, h, http.MethodGet, "/ip/view/unknown", "")
		if rr.Code != http.StatusSeeOther {
			t.Fatalf("status = %d, want redirect", rr.Code)
		}
		if !strings.Contains(rr.Header().Get("Location"), "/ip") {
			t.Errorf("Location = %q", rr.Header().Get("Location"))
		}
	})
}

func TestSharePages(t *testing.T) {
	h, _ := newTestRouter()

	for _, path := range []string{"/share/tok123", "/live/tok123"} {
		rr := do(t, h, http.MethodGet, path, "")
		if rr.Code != http.StatusOK {
			t.Errorf("GET %s status = %d", path, rr.Code)
		}
		if !strings.Contains(rr.Body.String(), "tok123") {
			t.Errorf("GET %s: token not in page", path)
		}
	}
}

func TestHealth(t *testing.T) {
	h, _ := newTestRouter()
	for _, path := range []string{"/healthz", "/readyz"} {
		if rr := do(t, h, http.MethodGet, path, ""); rr.Code != http.StatusOK {
			t.Errorf("GET %s status = %d", path, rr.Code)
		}
	}
}
