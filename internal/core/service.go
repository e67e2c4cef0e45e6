// Package core wires the stores, the resolution pipeline and the geolocation
// backends into the operations the HTTP layer exposes.
package core

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/dbaidya811/phone-location-app/internal/ipgeo"
	"github.com/dbaidya811/phone-location-app/internal/metrics"
	"github.com/dbaidya811/phone-location-app/internal/phone"
	"github.com/dbaidya811/phone-location-app/internal/store"
	"github.com/dbaidya811/phone-location-app/internal/token"
)

var ErrUnknownToken = errors.New("unknown token")

const (
	notePrivate      = "private or local address, lookup skipped"
	noteLookupFailed = "geolocation lookup failed"
)

type Service struct {
	live   store.LiveStore
	track  store.TrackStore
	phones *phone.Resolver
	ipgeo  ipgeo.Resolver
}

func NewService(live store.LiveStore, track store.TrackStore, phones *phone.Resolver, ip ipgeo.Resolver) *Service {
	return &Service{
		live:   live,
		track:  track,
		phones: phones,
		ipgeo:  ip,
	}
}

// LookupResult pairs one resolved number with a fresh live-share token.
type LookupResult struct {
	*phone.Resolved
	Token string
}

// LookupNumber resolves a raw phone number and mints the live token handed
// out with the result page. Returns phone.ErrInvalidNumber on bad input.
func (s *Service) LookupNumber(ctx context.Context, raw string) (*LookupResult, error) {
	metrics.Lookups.Inc()
	resolved, err := s.phones.Resolve(ctx, raw)
	if err != nil {
		metrics.InvalidNumbers.Inc()
		return nil, err
	}
	return &LookupResult{Resolved: resolved, Token: token.NewLive()}, nil
}

func (s *Service) ReportLocation(tok string, lat, lng float64) {
	s.live.Report(tok, lat, lng)
	metrics.LiveReports.Inc()
}

func (s *Service) PollLocation(tok string) (store.LiveRecord, bool) {
	return s.live.Poll(tok)
}

func (s *Service) CreateTrack(target string) string {
	return s.track.Create(target)
}

func (s *Service) TrackTarget(tok string) (string, bool) {
	return s.track.Target(tok)
}

// LogHit records one visit to a tracked link, best effort: a failed or
// skipped geolocation still appends the hit so the visit count holds. An
// unknown token is silently ignored.
func (s *Service) LogHit(ctx context.Context, tok, ip, userAgent string) {
	if _, ok := s.track.Target(tok); !ok {
		return
	}

	h := store.Hit{
		IP:        ip,
		Ts:        time.Now(),
		UserAgent: userAgent,
	}

	outcome := "located"
	switch {
	case !ipgeo.IsRemotelyRoutable(ip):
		h.Note = notePrivate
		outcome = "skipped"
	default:
		info, err := s.ipgeo.Lookup(ctx, ip)
		if err != nil {
			log.Warn().Err(err).Str("ip", ip).Msg("ip geolocation failed")
			h.Note = noteLookupFailed
			outcome = "failed"
		} else {
			h.City = info.City
			h.Region = info.Region
			h.Country = info.Country
			lat, lng := info.Lat, info.Lng
			h.Lat = &lat
			h.Lng = &lng
		}
	}

	if s.track.Append(tok, h) {
		metrics.TrackHits.WithLabelValues(outcome).Inc()
	}
}

// TrackView is the read model for the hit log page.
type TrackView struct {
	Token         string
	Target        string
	Hits          []store.Hit
	LatestLocated *store.Hit
}

// ViewTrack returns the entry plus the most recent hit that carried
// coordinates, or ErrUnknownToken.
func (s *Service) ViewTrack(tok string) (*TrackView, error) {
	entry, ok := s.track.Entry(tok)
	if !ok {
		return nil, ErrUnknownToken
	}

	view := &TrackView{
		Token:  entry.Token,
		Target: entry.Target,
		Hits:   entry.Hits,
	}
	for i := len(entry.Hits) - 1; i >= 0; i-- {
		if entry.Hits[i].Lat != nil && entry.Hits[i].Lng != nil {
			view.LatestLocated = &entry.Hits[i]
			break
		}
	}
	return view, nil
}
