// Package store holds the process-lifetime state: last reported live
// locations and IP tracking entries. Nothing here survives a restart and
// nothing expires; records live as long as the process does.
package store

import "time"

// LiveRecord is the latest reported GPS fix for a live-share token.
type LiveRecord struct {
	Lat float64
	Lng float64
	Ts  time.Time
}

// Hit is one recorded visit to a tracked short link. Lat/Lng are nil when
// geolocation was skipped or failed; Note says why.
type Hit struct {
	IP        string
	City      string
	Region    string
	Country   string
	Lat       *float64
	Lng       *float64
	Ts        time.Time
	UserAgent string
	Note      string
}

// TrackEntry is a tracked redirect target with its append-only hit log.
type TrackEntry struct {
	Token  string
	Target string
	Hits   []Hit
}

type LiveStore interface {
	// Report overwrites the record for token; latest write wins.
	Report(token string, lat, lng float64)
	// Poll returns the current record; false means not yet reported.
	Poll(token string) (LiveRecord, bool)
}

type TrackStore interface {
	// Create registers a redirect target and returns a fresh token. Targets
	// without a scheme get http:// prepended.
	Create(target string) string
	// Target resolves the redirect URL for a token.
	Target(token string) (string, bool)
	// Append adds a hit to a token's log; false means unknown token and the
	// hit was discarded.
	Append(token string, h Hit) bool
	// Entry returns a copy of the full entry for a token.
	Entry(token string) (TrackEntry, bool)
}
