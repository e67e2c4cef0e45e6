// Package token generates the opaque URL-safe identifiers that key
// live-location and tracking records.
package token

import (
	"crypto/rand"
	"encoding/base64"
)

// New returns a URL-safe token derived from n random bytes.
func New(n int) string {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		// crypto/rand never fails on supported platforms
		panic(err)
	}
	return base64.RawURLEncoding.EncodeToString(b)
}

// Live and track tokens differ only in length; the live link is the more
// sensitive of the two.
const (
	LiveBytes  = 8
	TrackBytes = 6
)

func NewLive() string { return New(LiveBytes) }

func NewTrack() string { return New(TrackBytes) }
