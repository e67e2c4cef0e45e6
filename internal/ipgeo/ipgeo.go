// Package ipgeo maps visitor IP addresses to approximate geolocation.
package ipgeo

import (
	"context"
	"errors"
	"net"
)

// Info is the normalized geolocation of one IP, whichever backend produced it.
type Info struct {
	City    string
	Region  string
	Country string
	Lat     float64
	Lng     float64
}

type Resolver interface {
	Lookup(ctx context.Context, ip string) (*Info, error)
}

var ErrNoResult = errors.New("ipgeo: no result")

// IsRemotelyRoutable reports whether ip is a public address worth sending to
// a geolocation backend. Private, loopback, link-local, unspecified and
// unparseable addresses are not.
func IsRemotelyRoutable(ip string) bool {
	parsed := net.ParseIP(ip)
	if parsed == nil {
		return false
	}
	switch {
	case parsed.IsLoopback(),
		parsed.IsPrivate(),
		parsed.IsLinkLocalUnicast(),
		parsed.IsLinkLocalMulticast(),
		parsed.IsUnspecified():
		return false
	}
	return true
}

// Chain tries each resolver in order and returns the first success.
type Chain []Resolver

func (c Chain) Lookup(ctx context.Context, ip string) (*Info, error) {
	var lastErr error = ErrNoResult
	for _, r := range c {
		info, err := r.Lookup(ctx, ip)
		if err == nil {
			return info, nil
		}
		lastErr = err
	}
	return nil, lastErr
}
