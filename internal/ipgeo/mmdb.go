package ipgeo

import (
	"context"
	"fmt"
	"net"

	"github.com/oschwald/geoip2-golang"
)

// MMDBResolver answers lookups from a local GeoIP2/GeoLite2 city database,
// avoiding the network round trip when one is deployed alongside the app.
type MMDBResolver struct {
	reader *geoip2.Reader
}

func OpenMMDB(path string) (*MMDBResolver, error) {
	reader, err := geoip2.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening geoip database: %w", err)
	}
	return &MMDBResolver{reader: reader}, nil
}

func (r *MMDBResolver) Close() error {
	return r.reader.Close()
}

func (r *MMDBResolver) Lookup(_ context.Context, ip string) (*Info, error) {
	parsed := net.ParseIP(ip)
	if parsed == nil {
		return nil, fmt.Errorf("invalid ip address: %s", ip)
	}

	record, err := r.reader.City(parsed)
	if err != nil {
		return nil, err
	}
	if record.Country.Names["en"] == "" && record.City.Names["en"] == "" {
		return nil, ErrNoResult
	}

	info := &Info{
		City:    record.City.Names["en"],
		Country: record.Country.Names["en"],
		Lat:     record.Location.Latitude,
		Lng:     record.Location.Longitude,
	}
	if len(record.Subdivisions) > 0 {
		info.Region = record.Subdivisions[0].Names["en"]
	}
	return info, nil
}
