// Package phone turns free-text phone number input into a display location,
// carrier and map coordinates. Every step past validation is best effort:
// failures fall through to coarser answers, never to a failed request.
package phone

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/nyaruka/phonenumbers"
	"github.com/rs/zerolog/log"
	"golang.org/x/text/language"
	"golang.org/x/text/language/display"

	"github.com/dbaidya811/phone-location-app/internal/geocode"
	"github.com/dbaidya811/phone-location-app/internal/metrics"
	"github.com/dbaidya811/phone-location-app/internal/prefix"
)

// ErrInvalidNumber is the single hard failure of the pipeline: the input is
// not a valid phone number and there is nothing to resolve.
var ErrInvalidNumber = errors.New("invalid phone number")

const (
	indiaCallingCode = 91

	// Zoom levels for the rendered map: circle/region match vs country view.
	zoomRegion  = 9
	zoomCountry = 5
)

// Dhaka city center, the terminal coordinate fallback.
var fallbackPoint = geocode.Point{Lat: 23.8103, Lng: 90.4125}

// Resolved is the outcome of one lookup. Coords is always set.
type Resolved struct {
	Number      string // E.164-style international display format
	Location    string
	Carrier     string
	Circle      string // Indian telecom circle, empty unless derived
	Coords      geocode.Point
	Zoom        int
	CountryCode int
}

type Resolver struct {
	prefixes      prefix.Table
	geocoder      geocode.Geocoder
	defaultRegion string
}

func NewResolver(prefixes prefix.Table, geocoder geocode.Geocoder, defaultRegion string) *Resolver {
	return &Resolver{
		prefixes:      prefixes,
		geocoder:      geocoder,
		defaultRegion: defaultRegion,
	}
}

// Normalize strips everything but digits and a leading '+', and rewrites a
// leading international 00 to '+'.
func Normalize(raw string) string {
	raw = strings.TrimSpace(raw)
	var sb strings.Builder
	for i, ch := range raw {
		if ch >= '0' && ch <= '9' {
			sb.WriteRune(ch)
		} else if ch == '+' && i == 0 {
			sb.WriteRune(ch)
		}
	}
	s := sb.String()
	if strings.HasPrefix(s, "00") {
		s = "+" + s[2:]
	}
	return s
}

// Resolve runs the full pipeline. The returned error is only ever
// ErrInvalidNumber; everything else degrades internally.
func (r *Resolver) Resolve(ctx context.Context, raw string) (*Resolved, error) {
	normalized := Normalize(raw)

	region := r.defaultRegion
	if strings.HasPrefix(normalized, "+") {
		region = phonenumbers.UNKNOWN_REGION
	}
	parsed, err := phonenumbers.Parse(normalized, region)
	if err != nil || !phonenumbers.IsValidNumber(parsed) {
		return nil, ErrInvalidNumber
	}

	countryCode := int(parsed.GetCountryCode())
	national := strconv.FormatUint(parsed.GetNationalNumber(), 10)

	res := &Resolved{
		Number:      phonenumbers.Format(parsed, phonenumbers.INTERNATIONAL),
		Location:    r.describe(parsed, countryCode),
		Carrier:     r.carrier(parsed),
		CountryCode: countryCode,
	}

	r.locate(ctx, res, national)
	return res, nil
}

func (r *Resolver) describe(parsed *phonenumbers.PhoneNumber, countryCode int) string {
	desc, err := phonenumbers.GetGeocodingForNumber(parsed, "en")
	if err != nil || strings.TrimSpace(desc) == "" {
		return fmt.Sprintf("Country Code: +%d", countryCode)
	}
	return desc
}

func (r *Resolver) carrier(parsed *phonenumbers.PhoneNumber) string {
	name, err := phonenumbers.GetCarrierForNumber(parsed, "en")
	if err != nil || strings.TrimSpace(name) == "" {
		return "Unknown Carrier"
	}
	return name
}

// locate picks coordinates through a fixed fallback chain: India circle,
// then number description, then country centroid, then a hardcoded point.
func (r *Resolver) locate(ctx context.Context, res *Resolved, national string) {
	country := countryName(res.CountryCode)

	var query string
	if res.CountryCode == indiaCallingCode {
		if circle, ok := r.prefixes.Lookup(national); ok {
			res.Circle = circle
			query = circle + ", India"
		}
	}
	if query == "" && usableDescription(res.Location) {
		query = res.Location + ", " + country
	}

	if query != "" {
		pt, err := r.geocoder.Search(ctx, query)
		if err == nil {
			res.Coords = *pt
			res.Zoom = zoomRegion
			metrics.GeocodeTier.WithLabelValues("region").Inc()
			return
		}
		log.Debug().Err(err).Str("query", query).Msg("geocode miss")
	}

	pt, err := r.geocoder.Search(ctx, country)
	if err == nil {
		res.Coords = *pt
		res.Zoom = zoomCountry
		metrics.GeocodeTier.WithLabelValues("country").Inc()
		return
	}
	log.Debug().Err(err).Str("query", country).Msg("country centroid miss")

	res.Coords = fallbackPoint
	res.Zoom = zoomCountry
	metrics.GeocodeTier.WithLabelValues("fallback").Inc()
}

func usableDescription(desc string) bool {
	d := strings.ToLower(strings.TrimSpace(desc))
	return d != "" && d != "unknown"
}

// countryName renders the country for a calling code, falling back to the
// bare +code when no region metadata exists.
func countryName(countryCode int) string {
	code := fmt.Sprintf("+%d", countryCode)
	rc := phonenumbers.GetRegionCodeForCountryCode(countryCode)
	if rc == "" || rc == phonenumbers.UNKNOWN_REGION {
		return code
	}
	region, err := language.ParseRegion(rc)
	if err != nil {
		return code
	}
	if name := display.English.Regions().Name(region); name != "" {
		return name
	}
	return code
}
