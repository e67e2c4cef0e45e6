package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	Lookups = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "phone_lookups_total",
		Help: "Total phone number lookup requests.",
	})
	InvalidNumbers = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "phone_lookups_invalid_total",
		Help: "Lookups rejected for invalid numbers.",
	})
	GeocodeTier = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "geocode_results_by_tier_total",
		Help: "Coordinate resolutions by fallback tier.",
	}, []string{"tier"})
	LiveReports = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "live_reports_total",
		Help: "GPS positions reported to live tokens.",
	})
	TrackHits = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "track_hits_total",
		Help: "Short link hits by geolocation outcome.",
	}, []string{"outcome"})
	Redirects = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "redirect_requests_total",
		Help: "Total short link redirect requests.",
	})
)

func init() {
	prometheus.MustRegister(Lookups, InvalidNumbers, GeocodeTier, LiveReports, TrackHits, Redirects)
}

func Handler(w http.ResponseWriter, r *http.Request) {
	promhttp.Handler().ServeHTTP(w, r)
}
