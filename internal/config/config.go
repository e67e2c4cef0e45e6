package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Port           int
	BaseURL        string // used for returning absolute share/live links
	PrefixData     string // CSV mapping India mobile prefixes to circles
	DefaultRegion  string // region assumed when input has no leading '+'
	NominatimURL   string
	IPAPIURL       string
	GeoIPDB        string // optional local MMDB; empty means HTTP lookup only
	GeocodeTimeout time.Duration
	IPGeoTimeout   time.Duration
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getint(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func getdur(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}

func Load() Config {
	_ = godotenv.Load()

	return Config{
		Port:           getint("PORT", 8080),
		BaseURL:        getenv("BASE_URL", ""),
		PrefixData:     getenv("PREFIX_DATA", "data/india_mobile_prefixes.csv"),
		DefaultRegion:  getenv("DEFAULT_REGION", "BD"),
		NominatimURL:   getenv("NOMINATIM_URL", "https://nominatim.openstreetmap.org/search"),
		IPAPIURL:       getenv("IPAPI_URL", "http://ip-api.com/json"),
		GeoIPDB:        getenv("GEOIP_DB", ""),
		GeocodeTimeout: getdur("GEOCODE_TIMEOUT", 10*time.Second),
		IPGeoTimeout:   getdur("IPGEO_TIMEOUT", 5*time.Second),
	}
}
