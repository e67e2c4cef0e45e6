package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/dbaidya811/phone-location-app/internal/config"
	"github.com/dbaidya811/phone-location-app/internal/core"
	"github.com/dbaidya811/phone-location-app/internal/geocode"
	httpapi "github.com/dbaidya811/phone-location-app/internal/http"
	"github.com/dbaidya811/phone-location-app/internal/ipgeo"
	"github.com/dbaidya811/phone-location-app/internal/phone"
	"github.com/dbaidya811/phone-location-app/internal/prefix"
	"github.com/dbaidya811/phone-location-app/internal/store"
)

func main() {
	// Fast JSON logs by default; pretty if running in a TTY/dev
	if isatty() {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	} else {
		zerolog.TimeFieldFormat = time.RFC3339
	}

	cfg := config.Load()

	var dataFlag string
	flag.StringVar(&dataFlag, "data", "", "prefix CSV path (overrides env PREFIX_DATA)")
	flag.Parse()
	if dataFlag != "" {
		cfg.PrefixData = dataFlag
	}

	prefixes := prefix.Load(cfg.PrefixData)
	log.Info().Int("prefixes", len(prefixes)).Msg("prefix table loaded")

	geocoder := geocode.NewClient(cfg.NominatimURL, cfg.GeocodeTimeout)

	var ipResolver ipgeo.Resolver = ipgeo.NewHTTPResolver(cfg.IPAPIURL, cfg.IPGeoTimeout)
	if cfg.GeoIPDB != "" {
		mmdb, err := ipgeo.OpenMMDB(cfg.GeoIPDB)
		if err != nil {
			log.Warn().Err(err).Str("path", cfg.GeoIPDB).Msg("geoip database unavailable, using HTTP lookup only")
		} else {
			defer mmdb.Close()
			ipResolver = ipgeo.Chain{mmdb, ipResolver}
		}
	}

	resolver := phone.NewResolver(prefixes, geocoder, cfg.DefaultRegion)
	svc := core.NewService(store.NewMemoryLive(), store.NewMemoryTrack(), resolver, ipResolver)

	// HTTP server
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           httpapi.NewRouter(cfg, svc),
		ReadHeaderTimeout: 5 * time.Second,
	}

	// Graceful shutdown
	go func() {
		log.Info().Int("port", cfg.Port).Msg("server starting")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("http server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("shutdown signal")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server shutdown")
	}
	log.Info().Msg("bye")
}

func isatty() bool {
	fi, err := os.Stderr.Stat()
	if err != nil {
		return false
	}
	return (fi.Mode() & os.ModeCharDevice) != 0
}
