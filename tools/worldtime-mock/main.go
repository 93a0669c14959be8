// worldtime-mock stands in for the world-time endpoint during local runs.
package main

import (
	"encoding/json"
	"flag"
	"math/rand"
	"net/http"
	"os"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

type worldTime struct {
	Datetime string `json:"datetime"`
	Timezone string `json:"timezone"`
}

func main() {
	addr := flag.String("addr", ":8081", "listen address")
	zone := flag.String("zone", "Asia/Shanghai", "zone the datetime is reported in")
	fixed := flag.String("fixed", "", "always report this clock time (HH:MM:SS) on today's date")
	failRate := flag.Float64("fail-rate", 0, "fraction of requests answered with 503")
	delay := flag.Duration("delay", 0, "delay before answering, to exercise client timeouts")
	flag.Parse()

	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})

	loc, err := time.LoadLocation(*zone)
	if err != nil {
		log.Fatal().Err(err).Msg("Unknown zone")
	}

	var fixedTOD time.Time
	if *fixed != "" {
		if fixedTOD, err = time.Parse(time.TimeOnly, *fixed); err != nil {
			log.Fatal().Err(err).Msg("Invalid --fixed, want HH:MM:SS")
		}
	}

	handler := func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(*delay)
		if rand.Float64() < *failRate {
			log.Warn().Msg("Injected failure")
			http.Error(w, "unavailable", http.StatusServiceUnavailable)
			return
		}

		now := time.Now().In(loc)
		if *fixed != "" {
			now = time.Date(now.Year(), now.Month(), now.Day(), fixedTOD.Hour(), fixedTOD.Minute(), fixedTOD.Second(), 0, loc)
		}

		log.Info().Time("now", now).Msg("Served time")
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(worldTime{Datetime: now.Format(time.RFC3339Nano), Timezone: loc.String()})
	}

	r := mux.NewRouter()
	r.HandleFunc("/api/timezone/{area}/{city}", handler).Methods(http.MethodGet)
	r.HandleFunc("/", handler).Methods(http.MethodGet)

	log.Info().Str("addr", *addr).Msg("World time mock server starting")
	log.Fatal().Err(http.ListenAndServe(*addr, r)).Msg("listen")
}
