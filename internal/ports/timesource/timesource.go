// Package timesource supplies the authoritative "now" used to stamp clock-in
// and clock-out. The local device clock is not trusted by default.
package timesource

import (
	"context"
	"errors"
	"fmt"
	"time"

	"clockout.service/internal/config"
	"github.com/rs/zerolog/log"
	"github.com/sony/gobreaker"
)

// ErrUnavailable is wrapped by every failure to obtain the current time.
var ErrUnavailable = errors.New("time source unavailable")

// Source contract for anything that can tell the current time.
type Source interface {
	Now(ctx context.Context) (time.Time, error)
}

// New builds the Source selected by TIME_SOURCE.
func New(cfg config.Config) (Source, error) {
	loc, err := cfg.Location()
	if err != nil {
		return nil, err
	}

	switch cfg.TimeSource {
	case config.TimeSourceSystem:
		log.Warn().Msg("Using the local system clock as time source.")
		return SystemClock{Location: loc}, nil
	case config.TimeSourceHTTP:
		return NewBreakerSource(NewHTTPClient(cfg.TimeSourceURL, cfg.TimeSourceTimeout, loc)), nil
	default:
		return nil, fmt.Errorf("unknown time source %q", cfg.TimeSource)
	}
}

// SystemClock implements Source using the local clock.
type SystemClock struct {
	Location *time.Location
}

func (c SystemClock) Now(context.Context) (time.Time, error) {
	return time.Now().In(c.Location).Truncate(time.Second), nil
}

// BreakerSource guards a remote Source with a circuit breaker so a failing
// endpoint is not hammered by repeated clicks.
type BreakerSource struct {
	source Source
	cb     *gobreaker.CircuitBreaker
}

// NewBreakerSource wraps source. The breaker opens after five consecutive
// failures and probes again after 30 seconds.
func NewBreakerSource(source Source) *BreakerSource {
	settings := gobreaker.Settings{
		Name:        "Time-Source",
		MaxRequests: 1,
		Interval:    60 * time.Second,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Warn().Str("breaker", name).Str("from", from.String()).Str("to", to.String()).Msg("Circuit breaker state changed")
		},
	}

	return &BreakerSource{
		source: source,
		cb:     gobreaker.NewCircuitBreaker(settings),
	}
}

func (b *BreakerSource) Now(ctx context.Context) (time.Time, error) {
	v, err := b.cb.Execute(func() (interface{}, error) {
		return b.source.Now(ctx)
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return time.Time{}, fmt.Errorf("%w: %w", ErrUnavailable, err)
		}
		return time.Time{}, err
	}
	return v.(time.Time), nil
}
