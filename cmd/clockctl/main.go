// clockctl clocks in and out against the local attendance store.
package main

import (
	"context"
	"fmt"
	"os"

	"clockout.service/internal/config"
	"clockout.service/internal/core"
	"clockout.service/internal/ports/messaging"
	"clockout.service/internal/ports/repository"
	"clockout.service/internal/ports/timesource"
)

func main() {
	if err := newRootCmd(openService).Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// openService builds the attendance flow from the environment. Events are
// not published: the CLI works without AWS.
func openService(ctx context.Context) (*core.AttendanceService, func() error, error) {
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, nil, fmt.Errorf("could not load configuration: %w", err)
	}
	loc, err := cfg.Location()
	if err != nil {
		return nil, nil, err
	}

	clock, err := timesource.New(cfg)
	if err != nil {
		return nil, nil, err
	}

	repo, err := repository.Open(ctx, cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("could not open attendance store: %w", err)
	}

	return core.NewAttendanceService(repo, clock, messaging.NopPublisher{}, loc), repo.Close, nil
}
