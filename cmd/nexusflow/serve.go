package main

import (
	"context"
	"errors"

	"github.com/spf13/cobra"

	"nexusflow/internal/heatmap"
	"nexusflow/internal/logging"
	"nexusflow/internal/refresh"
	"nexusflow/internal/web"
	"nexusflow/pkg/model"
)

func runServe(cmd *cobra.Command, args []string) error {
	a, err := newApp(cmd, true)
	if err != nil {
		return err
	}

	ctx, cancel := signalContext()
	defer cancel()

	var refresher *refresh.Refresher
	if !noRefresh {
		refresher, err = refresh.New(refresh.Config{
			Schedule:       a.cfg.Refresh.Schedule,
			Scanner:        a.scanner,
			Watchlist:      a.watchlist,
			Provider:       a.cache,
			HeatmapWorkers: a.cfg.Scanner.Workers,
			Cache:          a.cache,
			Metrics:        a.metrics,
			Logger:         logging.Component(a.logger, "refresh"),
		})
		if err != nil {
			return err
		}

		go func() {
			if _, err := refresher.RunNow(ctx); err != nil {
				a.logger.Error().Err(err).Msg("initial refresh failed")
			}
		}()
		refresher.Start()
	}

	srv := web.NewServer(web.Deps{
		Scanner:        a.scanner,
		Watchlist:      a.watchlist,
		Provider:       a.provider,
		Refresher:      refresher,
		Metrics:        a.metrics,
		HeatmapWorkers: a.cfg.Scanner.Workers,
		Logger:         logging.Component(a.logger, "web"),
	})

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start(a.cfg.Web.Port)
	}()

	select {
	case err = <-errCh:
	case <-ctx.Done():
		a.logger.Info().Msg("shutting down")
	}

	shutdownCtx, stop := context.WithTimeout(context.Background(), shutdownTimeout)
	defer stop()
	if refresher != nil {
		refresher.Stop(shutdownCtx)
	}
	if shutdownErr := srv.Shutdown(shutdownCtx); shutdownErr != nil {
		err = errors.Join(err, shutdownErr)
	}
	return err
}

// buildHeatmap fetches the daily change for every symbol
func buildHeatmap(ctx context.Context, a *app, symbols []string) *model.Heatmap {
	return heatmap.Build(ctx, a.cache, symbols, a.cfg.Scanner.Workers)
}
