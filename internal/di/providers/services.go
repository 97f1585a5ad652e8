package providers

import (
	"context"
	"path/filepath"

	"github.com/samber/do/v2"

	"github.com/purrytify/soundcapsule/internal/clock"
	"github.com/purrytify/soundcapsule/internal/config"
	"github.com/purrytify/soundcapsule/internal/logger"
	"github.com/purrytify/soundcapsule/internal/service"
)

// ProvideStreakService provides the streak accounting service.
func ProvideStreakService(i do.Injector) (*service.StreakService, error) {
	storeHandle := do.MustInvoke[*StoreHandle](i)
	sseHandle := do.MustInvoke[*SSEManagerHandle](i)
	clk := do.MustInvoke[clock.Clock](i)
	log := do.MustInvoke[*logger.Logger](i)

	return service.NewStreakService(storeHandle.Store, sseHandle.Manager, clk, log.Logger), nil
}

// ProvideAggregatorService provides the monthly summary recomputation service.
func ProvideAggregatorService(i do.Injector) (*service.AggregatorService, error) {
	storeHandle := do.MustInvoke[*StoreHandle](i)
	sseHandle := do.MustInvoke[*SSEManagerHandle](i)
	clk := do.MustInvoke[clock.Clock](i)
	log := do.MustInvoke[*logger.Logger](i)

	return service.NewAggregatorService(storeHandle.Store, sseHandle.Manager, clk, log.Logger), nil
}

// TrackerHandle wraps the playback tracker with shutdown capability.
// Shutting down flushes every open session to the store.
type TrackerHandle struct {
	*service.Tracker
}

// Shutdown implements do.Shutdownable.
func (h *TrackerHandle) Shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return h.Tracker.Shutdown(ctx)
}

// ProvideTracker provides the playback session tracker.
func ProvideTracker(i do.Injector) (*TrackerHandle, error) {
	storeHandle := do.MustInvoke[*StoreHandle](i)
	sseHandle := do.MustInvoke[*SSEManagerHandle](i)
	streaks := do.MustInvoke[*service.StreakService](i)
	aggregator := do.MustInvoke[*service.AggregatorService](i)
	clk := do.MustInvoke[clock.Clock](i)
	log := do.MustInvoke[*logger.Logger](i)

	tracker := service.NewTracker(storeHandle.Store, streaks, aggregator, sseHandle.Manager, clk, log.Logger)

	log.Info("Playback tracker started")

	return &TrackerHandle{Tracker: tracker}, nil
}

// ProvideQueryService provides the analytics read service.
func ProvideQueryService(i do.Injector) (*service.QueryService, error) {
	storeHandle := do.MustInvoke[*StoreHandle](i)
	sseHandle := do.MustInvoke[*SSEManagerHandle](i)
	clk := do.MustInvoke[clock.Clock](i)
	log := do.MustInvoke[*logger.Logger](i)

	return service.NewQueryService(storeHandle.Store, sseHandle.Manager, clk, log.Logger), nil
}

// ProvideExportService provides the CSV report exporter. Reports saved
// server-side land in an exports directory next to the database.
func ProvideExportService(i do.Injector) (*service.ExportService, error) {
	cfg := do.MustInvoke[*config.Config](i)
	query := do.MustInvoke[*service.QueryService](i)
	clk := do.MustInvoke[clock.Clock](i)
	log := do.MustInvoke[*logger.Logger](i)

	exportDir := filepath.Join(filepath.Dir(cfg.Database.Path), "exports")
	sink := service.NewFileSink(exportDir)

	return service.NewExportService(query, sink, clk, log.Logger), nil
}
