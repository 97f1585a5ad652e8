package providers

import (
	"context"
	"time"

	"github.com/samber/do/v2"

	"github.com/purrytify/soundcapsule/internal/clock"
	"github.com/purrytify/soundcapsule/internal/config"
	"github.com/purrytify/soundcapsule/internal/logger"
	"github.com/purrytify/soundcapsule/internal/service"
)

// RetentionJob runs periodic streak cleanup.
type RetentionJob struct {
	cancel context.CancelFunc
}

// Shutdown implements do.Shutdownable.
func (j *RetentionJob) Shutdown() error {
	j.cancel()
	return nil
}

// ProvideRetentionJob provides the periodic streak retention job.
// Cleanup runs once at startup and then on the configured interval.
func ProvideRetentionJob(i do.Injector) (*RetentionJob, error) {
	cfg := do.MustInvoke[*config.Config](i)
	storeHandle := do.MustInvoke[*StoreHandle](i)
	clk := do.MustInvoke[clock.Clock](i)
	log := do.MustInvoke[*logger.Logger](i)

	retention := service.NewRetentionService(storeHandle.Store, clk, cfg.Analytics.RetentionWindowDays, log.Logger)

	ctx, cancel := context.WithCancel(context.Background())

	go func() {
		ticker := time.NewTicker(cfg.Analytics.RetentionInterval)
		defer ticker.Stop()

		// Initial cleanup on startup
		if _, err := retention.DeleteStaleStreaks(ctx); err != nil {
			log.Warn("Initial streak cleanup failed", "error", err)
		}

		for {
			select {
			case <-ticker.C:
				if _, err := retention.DeleteStaleStreaks(ctx); err != nil {
					log.Warn("Streak cleanup failed", "error", err)
				}
			case <-ctx.Done():
				return
			}
		}
	}()

	log.Info("Streak retention job started",
		"window_days", cfg.Analytics.RetentionWindowDays,
		"interval", cfg.Analytics.RetentionInterval,
	)

	return &RetentionJob{cancel: cancel}, nil
}
