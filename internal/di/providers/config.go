package providers

import (
	"github.com/samber/do/v2"

	"github.com/purrytify/soundcapsule/internal/clock"
	"github.com/purrytify/soundcapsule/internal/config"
	"github.com/purrytify/soundcapsule/internal/logger"
)

// ProvideConfig provides the application configuration.
func ProvideConfig(i do.Injector) (*config.Config, error) {
	return config.LoadConfig()
}

// ProvideLogger provides the structured logger.
func ProvideLogger(i do.Injector) (*logger.Logger, error) {
	cfg := do.MustInvoke[*config.Config](i)

	log := logger.New(logger.Config{
		Level:       logger.ParseLevel(cfg.Logger.Level),
		AddSource:   cfg.App.Environment == "development",
		Environment: cfg.App.Environment,
	})

	log.Info("Starting Sound Capsule Server",
		"environment", cfg.App.Environment,
		"log_level", cfg.Logger.Level,
		"db_path", cfg.Database.Path,
		"timezone", cfg.Analytics.Timezone,
	)

	return log, nil
}

// ProvideClock provides the calendar clock in the configured timezone.
// All day and month bucketing flows through this one clock.
func ProvideClock(i do.Injector) (clock.Clock, error) {
	cfg := do.MustInvoke[*config.Config](i)
	return clock.NewSystem(cfg.Location()), nil
}
