// Package di provides dependency injection configuration for the Sound
// Capsule server.
package di

import (
	"github.com/samber/do/v2"

	"github.com/purrytify/soundcapsule/internal/clock"
	"github.com/purrytify/soundcapsule/internal/config"
	"github.com/purrytify/soundcapsule/internal/di/providers"
	"github.com/purrytify/soundcapsule/internal/logger"
	"github.com/purrytify/soundcapsule/internal/service"
)

// NewContainer creates and configures the DI container with all providers.
func NewContainer() *do.RootScope {
	injector := do.New()

	// Core infrastructure
	do.Provide(injector, providers.ProvideConfig)
	do.Provide(injector, providers.ProvideLogger)
	do.Provide(injector, providers.ProvideClock)

	// Event and storage layer
	do.Provide(injector, providers.ProvideSSEManager)
	do.Provide(injector, providers.ProvideStore)

	// Analytics services
	do.Provide(injector, providers.ProvideStreakService)
	do.Provide(injector, providers.ProvideAggregatorService)
	do.Provide(injector, providers.ProvideTracker)
	do.Provide(injector, providers.ProvideQueryService)
	do.Provide(injector, providers.ProvideExportService)

	// Workers
	do.Provide(injector, providers.ProvideRetentionJob)

	// Server
	do.Provide(injector, providers.ProvideRateLimiter)
	do.Provide(injector, providers.ProvideHTTPServer)

	return injector
}

// Bootstrap initializes all services and returns once the server is up.
// This triggers lazy initialization of every provider.
func Bootstrap(injector *do.RootScope) error {
	_ = do.MustInvoke[*config.Config](injector)
	_ = do.MustInvoke[*logger.Logger](injector)
	_ = do.MustInvoke[clock.Clock](injector)
	_ = do.MustInvoke[*providers.SSEManagerHandle](injector)
	_ = do.MustInvoke[*providers.StoreHandle](injector)

	_ = do.MustInvoke[*service.StreakService](injector)
	_ = do.MustInvoke[*service.AggregatorService](injector)
	_ = do.MustInvoke[*providers.TrackerHandle](injector)
	_ = do.MustInvoke[*service.QueryService](injector)
	_ = do.MustInvoke[*service.ExportService](injector)

	_ = do.MustInvoke[*providers.RetentionJob](injector)

	_ = do.MustInvoke[*providers.RateLimiterHandle](injector)
	_ = do.MustInvoke[*providers.HTTPServerHandle](injector)

	return nil
}
