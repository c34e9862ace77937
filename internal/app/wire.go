//go:build wireinject
// +build wireinject

package app

import (
	"context"

	"github.com/google/wire"

	"github.com/ruphautomations/ruphctl/internal/api"
	"github.com/ruphautomations/ruphctl/internal/config"
	"github.com/ruphautomations/ruphctl/internal/device"
	"github.com/ruphautomations/ruphctl/internal/observability"
)

// Initialize assembles the client: config, telemetry runtime, session
// store, API client and device client.
func Initialize(ctx context.Context) (*App, func(), error) {
	wire.Build(
		config.Load,
		observability.NewRuntime,
		ProvideLogger,
		ProvideSessionStore,
		api.NewClient,
		device.NewClient,
		New,
	)
	return nil, nil, nil
}
