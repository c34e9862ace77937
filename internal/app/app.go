package app

import (
	"log/slog"

	"github.com/ruphautomations/ruphctl/internal/api"
	"github.com/ruphautomations/ruphctl/internal/config"
	"github.com/ruphautomations/ruphctl/internal/device"
	"github.com/ruphautomations/ruphctl/internal/observability"
	"github.com/ruphautomations/ruphctl/internal/session"
)

// App bundles the wired client components handed to the CLI.
type App struct {
	Config    *config.Config
	Logger    *slog.Logger
	Store     *session.Store
	API       *api.Client
	Device    *device.Client
	Telemetry *observability.Runtime
}

func New(cfg *config.Config, rt *observability.Runtime, logger *slog.Logger, store *session.Store, apiClient *api.Client, deviceClient *device.Client) *App {
	return &App{
		Config:    cfg,
		Logger:    logger,
		Store:     store,
		API:       apiClient,
		Device:    deviceClient,
		Telemetry: rt,
	}
}

func ProvideLogger(rt *observability.Runtime) *slog.Logger {
	return rt.Logger
}

func ProvideSessionStore(cfg *config.Config) *session.Store {
	return session.NewStore(cfg.SessionFile)
}
