package config

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"time"
)

const (
	defaultAPIBaseURL    = "https://api.ruphautomations.xyz/api/v1"
	defaultDeviceBaseURL = "https://andrew-5d2ad-default-rtdb.firebaseio.com/devices/ESP32_B41B3A124B00"
	defaultHTTPTimeout   = 20 * time.Second
	defaultClientID      = "mobile"
	defaultServiceName   = "ruphctl"
)

type Config struct {
	// APIBaseURL is the backend root, including the /api/v1 prefix.
	APIBaseURL string
	// DeviceBaseURL is the shared realtime read root for live relay state.
	// Per-circuit control endpoints come from the controller record instead.
	DeviceBaseURL string
	// SessionFile is where the persisted session record lives.
	SessionFile string
	// ClientID is sent as the `client` header on every authenticated call.
	ClientID    string
	HTTPTimeout time.Duration

	TelemetryEnabled      bool
	OTLPEndpoint          string
	OTLPInsecure          bool
	ServiceName           string
	Environment           string
	MetricsExportInterval time.Duration
}

// Load builds the configuration from the environment. RUPHCTL_ENV_FILE may
// name an env file loaded first; variables already set in the environment
// always win over file contents.
func Load() (*Config, error) {
	cfg, err := load()
	recordConfigValidationEvent(context.Background(), outcomeOf(err), classifyConfigLoadError(err))
	return cfg, err
}

func load() (*Config, error) {
	if err := LoadEnvFile(os.Getenv("RUPHCTL_ENV_FILE")); err != nil {
		return nil, err
	}

	sessionFile := os.Getenv("RUPHCTL_SESSION_FILE")
	if sessionFile == "" {
		dir, err := os.UserConfigDir()
		if err != nil {
			return nil, fmt.Errorf("resolve config dir: %w", err)
		}
		sessionFile = filepath.Join(dir, "ruphctl", "session.json")
	}

	timeout, err := envDuration("RUPHCTL_HTTP_TIMEOUT", defaultHTTPTimeout)
	if err != nil {
		return nil, err
	}
	exportInterval, err := envDuration("RUPHCTL_OTEL_METRICS_EXPORT_INTERVAL", 30*time.Second)
	if err != nil {
		return nil, err
	}
	telemetry, err := envBool("RUPHCTL_TELEMETRY", false)
	if err != nil {
		return nil, err
	}
	otlpInsecure, err := envBool("RUPHCTL_OTLP_INSECURE", true)
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		APIBaseURL:            envOr("RUPHCTL_API_BASE_URL", defaultAPIBaseURL),
		DeviceBaseURL:         envOr("RUPHCTL_DEVICE_BASE_URL", defaultDeviceBaseURL),
		SessionFile:           sessionFile,
		ClientID:              envOr("RUPHCTL_CLIENT_ID", defaultClientID),
		HTTPTimeout:           timeout,
		TelemetryEnabled:      telemetry,
		OTLPEndpoint:          envOr("RUPHCTL_OTLP_ENDPOINT", "localhost:4317"),
		OTLPInsecure:          otlpInsecure,
		ServiceName:           envOr("RUPHCTL_OTEL_SERVICE_NAME", defaultServiceName),
		Environment:           envOr("RUPHCTL_ENVIRONMENT", "dev"),
		MetricsExportInterval: exportInterval,
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	for name, raw := range map[string]string{
		"RUPHCTL_API_BASE_URL":    c.APIBaseURL,
		"RUPHCTL_DEVICE_BASE_URL": c.DeviceBaseURL,
	} {
		u, err := url.Parse(raw)
		if err != nil || u.Scheme == "" || u.Host == "" {
			return fmt.Errorf("validate config: %s must be an absolute URL, got %q", name, raw)
		}
	}
	if c.HTTPTimeout <= 0 {
		return fmt.Errorf("validate config: RUPHCTL_HTTP_TIMEOUT must be positive")
	}
	if c.TelemetryEnabled && c.OTLPEndpoint == "" {
		return fmt.Errorf("validate config: RUPHCTL_OTLP_ENDPOINT is required when telemetry is enabled")
	}
	return nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) (time.Duration, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("parse %s: %w", key, err)
	}
	return d, nil
}

func envBool(key string, fallback bool) (bool, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback, nil
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return false, fmt.Errorf("parse %s: %w", key, err)
	}
	return v, nil
}

func outcomeOf(err error) string {
	if err == nil {
		return "success"
	}
	return "error"
}
