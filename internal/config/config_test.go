package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func clearRuphctlEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"RUPHCTL_ENV_FILE",
		"RUPHCTL_API_BASE_URL",
		"RUPHCTL_DEVICE_BASE_URL",
		"RUPHCTL_SESSION_FILE",
		"RUPHCTL_CLIENT_ID",
		"RUPHCTL_HTTP_TIMEOUT",
		"RUPHCTL_TELEMETRY",
		"RUPHCTL_OTLP_ENDPOINT",
		"RUPHCTL_OTLP_INSECURE",
	} {
		t.Setenv(key, "")
		_ = os.Unsetenv(key)
	}
}

func TestLoadDefaults(t *testing.T) {
	clearRuphctlEnv(t)
	t.Setenv("RUPHCTL_SESSION_FILE", filepath.Join(t.TempDir(), "session.json"))

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if cfg.APIBaseURL != defaultAPIBaseURL {
		t.Fatalf("unexpected api base url %q", cfg.APIBaseURL)
	}
	if cfg.ClientID != "mobile" {
		t.Fatalf("unexpected client id %q", cfg.ClientID)
	}
	if cfg.HTTPTimeout != defaultHTTPTimeout {
		t.Fatalf("unexpected timeout %v", cfg.HTTPTimeout)
	}
	if cfg.TelemetryEnabled {
		t.Fatal("telemetry should default to off")
	}
}

func TestLoadRejectsRelativeBaseURL(t *testing.T) {
	clearRuphctlEnv(t)
	t.Setenv("RUPHCTL_SESSION_FILE", filepath.Join(t.TempDir(), "session.json"))
	t.Setenv("RUPHCTL_API_BASE_URL", "not-a-url")

	if _, err := Load(); err == nil {
		t.Fatal("expected validation error for relative base url")
	} else if got := classifyConfigLoadError(err); got != "validation" {
		t.Fatalf("error class=%q want validation", got)
	}
}

func TestLoadParsesTimeout(t *testing.T) {
	clearRuphctlEnv(t)
	t.Setenv("RUPHCTL_SESSION_FILE", filepath.Join(t.TempDir(), "session.json"))
	t.Setenv("RUPHCTL_HTTP_TIMEOUT", "5s")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if cfg.HTTPTimeout != 5*time.Second {
		t.Fatalf("timeout=%v want 5s", cfg.HTTPTimeout)
	}

	t.Setenv("RUPHCTL_HTTP_TIMEOUT", "banana")
	if _, err := Load(); err == nil {
		t.Fatal("expected parse error")
	} else if got := classifyConfigLoadError(err); got != "parse" {
		t.Fatalf("error class=%q want parse", got)
	}
}

func TestClassifyConfigLoadError(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want string
	}{
		{name: "none", err: nil, want: "none"},
		{name: "validation", err: errors.New("validate config: RUPHCTL_API_BASE_URL must be an absolute URL"), want: "validation"},
		{name: "parse", err: errors.New("parse RUPHCTL_HTTP_TIMEOUT: invalid duration"), want: "parse"},
		{name: "env_file", err: errors.New("open env file: permission denied"), want: "env_file"},
		{name: "other", err: errors.New("some other load error"), want: "load"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := classifyConfigLoadError(tc.err); got != tc.want {
				t.Fatalf("classifyConfigLoadError()=%q want %q", got, tc.want)
			}
		})
	}
}
