// Package device talks to a controller's realtime store directly, outside
// the backend identity system: one shared read endpoint for live relay
// state, one write endpoint per circuit.
package device

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/ruphautomations/ruphctl/internal/config"
	"github.com/ruphautomations/ruphctl/internal/domain"
	"github.com/ruphautomations/ruphctl/internal/observability"
)

// The ESP32 firmware currently reports and accepts relay values inverted
// relative to the switch position shown to the user: raw 1 means the switch
// reads "off". DisplayFromRaw and RawFromDisplay are the only two places
// that know; delete both (and their call sites keep working on identity)
// once the firmware is corrected.

// DisplayFromRaw maps a stored relay value to the switch position shown.
func DisplayFromRaw(raw bool) bool { return !raw }

// RawFromDisplay maps a requested switch position to the relay value sent.
func RawFromDisplay(display bool) bool { return !display }

// Bit decodes the realtime store's relay values, which appear as 0/1 or as
// booleans depending on what last wrote them.
type Bit bool

func (b *Bit) UnmarshalJSON(data []byte) error {
	switch strings.TrimSpace(string(data)) {
	case "0", "false":
		*b = false
	case "1", "true":
		*b = true
	default:
		return fmt.Errorf("relay value %q is not 0/1 or a boolean", data)
	}
	return nil
}

func (b Bit) MarshalJSON() ([]byte, error) {
	if b {
		return []byte("1"), nil
	}
	return []byte("0"), nil
}

type liveRecord struct {
	Relay1 Bit `json:"relay1"`
	Relay2 Bit `json:"relay2"`
	Relay3 Bit `json:"relay3"`
	Relay4 Bit `json:"relay4"`
}

// DisplayState holds the switch positions for circuits 1..4, indexed by
// circuit-1, already mapped through the inversion rule.
type DisplayState [domain.NumCircuits]bool

type Client struct {
	readRoot string
	http     *http.Client
	logger   *slog.Logger
}

func NewClient(cfg *config.Config, logger *slog.Logger) *Client {
	return &Client{
		readRoot: strings.TrimRight(cfg.DeviceBaseURL, "/"),
		http: &http.Client{
			Transport: otelhttp.NewTransport(http.DefaultTransport),
			Timeout:   cfg.HTTPTimeout,
		},
		logger: logger,
	}
}

// ReadLiveState fetches the shared relays record and returns the display
// state for all four circuits. An absent record (HTTP 404 or a null body)
// is not an error: found is false and the caller keeps its prior state.
func (c *Client) ReadLiveState(ctx context.Context) (state DisplayState, found bool, err error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.readRoot+"/relays.json", nil)
	if err != nil {
		return state, false, fmt.Errorf("build live state request: %w", err)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return state, false, fmt.Errorf("read live state: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode == http.StatusNotFound {
		return state, false, nil
	}
	if resp.StatusCode != http.StatusOK {
		return state, false, fmt.Errorf("read live state: status %d", resp.StatusCode)
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return state, false, fmt.Errorf("read live state: %w", err)
	}
	if strings.TrimSpace(string(data)) == "null" {
		return state, false, nil
	}
	var rec liveRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return state, false, fmt.Errorf("decode live state: %w", err)
	}
	raws := [domain.NumCircuits]Bit{rec.Relay1, rec.Relay2, rec.Relay3, rec.Relay4}
	for i, raw := range raws {
		state[i] = DisplayFromRaw(bool(raw))
	}
	return state, true, nil
}

// Toggle PATCHes one circuit's endpoint with the raw relay value for the
// requested switch position. Only an HTTP 200 means the device accepted the
// write; on any other outcome the caller must leave its local state
// untouched. Circuits are fully independent: there is no batching.
func (c *Client) Toggle(ctx context.Context, endpoint string, circuit int, displayOn bool) error {
	if circuit < 1 || circuit > domain.NumCircuits {
		return fmt.Errorf("circuit %d out of range 1..%d", circuit, domain.NumCircuits)
	}
	if endpoint == "" {
		return fmt.Errorf("circuit %d has no endpoint", circuit)
	}
	body, err := json.Marshal(map[string]Bit{
		fmt.Sprintf("relay%d", circuit): Bit(RawFromDisplay(displayOn)),
	})
	if err != nil {
		return fmt.Errorf("encode toggle: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPatch, endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build toggle request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := c.http.Do(req)
	if err != nil {
		observability.RecordRelayToggle(circuit, "transport_error")
		c.logger.Warn("toggle failed", "circuit", circuit, "error", err)
		return fmt.Errorf("toggle circuit %d: %w", circuit, err)
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode != http.StatusOK {
		observability.RecordRelayToggle(circuit, "rejected")
		c.logger.Warn("toggle rejected", "circuit", circuit, "status", resp.StatusCode)
		return fmt.Errorf("toggle circuit %d: status %d", circuit, resp.StatusCode)
	}
	observability.RecordRelayToggle(circuit, "success")
	return nil
}
