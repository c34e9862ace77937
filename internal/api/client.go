// Package api is the client for the Ruph Automations backend. Every call
// goes through a single request path that attaches the session headers and
// opportunistically persists rotated tokens found in responses.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/ruphautomations/ruphctl/internal/config"
	"github.com/ruphautomations/ruphctl/internal/domain"
	"github.com/ruphautomations/ruphctl/internal/observability"
	"github.com/ruphautomations/ruphctl/internal/session"
)

// SessionStore is what the client needs from the session layer: read the
// current session for headers, write back rotated token pairs, and persist
// the session created by login/register.
type SessionStore interface {
	Load() (*domain.Session, error)
	Save(sess *domain.Session) error
	UpdateTokens(pair session.TokenPair) error
}

// Error is the typed failure outcome of a backend call. Status is 0 when no
// response was received at all; Message carries the server's
// responseMessage when the response had one.
type Error struct {
	Status  int
	Message string
	cause   error
}

func (e *Error) Error() string {
	switch {
	case e.Status == 0 && e.cause != nil:
		return fmt.Sprintf("api: no response: %v", e.cause)
	case e.Message != "":
		return fmt.Sprintf("api: status %d: %s", e.Status, e.Message)
	default:
		return fmt.Sprintf("api: status %d", e.Status)
	}
}

func (e *Error) Unwrap() error { return e.cause }

// UserMessage picks the best message to show: the server's if it sent one,
// the caller's generic fallback otherwise.
func (e *Error) UserMessage(fallback string) string {
	if e.Message != "" {
		return e.Message
	}
	return fallback
}

type Client struct {
	base     string
	clientID string
	http     *http.Client
	store    SessionStore
	logger   *slog.Logger
	tracer   trace.Tracer
}

func NewClient(cfg *config.Config, store *session.Store, logger *slog.Logger) *Client {
	return &Client{
		base:     strings.TrimRight(cfg.APIBaseURL, "/"),
		clientID: cfg.ClientID,
		http: &http.Client{
			Transport: otelhttp.NewTransport(http.DefaultTransport),
			Timeout:   cfg.HTTPTimeout,
		},
		store:  store,
		logger: logger,
		tracer: otel.Tracer("ruphctl/api"),
	}
}

// envelope is the backend's uniform response shape.
type envelope struct {
	Response        json.RawMessage `json:"response"`
	ResponseMessage string          `json:"responseMessage"`
}

// rotatedTokens is decoded out of every successful response body; when both
// fields are present the pair is persisted before the call returns.
type rotatedTokens struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

// call performs one round trip and decodes the response envelope into out.
// It attaches the auth headers when a session exists, persists any rotated
// token pair before returning, and never retries.
func (c *Client) call(ctx context.Context, op, method, path string, body, out any) (string, error) {
	ctx, span := c.tracer.Start(ctx, "api."+op)
	defer span.End()
	span.SetAttributes(attribute.String("http.method", method))

	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return "", fmt.Errorf("encode %s request: %w", op, err)
		}
		reqBody = bytes.NewReader(data)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.base+path, reqBody)
	if err != nil {
		return "", fmt.Errorf("build %s request: %w", op, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Request-Id", uuid.NewString())
	if sess, err := c.store.Load(); err == nil {
		req.Header.Set("Authorization", "Bearer "+sess.AccessToken)
		req.Header.Set("email", sess.Email)
		req.Header.Set("client", c.clientID)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		observability.RecordAPIRequest(op, "transport_error", "none")
		c.logger.Warn("api request failed", "operation", op, "error", err)
		return "", &Error{Status: 0, cause: err}
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		observability.RecordAPIRequest(op, "transport_error", classifyStatusClass(resp.StatusCode))
		return "", &Error{Status: 0, cause: err}
	}

	var env envelope
	_ = json.Unmarshal(data, &env)

	if resp.StatusCode >= 400 {
		observability.RecordAPIRequest(op, "rejected", classifyStatusClass(resp.StatusCode))
		c.logger.Warn("api request rejected", "operation", op, "status", resp.StatusCode)
		return "", &Error{Status: resp.StatusCode, Message: env.ResponseMessage}
	}
	observability.RecordAPIRequest(op, "success", classifyStatusClass(resp.StatusCode))

	c.persistRotatedTokens(op, env.Response)

	if out != nil && len(env.Response) > 0 {
		if err := json.Unmarshal(env.Response, out); err != nil {
			return "", fmt.Errorf("decode %s response: %w", op, err)
		}
	}
	return env.ResponseMessage, nil
}

// persistRotatedTokens stores a fresh token pair embedded in a response.
// Rotation is opportunistic: half a pair is ignored, and a failed persist is
// logged but does not fail the call that carried it.
func (c *Client) persistRotatedTokens(op string, response json.RawMessage) {
	if len(response) == 0 {
		return
	}
	var rot rotatedTokens
	if err := json.Unmarshal(response, &rot); err != nil {
		return
	}
	if rot.AccessToken == "" || rot.RefreshToken == "" {
		return
	}
	err := c.store.UpdateTokens(session.TokenPair{
		AccessToken:  rot.AccessToken,
		RefreshToken: rot.RefreshToken,
	})
	if err != nil {
		if !errors.Is(err, session.ErrNoSession) {
			c.logger.Warn("persist rotated tokens", "operation", op, "error", err)
		}
		observability.RecordTokenRotation("error")
		return
	}
	observability.RecordTokenRotation("success")
	c.logger.Debug("rotated tokens persisted", "operation", op)
}

func classifyStatusClass(status int) string {
	switch {
	case status >= 200 && status < 300:
		return "2xx"
	case status >= 300 && status < 400:
		return "3xx"
	case status >= 400 && status < 500:
		return "4xx"
	case status >= 500 && status < 600:
		return "5xx"
	default:
		return "other"
	}
}
