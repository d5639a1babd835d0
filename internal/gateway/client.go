package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/learnhub-client/pkg/config"
	appErrors "github.com/noah-isme/learnhub-client/pkg/errors"
	"github.com/noah-isme/learnhub-client/pkg/metrics"
)

// Responses from the platform API are small JSON documents; anything beyond
// this on an error path is truncated before surfacing.
const maxErrorBody = 8 << 10

// Client translates domain operations into HTTP calls against the platform
// API and normalises transport failures into the error taxonomy.
type Client struct {
	baseURL  string
	http     *http.Client
	validate *validator.Validate
	logger   *zap.Logger
	metrics  *metrics.Metrics
}

// New constructs a gateway client with the configured fixed timeout.
func New(cfg config.APIConfig, validate *validator.Validate, logger *zap.Logger, m *metrics.Metrics) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		baseURL:  strings.TrimRight(cfg.BaseURL, "/"),
		http:     &http.Client{Timeout: timeout},
		validate: validate,
		logger:   logger,
		metrics:  m,
	}
}

// do issues a single request and decodes the response into dest when
// non-nil. Errors map onto the taxonomy: local failures before transmission
// are REQUEST_MISCONFIGURED, no-response failures (including timeouts) are
// NETWORK_UNAVAILABLE, and non-2xx responses are SERVER_REJECTED.
func (c *Client) do(ctx context.Context, operation, method, path, token string, payload, dest interface{}) error {
	var body io.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return appErrors.Wrap(err, appErrors.ErrRequestMisconfigured.Code, 0, "failed to encode request payload")
		}
		body = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrRequestMisconfigured.Code, 0, "failed to build request")
	}

	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", uuid.NewString())
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	duration := time.Since(start)
	if err != nil {
		c.metrics.ObserveRequest(operation, 0, duration)
		c.logger.Warn("no response from server",
			zap.String("operation", operation),
			zap.String("method", method),
			zap.String("path", path),
			zap.Error(err))
		return appErrors.Wrap(err, appErrors.ErrNetworkUnavailable.Code, 0, appErrors.ErrNetworkUnavailable.Message)
	}
	defer resp.Body.Close()

	c.metrics.ObserveRequest(operation, resp.StatusCode, duration)

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		c.logger.Warn("server rejected request",
			zap.String("operation", operation),
			zap.Int("status", resp.StatusCode))
		return appErrors.Rejected(resp.StatusCode, string(raw))
	}

	if dest != nil {
		if err := json.NewDecoder(resp.Body).Decode(dest); err != nil {
			return appErrors.Wrap(err, appErrors.ErrServerRejected.Code, resp.StatusCode, "failed to decode response body")
		}
	}

	return nil
}

// requireToken guards authenticated operations against a missing bearer
// credential. Callers are expected to short-circuit before reaching the
// gateway; hitting this is a programming error, not a transport failure.
func requireToken(token string) error {
	if token == "" {
		return appErrors.Clone(appErrors.ErrRequestMisconfigured, "missing bearer token")
	}
	return nil
}
