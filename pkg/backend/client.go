package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/nimeshabuddhika/payment-key-validator/pkg"
	"go.uber.org/zap"
)

// ValidateKeysPath is the verification endpoint checking the configured gateway credentials.
const ValidateKeysPath = "/api/payments/validate-keys"

// Config holds the connection details for the verification backend.
type Config struct {
	BaseURL       string
	Authorization string // full header value, e.g. "Bearer <token>"
}

// Reply is the raw outcome of a call that reached the backend.
type Reply struct {
	StatusCode int
	Body       []byte
}

// OK reports whether the status is in the 2xx range.
func (r *Reply) OK() bool {
	return r.StatusCode >= http.StatusOK && r.StatusCode < http.StatusMultipleChoices
}

// StatusError is returned by Post when the backend answered but the answer is not a usable verdict.
type StatusError struct {
	StatusCode int
	Body       []byte
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("verification backend responded with status %d", e.StatusCode)
}

// Client posts to the verification backend. It never retries or caches.
type Client struct {
	logger     *zap.Logger
	httpClient *http.Client
	baseURL    string
	auth       string
}

func NewClient(logger *zap.Logger, httpClient *http.Client, cfg Config) *Client {
	return &Client{
		logger:     logger,
		httpClient: httpClient,
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		auth:       cfg.Authorization,
	}
}

// Do issues one authenticated POST and returns whatever status and body came back.
// The error is non-nil only when no HTTP response was obtained.
func (c *Client) Do(ctx context.Context, path string) (*Reply, error) {
	url := c.baseURL + path
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, http.NoBody)
	if err != nil {
		return nil, pkg.NewAppError(pkg.ErrBackendUnreachableCode, "failed to build request", err)
	}
	req.Header.Set(pkg.HeaderContentType, pkg.ContentTypeJSON)
	if c.auth != "" {
		req.Header.Set(pkg.HeaderAuthorization, c.auth)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Warn("verification_request_failed", zap.String("url", url), zap.Error(err))
		return nil, pkg.NewAppError(pkg.ErrBackendUnreachableCode, "verification backend unreachable", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, pkg.NewAppError(pkg.ErrBackendUnreachableCode, "failed to read verification response", err)
	}

	c.logger.Debug("verification_response", zap.String("url", url), zap.Int(pkg.StatusCode, resp.StatusCode), zap.Int("bytes", len(body)))
	return &Reply{StatusCode: resp.StatusCode, Body: body}, nil
}

// Post is Do with the stricter interactive contract: a non-2xx status or a 2xx body
// that is not JSON becomes a *StatusError (wrapped in an AppError) carrying the body.
func (c *Client) Post(ctx context.Context, path string) (*Reply, error) {
	reply, err := c.Do(ctx, path)
	if err != nil {
		return nil, err
	}
	if !reply.OK() {
		return nil, pkg.NewAppError(pkg.ErrBackendStatusCode, "verification backend rejected the request",
			&StatusError{StatusCode: reply.StatusCode, Body: reply.Body})
	}
	if len(bytes.TrimSpace(reply.Body)) > 0 && !json.Valid(reply.Body) {
		return nil, pkg.NewAppError(pkg.ErrBackendBodyCode, pkg.ErrMalformedBody.Error(),
			&StatusError{StatusCode: reply.StatusCode, Body: reply.Body})
	}
	return reply, nil
}
