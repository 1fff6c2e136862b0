package app

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/nimeshabuddhika/payment-key-validator/pkg"
	"github.com/nimeshabuddhika/payment-key-validator/pkg/backend"
	"github.com/nimeshabuddhika/payment-key-validator/pkg/utils"
	"github.com/nimeshabuddhika/payment-key-validator/services/validate-keys/configs"
	"go.uber.org/zap"
)

// Exit codes of the validate-keys tool.
const (
	ExitOK                = 0
	ExitEndpointFailure   = 1
	ExitMissingCredential = 2
	ExitTransportFailure  = 3
)

// Doer sends the raw verification request.
type Doer interface {
	Do(ctx context.Context, path string) (*backend.Reply, error)
}

// Execute loads configuration from the environment, performs one request and returns the exit code.
func Execute(ctx context.Context, logger *zap.Logger, stdout, stderr io.Writer) int {
	cfg, err := configs.Load(logger)
	if err != nil {
		if errors.Is(err, pkg.ErrMissingCredential) {
			fmt.Fprintln(stderr, `Missing AUTH_TOKEN env var. Set AUTH_TOKEN="Bearer <token>"`)
		} else {
			fmt.Fprintln(stderr, "Invalid configuration:", err)
		}
		return ExitMissingCredential
	}

	client := backend.NewClient(logger, newHTTPClient(), backend.Config{
		BaseURL:       cfg.APIURL,
		Authorization: cfg.AuthToken,
	})
	return Run(ctx, client, stdout, stderr)
}

// newHTTPClient waits as long as the endpoint takes; only the dial and TLS handshake are bounded.
func newHTTPClient() *http.Client {
	return utils.NewHTTPClient(utils.WithNoDeadline())
}

// Run reports the raw status and body. It does not classify the verdict: any 2xx is a pass.
func Run(ctx context.Context, client Doer, stdout, stderr io.Writer) int {
	reply, err := client.Do(ctx, backend.ValidateKeysPath)
	if err != nil {
		fmt.Fprintln(stderr, "Request failed:", err)
		return ExitTransportFailure
	}

	fmt.Fprintln(stdout, "Status:", reply.StatusCode)
	fmt.Fprintln(stdout, "Response:", formatBody(reply.Body))
	if reply.OK() {
		return ExitOK
	}
	return ExitEndpointFailure
}

// formatBody indents a JSON body and prints a JSON string unquoted; anything else is
// printed as received.
func formatBody(body []byte) string {
	if !json.Valid(body) {
		return string(body)
	}
	var text string
	if err := json.Unmarshal(body, &text); err == nil {
		return text
	}
	var buf bytes.Buffer
	if err := json.Indent(&buf, body, "", "  "); err != nil {
		return string(body)
	}
	return buf.String()
}
