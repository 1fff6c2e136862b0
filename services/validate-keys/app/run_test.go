package app

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/nimeshabuddhika/payment-key-validator/pkg/backend"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

type fakeEndpoint struct {
	*httptest.Server
	calls int32
}

func newFakeEndpoint(t *testing.T, status int, body string) *fakeEndpoint {
	t.Helper()
	f := &fakeEndpoint{}
	f.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&f.calls, 1)
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, backend.ValidateKeysPath, r.URL.Path)
		assert.Equal(t, "Bearer cli-token", r.Header.Get("Authorization"))
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(f.Close)
	return f
}

func execute(t *testing.T) (int, string, string) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	code := Execute(context.Background(), zap.NewNop(), &stdout, &stderr)
	return code, stdout.String(), stderr.String()
}

func TestExecute_MissingTokenMakesNoRequest(t *testing.T) {
	endpoint := newFakeEndpoint(t, http.StatusOK, `{"success":true}`)
	t.Setenv("API_URL", endpoint.URL)
	t.Setenv("AUTH_TOKEN", "")

	code, stdout, stderr := execute(t)

	assert.Equal(t, ExitMissingCredential, code)
	assert.Empty(t, stdout)
	assert.Contains(t, stderr, "Missing AUTH_TOKEN env var")
	assert.Equal(t, int32(0), atomic.LoadInt32(&endpoint.calls))
}

func TestExecute_Success(t *testing.T) {
	endpoint := newFakeEndpoint(t, http.StatusOK, `{"success":true}`)
	t.Setenv("API_URL", endpoint.URL)
	t.Setenv("AUTH_TOKEN", "Bearer cli-token")

	code, stdout, stderr := execute(t)

	assert.Equal(t, ExitOK, code)
	assert.Empty(t, stderr)
	assert.Contains(t, stdout, "Status: 200\n")
	assert.Contains(t, stdout, "Response: {\n  \"success\": true\n}\n")
	assert.Equal(t, int32(1), atomic.LoadInt32(&endpoint.calls))
}

func TestExecute_SuccessStatusIgnoresVerdict(t *testing.T) {
	endpoint := newFakeEndpoint(t, http.StatusOK, `{"success":false,"percent":0}`)
	t.Setenv("API_URL", endpoint.URL)
	t.Setenv("AUTH_TOKEN", "Bearer cli-token")

	code, _, _ := execute(t)

	assert.Equal(t, ExitOK, code)
}

func TestExecute_EndpointFailureWithTextBody(t *testing.T) {
	endpoint := newFakeEndpoint(t, http.StatusUnauthorized, "unauthorized")
	t.Setenv("API_URL", endpoint.URL)
	t.Setenv("AUTH_TOKEN", "Bearer cli-token")

	code, stdout, _ := execute(t)

	assert.Equal(t, ExitEndpointFailure, code)
	assert.Equal(t, "Status: 401\nResponse: unauthorized\n", stdout)
}

func TestExecute_ConnectionRefused(t *testing.T) {
	dead := httptest.NewServer(http.NotFoundHandler())
	url := dead.URL
	dead.Close()
	t.Setenv("API_URL", url)
	t.Setenv("AUTH_TOKEN", "Bearer cli-token")

	code, stdout, stderr := execute(t)

	assert.Equal(t, ExitTransportFailure, code)
	assert.Empty(t, stdout)
	assert.True(t, strings.HasPrefix(stderr, "Request failed: "))
	assert.Contains(t, stderr, "connection refused")
}

type stubDoer struct {
	reply *backend.Reply
	err   error
}

func (s stubDoer) Do(context.Context, string) (*backend.Reply, error) {
	return s.reply, s.err
}

func TestRun_ServerErrorWithJSONBody(t *testing.T) {
	var stdout, stderr bytes.Buffer

	code := Run(context.Background(), stubDoer{reply: &backend.Reply{StatusCode: 500, Body: []byte(`{"error":"razorpay down"}`)}}, &stdout, &stderr)

	assert.Equal(t, ExitEndpointFailure, code)
	assert.Equal(t, "Status: 500\nResponse: {\n  \"error\": \"razorpay down\"\n}\n", stdout.String())
}

func TestFormatBody(t *testing.T) {
	assert.Equal(t, "plain text", formatBody([]byte("plain text")))
	assert.Equal(t, "", formatBody(nil))
	assert.Equal(t, "[\n  1,\n  2\n]", formatBody([]byte("[1,2]")))
	assert.Equal(t, "ok", formatBody([]byte(`"ok"`)))
	assert.Equal(t, "line\nbreak", formatBody([]byte(`"line\nbreak"`)))
	assert.Equal(t, "null", formatBody([]byte("null")))
	assert.Equal(t, "42", formatBody([]byte("42")))
}

func TestExecute_JSONStringBodyPrintedUnquoted(t *testing.T) {
	endpoint := newFakeEndpoint(t, http.StatusOK, `"ok"`)
	t.Setenv("API_URL", endpoint.URL)
	t.Setenv("AUTH_TOKEN", "Bearer cli-token")

	code, stdout, _ := execute(t)

	assert.Equal(t, ExitOK, code)
	assert.Equal(t, "Status: 200\nResponse: ok\n", stdout)
}

func TestNewHTTPClient_ImposesNoDeadline(t *testing.T) {
	client := newHTTPClient()

	tr, ok := client.Transport.(*http.Transport)
	assert.True(t, ok)
	assert.Zero(t, client.Timeout)
	assert.Zero(t, tr.ResponseHeaderTimeout)
}
