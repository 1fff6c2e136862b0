package services

import (
	"context"
	"encoding/json"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/nimeshabuddhika/payment-key-validator/pkg"
	"github.com/nimeshabuddhika/payment-key-validator/pkg/backend"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type mockPoster struct {
	calls   int32
	reply   *backend.Reply
	err     error
	panicV  any
	release chan struct{} // when set, Post blocks until closed
	entered chan struct{}
	ctxErr  error
}

func (m *mockPoster) Post(ctx context.Context, path string) (*backend.Reply, error) {
	atomic.AddInt32(&m.calls, 1)
	if m.entered != nil {
		close(m.entered)
	}
	if m.release != nil {
		<-m.release
	}
	m.ctxErr = ctx.Err()
	if m.panicV != nil {
		panic(m.panicV)
	}
	if path != backend.ValidateKeysPath {
		return nil, errors.New("unexpected path " + path)
	}
	return m.reply, m.err
}

func newValidator(p Poster) KeyValidator {
	return NewKeyValidator(KeyValidatorConfig{Logger: zap.NewNop(), Client: p})
}

func TestRun_ClassifiesReply(t *testing.T) {
	poster := &mockPoster{reply: &backend.Reply{StatusCode: 200, Body: []byte(`{"ok":true,"percent":79}`)}}
	v := newValidator(poster)

	out, err := v.Run(context.Background())

	require.NoError(t, err)
	assert.True(t, out.Valid)
	assert.Equal(t, 79.0, out.Confidence)
	assert.False(t, out.Passes())
	assert.Equal(t, int32(1), poster.calls)

	snap := v.Snapshot()
	assert.Equal(t, pkg.RunStateSettled, snap.State)
	require.NotNil(t, snap.Outcome)
	assert.Equal(t, out, *snap.Outcome)
	assert.False(t, snap.SettledAt.IsZero())
}

func TestRun_TransportFailureBecomesOutcome(t *testing.T) {
	poster := &mockPoster{err: pkg.NewAppError(pkg.ErrBackendUnreachableCode, "verification backend unreachable", errors.New("connection refused"))}
	v := newValidator(poster)

	out, err := v.Run(context.Background())

	require.NoError(t, err)
	assert.False(t, out.Valid)
	assert.Equal(t, 0.0, out.Confidence)
	var detail map[string]string
	require.NoError(t, json.Unmarshal(out.Detail, &detail))
	assert.Contains(t, detail["error"], "connection refused")
}

func TestRun_StatusErrorKeepsBody(t *testing.T) {
	poster := &mockPoster{err: &backend.StatusError{StatusCode: 401, Body: []byte(`{"message":"invalid key"}`)}}
	v := newValidator(poster)

	out, err := v.Run(context.Background())

	require.NoError(t, err)
	assert.False(t, out.Valid)
	assert.JSONEq(t, `{"message":"invalid key"}`, string(out.Detail))
}

func TestRun_PanicClearsInFlight(t *testing.T) {
	poster := &mockPoster{panicV: "boom"}
	v := newValidator(poster)

	out, err := v.Run(context.Background())

	require.NoError(t, err)
	assert.False(t, out.Valid)
	assert.Equal(t, 0.0, out.Confidence)
	assert.Contains(t, string(out.Detail), "boom")
	assert.NotEqual(t, pkg.RunStateRunning, v.Snapshot().State)

	poster.panicV = nil
	poster.reply = &backend.Reply{StatusCode: 200, Body: []byte(`{"success":true}`)}
	out, err = v.Run(context.Background())
	require.NoError(t, err)
	assert.True(t, out.Passes())
}

func TestRun_RejectsWhileInFlight(t *testing.T) {
	poster := &mockPoster{
		reply:   &backend.Reply{StatusCode: 200, Body: []byte(`{"success":true}`)},
		release: make(chan struct{}),
		entered: make(chan struct{}),
	}
	v := newValidator(poster)

	done := make(chan struct{})
	go func() {
		defer close(done)
		_, _ = v.Run(context.Background())
	}()
	<-poster.entered

	assert.Equal(t, pkg.RunStateRunning, v.Snapshot().State)
	assert.Nil(t, v.Snapshot().Outcome)

	_, err := v.Run(context.Background())
	assert.ErrorIs(t, err, ErrValidationInFlight)

	close(poster.release)
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("run did not settle")
	}

	assert.Equal(t, int32(1), atomic.LoadInt32(&poster.calls))
	assert.Equal(t, pkg.RunStateSettled, v.Snapshot().State)
}

func TestRun_IgnoresCallerCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	poster := &mockPoster{reply: &backend.Reply{StatusCode: 200, Body: []byte(`{"valid":true}`)}}
	v := newValidator(poster)

	out, err := v.Run(ctx)

	require.NoError(t, err)
	assert.NoError(t, poster.ctxErr)
	assert.True(t, out.Valid)
}

func TestRun_EachRunReplacesOutcome(t *testing.T) {
	poster := &mockPoster{reply: &backend.Reply{StatusCode: 200, Body: []byte(`{"success":true}`)}}
	v := newValidator(poster)

	_, err := v.Run(context.Background())
	require.NoError(t, err)
	first := v.Snapshot().Outcome

	poster.reply = &backend.Reply{StatusCode: 200, Body: []byte(`{"success":false}`)}
	_, err = v.Run(context.Background())
	require.NoError(t, err)
	second := v.Snapshot().Outcome

	assert.True(t, first.Valid)
	assert.False(t, second.Valid)
	assert.Equal(t, 0.0, second.Confidence)
}

func TestSnapshot_IdleBeforeFirstRun(t *testing.T) {
	snap := newValidator(&mockPoster{}).Snapshot()

	assert.Equal(t, pkg.RunStateIdle, snap.State)
	assert.Nil(t, snap.Outcome)
}
