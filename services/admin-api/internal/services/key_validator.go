package services

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/nimeshabuddhika/payment-key-validator/pkg"
	"github.com/nimeshabuddhika/payment-key-validator/pkg/backend"
	"github.com/nimeshabuddhika/payment-key-validator/pkg/verification"
	"github.com/nimeshabuddhika/payment-key-validator/services/admin-api/internal/observability"
	"go.uber.org/zap"
)

var ErrValidationInFlight = pkg.NewAppError(pkg.ErrValidationInFlightCode, pkg.ErrValidationInFlightCode.Message, nil)

// Poster is the authenticated transport the validator calls through.
type Poster interface {
	Post(ctx context.Context, path string) (*backend.Reply, error)
}

// Snapshot is the validator state as seen by the presentation layer.
type Snapshot struct {
	State     pkg.RunState
	Outcome   *verification.Outcome
	SettledAt time.Time
}

// KeyValidator runs the gateway key verification, one run at a time.
type KeyValidator interface {
	Run(ctx context.Context) (verification.Outcome, error)
	Snapshot() Snapshot
}

// KeyValidatorConfig holds dependencies for the key validator.
type KeyValidatorConfig struct {
	Logger *zap.Logger
	Client Poster
}

type keyValidator struct {
	logger *zap.Logger
	client Poster

	running atomic.Bool

	mu        sync.RWMutex
	outcome   *verification.Outcome
	settledAt time.Time
}

func NewKeyValidator(cfg KeyValidatorConfig) KeyValidator {
	return &keyValidator{
		logger: cfg.Logger,
		client: cfg.Client,
	}
}

// Run issues one verification request and settles with a classified outcome.
// The only error it returns is ErrValidationInFlight; every backend failure is folded
// into the outcome. A started request is not cancelled when ctx is.
func (k *keyValidator) Run(ctx context.Context) (verification.Outcome, error) {
	if !k.running.CompareAndSwap(false, true) {
		observability.RejectedTriggers.Inc()
		return verification.Outcome{}, ErrValidationInFlight
	}
	observability.InflightRuns.Set(1)
	defer func() {
		observability.InflightRuns.Set(0)
		k.running.Store(false)
	}()

	k.mu.Lock()
	k.outcome = nil
	k.mu.Unlock()

	start := time.Now()
	outcome, failed := k.invoke(context.WithoutCancel(ctx))
	observability.RunLatency.Observe(time.Since(start).Seconds())

	k.mu.Lock()
	k.outcome = &outcome
	k.settledAt = time.Now()
	k.mu.Unlock()

	result := "fail"
	switch {
	case failed:
		result = "error"
	case outcome.Passes():
		result = "pass"
	}
	observability.ValidationRuns.WithLabelValues(result).Inc()
	observability.LastConfidence.Set(outcome.Confidence)

	k.logger.Info("key_validation_settled",
		zap.String("result", result),
		zap.Bool("is_valid", outcome.Valid),
		zap.Float64(pkg.Confidence, outcome.Confidence),
		zap.Duration("elapsed", time.Since(start)))
	return outcome, nil
}

func (k *keyValidator) invoke(ctx context.Context) (outcome verification.Outcome, failed bool) {
	defer func() {
		if r := recover(); r != nil {
			k.logger.Error("key_validation_panicked", zap.Any("panic", r))
			outcome, failed = verification.ClassifyError(fmt.Errorf("validation aborted: %v", r)), true
		}
	}()

	reply, err := k.client.Post(ctx, backend.ValidateKeysPath)
	if err != nil {
		k.logger.Warn("key_validation_failed", zap.Error(err))
		return verification.ClassifyError(err), true
	}
	return verification.Classify(verification.DecodeResponse(reply.Body)), false
}

func (k *keyValidator) Snapshot() Snapshot {
	k.mu.RLock()
	defer k.mu.RUnlock()

	snap := Snapshot{State: pkg.RunStateIdle}
	if k.outcome != nil {
		out := *k.outcome
		snap.State = pkg.RunStateSettled
		snap.Outcome = &out
		snap.SettledAt = k.settledAt
	}
	if k.running.Load() {
		snap.State = pkg.RunStateRunning
	}
	return snap
}
