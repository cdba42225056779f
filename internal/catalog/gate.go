package catalog

import (
	"context"
	"log/slog"
	"time"

	"github.com/avast/retry-go/v4"

	"marquee/internal/domain"
)

// Gate blocks a request until the session is ready for remote access.
// Startup requests can arrive before authentication completes; the gate
// waits a bounded time and then fails fast instead of hanging.
type Gate interface {
	Wait(ctx context.Context) error
}

// AuthGate polls a readiness check at a fixed interval up to a maximum
// wait, then reports ErrNotAuthenticated.
type AuthGate struct {
	check    func() bool
	interval time.Duration
	maxWait  time.Duration
	logger   *slog.Logger
}

// NewAuthGate creates a gate over the given readiness check
func NewAuthGate(check func() bool, maxWait time.Duration, logger *slog.Logger) *AuthGate {
	if logger == nil {
		logger = slog.Default()
	}
	interval := 100 * time.Millisecond
	return &AuthGate{check: check, interval: interval, maxWait: maxWait, logger: logger}
}

func (g *AuthGate) Wait(ctx context.Context) error {
	attempts := uint(g.maxWait / g.interval)
	if attempts == 0 {
		attempts = 1
	}
	err := retry.Do(
		func() error {
			if g.check() {
				return nil
			}
			return domain.ErrNotAuthenticated
		},
		retry.Context(ctx),
		retry.Attempts(attempts),
		retry.Delay(g.interval),
		retry.DelayType(retry.FixedDelay),
		retry.LastErrorOnly(true),
	)
	if err != nil {
		g.logger.Error("gave up waiting for authenticated session", "maxWait", g.maxWait)
	}
	return err
}

// OpenGate is always ready; used for local-only resolution and tests.
type OpenGate struct{}

func (OpenGate) Wait(context.Context) error { return nil }
