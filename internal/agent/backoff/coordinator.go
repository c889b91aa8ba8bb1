// Package backoff coordinates retries for every network operation class on
// the device: registration, heartbeat and sync share one failure counter and
// one single-flight guard, so at most one retry is ever in flight no matter
// which loop observed the failure.
package backoff

import (
	"context"
	"log/slog"
	"time"

	"signage/internal/agent/state"
)

const (
	backoffStep        = 60 * time.Second
	backoffMax         = 300 * time.Second
	escalationAfter    = 10
	escalationCooldown = 300 * time.Second
)

// Delay computes the retry backoff for the given consecutive failure count:
// min(60s x floor(n/3), 300s). The first two failures retry immediately.
func Delay(failureCount int) time.Duration {
	delay := backoffStep * time.Duration(failureCount/3)
	if delay > backoffMax {
		return backoffMax
	}

	return delay
}

// WakeLock keeps the device awake during playback. Platforms without one use
// the no-op implementation.
type WakeLock interface {
	Acquire() error
	Release() error
}

// NoopWakeLock is the default WakeLock.
type NoopWakeLock struct{}

func (NoopWakeLock) Acquire() error { return nil }
func (NoopWakeLock) Release() error { return nil }

// Operation is a retryable network call. On escalation it doubles as the
// minimal recovery probe: the caller passes an operation that re-registers
// when unregistered and heartbeats otherwise.
type Operation func(ctx context.Context) error

// Coordinator owns the retry state machine. The failure counter and the
// retry-in-flight flag live in the shared sync state, guarded by its lock.
type Coordinator struct {
	store       *state.Store
	wakeLock    WakeLock
	online      func(ctx context.Context) bool
	settleDelay time.Duration
	logger      *slog.Logger

	now      func() time.Time
	schedule func(delay time.Duration, fn func())
	sleep    func(ctx context.Context, d time.Duration)
}

// NewCoordinator creates the retry coordinator. online is probed immediately
// before a scheduled retry fires; a retry against a known-unreachable server
// is skipped silently.
func NewCoordinator(
	store *state.Store,
	wakeLock WakeLock,
	online func(ctx context.Context) bool,
	settleDelay time.Duration,
	logger *slog.Logger,
) *Coordinator {
	return &Coordinator{
		store:       store,
		wakeLock:    wakeLock,
		online:      online,
		settleDelay: settleDelay,
		logger:      logger,
		now:         time.Now,
		schedule: func(delay time.Duration, fn func()) {
			time.AfterFunc(delay, fn)
		},
		sleep: func(ctx context.Context, d time.Duration) {
			select {
			case <-ctx.Done():
			case <-time.After(d):
			}
		},
	}
}

// RecordSuccess resets the failure counter, clears the single-flight guard
// and records the success time. Any successful call of any class lands here.
func (c *Coordinator) RecordSuccess() {
	if err := c.store.Update(func(st *state.SyncState) {
		st.FailureCount = 0
		st.RetryInFlight = false
		st.LastSuccess = c.now()
	}); err != nil {
		c.logger.Warn("failed to persist sync state", slog.String("error", err.Error()))
	}
}

// RecordFailure increments the shared failure counter and schedules exactly
// one retry. When a retry is already in flight the failure is counted but no
// second retry is scheduled.
func (c *Coordinator) RecordFailure(ctx context.Context, retry Operation) {
	var (
		failures   int
		suppressed bool
		escalate   bool
	)

	now := c.now()
	if err := c.store.Update(func(st *state.SyncState) {
		st.FailureCount++
		failures = st.FailureCount

		if st.RetryInFlight {
			suppressed = true

			return
		}
		st.RetryInFlight = true

		if st.FailureCount >= escalationAfter && now.Sub(st.LastEscalation) >= escalationCooldown {
			escalate = true
			st.LastEscalation = now
		}
	}); err != nil {
		c.logger.Warn("failed to persist sync state", slog.String("error", err.Error()))
	}

	if suppressed {
		// Informational, not an error: another retry is already in flight.
		c.logger.Debug("retry suppressed", slog.Int("failureCount", failures))

		return
	}

	if escalate {
		c.logger.Warn("escalating to recovery", slog.Int("failureCount", failures))
		go c.recover(ctx, retry)

		return
	}

	delay := Delay(failures)
	c.logger.Info("retry scheduled",
		slog.Int("failureCount", failures),
		slog.Duration("delay", delay),
	)
	c.schedule(delay, func() {
		c.fire(ctx, retry)
	})
}

// fire runs a scheduled retry, re-checking connectivity first and skipping
// silently when the server is still unreachable.
func (c *Coordinator) fire(ctx context.Context, retry Operation) {
	if ctx.Err() != nil {
		c.clearRetryFlag()

		return
	}

	if !c.online(ctx) {
		c.logger.Debug("retry skipped, server unreachable")
		c.clearRetryFlag()

		return
	}

	if err := retry(ctx); err != nil {
		c.logger.Warn("retry failed", slog.String("error", err.Error()))
		c.clearRetryFlag()
		c.RecordFailure(ctx, retry)

		return
	}

	c.RecordSuccess()
}

// recover runs the escalation path: re-acquire the wake-lock, wait for the
// system to settle, then attempt the minimal probe. The failure counter
// resets only if the probe succeeds.
func (c *Coordinator) recover(ctx context.Context, probe Operation) {
	if err := c.wakeLock.Release(); err != nil {
		c.logger.Warn("wake-lock release failed", slog.String("error", err.Error()))
	}
	if err := c.wakeLock.Acquire(); err != nil {
		c.logger.Warn("wake-lock acquire failed", slog.String("error", err.Error()))
	}

	c.sleep(ctx, c.settleDelay)
	if ctx.Err() != nil {
		c.clearRetryFlag()

		return
	}

	if err := probe(ctx); err != nil {
		c.logger.Warn("recovery probe failed", slog.String("error", err.Error()))
		c.clearRetryFlag()

		return
	}

	c.RecordSuccess()
}

func (c *Coordinator) clearRetryFlag() {
	c.store.Mutate(func(st *state.SyncState) {
		st.RetryInFlight = false
	})
}
