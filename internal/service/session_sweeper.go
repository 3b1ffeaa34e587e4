package service

import (
	"context"
	"crypto/rand"
	"encoding/binary"
	"errors"
	"log/slog"
	"time"

	"github.com/target/courseshop/internal/observability/metrics"
	"github.com/target/courseshop/internal/ports"
)

// SessionSweeperOptions groups dependencies for SessionSweeper.
type SessionSweeperOptions struct {
	Cleaner  ports.SessionCleaner // Required
	Interval time.Duration        // Required
	Observe  SessionObservability // Optional: Logger and Metrics are used
}

// SessionSweeper periodically removes expired sessions from stores without native expiry.
type SessionSweeper struct {
	cleaner  ports.SessionCleaner
	interval time.Duration
	logger   *slog.Logger
	metrics  *metrics.Registry
}

// NewSessionSweeper constructs a SessionSweeper.
func NewSessionSweeper(opts SessionSweeperOptions) (*SessionSweeper, error) {
	if opts.Cleaner == nil {
		return nil, errors.New("SessionCleaner is required")
	}
	if opts.Interval <= 0 {
		return nil, errors.New("sweep interval must be positive")
	}
	logger := opts.Observe.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &SessionSweeper{
		cleaner:  opts.Cleaner,
		interval: opts.Interval,
		logger:   logger.With("component", "session_sweeper"),
		metrics:  opts.Observe.Metrics,
	}, nil
}

// Run sweeps at the configured interval until ctx is cancelled.
// Returns nil on graceful shutdown.
func (s *SessionSweeper) Run(ctx context.Context) error {
	s.logger.InfoContext(ctx, "starting session sweeper", "interval", s.interval)

	s.waitWithJitter(ctx)
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		if ctx.Err() == nil {
			s.Sweep(ctx)
		}
		select {
		case <-ctx.Done():
			s.logger.InfoContext(ctx, "session sweeper stopping", "reason", ctx.Err())
			if errors.Is(ctx.Err(), context.Canceled) {
				return nil
			}
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// Sweep runs one cleanup pass and returns the number of removed sessions.
func (s *SessionSweeper) Sweep(ctx context.Context) int64 {
	start := time.Now()
	n, err := s.cleaner.Cleanup(ctx)
	if err != nil {
		if isContextCancellation(err) {
			return n
		}
		s.metrics.SessionError("cleanup", err)
		s.logger.ErrorContext(ctx, "session cleanup failed", "error", err)
		return n
	}
	s.metrics.SessionsSwept(n)
	if n > 0 {
		s.logger.InfoContext(ctx, "expired sessions removed", "count", n, "elapsed", time.Since(start))
	}
	return n
}

// waitWithJitter adds a random delay up to 10% of the interval so replicas do not sweep together.
func (s *SessionSweeper) waitWithJitter(ctx context.Context) {
	maxJitter := int64(s.interval / 10)
	if maxJitter <= 0 {
		return
	}

	var buf [8]byte
	if _, err := rand.Read(buf[:]); err != nil {
		s.logger.WarnContext(ctx, "failed to generate jitter, skipping", "error", err)
		return
	}

	jitterNanos := binary.BigEndian.Uint64(buf[:]) % uint64(maxJitter)
	jitter := time.Duration(int64(jitterNanos)) // #nosec G115 - bounded by maxJitter which is int64

	select {
	case <-time.After(jitter):
	case <-ctx.Done():
	}
}

func isContextCancellation(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}
