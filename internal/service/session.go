package service

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/target/courseshop/internal/domain/session"
	"github.com/target/courseshop/internal/observability/metrics"
	"github.com/target/courseshop/internal/ports"
)

const defaultIdleTimeout = 24 * time.Hour

// SessionConfig holds signing and lifetime settings for SessionService.
type SessionConfig struct {
	Secret      []byte
	IdleTimeout time.Duration
}

// SessionObservability groups optional logging, metrics and clock hooks.
type SessionObservability struct {
	Logger  *slog.Logger
	Metrics *metrics.Registry
	Now     func() time.Time
}

// SessionServiceOptions groups dependencies for SessionService.
type SessionServiceOptions struct {
	Store         ports.SessionStore // Required
	Config        SessionConfig      // Required: Secret must be non-empty
	Observability SessionObservability
}

// SessionService loads and commits server-side sessions and signs their cookies.
type SessionService struct {
	store   ports.SessionStore
	secret  []byte
	idle    time.Duration
	logger  *slog.Logger
	metrics *metrics.Registry
	now     func() time.Time
}

// CommitResult tells the transport what to do with the session cookie.
type CommitResult struct {
	// SetCookie is true when Value must be written with ExpiresAt.
	SetCookie bool
	// ClearCookie is true when the client cookie must be expired.
	ClearCookie bool
	Value       string
	ExpiresAt   time.Time
}

// NewSessionService constructs a SessionService.
func NewSessionService(opts SessionServiceOptions) (*SessionService, error) {
	if opts.Store == nil {
		return nil, errors.New("SessionStore is required")
	}
	if len(opts.Config.Secret) == 0 {
		return nil, errors.New("session secret is required")
	}
	idle := opts.Config.IdleTimeout
	if idle <= 0 {
		idle = defaultIdleTimeout
	}
	logger := opts.Observability.Logger
	if logger == nil {
		logger = slog.Default()
	}
	now := opts.Observability.Now
	if now == nil {
		now = time.Now
	}
	return &SessionService{
		store:   opts.Store,
		secret:  append([]byte(nil), opts.Config.Secret...),
		idle:    idle,
		logger:  logger.With("component", "session_service"),
		metrics: opts.Observability.Metrics,
		now:     now,
	}, nil
}

// IdleTimeout returns the sliding lifetime applied on every write.
func (s *SessionService) IdleTimeout() time.Duration { return s.idle }

// Load resolves the session for a raw cookie value. Missing, tampered, unknown
// and expired cookies all yield a new empty session. Only a store failure is an error.
func (s *SessionService) Load(ctx context.Context, cookieValue string) (*session.Session, error) {
	now := s.now()
	id, ok := s.Verify(cookieValue)
	if !ok {
		s.metrics.SessionLoad(metrics.ResultMiss)
		return session.New(NewSessionID(), now), nil
	}

	rec, err := s.store.Get(ctx, id)
	switch {
	case errors.Is(err, session.ErrNotFound):
		s.metrics.SessionLoad(metrics.ResultMiss)
		return session.New(NewSessionID(), now), nil
	case err != nil:
		s.metrics.SessionLoad(metrics.ResultError)
		s.metrics.SessionError("get", err)
		return nil, fmt.Errorf("load session: %w", err)
	}
	if rec.Expired(now) {
		s.metrics.SessionLoad(metrics.ResultMiss)
		return session.New(NewSessionID(), now), nil
	}
	s.metrics.SessionLoad(metrics.ResultHit)
	return session.FromRecord(rec), nil
}

// Commit persists the session if the request created, changed, renewed or destroyed it.
// Untouched sessions cause no store call.
func (s *SessionService) Commit(ctx context.Context, sess *session.Session) (CommitResult, error) {
	if sess == nil {
		return CommitResult{}, nil
	}
	if sess.Destroyed() {
		return s.commitDestroyed(ctx, sess)
	}
	if !sess.Modified() {
		return CommitResult{}, nil
	}

	now := s.now()
	rec := sess.Record()
	rec.LastAccess = now
	rec.ExpiresAt = now.Add(s.idle)
	if err := s.store.Save(ctx, rec); err != nil {
		s.metrics.SessionError("save", err)
		return CommitResult{}, fmt.Errorf("save session: %w", err)
	}
	s.metrics.SessionWrite("save")

	if prev := sess.PreviousID(); prev != "" {
		if err := s.store.Delete(ctx, prev); err != nil {
			s.metrics.SessionError("delete", err)
			s.logger.WarnContext(ctx, "failed to delete renewed session", "error", err)
		} else {
			s.metrics.SessionWrite("delete")
		}
	}

	return CommitResult{SetCookie: true, Value: s.Sign(rec.ID), ExpiresAt: rec.ExpiresAt}, nil
}

func (s *SessionService) commitDestroyed(ctx context.Context, sess *session.Session) (CommitResult, error) {
	var ids []string
	if !sess.IsNew() {
		ids = append(ids, sess.ID())
	}
	if prev := sess.PreviousID(); prev != "" {
		ids = append(ids, prev)
	}
	var errs []error
	for _, id := range ids {
		if err := s.store.Delete(ctx, id); err != nil {
			s.metrics.SessionError("delete", err)
			errs = append(errs, fmt.Errorf("delete session: %w", err))
			continue
		}
		s.metrics.SessionWrite("delete")
	}
	if err := errors.Join(errs...); err != nil {
		return CommitResult{}, err
	}
	return CommitResult{ClearCookie: len(ids) > 0}, nil
}

// Sign returns the cookie value for id.
func (s *SessionService) Sign(id string) string {
	return id + "." + s.mac(id)
}

// Verify extracts the session id from a signed cookie value.
func (s *SessionService) Verify(value string) (string, bool) {
	idx := strings.LastIndexByte(value, '.')
	if idx <= 0 || idx == len(value)-1 {
		return "", false
	}
	id, sig := value[:idx], value[idx+1:]
	if !hmac.Equal([]byte(sig), []byte(s.mac(id))) {
		return "", false
	}
	return id, true
}

func (s *SessionService) mac(id string) string {
	h := hmac.New(sha256.New, s.secret)
	h.Write([]byte(id))
	return base64.RawURLEncoding.EncodeToString(h.Sum(nil))
}

// NewSessionID returns a fresh random session identifier.
func NewSessionID() string {
	return uuid.NewString()
}
