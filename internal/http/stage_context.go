package httpx

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/target/courseshop/internal/domain/session"
	"github.com/target/courseshop/internal/ports"
)

// FlashStage enables AddFlash for the rest of the chain.
func FlashStage() Stage {
	return Stage{Name: "flash", Wrap: func(next HandlerFunc) HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) error {
			StateFrom(r).flashReady = true
			return next(w, r)
		}
	}}
}

// LocalsStage moves the queued flash messages onto the request state.
// The queue is cleared, so each message is shown exactly once.
func LocalsStage() Stage {
	return Stage{Name: "locals", Wrap: func(next HandlerFunc) HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) error {
			st := StateFrom(r)
			if st.Session != nil {
				st.Flash = st.Session.DrainFlash()
				if st.CSRFToken == "" {
					st.CSRFToken = st.Session.String(session.KeyCSRF)
				}
			}
			return next(w, r)
		}
	}}
}

// UserStage resolves the session's user. A user id that no longer resolves is
// removed from the session and the request continues unauthenticated.
func UserStage(users ports.UserReader, logger *slog.Logger) Stage {
	if logger == nil {
		logger = slog.Default()
	}
	return Stage{Name: "user", Wrap: func(next HandlerFunc) HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) error {
			st := StateFrom(r)
			if st.Session == nil {
				return next(w, r)
			}
			userID := st.Session.String(session.KeyUserID)
			if userID == "" {
				return next(w, r)
			}

			u, err := users.GetByID(r.Context(), userID)
			if err != nil && (r.Context().Err() != nil ||
				errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)) {
				// An aborted lookup says nothing about the user; keep the identity.
				return fmt.Errorf("resolve session user: %w", err)
			}
			if err != nil || u == nil {
				logger.WarnContext(r.Context(), "clearing unresolvable session user",
					"user_id", userID, "error", err, "request_id", st.RequestID)
				st.Session.Remove(session.KeyUserID)
				st.Session.Remove(session.KeyAuthenticated)
				return next(w, r)
			}
			st.User = u
			return next(w, r)
		}
	}}
}

// RequireAuth rejects requests without a resolved user.
func RequireAuth(h HandlerFunc) HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) error {
		if !StateFrom(r).IsAuthenticated() {
			return errLoginRequired
		}
		return h(w, r)
	}
}
