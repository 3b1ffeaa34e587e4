package httpx

import (
	"context"
	"errors"
	"net/http"

	"github.com/target/courseshop/internal/domain/model"
	"github.com/target/courseshop/internal/domain/session"
)

// Upload is the avatar file accepted by the upload stage.
type Upload struct {
	Filename string
	MIMEType string
	Size     int64
	Data     []byte
}

// RequestState carries per-request pipeline results. It is created by the
// ErrorBoundary and filled in by the stages. Nothing in it is persisted.
type RequestState struct {
	RequestID string
	Session   *session.Session
	CSRFToken string
	Flash     []session.Flash
	User      *model.User
	Upload    *Upload

	flashReady bool
	routeErr   error
}

// IsAuthenticated reports whether a user was resolved for this request.
func (s *RequestState) IsAuthenticated() bool {
	return s != nil && s.User != nil
}

type stateKey struct{}

func withState(ctx context.Context, st *RequestState) context.Context {
	return context.WithValue(ctx, stateKey{}, st)
}

// StateFrom returns the request state. It never returns nil.
func StateFrom(r *http.Request) *RequestState {
	if st, ok := r.Context().Value(stateKey{}).(*RequestState); ok && st != nil {
		return st
	}
	return &RequestState{}
}

// ErrFlashUnavailable is returned by AddFlash when the flash stage did not run.
var ErrFlashUnavailable = errors.New("flash messages require a session")

// AddFlash queues a one-shot message for the next rendered page.
func AddFlash(r *http.Request, category, text string) error {
	st := StateFrom(r)
	if !st.flashReady || st.Session == nil {
		return ErrFlashUnavailable
	}
	return st.Session.AddFlash(category, text)
}

// Flash categories used by the handlers and templates.
const (
	FlashError   = "error"
	FlashSuccess = "success"
	FlashLogin   = "loginError"
	FlashReg     = "registerError"
)

type requestIDKey struct{}

// WithRequestID stores id on ctx.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, id)
}

// RequestIDFrom returns the id stored by WithRequestID, or "".
func RequestIDFrom(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}
