package httpx

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/target/courseshop/internal/domain/model"
	"github.com/target/courseshop/internal/domain/session"
	apperrors "github.com/target/courseshop/internal/errors"
	"github.com/target/courseshop/internal/mocks"
	"github.com/target/courseshop/internal/mocks/memory"
	"github.com/target/courseshop/internal/service"
)

// stageRig runs a handler behind the boundary and the session-side stages,
// without templates or routes.
type stageRig struct {
	t        *testing.T
	store    *memory.SessionStore
	sessions *service.SessionService
	cookie   *http.Cookie
}

func newStageRig(t *testing.T) *stageRig {
	t.Helper()
	store := memory.NewSessionStore()
	sessions, err := service.NewSessionService(service.SessionServiceOptions{
		Store:  store,
		Config: service.SessionConfig{Secret: testSecret},
	})
	require.NoError(t, err)
	return &stageRig{t: t, store: store, sessions: sessions}
}

func (s *stageRig) handler(users *mocks.MockUserReader, h HandlerFunc) http.Handler {
	stages := []Stage{
		SessionStage(SessionStageConfig{Sessions: s.sessions}),
		CSRFStage(CSRFConfig{}),
		FlashStage(),
		LocalsStage(),
	}
	if users != nil {
		stages = append(stages, UserStage(users, nil))
	}
	return NewErrorBoundary(ErrorBoundaryConfig{}).Wrap(NewPipeline(stages...).Then(h))
}

// serve sends a request carrying the rig's cookie and remembers any new cookie.
func (s *stageRig) serve(h http.Handler, req *http.Request) *httptest.ResponseRecorder {
	s.t.Helper()
	if s.cookie != nil {
		req.AddCookie(s.cookie)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	for _, c := range rec.Result().Cookies() {
		if c.Name == DefaultSessionCookieName {
			if c.MaxAge < 0 {
				s.cookie = nil
			} else {
				s.cookie = c
			}
		}
	}
	return rec
}

func (s *stageRig) get(h http.Handler) *httptest.ResponseRecorder {
	return s.serve(h, httptest.NewRequest(http.MethodGet, "/", nil))
}

func (s *stageRig) post(h http.Handler, form url.Values) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return s.serve(h, req)
}

func ok(w http.ResponseWriter, _ *http.Request) error {
	_, err := w.Write([]byte("ok"))
	return err
}

func TestSessionStage_WritesOnlyWhenMutated(t *testing.T) {
	rig := newStageRig(t)
	var token string
	h := rig.handler(nil, func(w http.ResponseWriter, r *http.Request) error {
		token = StateFrom(r).CSRFToken
		return ok(w, r)
	})

	// First visit creates the csrf token: one write.
	rec := rig.get(h)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1, rig.store.Saves)
	require.NotNil(t, rig.cookie)
	assert.True(t, rig.cookie.HttpOnly)
	assert.Equal(t, http.SameSiteLaxMode, rig.cookie.SameSite)
	assert.Equal(t, "/", rig.cookie.Path)
	firstToken := token

	// Later reads touch nothing.
	for range 3 {
		rec = rig.get(h)
		require.Equal(t, http.StatusOK, rec.Code)
	}
	assert.Equal(t, 1, rig.store.Saves)
	assert.Equal(t, firstToken, token, "token lives for the whole session")

	// A mutation writes again.
	mutate := rig.handler(nil, func(w http.ResponseWriter, r *http.Request) error {
		require.NoError(t, StateFrom(r).Session.Put("theme", "dark"))
		return ok(w, r)
	})
	rec = rig.post(mutate, url.Values{CSRFFormField: {firstToken}})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 2, rig.store.Saves)
}

func TestSessionStage_UntouchedNewSessionIsNotStored(t *testing.T) {
	rig := newStageRig(t)
	h := NewErrorBoundary(ErrorBoundaryConfig{}).Wrap(NewPipeline(
		SessionStage(SessionStageConfig{Sessions: rig.sessions}),
	).Then(ok))

	rec := rig.get(h)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Zero(t, rig.store.Writes())
	assert.Empty(t, rec.Result().Cookies())
}

func TestSessionStage_LoadFailureIs500(t *testing.T) {
	rig := newStageRig(t)
	h := rig.handler(nil, ok)
	rig.get(h)
	require.NotNil(t, rig.cookie)

	rig.store.GetErr = errors.New("dial tcp: connection refused")
	rec := rig.get(h)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotContains(t, rec.Body.String(), "connection refused")
	assert.NotContains(t, rec.Body.String(), "ok")
}

func TestSessionStage_CommitFailureDiscardsOutput(t *testing.T) {
	rig := newStageRig(t)
	rig.store.SaveErr = errors.New("disk full")
	h := rig.handler(nil, ok)

	rec := rig.get(h)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotEqual(t, "ok", rec.Body.String())
}

func TestCSRF_NewSessionAlwaysFails(t *testing.T) {
	rig := newStageRig(t)
	called := false
	h := rig.handler(nil, func(w http.ResponseWriter, r *http.Request) error {
		called = true
		return ok(w, r)
	})

	for _, token := range []string{"", "anything", strings.Repeat("a", 43)} {
		rec := rig.post(h, url.Values{CSRFFormField: {token}})
		assert.Equal(t, http.StatusForbidden, rec.Code)
	}
	assert.False(t, called)
}

func TestCSRF_TokenSources(t *testing.T) {
	rig := newStageRig(t)
	var token string
	h := rig.handler(nil, func(w http.ResponseWriter, r *http.Request) error {
		token = StateFrom(r).CSRFToken
		return ok(w, r)
	})
	rig.get(h)
	require.NotEmpty(t, token)

	t.Run("form field", func(t *testing.T) {
		assert.Equal(t, http.StatusOK, rig.post(h, url.Values{CSRFFormField: {token}}).Code)
	})
	for _, header := range csrfHeaders {
		t.Run(header, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodDelete, "/", nil)
			req.Header.Set(header, token)
			assert.Equal(t, http.StatusOK, rig.serve(h, req).Code)
		})
	}
	t.Run("wrong token", func(t *testing.T) {
		assert.Equal(t, http.StatusForbidden, rig.post(h, url.Values{CSRFFormField: {token + "x"}}).Code)
	})
	t.Run("missing token", func(t *testing.T) {
		assert.Equal(t, http.StatusForbidden, rig.post(h, url.Values{}).Code)
	})
}

func TestFlash_DrainOnce(t *testing.T) {
	rig := newStageRig(t)
	var seen []session.Flash
	read := rig.handler(nil, func(w http.ResponseWriter, r *http.Request) error {
		seen = StateFrom(r).Flash
		return ok(w, r)
	})
	var token string
	write := rig.handler(nil, func(w http.ResponseWriter, r *http.Request) error {
		token = StateFrom(r).CSRFToken
		if err := AddFlash(r, FlashError, "first"); err != nil {
			return err
		}
		return ok(w, r)
	})

	rig.get(write) // request N queues
	require.NotEmpty(t, token)

	rig.get(read) // N+1 sees it
	require.Len(t, seen, 1)
	assert.Equal(t, session.Flash{Category: FlashError, Text: "first"}, seen[0])

	rig.get(read) // N+2 does not
	assert.Empty(t, seen)
}

func TestAddFlash_WithoutFlashStage(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	assert.ErrorIs(t, AddFlash(req, FlashError, "x"), ErrFlashUnavailable)
}

func TestUserStage(t *testing.T) {
	ctrl := gomock.NewController(t)
	users := mocks.NewMockUserReader(ctrl)
	rig := newStageRig(t)

	var token string
	login := rig.handler(users, func(w http.ResponseWriter, r *http.Request) error {
		st := StateFrom(r)
		token = st.CSRFToken
		if err := st.Session.Put(session.KeyUserID, "u1"); err != nil {
			return err
		}
		if err := st.Session.Put(session.KeyAuthenticated, true); err != nil {
			return err
		}
		return ok(w, r)
	})
	var authed bool
	var user *model.User
	whoami := rig.handler(users, func(w http.ResponseWriter, r *http.Request) error {
		authed = StateFrom(r).IsAuthenticated()
		user = StateFrom(r).User
		return ok(w, r)
	})
	rig.get(login)
	require.NotEmpty(t, token)

	t.Run("found user authenticates", func(t *testing.T) {
		users.EXPECT().GetByID(gomock.Any(), "u1").Return(&model.User{ID: "u1", Name: "Ada"}, nil)
		rig.get(whoami)
		assert.True(t, authed)
		require.NotNil(t, user)
		assert.Equal(t, "Ada", user.Name)
	})

	t.Run("lookup error clears identity", func(t *testing.T) {
		users.EXPECT().GetByID(gomock.Any(), "u1").Return(nil, errors.New("db down"))
		rec := rig.get(whoami)
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.False(t, authed)
		assert.Nil(t, user)

		rec2, found := rig.store.Record(strings.SplitN(rig.cookie.Value, ".", 2)[0])
		require.True(t, found)
		sess := session.FromRecord(rec2)
		assert.False(t, sess.Has(session.KeyUserID))
		assert.False(t, sess.Has(session.KeyAuthenticated))
	})

	t.Run("no user id skips lookup", func(t *testing.T) {
		// The mock fails the test on an unexpected GetByID call.
		rig.get(whoami)
		assert.False(t, authed)
	})
}

func TestUserStage_NotFoundClearsIdentity(t *testing.T) {
	ctrl := gomock.NewController(t)
	users := mocks.NewMockUserReader(ctrl)
	rig := newStageRig(t)

	rig.get(rig.handler(users, func(w http.ResponseWriter, r *http.Request) error {
		require.NoError(t, StateFrom(r).Session.Put(session.KeyUserID, "gone"))
		return ok(w, r)
	}))

	users.EXPECT().GetByID(gomock.Any(), "gone").Return(nil, apperrors.NotFound("user not found"))
	var authed bool
	rig.get(rig.handler(users, func(w http.ResponseWriter, r *http.Request) error {
		authed = StateFrom(r).IsAuthenticated()
		return ok(w, r)
	}))
	assert.False(t, authed)
}

func TestUserStage_CancelledLookupKeepsIdentity(t *testing.T) {
	ctrl := gomock.NewController(t)
	users := mocks.NewMockUserReader(ctrl)
	rig := newStageRig(t)

	rig.get(rig.handler(users, func(w http.ResponseWriter, r *http.Request) error {
		st := StateFrom(r)
		require.NoError(t, st.Session.Put(session.KeyUserID, "u1"))
		require.NoError(t, st.Session.Put(session.KeyAuthenticated, true))
		return ok(w, r)
	}))
	require.NotNil(t, rig.cookie)
	sid := strings.SplitN(rig.cookie.Value, ".", 2)[0]
	rig.store.ResetCounts()

	var authed bool
	var user *model.User
	whoami := rig.handler(users, func(w http.ResponseWriter, r *http.Request) error {
		authed = StateFrom(r).IsAuthenticated()
		user = StateFrom(r).User
		return ok(w, r)
	})

	ctx, cancel := context.WithCancel(context.Background())
	users.EXPECT().GetByID(gomock.Any(), "u1").DoAndReturn(func(context.Context, string) (*model.User, error) {
		cancel()
		return nil, context.Canceled
	})
	rec := rig.serve(whoami, httptest.NewRequest(http.MethodGet, "/", nil).WithContext(ctx))
	assert.Empty(t, rec.Body.String())
	assert.Zero(t, rig.store.Writes())

	stored, found := rig.store.Record(sid)
	require.True(t, found)
	sess := session.FromRecord(stored)
	assert.True(t, sess.Has(session.KeyUserID))
	assert.True(t, sess.Has(session.KeyAuthenticated))

	// A deadline hit mid-lookup behaves the same way.
	users.EXPECT().GetByID(gomock.Any(), "u1").Return(nil, context.DeadlineExceeded)
	rig.get(whoami)
	assert.False(t, authed)
	assert.Zero(t, rig.store.Writes())

	users.EXPECT().GetByID(gomock.Any(), "u1").Return(&model.User{ID: "u1", Name: "Ada"}, nil)
	rig.get(whoami)
	assert.True(t, authed)
	require.NotNil(t, user)
	assert.Equal(t, "u1", user.ID)
}

func TestUploadStage_Malformed(t *testing.T) {
	h := NewErrorBoundary(ErrorBoundaryConfig{}).Wrap(NewPipeline(
		UploadStage(UploadConfig{MaxBytes: 1024}),
	).Then(func(w http.ResponseWriter, r *http.Request) error {
		t.Fatal("handler must not run")
		return nil
	}))

	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader("not multipart at all"))
	req.Header.Set("Content-Type", "multipart/form-data; boundary=xyz")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestUploadStage_NonMultipartPassesThrough(t *testing.T) {
	var up *Upload
	h := NewErrorBoundary(ErrorBoundaryConfig{}).Wrap(NewPipeline(
		UploadStage(UploadConfig{MaxBytes: 1024}),
	).Then(func(w http.ResponseWriter, r *http.Request) error {
		up = StateFrom(r).Upload
		return ok(w, r)
	}))

	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader("a=b"))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Nil(t, up)
}

func TestRequireAuth(t *testing.T) {
	h := NewErrorBoundary(ErrorBoundaryConfig{}).Wrap(RequireAuth(ok))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/orders", nil))
	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, LoginPath, rec.Header().Get("Location"))
}

func TestSessionStage_ClientGoneDropsResponse(t *testing.T) {
	rig := newStageRig(t)
	ctx, cancel := context.WithCancel(context.Background())
	h := rig.handler(nil, func(w http.ResponseWriter, r *http.Request) error {
		cancel()
		return ok(w, r)
	})

	rec := rig.serve(h, httptest.NewRequest(http.MethodGet, "/", nil).WithContext(ctx))
	assert.Empty(t, rec.Body.String())
	assert.Empty(t, rec.Result().Cookies())
	assert.Zero(t, rig.store.Saves, "a gone client's session is not committed")
}
