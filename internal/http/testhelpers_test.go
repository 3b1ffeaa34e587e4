package httpx

import (
	"bytes"
	"context"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/textproto"
	"net/url"
	"os"
	"regexp"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/target/courseshop/internal/domain/model"
	"github.com/target/courseshop/internal/mocks/memory"
	"github.com/target/courseshop/internal/service"
)

var testSecret = []byte("0123456789abcdef0123456789abcdef")

// RequireTemplateRenderer creates a TemplateRenderer for tests, skipping the test if templates are not available.
func RequireTemplateRenderer(t *testing.T) *TemplateRenderer {
	t.Helper()
	tr, err := NewTemplateRenderer(TemplateRendererConfig{
		TemplateFS: os.DirFS(TemplatePathFromTest),
	})
	if err != nil {
		t.Skipf("Templates not available, skipping: %v", err)
		return nil
	}
	return tr
}

// recordingAvatars is an AvatarStore that remembers what it was given.
type recordingAvatars struct {
	mu    sync.Mutex
	saved []*Upload
}

func (a *recordingAvatars) Save(_ context.Context, userID string, up *Upload) (string, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.saved = append(a.saved, up)
	return "/images/avatars/" + userID + ".png", nil
}

func (a *recordingAvatars) count() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.saved)
}

// shopHarness runs the fully assembled server over in-memory storage.
type shopHarness struct {
	t        *testing.T
	store    *memory.SessionStore
	users    *memory.UserRepo
	courses  *memory.CourseRepo
	orders   *memory.OrderRepo
	accounts *service.AccountService
	catalog  *service.CourseService
	avatars  *recordingAvatars
	server   *Server
	http     *httptest.Server
	client   *http.Client
}

type harnessOption func(*ServerServices, *ServerConfig)

func newShopHarness(t *testing.T, opts ...harnessOption) *shopHarness {
	t.Helper()

	h := &shopHarness{
		t:       t,
		store:   memory.NewSessionStore(),
		users:   memory.NewUserRepo(),
		courses: memory.NewCourseRepo(),
		orders:  memory.NewOrderRepo(),
		avatars: &recordingAvatars{},
	}
	sessions, err := service.NewSessionService(service.SessionServiceOptions{
		Store:  h.store,
		Config: service.SessionConfig{Secret: testSecret},
	})
	require.NoError(t, err)
	h.accounts, err = service.NewAccountService(service.AccountServiceOptions{Users: h.users, Cost: bcrypt.MinCost})
	require.NoError(t, err)

	h.catalog = service.NewCourseService(service.CourseServiceOptions{Courses: h.courses})

	svc := ServerServices{
		Sessions: sessions,
		Users:    h.users,
		Accounts: h.accounts,
		Courses:  h.catalog,
		Shop: service.NewShopService(service.ShopServiceOptions{
			Carts:  memory.NewCartRepo(h.courses),
			Orders: h.orders,
		}),
		Avatars:  h.avatars,
		Renderer: RequireTemplateRenderer(t),
	}
	cfg := ServerConfig{
		Upload: UploadConfig{MaxBytes: 4 << 10, AllowedTypes: []string{"image/png", "image/jpg", "image/jpeg"}},
	}
	for _, opt := range opts {
		opt(&svc, &cfg)
	}

	h.server = NewServer(svc, cfg)
	h.http = httptest.NewServer(h.server.Handler)
	t.Cleanup(h.http.Close)

	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	h.client = &http.Client{
		Jar: jar,
		CheckRedirect: func(*http.Request, []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}
	return h
}

// do sends req and returns the response with its body read.
func (h *shopHarness) do(req *http.Request) (*http.Response, string) {
	h.t.Helper()
	resp, err := h.client.Do(req)
	require.NoError(h.t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(h.t, err)
	return resp, string(body)
}

func (h *shopHarness) get(path string) (*http.Response, string) {
	h.t.Helper()
	req, err := http.NewRequest(http.MethodGet, h.http.URL+path, nil)
	require.NoError(h.t, err)
	return h.do(req)
}

func (h *shopHarness) postForm(path string, form url.Values) (*http.Response, string) {
	h.t.Helper()
	req, err := http.NewRequest(http.MethodPost, h.http.URL+path, strings.NewReader(form.Encode()))
	require.NoError(h.t, err)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return h.do(req)
}

type multipartFile struct {
	Field    string
	Filename string
	MIMEType string
	Data     []byte
}

func (h *shopHarness) postMultipart(path string, fields url.Values, file *multipartFile) (*http.Response, string) {
	h.t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, vs := range fields {
		for _, v := range vs {
			require.NoError(h.t, mw.WriteField(k, v))
		}
	}
	if file != nil {
		hdr := textproto.MIMEHeader{}
		hdr.Set("Content-Disposition", `form-data; name="`+file.Field+`"; filename="`+file.Filename+`"`)
		hdr.Set("Content-Type", file.MIMEType)
		part, err := mw.CreatePart(hdr)
		require.NoError(h.t, err)
		_, err = part.Write(file.Data)
		require.NoError(h.t, err)
	}
	require.NoError(h.t, mw.Close())

	req, err := http.NewRequest(http.MethodPost, h.http.URL+path, &buf)
	require.NoError(h.t, err)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return h.do(req)
}

var csrfMeta = regexp.MustCompile(`<meta name="csrf-token" content="([^"]*)">`)

// csrfToken loads a page and returns the token it was rendered with.
func (h *shopHarness) csrfToken() string {
	h.t.Helper()
	resp, body := h.get("/auth/login")
	require.Equal(h.t, http.StatusOK, resp.StatusCode)
	m := csrfMeta.FindStringSubmatch(body)
	require.Len(h.t, m, 2, "csrf meta tag missing")
	require.NotEmpty(h.t, m[1])
	return m[1]
}

func (h *shopHarness) register(email, name, password string) *model.User {
	h.t.Helper()
	u, err := h.accounts.Register(context.Background(), model.RegisterRequest{
		Email: email, Name: name, Password: password, Confirm: password,
	})
	require.NoError(h.t, err)
	return u
}

func (h *shopHarness) addCourse(ownerID, title, price string) *model.Course {
	h.t.Helper()
	c, err := h.catalog.Create(context.Background(), ownerID, model.CourseInput{
		Title: title, Price: price, ImageURL: "https://example.com/course.png",
	})
	require.NoError(h.t, err)
	return c
}

func (h *shopHarness) login(email, password string) *http.Response {
	h.t.Helper()
	resp, _ := h.postForm("/auth/login", url.Values{
		"_csrf":    {h.csrfToken()},
		"email":    {email},
		"password": {password},
	})
	return resp
}

// sessionID returns the store id behind the client's session cookie.
func (h *shopHarness) sessionID() string {
	h.t.Helper()
	u, err := url.Parse(h.http.URL)
	require.NoError(h.t, err)
	for _, c := range h.client.Jar.Cookies(u) {
		if c.Name == DefaultSessionCookieName {
			id, _, _ := strings.Cut(c.Value, ".")
			return id
		}
	}
	return ""
}

// ContainsAll reports whether s contains every substring.
func ContainsAll(s string, subs []string) bool {
	for _, sub := range subs {
		if !strings.Contains(s, sub) {
			return false
		}
	}
	return true
}
