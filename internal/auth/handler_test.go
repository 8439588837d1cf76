package auth

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourusername/snippet-bff/internal/session"
	"github.com/yourusername/snippet-bff/internal/upstream"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// fakeAPI はトークン "T" のみを受け付ける上流 API のスタブ。
type fakeAPI struct {
	calls atomic.Int32
}

func (f *fakeAPI) handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/auth/login", func(w http.ResponseWriter, r *http.Request) {
		f.calls.Add(1)
		var body map[string]string
		_ = json.NewDecoder(r.Body).Decode(&body)
		w.Header().Set("Content-Type", "application/json")
		if body["password"] != "pw" {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"success":false,"data":{},"message":"Invalid credentials"}`))
			return
		}
		_, _ = w.Write([]byte(`{"success":true,"data":{"user":{"email":"a@example.com"},"token":"T"},"message":""}`))
	})
	mux.HandleFunc("DELETE /api/auth/logout", func(w http.ResponseWriter, r *http.Request) {
		f.calls.Add(1)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"success":true,"data":{},"message":"Logged out"}`))
	})
	mux.HandleFunc("GET /api/auth/user", func(w http.ResponseWriter, r *http.Request) {
		f.calls.Add(1)
		w.Header().Set("Content-Type", "application/json")
		if r.Header.Get("Authorization") != "Bearer T" {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"success":false,"data":{},"message":"Unauthorized"}`))
			return
		}
		_, _ = w.Write([]byte(`{"success":true,"data":{"email":"a@example.com"},"message":""}`))
	})
	return mux
}

func newTestRouter(t *testing.T) (*gin.Engine, *fakeAPI) {
	t.Helper()

	api := &fakeAPI{}
	srv := httptest.NewServer(api.handler())
	t.Cleanup(srv.Close)

	b := NewBridge(upstream.New(srv.URL), session.NewTokenStore(), nil, nil)
	router := gin.New()
	router.Use(sessions.Sessions("bff_session", cookie.NewStore([]byte("0123456789abcdef0123456789abcdef"))))
	router.POST("/api/login", LoginHandler(b))
	router.DELETE("/api/login", LogoutHandler(b))
	router.GET("/api/login", CurrentUserHandler(b))
	router.POST("/api/register", RegisterHandler(b))
	router.GET("/api/session", SessionHandler(b, srv.URL))
	return router, api
}

func serve(router http.Handler, method, path, body string, cookies []*http.Cookie) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	for _, c := range cookies {
		req.AddCookie(c)
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func TestLoginFlow(t *testing.T) {
	t.Parallel()

	router, api := newTestRouter(t)

	rec := serve(router, http.MethodPost, "/api/login", `{"email":"a@example.com","password":"pw"}`, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json; charset=utf-8", rec.Header().Get("Content-Type"))
	cookies := rec.Result().Cookies()
	require.NotEmpty(t, cookies)

	rec = serve(router, http.MethodGet, "/api/session", "", cookies)
	require.Equal(t, http.StatusOK, rec.Code)
	body := decode(t, rec)
	data := body["data"].(map[string]any)
	assert.Equal(t, true, data["loggedIn"])
	assert.NotContains(t, rec.Body.String(), `"T"`)

	rec = serve(router, http.MethodGet, "/api/login", "", cookies)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "a@example.com", decode(t, rec)["data"].(map[string]any)["email"])

	rec = serve(router, http.MethodDelete, "/api/login", "", cookies)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Logged out", decode(t, rec)["message"])
	cleared := rec.Result().Cookies()
	require.NotEmpty(t, cleared)

	rec = serve(router, http.MethodDelete, "/api/login", "", cleared)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "Not logged in", decode(t, rec)["message"])

	// ログイン・ユーザー取得・ログアウトの3回のみ
	assert.EqualValues(t, 3, api.calls.Load())
}

func TestLoginHandlerRejectsInvalidBody(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		body string
	}{
		{"本文なし", ""},
		{"JSONではない", "email=a"},
		{"パスワードなし", `{"email":"a@example.com"}`},
		{"型が違う", `{"email":1,"password":2}`},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			router, api := newTestRouter(t)
			rec := serve(router, http.MethodPost, "/api/login", tt.body, nil)
			require.Equal(t, http.StatusBadRequest, rec.Code)
			assert.JSONEq(t, `{"success":false,"data":{},"message":"Fill out all fields!"}`, rec.Body.String())
			assert.Zero(t, api.calls.Load())
		})
	}
}

func TestRegisterHandlerRequiresUsername(t *testing.T) {
	t.Parallel()

	router, api := newTestRouter(t)
	rec := serve(router, http.MethodPost, "/api/register", `{"email":"a@example.com","password":"pw"}`, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Zero(t, api.calls.Load())
}

func TestLoginHandlerUpstreamRejects(t *testing.T) {
	t.Parallel()

	router, _ := newTestRouter(t)
	rec := serve(router, http.MethodPost, "/api/login", `{"email":"a@example.com","password":"wrong"}`, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.JSONEq(t, `{"success":false,"data":{},"message":"Invalid credentials"}`, rec.Body.String())
}

func TestCurrentUserHandlerWithoutSession(t *testing.T) {
	t.Parallel()

	router, _ := newTestRouter(t)
	rec := serve(router, http.MethodGet, "/api/login", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = serve(router, http.MethodGet, "/api/session", "", nil)
	assert.Equal(t, false, decode(t, rec)["data"].(map[string]any)["loggedIn"])
}
