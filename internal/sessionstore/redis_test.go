package sessionstore

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func setupRedisStore(t *testing.T) (*RedisStore, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	hashKey, blockKey, err := DeriveKeys("test-secret")
	require.NoError(t, err)
	store := NewRedisStore(rdb, hashKey, blockKey)
	store.Options(sessions.Options{Path: "/", MaxAge: 3600, HttpOnly: true})
	return store, mr
}

// newSessionRouter はセッションの値を読み書きするだけのルーターを返す。
func newSessionRouter(store sessions.Store) *gin.Engine {
	router := gin.New()
	router.Use(sessions.Sessions(SessionCookieName, store))
	router.POST("/set", func(c *gin.Context) {
		s := sessions.Default(c)
		s.Set("accessToken", c.Query("v"))
		if err := s.Save(); err != nil {
			c.String(http.StatusInternalServerError, err.Error())
			return
		}
		c.Status(http.StatusNoContent)
	})
	router.GET("/get", func(c *gin.Context) {
		v, _ := sessions.Default(c).Get("accessToken").(string)
		c.String(http.StatusOK, v)
	})
	router.DELETE("/destroy", func(c *gin.Context) {
		s := sessions.Default(c)
		s.Options(sessions.Options{Path: "/", MaxAge: -1})
		if err := s.Save(); err != nil {
			c.String(http.StatusInternalServerError, err.Error())
			return
		}
		c.Status(http.StatusNoContent)
	})
	return router
}

func doRequest(router http.Handler, method, target string, cookies []*http.Cookie) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, nil)
	for _, c := range cookies {
		req.AddCookie(c)
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func sessionKeys(mr *miniredis.Miniredis) []string {
	var keys []string
	for _, k := range mr.Keys() {
		if strings.HasPrefix(k, sessionKeyPrefix) {
			keys = append(keys, k)
		}
	}
	return keys
}

func TestRedisStoreRoundTrip(t *testing.T) {
	store, mr := setupRedisStore(t)
	router := newSessionRouter(store)

	rec := doRequest(router, http.MethodPost, "/set?v=T", nil)
	require.Equal(t, http.StatusNoContent, rec.Code)
	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, SessionCookieName, cookies[0].Name)
	assert.True(t, cookies[0].HttpOnly)

	keys := sessionKeys(mr)
	require.Len(t, keys, 1)
	assert.Contains(t, mustGet(t, mr, keys[0]), `"accessToken":"T"`)

	rec = doRequest(router, http.MethodGet, "/get", cookies)
	assert.Equal(t, "T", rec.Body.String())
}

func mustGet(t *testing.T, mr *miniredis.Miniredis, key string) string {
	t.Helper()
	v, err := mr.Get(key)
	require.NoError(t, err)
	return v
}

func TestRedisStoreTTL(t *testing.T) {
	store, mr := setupRedisStore(t)
	router := newSessionRouter(store)

	rec := doRequest(router, http.MethodPost, "/set?v=T", nil)
	require.Equal(t, http.StatusNoContent, rec.Code)

	keys := sessionKeys(mr)
	require.Len(t, keys, 1)
	assert.Equal(t, time.Hour, mr.TTL(keys[0]))

	mr.FastForward(2 * time.Hour)
	rec = doRequest(router, http.MethodGet, "/get", rec.Result().Cookies())
	assert.Empty(t, rec.Body.String())
}

func TestRedisStoreInvalidCookie(t *testing.T) {
	store, _ := setupRedisStore(t)
	router := newSessionRouter(store)

	rec := doRequest(router, http.MethodGet, "/get", []*http.Cookie{{Name: SessionCookieName, Value: "forged"}})
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, rec.Body.String())
}

func TestRedisStoreCookieFromAnotherSecret(t *testing.T) {
	store, _ := setupRedisStore(t)
	router := newSessionRouter(store)

	rec := doRequest(router, http.MethodPost, "/set?v=T", nil)
	require.Equal(t, http.StatusNoContent, rec.Code)

	hashKey, blockKey, err := DeriveKeys("other-secret")
	require.NoError(t, err)
	other := NewRedisStore(store.rdb, hashKey, blockKey)

	rec = doRequest(newSessionRouter(other), http.MethodGet, "/get", rec.Result().Cookies())
	assert.Empty(t, rec.Body.String())
}

func TestRedisStoreDestroy(t *testing.T) {
	store, mr := setupRedisStore(t)
	router := newSessionRouter(store)

	rec := doRequest(router, http.MethodPost, "/set?v=T", nil)
	require.Equal(t, http.StatusNoContent, rec.Code)
	cookies := rec.Result().Cookies()
	require.Len(t, sessionKeys(mr), 1)

	rec = doRequest(router, http.MethodDelete, "/destroy", cookies)
	require.Equal(t, http.StatusNoContent, rec.Code)
	assert.Empty(t, sessionKeys(mr))

	// 2回目の削除もエラーにならない
	rec = doRequest(router, http.MethodDelete, "/destroy", cookies)
	assert.Equal(t, http.StatusNoContent, rec.Code)
}

func TestRedisStoreUnavailable(t *testing.T) {
	store, mr := setupRedisStore(t)
	router := newSessionRouter(store)
	mr.Close()

	rec := doRequest(router, http.MethodPost, "/set?v=T", nil)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}
