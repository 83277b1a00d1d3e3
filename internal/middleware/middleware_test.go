package middleware

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"codent.ru/codent-web/internal/i18n"
)

func TestCookieStorageRoundTrip(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: "attentionBannerClosed", Value: "true"})
	rec := httptest.NewRecorder()

	s := NewCookieStorage(rec, req, StorageOptions{})
	v, ok := s.Get("attentionBannerClosed")
	require.True(t, ok)
	require.Equal(t, "true", v)

	s.Set("note", "a b;c")
	v, ok = s.Get("note")
	require.True(t, ok)
	require.Equal(t, "a b;c", v)

	s.Delete("attentionBannerClosed")
	_, ok = s.Get("attentionBannerClosed")
	require.False(t, ok)

	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 2)
	require.Equal(t, "note", cookies[0].Name)
	require.Greater(t, cookies[0].MaxAge, 365*24*3600)
	require.True(t, cookies[0].HttpOnly)
	require.Equal(t, "attentionBannerClosed", cookies[1].Name)
	require.Equal(t, -1, cookies[1].MaxAge)
}

func TestStorageMiddlewareSharesInstance(t *testing.T) {
	var seen *CookieStorage
	h := Storage(StorageOptions{Secure: true})(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = StorageFrom(w, r)
		seen.Set("attentionBannerClosed", "true")
	}))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/banners/attention/dismiss", nil))

	require.NotNil(t, seen)
	c := rec.Result().Cookies()
	require.Len(t, c, 1)
	require.Equal(t, "true", c[0].Value)
	require.True(t, c[0].Secure)
}

func TestHTMXFlag(t *testing.T) {
	var is bool
	h := HTMX(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		is = IsHTMX(r.Context())
		PushURL(w, "blog.html?article=korea")
	}))
	req := httptest.NewRequest(http.MethodGet, "/blog.html?article=korea", nil)
	req.Header.Set("HX-Request", "true")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	require.True(t, is)
	require.Equal(t, "blog.html?article=korea", rec.Header().Get("HX-Push-Url"))
	require.Equal(t, "HX-Request", rec.Header().Get("Vary"))
}

func TestLoggerRecordsRequest(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	h := Logger(zap.New(core))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		LoggerFrom(r.Context()).Debug("below level")
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte("missing"))
	}))
	req := httptest.NewRequest(http.MethodGet, "/nope.html", nil)
	req.Header.Set("X-Forwarded-For", "10.0.0.1, 203.0.113.7")
	h.ServeHTTP(httptest.NewRecorder(), req)

	entries := logs.All()
	require.Len(t, entries, 1)
	e := entries[0]
	require.Equal(t, zap.WarnLevel, e.Level)
	fields := e.ContextMap()
	require.Equal(t, "/nope.html", fields["path"])
	require.EqualValues(t, http.StatusNotFound, fields["status"])
	require.EqualValues(t, len("missing"), fields["bytes"])
	require.Equal(t, "203.0.113.7", fields["remote_ip"])
}

func TestLoggerFlagsHTMXBeforeHTMXMiddleware(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	var inner bool
	h := Logger(zap.New(core))(HTMX(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		inner = IsHTMX(r.Context())
	})))
	req := httptest.NewRequest(http.MethodGet, "/blog.html", nil)
	req.Header.Set("HX-Request", "true")
	h.ServeHTTP(httptest.NewRecorder(), req)

	require.True(t, inner)
	require.Len(t, logs.All(), 1)
	require.Equal(t, true, logs.All()[0].ContextMap()["htmx"])
}

func TestLocalePrecedence(t *testing.T) {
	bundle := i18n.Default()
	var got string
	h := Locale(bundle)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = Lang(r, bundle.Fallback())
	}))

	req := httptest.NewRequest(http.MethodGet, "/?hl=en", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	require.Equal(t, "en", got)
	require.Equal(t, "en", rec.Header().Get("Content-Language"))
	require.Len(t, rec.Result().Cookies(), 1)

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: "hl", Value: "en"})
	req.Header.Set("Accept-Language", "ru-RU")
	h.ServeHTTP(httptest.NewRecorder(), req)
	require.Equal(t, "en", got)

	req = httptest.NewRequest(http.MethodGet, "/?hl=xx", nil)
	req.Header.Set("Accept-Language", "de, en;q=0.5")
	h.ServeHTTP(httptest.NewRecorder(), req)
	require.Equal(t, "en", got)
}

func TestAssetsETag(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "css"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "css", "style.css"), []byte("body{}"), 0o644))
	h := AssetsWithCache(dir, "/assets")

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/assets/css/style.css", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "body{}", rec.Body.String())
	et := rec.Header().Get("ETag")
	require.NotEmpty(t, et)

	req := httptest.NewRequest(http.MethodGet, "/assets/css/style.css", nil)
	req.Header.Set("If-None-Match", et)
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	require.Equal(t, http.StatusNotModified, rec.Code)
}

func TestErrorShape(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/", nil)
	req = req.WithContext(WithHTMX(req.Context(), true))
	rec := httptest.NewRecorder()
	Error(rec, req, http.StatusBadRequest, "bad")
	require.JSONEq(t, `{"error":"bad"}`, rec.Body.String())
}
