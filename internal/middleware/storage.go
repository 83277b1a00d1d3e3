package middleware

import (
	"context"
	"net/http"
	"net/url"
	"sync"
	"time"
)

const defaultStorageMaxAge = 10 * 365 * 24 * time.Hour

// StorageOptions shape the cookies written by CookieStorage.
type StorageOptions struct {
	Path   string
	MaxAge time.Duration
	Secure bool
}

// CookieStorage keeps page storage in first-party cookies: reads come from
// the request, writes go out as Set-Cookie on the response. Values written
// during the request are visible to later reads.
type CookieStorage struct {
	mu     sync.Mutex
	w      http.ResponseWriter
	opts   StorageOptions
	values map[string]string
}

// NewCookieStorage snapshots the request cookies.
func NewCookieStorage(w http.ResponseWriter, r *http.Request, opts StorageOptions) *CookieStorage {
	if opts.Path == "" {
		opts.Path = "/"
	}
	if opts.MaxAge <= 0 {
		opts.MaxAge = defaultStorageMaxAge
	}
	s := &CookieStorage{w: w, opts: opts, values: map[string]string{}}
	for _, c := range r.Cookies() {
		v, err := url.QueryUnescape(c.Value)
		if err != nil {
			continue
		}
		s.values[c.Name] = v
	}
	return s
}

func (s *CookieStorage) Get(key string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.values[key]
	return v, ok
}

func (s *CookieStorage) Set(key, value string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values[key] = value
	http.SetCookie(s.w, &http.Cookie{
		Name:     key,
		Value:    url.QueryEscape(value),
		Path:     s.opts.Path,
		MaxAge:   int(s.opts.MaxAge / time.Second),
		Expires:  time.Now().Add(s.opts.MaxAge).UTC(),
		HttpOnly: true,
		Secure:   s.opts.Secure,
		SameSite: http.SameSiteLaxMode,
	})
}

func (s *CookieStorage) Delete(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.values[key]; !ok {
		return
	}
	delete(s.values, key)
	http.SetCookie(s.w, &http.Cookie{
		Name:     key,
		Value:    "",
		Path:     s.opts.Path,
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   s.opts.Secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// Storage attaches a CookieStorage to every request.
func Storage(opts StorageOptions) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			s := NewCookieStorage(w, r, opts)
			next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), ctxKeyStorage, s)))
		})
	}
}

// StorageFrom returns the request storage. Without the Storage middleware
// it builds one on the spot.
func StorageFrom(w http.ResponseWriter, r *http.Request) *CookieStorage {
	if s, ok := r.Context().Value(ctxKeyStorage).(*CookieStorage); ok {
		return s
	}
	return NewCookieStorage(w, r, StorageOptions{})
}
