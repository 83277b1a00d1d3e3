package fragment

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/require"

	"codent.ru/codent-web/internal/config"
	"codent.ru/codent-web/internal/dom"
)

type countingSource struct {
	mu    sync.Mutex
	src   Source
	calls map[string]int
}

func newCounting(files fstest.MapFS) *countingSource {
	return &countingSource{src: NewDirSource(files), calls: map[string]int{}}
}

func (c *countingSource) Fetch(ctx context.Context, p string) (string, error) {
	c.mu.Lock()
	c.calls[p]++
	c.mu.Unlock()
	return c.src.Fetch(ctx, p)
}

func mustDoc(t *testing.T) *dom.Document {
	t.Helper()
	d, err := dom.ParseString(`<html><head></head><body><main></main></body></html>`)
	require.NoError(t, err)
	return d
}

func TestLoadInsertsFragment(t *testing.T) {
	src := newCounting(fstest.MapFS{"header.html": {Data: []byte(`<header class="h">H</header>`)}})
	l := NewLoader(src, "/")
	doc := mustDoc(t)

	ok := l.Load(context.Background(), doc, Request{Path: "header.html", Target: "body", Position: dom.AfterBegin})
	require.True(t, ok)
	require.Equal(t, 1, doc.Find("body > header.h").Length())
	require.Equal(t, 1, src.calls["/header.html"])
}

func TestLoadFailsSoft(t *testing.T) {
	src := newCounting(fstest.MapFS{"footer.html": {Data: []byte(`<footer></footer>`)}})
	l := NewLoader(src, "/")
	doc := mustDoc(t)

	require.False(t, l.Load(context.Background(), doc, Request{Path: "missing.html", Target: "body", Position: dom.BeforeEnd}))
	require.False(t, l.Load(context.Background(), doc, Request{Path: "footer.html", Target: ".absent", Position: dom.BeforeEnd}))
	require.Equal(t, 0, doc.Find("footer").Length())
}

func TestCacheSkipsNetworkButStillInserts(t *testing.T) {
	src := newCounting(fstest.MapFS{"includes/help-button.html": {Data: []byte(`<a class="help"></a>`)}})
	l := NewLoader(src, "/", WithCache(NewCache()))
	doc := mustDoc(t)
	req := Request{Path: "includes/help-button.html", Target: "main", Position: dom.BeforeEnd}

	require.True(t, l.Load(context.Background(), doc, req))
	require.True(t, l.Load(context.Background(), doc, req))
	require.Equal(t, 1, src.calls["/includes/help-button.html"])
	require.Equal(t, 2, doc.Find("main .help").Length())
}

func TestFailedFetchIsNotCached(t *testing.T) {
	src := newCounting(fstest.MapFS{})
	cache := NewCache()
	l := NewLoader(src, "/", WithCache(cache))
	_, err := l.Fetch(context.Background(), "x.html")
	require.ErrorIs(t, err, ErrNotFound)
	_, _ = l.Fetch(context.Background(), "x.html")
	require.Equal(t, 2, src.calls["/x.html"])
	require.Equal(t, 0, cache.Len())
}

func TestResolve(t *testing.T) {
	l := NewLoader(nil, "codent-site")
	require.Equal(t, "/codent-site/", l.Base())
	require.Equal(t, "/codent-site/includes/tables/a.html", l.Resolve("includes/tables/a.html"))
	require.Equal(t, "/abs.html", l.Resolve("/abs.html"))
	require.Equal(t, "/header.html", NewLoader(nil, "").Resolve("header.html"))
}

func TestDetectBase(t *testing.T) {
	site := config.Default().Site
	mustURL := func(s string) *url.URL {
		u, err := url.Parse(s)
		require.NoError(t, err)
		return u
	}
	require.Equal(t, "/", DetectBase(mustURL("http://localhost:8080/blog.html"), site))
	require.Equal(t, "/codent-site/", DetectBase(mustURL("https://codent.github.io/codent-site/blog.html"), site))

	site.RepoName = ""
	require.Equal(t, "/mirror/", DetectBase(mustURL("https://codent.github.io/mirror/index.html"), site))
	require.Equal(t, "/", DetectBase(mustURL("https://codent.github.io/index.html"), site))

	site.BasePath = "/explicit"
	require.Equal(t, "/explicit/", DetectBase(mustURL("https://codent.github.io/mirror/"), site))
	require.Equal(t, "/explicit/", DetectBase(nil, site))
}

func TestHTTPSourceStatuses(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/site/ok.html":
			_, _ = w.Write([]byte("<p>ok</p>"))
		case "/site/boom.html":
			w.WriteHeader(http.StatusInternalServerError)
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	src := NewHTTPSource(srv.URL + "/").WithClient(srv.Client())
	body, err := src.Fetch(context.Background(), "/site/ok.html")
	require.NoError(t, err)
	require.Equal(t, "<p>ok</p>", body)

	_, err = src.Fetch(context.Background(), "/site/missing.html")
	require.ErrorIs(t, err, ErrNotFound)

	_, err = src.Fetch(context.Background(), "/site/boom.html")
	var se *StatusError
	if !errors.As(err, &se) || se.Code != http.StatusInternalServerError {
		t.Fatalf("expected StatusError 500, got %v", err)
	}
}

func TestStripPrefix(t *testing.T) {
	src := StripPrefix("/codent-site/", NewDirSource(fstest.MapFS{"header.html": {Data: []byte("h")}}))
	body, err := src.Fetch(context.Background(), "/codent-site/header.html")
	require.NoError(t, err)
	require.Equal(t, "h", body)

	_, err = src.Fetch(context.Background(), "/codent-siteX/header.html")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestDirSourceRejectsTraversal(t *testing.T) {
	src := NewDirSource(fstest.MapFS{"a.html": {Data: []byte("a")}})
	_, err := src.Fetch(context.Background(), "/../a.html")
	require.ErrorIs(t, err, ErrNotFound)
}
