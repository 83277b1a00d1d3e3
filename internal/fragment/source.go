package fragment

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// ErrNotFound is returned when a fragment file does not exist.
var ErrNotFound = errors.New("fragment: not found")

// StatusError reports a non-2xx response for a fragment.
type StatusError struct {
	Path string
	Code int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("fragment: %s: HTTP %d", e.Path, e.Code)
}

// Source retrieves raw fragment text by resolved path.
type Source interface {
	Fetch(ctx context.Context, path string) (string, error)
}

// SourceFunc adapts a function to Source.
type SourceFunc func(ctx context.Context, path string) (string, error)

func (f SourceFunc) Fetch(ctx context.Context, path string) (string, error) { return f(ctx, path) }

const (
	defaultTimeout  = 5 * time.Second
	maxFragmentSize = 4 << 20
)

// HTTPSource fetches fragments from a static host.
type HTTPSource struct {
	baseURL string
	http    *http.Client
}

// NewHTTPSource constructs an HTTPSource rooted at baseURL (scheme and host,
// optionally a path).
func NewHTTPSource(baseURL string) *HTTPSource {
	return &HTTPSource{
		baseURL: strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		http:    &http.Client{Timeout: defaultTimeout},
	}
}

// WithClient replaces the HTTP client.
func (s *HTTPSource) WithClient(c *http.Client) *HTTPSource {
	if c != nil {
		s.http = c
	}
	return s
}

func (s *HTTPSource) Fetch(ctx context.Context, path string) (string, error) {
	endpoint, err := url.JoinPath(s.baseURL, path)
	if err != nil {
		return "", err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("Accept", "text/html")
	resp, err := s.http.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode == http.StatusNotFound {
		_, _ = io.Copy(io.Discard, resp.Body)
		return "", fmt.Errorf("%w: %s", ErrNotFound, path)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, resp.Body)
		return "", &StatusError{Path: path, Code: resp.StatusCode}
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxFragmentSize))
	if err != nil {
		return "", fmt.Errorf("fragment: read %s: %w", path, err)
	}
	return string(body), nil
}

// DirSource reads fragments from a filesystem rooted at the site root.
type DirSource struct {
	fsys fs.FS
}

// NewDirSource wraps fsys.
func NewDirSource(fsys fs.FS) *DirSource {
	return &DirSource{fsys: fsys}
}

func (s *DirSource) Fetch(ctx context.Context, path string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	name := strings.TrimPrefix(path, "/")
	if name == "" || !fs.ValidPath(name) {
		return "", fmt.Errorf("%w: %s", ErrNotFound, path)
	}
	data, err := fs.ReadFile(s.fsys, name)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", fmt.Errorf("%w: %s", ErrNotFound, path)
		}
		return "", fmt.Errorf("fragment: read %s: %w", path, err)
	}
	return string(data), nil
}

// StripPrefix makes a source ignore a leading base path, so a DirSource rooted
// at the site directory can serve paths resolved under "/<repo>/".
func StripPrefix(prefix string, src Source) Source {
	prefix = "/" + strings.Trim(prefix, "/")
	if prefix == "/" {
		return src
	}
	return SourceFunc(func(ctx context.Context, p string) (string, error) {
		if rest, ok := strings.CutPrefix(p, prefix); ok && (rest == "" || strings.HasPrefix(rest, "/")) {
			p = rest
		}
		return src.Fetch(ctx, p)
	})
}
