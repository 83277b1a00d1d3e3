// Package fragment fetches HTML fragments and splices them into a page.
package fragment

import (
	"context"
	"net/url"
	"path"
	"strings"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"codent.ru/codent-web/internal/config"
	"codent.ru/codent-web/internal/dom"
)

const tracerName = "codent.ru/codent-web/internal/fragment"

// Request names a fragment and its insertion point.
type Request struct {
	Path     string
	Target   string
	Position dom.Position
}

// RequestFor converts a configured fragment spec. Invalid positions fall
// back to beforeend; config validation rejects them earlier.
func RequestFor(spec config.FragmentSpec) Request {
	pos, err := dom.ParsePosition(spec.Position)
	if err != nil {
		pos = dom.BeforeEnd
	}
	target := spec.Target
	if target == "" {
		target = "body"
	}
	return Request{Path: spec.Path, Target: target, Position: pos}
}

// Cache memoises fragment bodies by resolved path for one page view. It has
// no TTL and no eviction.
type Cache struct {
	mu    sync.RWMutex
	items map[string]string
}

// NewCache returns an empty cache.
func NewCache() *Cache {
	return &Cache{items: map[string]string{}}
}

func (c *Cache) get(key string) (string, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	v, ok := c.items[key]
	return v, ok
}

func (c *Cache) store(key, body string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items[key] = body
}

// Len reports how many bodies are cached.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.items)
}

// Loader resolves, fetches and inserts fragments.
type Loader struct {
	src    Source
	base   string
	cache  *Cache
	log    *zap.Logger
	tracer trace.Tracer
}

// Option customises a Loader.
type Option func(*Loader)

// WithLogger sets the logger used for soft failures.
func WithLogger(l *zap.Logger) Option {
	return func(ld *Loader) {
		if l != nil {
			ld.log = l
		}
	}
}

// WithCache enables memoisation with the given cache.
func WithCache(c *Cache) Option {
	return func(ld *Loader) { ld.cache = c }
}

// NewLoader builds a Loader resolving paths against base.
func NewLoader(src Source, base string, opts ...Option) *Loader {
	l := &Loader{
		src:    src,
		base:   normalizeBase(base),
		log:    zap.NewNop(),
		tracer: otel.Tracer(tracerName),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Base is the resolved base path, always with leading and trailing slash.
func (l *Loader) Base() string { return l.base }

// Resolve joins a relative fragment path onto the base. Absolute paths are
// left alone.
func (l *Loader) Resolve(p string) string {
	if strings.HasPrefix(p, "/") {
		return path.Clean(p)
	}
	return path.Clean(l.base + p)
}

// Fetch returns the fragment text, consulting the cache first.
func (l *Loader) Fetch(ctx context.Context, p string) (string, error) {
	resolved := l.Resolve(p)
	if l.cache != nil {
		if body, ok := l.cache.get(resolved); ok {
			return body, nil
		}
	}
	body, err := l.src.Fetch(ctx, resolved)
	if err != nil {
		return "", err
	}
	if l.cache != nil {
		l.cache.store(resolved, body)
	}
	return body, nil
}

// Load fetches req.Path and inserts it at req.Target. Failures are logged
// and reported as false; prior insertions stay in place.
func (l *Loader) Load(ctx context.Context, doc *dom.Document, req Request) bool {
	ctx, span := l.tracer.Start(ctx, "fragment.Load", trace.WithAttributes(
		attribute.String("fragment.path", req.Path),
		attribute.String("fragment.target", req.Target),
	))
	defer span.End()

	body, err := l.Fetch(ctx, req.Path)
	if err != nil {
		l.log.Error("fragment load failed", zap.String("path", req.Path), zap.Error(err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "fetch")
		return false
	}
	if err := doc.Insert(req.Target, req.Position, body); err != nil {
		l.log.Warn("fragment target not found", zap.String("path", req.Path), zap.String("target", req.Target))
		span.SetStatus(codes.Error, "target")
		return false
	}
	return true
}

// DetectBase picks the base path for fragment resolution. An explicit
// BasePath wins; a host under the path-prefixed suffix uses "/<repo>/";
// everything else resolves from the root.
func DetectBase(u *url.URL, site config.SiteConfig) string {
	if site.BasePath != "" {
		return normalizeBase(site.BasePath)
	}
	if u == nil {
		return "/"
	}
	host := strings.ToLower(u.Hostname())
	suffix := strings.ToLower(strings.TrimSpace(site.PrefixedHostSuffix))
	if suffix == "" || !strings.HasSuffix(host, suffix) {
		return "/"
	}
	if site.RepoName != "" {
		return normalizeBase(site.RepoName)
	}
	seg := strings.SplitN(strings.Trim(u.Path, "/"), "/", 2)[0]
	if seg == "" || strings.Contains(seg, ".") {
		return "/"
	}
	return normalizeBase(seg)
}

func normalizeBase(b string) string {
	b = strings.Trim(strings.TrimSpace(b), "/")
	if b == "" {
		return "/"
	}
	return "/" + b + "/"
}
