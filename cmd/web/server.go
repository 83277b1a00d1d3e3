package main

import (
	"bytes"
	"errors"
	"html"
	"net/http"
	"os"
	"path"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"codent.ru/codent-web/internal/assembler"
	"codent.ru/codent-web/internal/config"
	"codent.ru/codent-web/internal/dom"
	"codent.ru/codent-web/internal/fragment"
	"codent.ru/codent-web/internal/i18n"
	mw "codent.ru/codent-web/internal/middleware"
	"codent.ru/codent-web/internal/page"
)

// server assembles static pages per request.
type server struct {
	cfg    config.Config
	asm    *assembler.Assembler
	src    fragment.Source
	bundle *i18n.Bundle
	assets http.Handler
	base   string
	log    *zap.Logger
}

// newSource reads pages and fragments from the upstream when one is set,
// otherwise from the public directory.
func newSource(cfg config.Config) fragment.Source {
	if cfg.Server.Upstream != "" {
		return fragment.NewHTTPSource(cfg.Server.Upstream)
	}
	return fragment.StripPrefix(cfg.Site.BasePath, fragment.NewDirSource(os.DirFS(cfg.Server.PublicDir)))
}

func newServer(cfg config.Config, src fragment.Source, logger *zap.Logger) (*server, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	bundle := i18n.Default()
	asm, err := assembler.New(cfg.Site, src, assembler.WithLogger(logger), assembler.WithStrings(bundle))
	if err != nil {
		return nil, err
	}
	s := &server{
		cfg:    cfg,
		asm:    asm,
		src:    src,
		bundle: bundle,
		base:   "/" + strings.Trim(cfg.Site.BasePath, "/"),
		log:    logger,
	}
	s.assets = mw.AssetsWithCache(cfg.Server.PublicDir, strings.TrimSuffix(s.base, "/"))
	return s, nil
}

func newRouter(cfg config.Config, logger *zap.Logger) (http.Handler, error) {
	s, err := newServer(cfg, newSource(cfg), logger)
	if err != nil {
		return nil, err
	}
	return s.routes(), nil
}

func (s *server) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	// If deployed behind a trusted reverse proxy/load balancer, RealIP will use
	// X-Forwarded-For to determine the client IP.
	r.Use(chimw.RealIP)
	r.Use(mw.Logger(s.log))
	r.Use(chimw.Recoverer)
	r.Use(mw.HTMX)
	r.Use(mw.Locale(s.bundle))
	r.Use(mw.Storage(mw.StorageOptions{Secure: !s.cfg.Server.DevMode}))
	r.Use(chimw.Compress(5))
	r.Use(chimw.Timeout(30 * time.Second))

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	if ep := s.cfg.Site.Attention.DismissEndpoint; ep != "" {
		r.Post(ep, s.dismissAttention)
	}
	r.Get("/*", s.serve)
	return r
}

// serve routes a GET to an assembled page, a raw fragment file or a static
// asset.
func (s *server) serve(w http.ResponseWriter, r *http.Request) {
	p := r.URL.Path
	if strings.HasSuffix(p, "/") {
		p += "index.html"
	}
	if path.Ext(p) != ".html" {
		s.assets.ServeHTTP(w, r)
		return
	}
	if s.isFragment(p) {
		s.rawFragment(w, r, p)
		return
	}
	s.page(w, r, p)
}

func (s *server) isFragment(p string) bool {
	return s.asm.Routes().IsFragment(strings.TrimPrefix(p, s.base))
}

func (s *server) rawFragment(w http.ResponseWriter, r *http.Request, p string) {
	body, err := s.src.Fetch(r.Context(), p)
	if err != nil {
		s.fetchError(w, r, p, err)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write([]byte(body))
}

func (s *server) page(w http.ResponseWriter, r *http.Request, p string) {
	ctx := r.Context()
	log := mw.LoggerFrom(ctx)

	raw, err := s.src.Fetch(ctx, p)
	if err != nil {
		s.fetchError(w, r, p, err)
		return
	}
	doc, err := dom.ParseString(raw)
	if err != nil {
		log.Error("parse page", zap.String("path", p), zap.Error(err))
		mw.Error(w, r, http.StatusInternalServerError, "page parse error")
		return
	}
	if root := doc.Find("html").First(); root.AttrOr("lang", "") == "" {
		root.SetAttr("lang", mw.Lang(r, s.bundle.Fallback()))
	}

	win := page.NewWindow(doc, page.LocationFromURL(r.URL), mw.StorageFrom(w, r))
	u := *r.URL
	u.Host = r.Host
	res := s.asm.AssembleAt(ctx, win, fragment.DetectBase(&u, s.cfg.Site))

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "private, no-cache")

	// boosted navigations swap the whole body, so they get the full page
	if mw.IsHTMX(ctx) && !mw.IsBoosted(r) && res.Blog != nil {
		s.blogFragment(w, r, doc)
		return
	}
	var buf bytes.Buffer
	if err := doc.Render(&buf); err != nil {
		log.Error("render page", zap.String("path", p), zap.Error(err))
		mw.Error(w, r, http.StatusInternalServerError, "page render error")
		return
	}
	_, _ = w.Write(buf.Bytes())
}

// blogFragment answers an htmx navigation with the new blog container
// content and the title, and tells htmx which URL to push.
func (s *server) blogFragment(w http.ResponseWriter, r *http.Request, doc *dom.Document) {
	inner := ""
	if c := doc.First(s.cfg.Site.Blog.Container); c != nil {
		inner, _ = c.Html()
	}
	mw.PushURL(w, r.URL.RequestURI())
	_, _ = w.Write([]byte("<title>" + html.EscapeString(doc.Title()) + "</title>" + inner))
}

// dismissAttention persists the attention banner flag for this browser.
func (s *server) dismissAttention(w http.ResponseWriter, r *http.Request) {
	mw.StorageFrom(w, r).Set(s.cfg.Site.Attention.StorageKey, "true")
	w.WriteHeader(http.StatusOK)
}

func (s *server) fetchError(w http.ResponseWriter, r *http.Request, p string, err error) {
	var se *fragment.StatusError
	switch {
	case errors.Is(err, fragment.ErrNotFound):
		mw.Error(w, r, http.StatusNotFound, "not found")
	case errors.As(err, &se):
		mw.LoggerFrom(r.Context()).Warn("upstream status", zap.String("path", p), zap.Int("status", se.Code))
		mw.Error(w, r, http.StatusBadGateway, "upstream error")
	default:
		mw.LoggerFrom(r.Context()).Error("fetch failed", zap.String("path", p), zap.Error(err))
		mw.Error(w, r, http.StatusBadGateway, "upstream error")
	}
}
