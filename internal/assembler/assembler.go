// Package assembler runs the fixed fragment sequence that turns a static
// page into a complete one.
package assembler

import (
	"context"
	"html"
	"math/rand"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"codent.ru/codent-web/internal/banner"
	"codent.ru/codent-web/internal/blog"
	"codent.ru/codent-web/internal/config"
	"codent.ru/codent-web/internal/dom"
	"codent.ru/codent-web/internal/fragment"
	"codent.ru/codent-web/internal/i18n"
	"codent.ru/codent-web/internal/menu"
	"codent.ru/codent-web/internal/page"
	"codent.ru/codent-web/internal/router"
)

const (
	tracerName     = "codent.ru/codent-web/internal/assembler"
	pageHeaderID   = "dynamic-page-header"
	siteHeaderTags = "body > header, body > .header"
)

// Result reports what one assembly did.
type Result struct {
	Inserted  []string
	Failed    []string
	Menu      bool
	Attention *banner.Attention
	Blog      *blog.Renderer
}

func (r *Result) record(path string, ok bool) {
	if ok {
		r.Inserted = append(r.Inserted, path)
		return
	}
	r.Failed = append(r.Failed, path)
}

// Option customises an Assembler.
type Option func(*Assembler)

// WithLogger sets the logger for assembly and its components.
func WithLogger(l *zap.Logger) Option {
	return func(a *Assembler) {
		if l != nil {
			a.log = l
		}
	}
}

// WithStrings sets the interface strings used by the blog.
func WithStrings(b *i18n.Bundle) Option {
	return func(a *Assembler) {
		if b != nil {
			a.strings = b
		}
	}
}

// WithBase fixes the fragment base path. Without it the base comes from
// the site config alone.
func WithBase(base string) Option {
	return func(a *Assembler) { a.base = base }
}

// WithStaticOutput prepares pages for plain static hosting. Blog links lose
// their htmx attributes, and the attention banner is left out unless a
// dismissal endpoint is configured to receive the close request.
func WithStaticOutput() Option {
	return func(a *Assembler) { a.static = true }
}

// Assembler is safe for concurrent use; every call to Assemble works on its
// own window and its own fragment cache.
type Assembler struct {
	site    config.SiteConfig
	src     fragment.Source
	routes  *router.Router
	catalog *blog.Catalog
	strings *i18n.Bundle
	base    string
	static  bool
	log     *zap.Logger
	tracer  trace.Tracer

	seedMu sync.Mutex
	seeds  *rand.Rand
}

// New validates the article catalogue and prepares the page router.
func New(site config.SiteConfig, src fragment.Source, opts ...Option) (*Assembler, error) {
	catalog, err := blog.NewCatalog(site.Blog.Articles)
	if err != nil {
		return nil, err
	}
	a := &Assembler{
		site:    site,
		src:     src,
		routes:  router.New(site),
		catalog: catalog,
		strings: i18n.Default(),
		base:    site.BasePath,
		log:     zap.NewNop(),
		tracer:  otel.Tracer(tracerName),
	}
	for _, opt := range opts {
		opt(a)
	}
	seed := site.Blog.ShuffleSeed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	a.seeds = rand.New(rand.NewSource(seed))
	return a, nil
}

// Routes exposes the page router.
func (a *Assembler) Routes() *router.Router { return a.routes }

// Assemble completes w using the configured base.
func (a *Assembler) Assemble(ctx context.Context, w *page.Window) Result {
	return a.AssembleAt(ctx, w, a.base)
}

// AssembleAt completes w, resolving fragments against base. Fragment
// failures are logged and recorded; assembly always runs to the end.
func (a *Assembler) AssembleAt(ctx context.Context, w *page.Window, base string) Result {
	current := w.Location().Path
	ctx, span := a.tracer.Start(ctx, "assembler.Assemble", trace.WithAttributes(
		attribute.String("page.path", current),
		attribute.String("page.name", router.PageName(current)),
	))
	defer span.End()

	loader := fragment.NewLoader(a.src, base, fragment.WithLogger(a.log), fragment.WithCache(fragment.NewCache()))
	a.prefetch(ctx, loader, a.site.Header, a.site.Footer, a.site.HelpButton)

	var res Result
	doc := w.Document
	load := func(spec config.FragmentSpec) bool {
		ok := loader.Load(ctx, doc, fragment.RequestFor(spec))
		res.record(spec.Path, ok)
		return ok
	}

	load(a.site.Header)
	res.Menu = menu.Init(doc, current)

	if a.showAttention(current) {
		att := banner.NewAttention(w, loader, a.site.Attention, a.log)
		att.Load(ctx)
		switch att.State() {
		case banner.Visible:
			res.record(a.site.Attention.Fragment.Path, true)
		case banner.NotLoaded:
			res.record(a.site.Attention.Fragment.Path, false)
		}
		res.Attention = att
	}
	if a.routes.ShowPromo(current) {
		res.record(a.site.Promo.Fragment.Path, banner.NewPromo(w, loader, a.routes, a.site.Promo).Load(ctx))
	}

	load(a.site.Footer)
	load(a.site.HelpButton)

	if spec, ok := a.routes.Table(current); ok {
		load(spec)
	}
	if a.routes.ShowContacts(current) {
		load(a.site.Contacts.Fragment)
	}
	if title, ok := a.routes.PageTitle(current); ok {
		SetPageHeader(doc, title)
	}

	if a.routes.IsBlog(current) {
		r := blog.NewRenderer(w, loader, a.catalog, a.site.Blog, blog.Options{
			TitleSuffix: a.site.TitleSuffix,
			Lang:        a.lang(doc),
			Strings:     a.strings,
			Logger:      a.log,
			Rand:        a.rand(),
			Static:      a.static,
		})
		r.Dispatch(ctx)
		r.BindHistory(ctx)
		res.Blog = r
	}

	span.SetAttributes(
		attribute.Int("fragments.inserted", len(res.Inserted)),
		attribute.Int("fragments.failed", len(res.Failed)),
	)
	if len(res.Failed) > 0 {
		a.log.Warn("page assembled with failures",
			zap.String("path", current),
			zap.Strings("failed", res.Failed),
		)
	}
	return res
}

// prefetch warms the page cache with fragments that every page needs.
// Errors surface again, and are logged, when the fragment is loaded.
func (a *Assembler) prefetch(ctx context.Context, loader *fragment.Loader, specs ...config.FragmentSpec) {
	g, gctx := errgroup.WithContext(ctx)
	for _, spec := range specs {
		if spec.Path == "" {
			continue
		}
		g.Go(func() error {
			_, _ = loader.Fetch(gctx, spec.Path)
			return nil
		})
	}
	_ = g.Wait()
}

func (a *Assembler) showAttention(current string) bool {
	if a.static && a.site.Attention.DismissEndpoint == "" {
		return false
	}
	return a.routes.ShowAttention(current)
}

func (a *Assembler) lang(doc *dom.Document) string {
	if lang := doc.Find("html").First().AttrOr("lang", ""); lang != "" {
		return a.strings.Resolve(lang)
	}
	return a.strings.Fallback()
}

// rand derives a per-page generator so concurrent page views never share
// one.
func (a *Assembler) rand() *rand.Rand {
	a.seedMu.Lock()
	defer a.seedMu.Unlock()
	return rand.New(rand.NewSource(a.seeds.Int63()))
}

// SetPageHeader shows title in the dynamic page header, creating the
// section right after the site header, or at the start of body when there
// is none.
func SetPageHeader(doc *dom.Document, title string) {
	if existing := doc.First("#" + pageHeaderID); existing != nil {
		existing.Find(".page-header__title").First().SetText(title)
		return
	}
	markup := `<section class="page-header" id="` + pageHeaderID + `">` +
		`<div class="page-header__container"><h1 class="page-header__title">` +
		html.EscapeString(title) + `</h1></div></section>`
	if header := doc.First(siteHeaderTags); header != nil {
		_ = dom.InsertAt(header, dom.AfterEnd, markup)
		return
	}
	_ = doc.Insert("body", dom.AfterBegin, markup)
}
