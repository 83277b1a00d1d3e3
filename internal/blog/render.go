package blog

import (
	"bytes"
	"context"
	"math/rand"
	"net/url"
	"sync"
	"sync/atomic"

	"github.com/PuerkitoBio/goquery"
	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"go.uber.org/zap"

	"codent.ru/codent-web/internal/config"
	"codent.ru/codent-web/internal/dom"
	"codent.ru/codent-web/internal/format"
	"codent.ru/codent-web/internal/fragment"
	"codent.ru/codent-web/internal/i18n"
	"codent.ru/codent-web/internal/page"
	"codent.ru/codent-web/internal/seo"
)

const (
	jsonLDID   = "article-jsonld"
	stateKey   = "articleId"
	modeList   = "listing"
	modeSingle = "article"
)

// Options tune a Renderer.
type Options struct {
	TitleSuffix string
	Lang        string
	Strings     *i18n.Bundle
	Logger      *zap.Logger
	// Rand breaks ties in related-article ranking. Nil keeps catalogue order.
	Rand *rand.Rand
	// Static drops the htmx attributes from rendered links, for hosts that
	// cannot answer blog.html?article= with a fragment.
	Static bool
}

// Renderer draws the blog page into one window.
type Renderer struct {
	win     *page.Window
	loader  *fragment.Loader
	catalog *Catalog
	cfg     config.BlogConfig
	opts    Options
	log     *zap.Logger

	md        goldmark.Markdown
	policy    *bluemonday.Policy
	baseTitle string

	// gen is bumped by every render; a render whose token is stale by the
	// time its content arrives is dropped.
	gen atomic.Uint64

	mu      sync.Mutex
	mode    string
	current string
}

// NewRenderer binds a renderer to win.
func NewRenderer(win *page.Window, loader *fragment.Loader, catalog *Catalog, cfg config.BlogConfig, opts Options) *Renderer {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.Strings == nil {
		opts.Strings = i18n.Default()
	}
	if opts.Lang == "" {
		opts.Lang = opts.Strings.Fallback()
	}
	return &Renderer{
		win:       win,
		loader:    loader,
		catalog:   catalog,
		cfg:       cfg,
		opts:      opts,
		log:       opts.Logger,
		md:        goldmark.New(goldmark.WithExtensions(extension.GFM)),
		policy:    bluemonday.UGCPolicy(),
		baseTitle: win.Document.Title(),
	}
}

// Mode reports "listing", "article" or "" before the first render.
func (r *Renderer) Mode() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.mode
}

// Current is the id of the article on screen, or "".
func (r *Renderer) Current() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.current
}

// BindHistory re-dispatches on back/forward traversal.
func (r *Renderer) BindHistory(ctx context.Context) {
	r.win.History.OnPopState(func(page.Entry) {
		r.Dispatch(ctx)
	})
}

// Dispatch renders the mode selected by the current location.
func (r *Renderer) Dispatch(ctx context.Context) bool {
	if id := r.win.Location().Param(r.cfg.Param); id != "" {
		return r.RenderArticle(ctx, id)
	}
	return r.RenderListing(ctx)
}

// RenderListing draws every article card in catalogue order.
func (r *Renderer) RenderListing(ctx context.Context) bool {
	return r.renderListing(ctx, r.gen.Add(1))
}

// Navigate pushes a history entry for id and renders it in place.
func (r *Renderer) Navigate(ctx context.Context, id string) bool {
	r.win.History.PushState(map[string]string{stateKey: id}, r.articleHref(id))
	return r.RenderArticle(ctx, id)
}

// NavigateListing pushes the bare blog page and renders the listing.
func (r *Renderer) NavigateListing(ctx context.Context) bool {
	r.win.History.PushState(nil, r.cfg.Page)
	return r.RenderListing(ctx)
}

// RenderArticle draws one article. Unknown ids and missing content fall back
// to the listing; it reports true only when the article itself was drawn.
func (r *Renderer) RenderArticle(ctx context.Context, id string) bool {
	token := r.gen.Add(1)
	article, err := r.catalog.Get(id)
	if err != nil {
		r.log.Warn("unknown article, showing listing", zap.String("id", id))
		r.renderListing(ctx, token)
		return false
	}
	body, err := r.loader.Fetch(ctx, r.cfg.ContentDir+article.ContentFile())
	if err != nil {
		r.log.Error("article content failed, showing listing", zap.String("id", id), zap.Error(err))
		r.renderListing(ctx, token)
		return false
	}
	if article.Format == "markdown" {
		if body, err = r.markdown(body); err != nil {
			r.log.Error("article markdown failed, showing listing", zap.String("id", id), zap.Error(err))
			r.renderListing(ctx, token)
			return false
		}
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.gen.Load() != token {
		r.log.Debug("discarding stale article render", zap.String("id", id))
		return false
	}
	container := r.container()
	if container == nil {
		return false
	}
	related := Related(article, r.catalog.All(), r.cfg.RelatedCount, r.opts.Rand)
	view := articleView{
		cardView:     r.card(article),
		ListHref:     r.cfg.Page,
		Back:         r.t("blog.back"),
		RelatedTitle: r.t("blog.related"),
	}
	for _, a := range related {
		view.Related = append(view.Related, r.card(a))
	}
	shell, err := execute("article", view)
	if err != nil {
		r.log.Error("render article shell", zap.String("id", id), zap.Error(err))
		return false
	}
	r.win.Document.ReleaseChildren(container)
	container.Empty()
	if err := dom.InsertAt(container, dom.BeforeEnd, shell); err != nil {
		return false
	}
	container.Find(".article__body").First().AppendHtml(body)
	r.intercept(ctx, container)

	r.win.Document.SetTitle(article.Title + r.suffix())
	r.setJSONLD(article)
	r.mode, r.current = modeSingle, article.ID
	return true
}

func (r *Renderer) renderListing(ctx context.Context, token uint64) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.gen.Load() != token {
		return false
	}
	container := r.container()
	if container == nil {
		return false
	}
	view := listingView{Empty: r.t("blog.empty")}
	for _, a := range r.catalog.All() {
		view.Cards = append(view.Cards, r.card(a))
	}
	markup, err := execute("listing", view)
	if err != nil {
		r.log.Error("render listing", zap.Error(err))
		return false
	}
	r.win.Document.ReleaseChildren(container)
	container.Empty()
	if err := dom.InsertAt(container, dom.BeforeEnd, markup); err != nil {
		return false
	}
	r.intercept(ctx, container)
	if r.baseTitle != "" {
		r.win.Document.SetTitle(r.baseTitle)
	}
	r.win.Document.Find("#" + jsonLDID).Remove()
	r.mode, r.current = modeList, ""
	return true
}

// intercept turns article links inside container into in-place navigation.
func (r *Renderer) intercept(ctx context.Context, container *goquery.Selection) {
	doc := r.win.Document
	container.Find("a[data-article-id]").Each(func(_ int, a *goquery.Selection) {
		id := a.AttrOr("data-article-id", "")
		doc.OnSelection(a, "click", func(e *dom.Event) {
			e.PreventDefault()
			r.Navigate(ctx, id)
		})
	})
	container.Find("a[data-blog-listing]").Each(func(_ int, a *goquery.Selection) {
		doc.OnSelection(a, "click", func(e *dom.Event) {
			e.PreventDefault()
			r.NavigateListing(ctx)
		})
	})
}

func (r *Renderer) container() *goquery.Selection {
	c := r.win.Document.First(r.cfg.Container)
	if c == nil {
		r.log.Warn("blog container not found", zap.String("selector", r.cfg.Container))
	}
	return c
}

func (r *Renderer) card(a config.Article) cardView {
	target := r.cfg.Container
	if r.opts.Static {
		target = ""
	}
	return cardView{
		ID:     a.ID,
		Href:   r.articleHref(a.ID),
		Target: target,
		Title:  a.Title,
		Date:   format.DisplayDate(a.PublishDate, r.opts.Lang),
		ISO:    format.ISODate(format.ParseDate(a.PublishDate)),
		Tags:   a.Tags,
	}
}

func (r *Renderer) articleHref(id string) string {
	q := url.Values{}
	q.Set(r.cfg.Param, id)
	return r.cfg.Page + "?" + q.Encode()
}

func (r *Renderer) setJSONLD(a config.Article) {
	head := r.win.Document.Find("head").First()
	if head.Length() == 0 {
		return
	}
	r.win.Document.Find("#" + jsonLDID).Remove()
	href := r.articleHref(a.ID)
	payload := seo.JSON([]any{
		seo.Article(a.Title, href, r.opts.TitleSuffix, format.ISODate(format.ParseDate(a.PublishDate)), a.Tags),
		seo.BreadcrumbList([]seo.BreadcrumbItem{
			{Name: r.t("nav.home"), Item: "index.html"},
			{Name: r.t("nav.blog"), Item: r.cfg.Page},
			{Name: a.Title, Item: href},
		}),
	})
	head.AppendHtml(`<script type="application/ld+json" id="` + jsonLDID + `">` + payload + `</script>`)
}

func (r *Renderer) markdown(src string) (string, error) {
	var buf bytes.Buffer
	if err := r.md.Convert([]byte(src), &buf); err != nil {
		return "", err
	}
	return r.policy.Sanitize(buf.String()), nil
}

func (r *Renderer) suffix() string {
	if r.opts.TitleSuffix == "" {
		return ""
	}
	return " | " + r.opts.TitleSuffix
}

func (r *Renderer) t(key string) string {
	return r.opts.Strings.T(r.opts.Lang, key)
}
