// Package banner loads the dismissible attention banner and the
// page-allow-listed promotional banner.
package banner

import (
	"context"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"

	"codent.ru/codent-web/internal/config"
	"codent.ru/codent-web/internal/dom"
	"codent.ru/codent-web/internal/fragment"
	"codent.ru/codent-web/internal/page"
	"codent.ru/codent-web/internal/router"
)

// State is the attention banner lifecycle.
type State int

const (
	NotLoaded State = iota
	Visible
	Dismissed
)

func (s State) String() string {
	switch s {
	case NotLoaded:
		return "not_loaded"
	case Visible:
		return "visible"
	case Dismissed:
		return "dismissed"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

const dismissedValue = "true"

// Attention is the site-wide banner whose dismissal is remembered by the
// window storage with no expiry.
type Attention struct {
	cfg    config.AttentionConfig
	win    *page.Window
	loader *fragment.Loader
	timers page.Scheduler
	log    *zap.Logger

	state   State
	node    *goquery.Selection
	pending page.Timer
}

// NewAttention binds an attention banner to one page view.
func NewAttention(win *page.Window, loader *fragment.Loader, cfg config.AttentionConfig, log *zap.Logger) *Attention {
	if log == nil {
		log = zap.NewNop()
	}
	return &Attention{cfg: cfg, win: win, loader: loader, timers: win.Timers, log: log}
}

// WithScheduler replaces the window loop that runs the delayed removal.
func (a *Attention) WithScheduler(s page.Scheduler) *Attention {
	if s != nil {
		a.timers = s
	}
	return a
}

// State reports the current lifecycle state.
func (a *Attention) State() State { return a.state }

// IsDismissed reports whether the dismissal flag is persisted.
func (a *Attention) IsDismissed() bool {
	_, ok := a.win.Storage.Get(a.cfg.StorageKey)
	return ok
}

// Load inserts and shows the banner unless it was dismissed before, in
// which case nothing is fetched.
func (a *Attention) Load(ctx context.Context) bool {
	if a.IsDismissed() {
		a.state = Dismissed
		return false
	}
	if a.state == Visible {
		return true
	}
	if !a.loader.Load(ctx, a.win.Document, fragment.RequestFor(a.cfg.Fragment)) {
		return false
	}
	node := a.win.Document.First(a.cfg.Selector)
	if node == nil {
		a.log.Warn("attention banner markup missing", zap.String("selector", a.cfg.Selector))
		return false
	}
	setDisplay(node, "block")
	a.node = node
	a.state = Visible
	a.bindClose(node)
	return true
}

func (a *Attention) bindClose(node *goquery.Selection) {
	closeBtn := node.Find(a.cfg.CloseSelector).First()
	if closeBtn.Length() == 0 {
		return
	}
	if a.cfg.DismissEndpoint != "" {
		closeBtn.SetAttr("hx-post", a.cfg.DismissEndpoint)
		closeBtn.SetAttr("hx-target", "closest "+a.cfg.Selector)
		closeBtn.SetAttr("hx-swap", fmt.Sprintf("delete swap:%dms", a.cfg.RemovalDelay.Milliseconds()))
	}
	a.win.Document.OnSelection(closeBtn, "click", func(e *dom.Event) {
		e.PreventDefault()
		a.Dismiss()
	})
}

// Dismiss hides the banner, persists the flag and schedules removal of the
// node after the configured delay. The returned timer cancels the removal;
// it is nil when there was nothing visible to remove.
func (a *Attention) Dismiss() page.Timer {
	a.win.Storage.Set(a.cfg.StorageKey, dismissedValue)
	prev := a.state
	a.state = Dismissed
	if prev != Visible || a.node == nil {
		return nil
	}
	node := a.node
	node.AddClass("is-hidden")
	setDisplay(node, "none")
	a.pending = a.timers.AfterFunc(a.cfg.RemovalDelay, func() {
		a.win.Document.Release(node)
		node.Remove()
		a.node = nil
		a.pending = nil
	})
	return a.pending
}

// Promo is the non-dismissible banner shown on product pages.
type Promo struct {
	cfg    config.PageFragment
	win    *page.Window
	loader *fragment.Loader
	routes *router.Router
}

// NewPromo binds the promotional banner to one page view.
func NewPromo(win *page.Window, loader *fragment.Loader, routes *router.Router, cfg config.PageFragment) *Promo {
	return &Promo{cfg: cfg, win: win, loader: loader, routes: routes}
}

// Load inserts the banner when the current page is allow-listed.
func (p *Promo) Load(ctx context.Context) bool {
	if !p.routes.ShowPromo(p.win.Location().Path) {
		return false
	}
	return p.loader.Load(ctx, p.win.Document, fragment.RequestFor(p.cfg.Fragment))
}

// setDisplay sets the display declaration and keeps the rest of the inline
// style.
func setDisplay(sel *goquery.Selection, value string) {
	decls := []string{}
	replaced := false
	for _, d := range strings.Split(sel.AttrOr("style", ""), ";") {
		d = strings.TrimSpace(d)
		if d == "" {
			continue
		}
		if prop, _, ok := strings.Cut(d, ":"); ok && strings.EqualFold(strings.TrimSpace(prop), "display") {
			if replaced {
				continue
			}
			d, replaced = "display: "+value, true
		}
		decls = append(decls, d)
	}
	if !replaced {
		decls = append(decls, "display: "+value)
	}
	sel.SetAttr("style", strings.Join(decls, "; "))
}
