// Package menu wires the mobile navigation toggle.
package menu

import (
	"github.com/PuerkitoBio/goquery"

	"codent.ru/codent-web/internal/dom"
	"codent.ru/codent-web/internal/router"
)

const (
	buttonSelector = ".mobile-menu-btn"
	navSelector    = ".nav"
	openClass      = "active"
	lockClass      = "no-scroll"
)

// Init binds the menu button and the outside-click close on doc, and marks
// nav links for the current page with aria-current. It reports false when
// the header markup lacks the button or the nav.
func Init(doc *dom.Document, currentPath string) bool {
	markCurrent(doc, currentPath)

	btn := doc.First(buttonSelector)
	nav := doc.First(navSelector)
	if btn == nil || nav == nil {
		return false
	}
	body := doc.Body()

	btn.SetAttr("aria-expanded", "false")
	doc.OnSelection(btn, "click", func(*dom.Event) {
		toggle(nav, openClass)
		toggle(body, lockClass)
		btn.SetAttr("aria-expanded", boolAttr(nav.HasClass(openClass)))
	})
	doc.OnDocument("click", func(e *dom.Event) {
		if doc.Closest(e.Target, navSelector) != nil || doc.Closest(e.Target, buttonSelector) != nil {
			return
		}
		nav.RemoveClass(openClass)
		body.RemoveClass(lockClass)
		btn.SetAttr("aria-expanded", "false")
	})
	return true
}

func markCurrent(doc *dom.Document, currentPath string) {
	doc.Find(navSelector + " a[href]").Each(func(_ int, a *goquery.Selection) {
		if router.IsActive(a.AttrOr("href", ""), currentPath) {
			a.SetAttr("aria-current", "page")
		}
	})
}

func toggle(sel *goquery.Selection, class string) {
	if sel.HasClass(class) {
		sel.RemoveClass(class)
		return
	}
	sel.AddClass(class)
}

func boolAttr(b bool) string {
	if b {
		return "true"
	}
	return "false"
}
