package router

import (
	"testing"

	"codent.ru/codent-web/internal/config"
)

func TestPageName(t *testing.T) {
	cases := map[string]string{
		"/":                           "index.html",
		"":                            "index.html",
		"/blog.html":                  "blog.html",
		"/codent-site/":               "index.html",
		"/codent-site/milling.html":   "milling.html",
		"/blog.html?article=korea":    "blog.html",
		"/codent-site/frezy.html#top": "frezy.html",
	}
	for in, want := range cases {
		if got := PageName(in); got != want {
			t.Fatalf("PageName(%q): expected %q, got %q", in, want, got)
		}
	}
}

func TestShowPromoMatchesAllowList(t *testing.T) {
	site := config.Default().Site
	r := New(site)
	allowed := map[string]bool{}
	for _, p := range site.Promo.Pages {
		allowed[p] = true
	}
	pages := append([]string{"index.html", "blog.html", "contacts.html", "about.html"}, site.Promo.Pages...)
	for _, p := range pages {
		for _, prefix := range []string{"/", "/codent-site/"} {
			path := prefix + p
			if got := r.ShowPromo(path); got != allowed[p] {
				t.Fatalf("ShowPromo(%q): expected %v, got %v", path, allowed[p], got)
			}
		}
	}
	for _, home := range []string{"/", "/index.html", "/codent-site/"} {
		if r.ShowPromo(home) {
			t.Fatalf("expected no promo on home page %q", home)
		}
	}
}

func TestShowPromoNeverOnHomeEvenIfListed(t *testing.T) {
	site := config.Default().Site
	site.Promo.Pages = append(site.Promo.Pages, "index.html")
	if New(site).ShowPromo("/") {
		t.Fatalf("expected home page to be excluded")
	}
}

func TestShowAttentionIsOptOut(t *testing.T) {
	site := config.Default().Site
	site.Attention.ExcludePages = []string{"privacy.html"}
	r := New(site)
	if !r.ShowAttention("/") || !r.ShowAttention("/blog.html") {
		t.Fatalf("expected attention banner on regular pages")
	}
	if r.ShowAttention("/privacy.html") {
		t.Fatalf("expected attention banner excluded on privacy.html")
	}
}

func TestTableContactsTitlesBlog(t *testing.T) {
	r := New(config.Default().Site)
	spec, ok := r.Table("/3d-printers.html")
	if !ok || spec.Path != "includes/tables/3d-printers.html" {
		t.Fatalf("expected printers table, got %+v ok=%v", spec, ok)
	}
	if _, ok := r.Table("/blog.html"); ok {
		t.Fatalf("expected no table on blog")
	}
	if !r.ShowContacts("/contacts.html") || r.ShowContacts("/milling.html") {
		t.Fatalf("unexpected contacts predicate result")
	}
	if title, ok := r.PageTitle("/blog.html"); !ok || title != "Блог" {
		t.Fatalf("expected blog page title, got %q", title)
	}
	if !r.IsBlog("/codent-site/blog.html?article=korea") || r.IsBlog("/index.html") {
		t.Fatalf("unexpected IsBlog result")
	}
}

func TestIsActive(t *testing.T) {
	cases := []struct {
		href, current string
		want          bool
	}{
		{"blog.html", "/blog.html", true},
		{"./blog.html", "/codent-site/blog.html", true},
		{"/codent-site/blog.html?article=x", "/codent-site/blog.html", true},
		{"/", "/", true},
		{"/", "/index.html", true},
		{"milling.html", "/blog.html", false},
		{"#contacts", "/blog.html", false},
		{"https://example.com/blog.html", "/blog.html", false},
		{"tel:+7000", "/", false},
		{"", "/", false},
	}
	for _, tc := range cases {
		if got := IsActive(tc.href, tc.current); got != tc.want {
			t.Fatalf("IsActive(%q, %q): expected %v, got %v", tc.href, tc.current, tc.want, got)
		}
	}
}

func TestIsFragment(t *testing.T) {
	r := New(config.Default().Site)
	for _, p := range []string{"header.html", "/footer.html", "includes/contacts.html", "includes/tables/zirkon.html", "content/korea.html", "content/notes.md"} {
		if !r.IsFragment(p) {
			t.Fatalf("expected %q to be a fragment", p)
		}
	}
	for _, p := range []string{"index.html", "/blog.html", "3d-printers.html", "includes-page.html"} {
		if r.IsFragment(p) {
			t.Fatalf("expected %q to be a page", p)
		}
	}
}
