// Package router decides which optional fragments apply to a page. Every
// predicate is a pure function of the request path and static config.
package router

import (
	"path"
	"sort"
	"strings"

	"codent.ru/codent-web/internal/config"
)

const homePage = "index.html"

// PageName returns the last path segment, or index.html for directory
// paths.
func PageName(p string) string {
	if i := strings.IndexAny(p, "?#"); i >= 0 {
		p = p[:i]
	}
	name := p[strings.LastIndex(p, "/")+1:]
	if name == "" {
		return homePage
	}
	return name
}

// Router holds the allow-lists derived from the site config.
type Router struct {
	attentionExcluded map[string]struct{}
	promo             map[string]struct{}
	contacts          map[string]struct{}
	tables            map[string]config.FragmentSpec
	titles            map[string]string
	blogPage          string
	fragmentFiles     map[string]struct{}
	fragmentDirs      []string
}

// New builds a Router. The config is copied into lookup sets.
func New(site config.SiteConfig) *Router {
	r := &Router{
		attentionExcluded: toSet(site.Attention.ExcludePages),
		promo:             toSet(site.Promo.Pages),
		contacts:          toSet(site.Contacts.Pages),
		tables:            make(map[string]config.FragmentSpec, len(site.Tables)),
		titles:            make(map[string]string, len(site.PageTitles)),
		blogPage:          site.Blog.Page,
	}
	for _, t := range site.Tables {
		r.tables[t.Page] = t.Fragment
	}
	for k, v := range site.PageTitles {
		r.titles[k] = v
	}
	if r.blogPage == "" {
		r.blogPage = "blog.html"
	}
	r.indexFragments(site)
	return r
}

func (r *Router) indexFragments(site config.SiteConfig) {
	specs := []config.FragmentSpec{site.Header, site.Footer, site.HelpButton, site.Attention.Fragment, site.Promo.Fragment, site.Contacts.Fragment}
	for _, t := range site.Tables {
		specs = append(specs, t.Fragment)
	}
	r.fragmentFiles = make(map[string]struct{}, len(specs))
	dirs := map[string]struct{}{}
	if d := strings.Trim(site.Blog.ContentDir, "/"); d != "" {
		dirs[d+"/"] = struct{}{}
	}
	for _, spec := range specs {
		p := strings.TrimPrefix(spec.Path, "/")
		if p == "" {
			continue
		}
		r.fragmentFiles[p] = struct{}{}
		if d := path.Dir(p); d != "." {
			dirs[d+"/"] = struct{}{}
		}
	}
	for d := range dirs {
		r.fragmentDirs = append(r.fragmentDirs, d)
	}
	sort.Strings(r.fragmentDirs)
}

// IsFragment reports whether rel, a path relative to the site root, names a
// fragment file rather than a page: one of the configured fragments or
// anything under their directories or the article content directory.
func (r *Router) IsFragment(rel string) bool {
	rel = strings.TrimPrefix(path.Clean("/"+rel), "/")
	if _, ok := r.fragmentFiles[rel]; ok {
		return true
	}
	for _, d := range r.fragmentDirs {
		if strings.HasPrefix(rel, d) {
			return true
		}
	}
	return false
}

// ShowAttention reports whether the attention banner may appear on the page.
// It is opt-out; the persisted dismissal is checked by the banner itself.
func (r *Router) ShowAttention(p string) bool {
	_, excluded := r.attentionExcluded[PageName(p)]
	return !excluded
}

// ShowPromo reports whether the promotional banner belongs on the page. The
// home page never carries it.
func (r *Router) ShowPromo(p string) bool {
	name := PageName(p)
	if name == homePage {
		return false
	}
	_, ok := r.promo[name]
	return ok
}

// ShowContacts reports whether contact details are injected into the footer.
func (r *Router) ShowContacts(p string) bool {
	_, ok := r.contacts[PageName(p)]
	return ok
}

// Table returns the table fragment for the page, if any.
func (r *Router) Table(p string) (config.FragmentSpec, bool) {
	spec, ok := r.tables[PageName(p)]
	return spec, ok
}

// PageTitle returns the dynamic page header title, if configured.
func (r *Router) PageTitle(p string) (string, bool) {
	t, ok := r.titles[PageName(p)]
	return t, ok && strings.TrimSpace(t) != ""
}

// IsBlog reports whether the path is the blog page.
func (r *Router) IsBlog(p string) bool {
	return PageName(p) == r.blogPage
}

// BlogPage is the blog page file name.
func (r *Router) BlogPage() string { return r.blogPage }

// IsActive reports whether a navigation href points at the current page.
// Hrefs are compared by page name, so "blog.html", "./blog.html" and
// "/codent-site/blog.html" all match "/codent-site/blog.html".
func IsActive(href, currentPath string) bool {
	href = strings.TrimSpace(href)
	if href == "" || strings.HasPrefix(href, "#") || strings.Contains(href, "://") ||
		strings.HasPrefix(href, "mailto:") || strings.HasPrefix(href, "tel:") {
		return false
	}
	if i := strings.IndexAny(href, "?#"); i >= 0 {
		href = href[:i]
	}
	if href == "" {
		return false
	}
	if strings.HasSuffix(href, "/") {
		href = path.Join(href, homePage)
	}
	return PageName(href) == PageName(currentPath)
}

func toSet(items []string) map[string]struct{} {
	set := make(map[string]struct{}, len(items))
	for _, it := range items {
		it = strings.TrimSpace(it)
		if it != "" {
			set[it] = struct{}{}
		}
	}
	return set
}
