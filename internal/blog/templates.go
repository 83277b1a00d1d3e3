package blog

import (
	"html/template"
	"strings"
)

var views = template.Must(template.New("blog").Parse(`
{{define "card"}}<a class="article-card" href="{{.Href}}" data-article-id="{{.ID}}"{{if .Target}} hx-get="{{.Href}}" hx-target="{{.Target}}" hx-push-url="true"{{end}}>
<h3 class="article-card__title">{{.Title}}</h3>
<time class="article-card__date" datetime="{{.ISO}}">{{.Date}}</time>
{{if .Tags}}<ul class="article-card__tags">{{range .Tags}}<li class="tag">{{.}}</li>{{end}}</ul>{{end}}
</a>{{end}}

{{define "listing"}}<section class="articles-list">
{{range .Cards}}{{template "card" .}}
{{else}}<p class="articles-list__empty">{{.Empty}}</p>{{end}}
</section>{{end}}

{{define "article"}}<article class="article" data-article-id="{{.ID}}">
<a class="article__back" href="{{.ListHref}}" data-blog-listing{{if .Target}} hx-get="{{.ListHref}}" hx-target="{{.Target}}" hx-push-url="true"{{end}}>{{.Back}}</a>
<header class="article__header">
<h1 class="article__title">{{.Title}}</h1>
<time class="article__date" datetime="{{.ISO}}">{{.Date}}</time>
{{if .Tags}}<ul class="article__tags">{{range .Tags}}<li class="tag">{{.}}</li>{{end}}</ul>{{end}}
</header>
<div class="article__body"></div>
{{if .Related}}<aside class="related-articles">
<h2 class="related-articles__title">{{.RelatedTitle}}</h2>
<div class="related-articles__list">{{range .Related}}{{template "card" .}}{{end}}</div>
</aside>{{end}}
</article>{{end}}
`))

type cardView struct {
	ID   string
	Href string
	// Target is the htmx swap target; empty links navigate normally.
	Target string
	Title  string
	Date   string
	ISO    string
	Tags   []string
}

type listingView struct {
	Cards []cardView
	Empty string
}

type articleView struct {
	cardView
	ListHref     string
	Back         string
	Related      []cardView
	RelatedTitle string
}

func execute(name string, data any) (string, error) {
	var b strings.Builder
	if err := views.ExecuteTemplate(&b, name, data); err != nil {
		return "", err
	}
	return b.String(), nil
}
