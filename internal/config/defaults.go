package config

// productPages carry the company banner.
var productPages = []string{
	"3d-printers.html",
	"3d-scaners.html",
	"photo-polymers.html",
	"post-obrabotka.html",
	"3d-consumables.html",
	"milling.html",
	"frezy.html",
	"sinterising.html",
	"zirkon.html",
	"compressors.html",
}

var defaultArticles = []Article{
	{
		ID:          "korea",
		Title:       "Корея как бренд",
		PublishDate: "26.01.2023",
		Tags:        []string{"бренды", "стоматология", "оборудование"},
	},
	{
		ID:          "3d-printing-in-dentistry",
		Title:       "3D-печать в современной стоматологии",
		PublishDate: "14.03.2023",
		Tags:        []string{"3D-печать", "стоматология", "технологии"},
	},
	{
		ID:          "photopolymer-choice",
		Title:       "Как выбрать фотополимер для печати моделей",
		PublishDate: "02.05.2023",
		Tags:        []string{"3D-печать", "материалы"},
	},
	{
		ID:          "zirconia-milling",
		Title:       "Фрезерование диоксида циркония: практические советы",
		PublishDate: "19.07.2023",
		Tags:        []string{"фрезерование", "материалы", "технологии"},
	},
	{
		ID:          "intraoral-scanners",
		Title:       "Интраоральные сканеры: что важно знать клинике",
		PublishDate: "08.09.2023",
		Tags:        []string{"сканирование", "технологии", "оборудование"},
	},
	{
		ID:          "sintering-furnaces",
		Title:       "Печи для синтеризации: режимы и ошибки",
		PublishDate: "21.11.2023",
		Tags:        []string{"синтеризация", "материалы"},
	},
}

// Default returns the built-in site configuration.
func Default() Config {
	articles := make([]Article, len(defaultArticles))
	for i, a := range defaultArticles {
		a.Tags = append([]string(nil), a.Tags...)
		articles[i] = a
	}
	cfg := Config{
		Site: SiteConfig{
			RepoName:   "codent-site",
			Header:     FragmentSpec{Path: "header.html", Target: "body", Position: "afterbegin"},
			Footer:     FragmentSpec{Path: "footer.html", Target: "body", Position: "beforeend"},
			HelpButton: FragmentSpec{Path: "includes/help-button.html", Target: "body", Position: "beforeend"},
			Attention: AttentionConfig{
				Fragment:        FragmentSpec{Path: "includes/attention-banner.html", Target: "body", Position: "beforeend"},
				DismissEndpoint: "/banners/attention/dismiss",
			},
			Promo: PageFragment{
				Fragment: FragmentSpec{Path: "includes/company-banner.html", Target: "main", Position: "beforeend"},
				Pages:    append([]string(nil), productPages...),
			},
			Contacts: PageFragment{
				Fragment: FragmentSpec{Path: "includes/contacts.html", Target: ".footer-contacts-container", Position: "beforeend"},
				Pages:    []string{"contacts.html", "index.html"},
			},
			Tables: []TableFragment{
				{Page: "3d-printers.html", Fragment: FragmentSpec{Path: "includes/tables/3d-printers.html", Target: ".page-header", Position: "afterend"}},
				{Page: "milling.html", Fragment: FragmentSpec{Path: "includes/tables/milling.html", Target: ".page-header", Position: "afterend"}},
				{Page: "zirkon.html", Fragment: FragmentSpec{Path: "includes/tables/zirkon.html", Target: ".page-header", Position: "afterend"}},
			},
			PageTitles: map[string]string{
				"blog.html": "Блог",
			},
			Blog: BlogConfig{
				Articles: articles,
			},
		},
	}
	cfg.applyDefaults()
	return cfg
}
