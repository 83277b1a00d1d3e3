package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	defaultAddr          = ":8080"
	defaultPublicDir     = "public"
	defaultReadTimeout   = 15 * time.Second
	defaultWriteTimeout  = 15 * time.Second
	defaultIdleTimeout   = 60 * time.Second
	defaultHostSuffix    = "github.io"
	defaultStorageKey    = "attentionBannerClosed"
	defaultRemovalDelay  = 300 * time.Millisecond
	defaultBlogPage      = "blog.html"
	defaultContentDir    = "content/"
	defaultContainer     = "#article-container"
	defaultArticleParam  = "article"
	defaultRelatedCount  = 3
	defaultTitleSuffix   = "CO[D]ENT"
	defaultArticleFormat = "html"
)

// Config captures all runtime configuration organised by concern.
type Config struct {
	Server ServerConfig `yaml:"server"`
	Site   SiteConfig   `yaml:"site"`
}

// ServerConfig configures the HTTP host.
type ServerConfig struct {
	Addr         string        `yaml:"addr"`
	PublicDir    string        `yaml:"public_dir"`
	Upstream     string        `yaml:"upstream"`
	ReadTimeout  time.Duration `yaml:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout"`
	IdleTimeout  time.Duration `yaml:"idle_timeout"`
	DevMode      bool          `yaml:"dev_mode"`
}

// SiteConfig describes which fragments a page receives and where.
type SiteConfig struct {
	BasePath           string            `yaml:"base_path"`
	RepoName           string            `yaml:"repo_name"`
	PrefixedHostSuffix string            `yaml:"prefixed_host_suffix"`
	TitleSuffix        string            `yaml:"title_suffix"`
	Header             FragmentSpec      `yaml:"header"`
	Footer             FragmentSpec      `yaml:"footer"`
	HelpButton         FragmentSpec      `yaml:"help_button"`
	Attention          AttentionConfig   `yaml:"attention"`
	Promo              PageFragment      `yaml:"promo"`
	Contacts           PageFragment      `yaml:"contacts"`
	Tables             []TableFragment   `yaml:"tables"`
	PageTitles         map[string]string `yaml:"page_titles"`
	Blog               BlogConfig        `yaml:"blog"`
}

// FragmentSpec names a fragment file and where it is spliced in.
type FragmentSpec struct {
	Path     string `yaml:"path"`
	Target   string `yaml:"target"`
	Position string `yaml:"position"`
}

// AttentionConfig configures the dismissible site-wide banner.
type AttentionConfig struct {
	Fragment        FragmentSpec  `yaml:"fragment"`
	StorageKey      string        `yaml:"storage_key"`
	Selector        string        `yaml:"selector"`
	CloseSelector   string        `yaml:"close_selector"`
	ExcludePages    []string      `yaml:"exclude_pages"`
	RemovalDelay    time.Duration `yaml:"removal_delay"`
	DismissEndpoint string        `yaml:"dismiss_endpoint"`
}

// PageFragment is a fragment shown only on an explicit list of pages.
type PageFragment struct {
	Fragment FragmentSpec `yaml:"fragment"`
	Pages    []string     `yaml:"pages"`
}

// TableFragment binds a table insert to a single page.
type TableFragment struct {
	Page     string       `yaml:"page"`
	Fragment FragmentSpec `yaml:"fragment"`
}

// BlogConfig configures listing and article rendering on the blog page.
type BlogConfig struct {
	Page         string    `yaml:"page"`
	ContentDir   string    `yaml:"content_dir"`
	Container    string    `yaml:"container"`
	Param        string    `yaml:"param"`
	RelatedCount int       `yaml:"related_count"`
	ShuffleSeed  int64     `yaml:"shuffle_seed"`
	Articles     []Article `yaml:"articles"`
}

// Article is static metadata for one blog post. ID matches the content
// file name without extension.
type Article struct {
	ID          string   `yaml:"id"`
	Title       string   `yaml:"title"`
	PublishDate string   `yaml:"publish_date"`
	Tags        []string `yaml:"tags"`
	Format      string   `yaml:"format"`
}

// ContentFile returns the article body file name under the content dir.
func (a Article) ContentFile() string {
	if a.Format == "markdown" {
		return a.ID + ".md"
	}
	return a.ID + ".html"
}

var validPositions = map[string]struct{}{
	"beforebegin": {},
	"afterbegin":  {},
	"beforeend":   {},
	"afterend":    {},
}

// Load builds the configuration from defaults, an optional YAML file and
// environment overrides, then validates it.
func Load(path string) (Config, error) {
	cfg := Default()
	if path = strings.TrimSpace(path); path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("config: read %s: %w", path, err)
		}
		if err := yaml.Unmarshal(raw, &cfg); err != nil {
			return Config{}, fmt.Errorf("config: parse %s: %w", path, err)
		}
	}
	if err := applyEnv(&cfg); err != nil {
		return Config{}, err
	}
	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func applyEnv(cfg *Config) error {
	if v := os.Getenv("CODENT_WEB_ADDR"); v != "" {
		cfg.Server.Addr = v
	} else if port := os.Getenv("PORT"); port != "" {
		cfg.Server.Addr = ":" + port
	}
	if v := os.Getenv("CODENT_WEB_PUBLIC"); v != "" {
		cfg.Server.PublicDir = v
	}
	if v := os.Getenv("CODENT_WEB_UPSTREAM"); v != "" {
		cfg.Server.Upstream = v
	}
	if v, ok := os.LookupEnv("CODENT_WEB_BASE_PATH"); ok {
		cfg.Site.BasePath = v
	}
	if os.Getenv("CODENT_WEB_DEV") != "" {
		cfg.Server.DevMode = true
	}
	if v := os.Getenv("CODENT_WEB_SHUFFLE_SEED"); v != "" {
		seed, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return fmt.Errorf("config: CODENT_WEB_SHUFFLE_SEED: %w", err)
		}
		cfg.Site.Blog.ShuffleSeed = seed
	}
	return nil
}

func (c *Config) applyDefaults() {
	s := &c.Server
	if s.Addr == "" {
		s.Addr = defaultAddr
	}
	if s.PublicDir == "" {
		s.PublicDir = defaultPublicDir
	}
	if s.ReadTimeout <= 0 {
		s.ReadTimeout = defaultReadTimeout
	}
	if s.WriteTimeout <= 0 {
		s.WriteTimeout = defaultWriteTimeout
	}
	if s.IdleTimeout <= 0 {
		s.IdleTimeout = defaultIdleTimeout
	}

	site := &c.Site
	if site.PrefixedHostSuffix == "" {
		site.PrefixedHostSuffix = defaultHostSuffix
	}
	if site.TitleSuffix == "" {
		site.TitleSuffix = defaultTitleSuffix
	}
	a := &site.Attention
	if a.StorageKey == "" {
		a.StorageKey = defaultStorageKey
	}
	if a.Selector == "" {
		a.Selector = ".attention-banner"
	}
	if a.CloseSelector == "" {
		a.CloseSelector = ".attention-banner__close"
	}
	if a.RemovalDelay <= 0 {
		a.RemovalDelay = defaultRemovalDelay
	}
	b := &site.Blog
	if b.Page == "" {
		b.Page = defaultBlogPage
	}
	if b.ContentDir == "" {
		b.ContentDir = defaultContentDir
	}
	if !strings.HasSuffix(b.ContentDir, "/") {
		b.ContentDir += "/"
	}
	if b.Container == "" {
		b.Container = defaultContainer
	}
	if b.Param == "" {
		b.Param = defaultArticleParam
	}
	if b.RelatedCount == 0 {
		b.RelatedCount = defaultRelatedCount
	}
	for i := range b.Articles {
		if b.Articles[i].Format == "" {
			b.Articles[i].Format = defaultArticleFormat
		}
	}
	fragments := []*FragmentSpec{&site.Header, &site.Footer, &site.HelpButton, &a.Fragment, &site.Promo.Fragment, &site.Contacts.Fragment}
	for i := range site.Tables {
		fragments = append(fragments, &site.Tables[i].Fragment)
	}
	for _, f := range fragments {
		if f.Target == "" {
			f.Target = "body"
		}
		if f.Position == "" {
			f.Position = "beforeend"
		}
	}
}

// Validate reports the first structural problem found in the configuration.
func (c Config) Validate() error {
	site := c.Site
	named := map[string]FragmentSpec{
		"header":      site.Header,
		"footer":      site.Footer,
		"help_button": site.HelpButton,
		"attention":   site.Attention.Fragment,
		"promo":       site.Promo.Fragment,
		"contacts":    site.Contacts.Fragment,
	}
	for i, t := range site.Tables {
		if strings.TrimSpace(t.Page) == "" {
			return fmt.Errorf("config: tables[%d]: page is required", i)
		}
		named[fmt.Sprintf("tables[%d]", i)] = t.Fragment
	}
	for name, f := range named {
		if strings.TrimSpace(f.Path) == "" {
			return fmt.Errorf("config: %s: fragment path is required", name)
		}
		if _, ok := validPositions[f.Position]; !ok {
			return fmt.Errorf("config: %s: invalid position %q", name, f.Position)
		}
	}
	if site.Blog.RelatedCount < 0 {
		return errors.New("config: blog.related_count must not be negative")
	}
	seen := make(map[string]struct{}, len(site.Blog.Articles))
	for i, a := range site.Blog.Articles {
		id := strings.TrimSpace(a.ID)
		if id == "" {
			return fmt.Errorf("config: blog.articles[%d]: id is required", i)
		}
		if strings.ContainsAny(id, "/\\") || strings.Contains(id, "..") {
			return fmt.Errorf("config: blog.articles[%d]: invalid id %q", i, id)
		}
		if _, dup := seen[id]; dup {
			return fmt.Errorf("config: blog.articles: duplicate id %q", id)
		}
		seen[id] = struct{}{}
		switch a.Format {
		case "html", "markdown":
		default:
			return fmt.Errorf("config: blog.articles[%d]: unknown format %q", i, a.Format)
		}
	}
	return nil
}
