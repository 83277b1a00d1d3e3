package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())
	require.Equal(t, "attentionBannerClosed", cfg.Site.Attention.StorageKey)
	require.Equal(t, 3, cfg.Site.Blog.RelatedCount)
	require.Equal(t, "content/", cfg.Site.Blog.ContentDir)
	require.Equal(t, 300*time.Millisecond, cfg.Site.Attention.RemovalDelay)
	require.Contains(t, cfg.Site.Promo.Pages, "3d-printers.html")
	require.NotContains(t, cfg.Site.Promo.Pages, "index.html")
}

func TestDefaultReturnsIndependentCopies(t *testing.T) {
	a := Default()
	a.Site.Blog.Articles[0].Tags[0] = "changed"
	a.Site.Promo.Pages[0] = "changed"

	b := Default()
	require.NotEqual(t, "changed", b.Site.Blog.Articles[0].Tags[0])
	require.NotEqual(t, "changed", b.Site.Promo.Pages[0])
}

func TestLoadMergesYAMLAndEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "site.yaml")
	body := `
server:
  public_dir: ./site
site:
  title_suffix: Test
  attention:
    removal_delay: 1s
  blog:
    related_count: 2
    articles:
      - id: one
        title: One
        publish_date: "01.01.2024"
        tags: [a, b]
      - id: two
        title: Two
        format: markdown
`
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	t.Setenv("CODENT_WEB_ADDR", ":9999")
	t.Setenv("CODENT_WEB_SHUFFLE_SEED", "42")

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, ":9999", cfg.Server.Addr)
	require.Equal(t, "./site", cfg.Server.PublicDir)
	require.Equal(t, "Test", cfg.Site.TitleSuffix)
	require.Equal(t, time.Second, cfg.Site.Attention.RemovalDelay)
	require.Equal(t, 2, cfg.Site.Blog.RelatedCount)
	require.Equal(t, int64(42), cfg.Site.Blog.ShuffleSeed)
	require.Len(t, cfg.Site.Blog.Articles, 2)
	require.Equal(t, "html", cfg.Site.Blog.Articles[0].Format)
	require.Equal(t, "two.md", cfg.Site.Blog.Articles[1].ContentFile())
	require.Equal(t, "header.html", cfg.Site.Header.Path, "defaults survive a partial file")
}

func TestLoadWithoutFileUsesDefaults(t *testing.T) {
	t.Setenv("PORT", "7070")
	cfg, err := Load("")
	require.NoError(t, err)
	require.Equal(t, ":7070", cfg.Server.Addr)
}

func TestLoadRejectsBadSeed(t *testing.T) {
	t.Setenv("CODENT_WEB_SHUFFLE_SEED", "abc")
	_, err := Load("")
	require.Error(t, err)
}

func TestValidateErrors(t *testing.T) {
	cases := map[string]func(c *Config){
		"invalid position": func(c *Config) { c.Site.Header.Position = "inside" },
		"fragment path":    func(c *Config) { c.Site.Footer.Path = "" },
		"duplicate id": func(c *Config) {
			c.Site.Blog.Articles = append(c.Site.Blog.Articles, c.Site.Blog.Articles[0])
		},
		"id is required": func(c *Config) { c.Site.Blog.Articles[0].ID = " " },
		"invalid id":     func(c *Config) { c.Site.Blog.Articles[0].ID = "../etc" },
		"unknown format": func(c *Config) { c.Site.Blog.Articles[0].Format = "pdf" },
		"must not be negative": func(c *Config) {
			c.Site.Blog.RelatedCount = -1
		},
		"page is required": func(c *Config) { c.Site.Tables[0].Page = "" },
	}
	for want, mutate := range cases {
		t.Run(want, func(t *testing.T) {
			cfg := Default()
			mutate(&cfg)
			err := cfg.Validate()
			if err == nil || !strings.Contains(err.Error(), want) {
				t.Fatalf("expected error containing %q, got %v", want, err)
			}
		})
	}
}
