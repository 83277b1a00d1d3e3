// Package blog renders the article listing and single articles on the blog
// page, ranks related articles and handles in-place navigation between them.
package blog

import (
	"errors"
	"fmt"
	"math/rand"
	"sort"
	"strings"

	"codent.ru/codent-web/internal/config"
)

// ErrNotFound is returned for an id that is not in the catalogue.
var ErrNotFound = errors.New("blog: article not found")

// Catalog is the ordered, immutable article metadata set.
type Catalog struct {
	items []config.Article
	byID  map[string]int
}

// NewCatalog copies articles; their order is the default listing order.
func NewCatalog(articles []config.Article) (*Catalog, error) {
	c := &Catalog{
		items: make([]config.Article, 0, len(articles)),
		byID:  make(map[string]int, len(articles)),
	}
	for _, a := range articles {
		id := strings.TrimSpace(a.ID)
		if id == "" {
			return nil, errors.New("blog: article without id")
		}
		if _, dup := c.byID[id]; dup {
			return nil, fmt.Errorf("blog: duplicate article id %q", id)
		}
		a.ID = id
		a.Tags = append([]string(nil), a.Tags...)
		c.byID[id] = len(c.items)
		c.items = append(c.items, a)
	}
	return c, nil
}

// Len is the number of articles.
func (c *Catalog) Len() int { return len(c.items) }

// All returns the articles in configured order.
func (c *Catalog) All() []config.Article {
	out := make([]config.Article, len(c.items))
	copy(out, c.items)
	return out
}

// Get looks an article up by id.
func (c *Catalog) Get(id string) (config.Article, error) {
	i, ok := c.byID[strings.TrimSpace(id)]
	if !ok {
		return config.Article{}, fmt.Errorf("%w: %q", ErrNotFound, id)
	}
	return c.items[i], nil
}

// SharedTags counts tags present on both articles, ignoring case.
func SharedTags(a, b config.Article) int {
	set := make(map[string]struct{}, len(a.Tags))
	for _, t := range a.Tags {
		set[strings.ToLower(strings.TrimSpace(t))] = struct{}{}
	}
	n := 0
	seen := make(map[string]struct{}, len(b.Tags))
	for _, t := range b.Tags {
		k := strings.ToLower(strings.TrimSpace(t))
		if _, dup := seen[k]; dup {
			continue
		}
		seen[k] = struct{}{}
		if _, ok := set[k]; ok {
			n++
		}
	}
	return n
}

// Related ranks every other article by shared tag count, highest first, and
// returns up to n. Ties are ordered by a single shuffle drawn from rng before
// the stable score sort; a nil rng keeps catalogue order among ties.
func Related(current config.Article, all []config.Article, n int, rng *rand.Rand) []config.Article {
	if n <= 0 {
		return nil
	}
	type scored struct {
		article config.Article
		score   int
	}
	pool := make([]scored, 0, len(all))
	for _, a := range all {
		if a.ID == current.ID {
			continue
		}
		pool = append(pool, scored{article: a, score: SharedTags(current, a)})
	}
	if rng != nil {
		rng.Shuffle(len(pool), func(i, j int) { pool[i], pool[j] = pool[j], pool[i] })
	}
	sort.SliceStable(pool, func(i, j int) bool { return pool[i].score > pool[j].score })
	if len(pool) > n {
		pool = pool[:n]
	}
	out := make([]config.Article, len(pool))
	for i, s := range pool {
		out[i] = s.article
	}
	return out
}
