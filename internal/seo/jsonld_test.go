package seo

import (
	"encoding/json"
	"strings"
	"testing"
)

func TestArticleJSON(t *testing.T) {
	out := JSON(Article("Корея как бренд", "/blog.html?article=korea", "CO[D]ENT", "2023-01-26", []string{"бренды", "стоматология"}))
	var got map[string]any
	if err := json.Unmarshal([]byte(out), &got); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if got["@type"] != "Article" || got["headline"] != "Корея как бренд" {
		t.Fatalf("unexpected payload: %s", out)
	}
	if got["keywords"] != "бренды, стоматология" {
		t.Fatalf("expected joined keywords, got %v", got["keywords"])
	}
	if _, ok := Article("x", "", "", "", nil)["url"]; ok {
		t.Fatalf("expected empty url to be omitted")
	}
}

func TestJSONEscapesScriptClose(t *testing.T) {
	out := JSON(map[string]string{"headline": "</script><b>"})
	if strings.Contains(out, "</script>") {
		t.Fatalf("expected </ to be escaped, got %s", out)
	}
}

func TestBreadcrumbList(t *testing.T) {
	m := BreadcrumbList([]BreadcrumbItem{{Name: "Блог", Item: "/blog.html"}, {Name: "Корея", Item: "/blog.html?article=korea"}})
	items := m["itemListElement"].([]map[string]any)
	if len(items) != 2 || items[1]["position"] != 2 {
		t.Fatalf("unexpected breadcrumb items: %v", items)
	}
}
