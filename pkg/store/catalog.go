package store

import (
	"github.com/example/brewdesk/pkg/models"
)

type Catalog struct {
	items  []models.CatalogItem
	loaded bool
	err    string
}

func (c Catalog) Replace(items []models.CatalogItem) Catalog {
	next := make([]models.CatalogItem, len(items))
	copy(next, items)
	return Catalog{items: next, loaded: true}
}

func (c Catalog) Append(item models.CatalogItem) Catalog {
	next := make([]models.CatalogItem, 0, len(c.items)+1)
	next = append(next, c.items...)
	c.items = append(next, item)
	c.err = ""
	return c
}

// Fail records msg and keeps the previously loaded items.
func (c Catalog) Fail(msg string) Catalog {
	c.err = msg
	return c
}

func (c Catalog) Find(id string) (models.CatalogItem, bool) {
	for _, it := range c.items {
		if it.ID == id {
			return it, true
		}
	}
	return models.CatalogItem{}, false
}

func (c Catalog) Items() []models.CatalogItem {
	out := make([]models.CatalogItem, len(c.items))
	copy(out, c.items)
	return out
}

func (c Catalog) ByCategory(category string) []models.CatalogItem {
	if category == "" {
		return c.Items()
	}
	out := make([]models.CatalogItem, 0)
	for _, it := range c.items {
		if it.Category == category {
			out = append(out, it)
		}
	}
	return out
}

func (c Catalog) Popular() []models.CatalogItem {
	out := make([]models.CatalogItem, 0)
	for _, it := range c.items {
		if it.IsPopular {
			out = append(out, it)
		}
	}
	return out
}

// Categories lists distinct categories in first-seen order.
func (c Catalog) Categories() []string {
	seen := make(map[string]bool)
	out := make([]string, 0)
	for _, it := range c.items {
		if it.Category == "" || seen[it.Category] {
			continue
		}
		seen[it.Category] = true
		out = append(out, it.Category)
	}
	return out
}

func (c Catalog) Loaded() bool { return c.loaded }

func (c Catalog) Err() string { return c.err }
