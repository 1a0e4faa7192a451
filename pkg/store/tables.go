package store

import (
	"github.com/example/brewdesk/pkg/models"
)

type Tables struct {
	list   []models.Table
	loaded bool
	err    string
}

func (t Tables) Replace(list []models.Table) Tables {
	next := make([]models.Table, len(list))
	copy(next, list)
	return Tables{list: next, loaded: true}
}

func (t Tables) Append(created ...models.Table) Tables {
	next := make([]models.Table, 0, len(t.list)+len(created))
	next = append(next, t.list...)
	t.list = append(next, created...)
	t.err = ""
	return t
}

func (t Tables) Fail(msg string) Tables {
	t.err = msg
	return t
}

func (t Tables) Find(id string) (models.Table, bool) {
	for _, tb := range t.list {
		if tb.ID == id {
			return tb, true
		}
	}
	return models.Table{}, false
}

func (t Tables) List() []models.Table {
	out := make([]models.Table, len(t.list))
	copy(out, t.list)
	return out
}

func (t Tables) Available() []models.Table {
	out := make([]models.Table, 0)
	for _, tb := range t.list {
		if tb.IsAvailable {
			out = append(out, tb)
		}
	}
	return out
}

func (t Tables) Loaded() bool { return t.loaded }

func (t Tables) Err() string { return t.err }
