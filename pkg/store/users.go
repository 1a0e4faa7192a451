package store

import (
	"github.com/example/brewdesk/pkg/models"
)

// Users is the staff directory view.
type Users struct {
	list []models.User
	err  string
}

func (u Users) Replace(list []models.User) Users {
	next := make([]models.User, len(list))
	copy(next, list)
	return Users{list: next}
}

func (u Users) Remove(id string) Users {
	next := make([]models.User, 0, len(u.list))
	for _, cur := range u.list {
		if cur.ID != id {
			next = append(next, cur)
		}
	}
	return Users{list: next}
}

func (u Users) Fail(msg string) Users {
	u.err = msg
	return u
}

func (u Users) List() []models.User {
	out := make([]models.User, len(u.list))
	copy(out, u.list)
	return out
}

func (u Users) Err() string { return u.err }
