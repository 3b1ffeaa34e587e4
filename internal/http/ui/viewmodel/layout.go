// Package viewmodel holds the template-facing shapes shared by every page.
package viewmodel

import (
	"github.com/target/courseshop/internal/domain/model"
	"github.com/target/courseshop/internal/domain/session"
)

// User represents the authenticated user context exposed to templates.
type User struct {
	ID        string
	Name      string
	Email     string
	AvatarURL string
}

// Layout captures shared chrome metadata (titles, navigation state, auth flags).
type Layout struct {
	Title           string
	CurrentPage     string
	CSRFToken       string
	IsAuthenticated bool
	User            *User
	Flash           []session.Flash
}

// UserFrom converts a domain user for display. Nil stays nil.
func UserFrom(u *model.User) *User {
	if u == nil {
		return nil
	}
	vm := &User{ID: u.ID, Name: u.Name, Email: u.Email}
	if u.AvatarURL != nil {
		vm.AvatarURL = *u.AvatarURL
	}
	return vm
}
