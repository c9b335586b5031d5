// Package session holds the identity of the user behind a request.
package session

import (
	"errors"
	"strings"

	"github.com/xin-kz910/SE-project/internal/models"
)

var ErrInvalidUser = errors.New("invalid session user")

// User is the acting user decoded from the session cookie. It is validated once
// in New and cannot be changed afterwards.
type User struct {
	id       uint
	username string
	role     models.Role
}

func New(id uint, username string, role models.Role) (*User, error) {
	username = strings.TrimSpace(username)
	role = models.Role(strings.ToLower(strings.TrimSpace(string(role))))
	if id == 0 || username == "" || !models.ValidRole(role) {
		return nil, ErrInvalidUser
	}
	return &User{id: id, username: username, role: role}, nil
}

func (u *User) ID() uint           { return u.id }
func (u *User) Username() string   { return u.username }
func (u *User) Role() models.Role  { return u.role }
func (u *User) IsClient() bool     { return u.role == models.RoleClient }
func (u *User) IsFreelancer() bool { return u.role == models.RoleFreelancer }
