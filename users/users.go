package users

import (
	"strings"

	"golang.org/x/crypto/bcrypt"
)

// RoleAdmin is the role required by the admin routes
const RoleAdmin = "admin"

// User is the record returned by the backend for the signed-in user.
// The backend decides which fields are present; Role is not guaranteed.
type User struct {
	ID       string `json:"id,omitempty"`
	Email    string `json:"email"`
	Name     string `json:"name,omitempty"`
	Picture  string `json:"picture,omitempty"`
	Role     string `json:"role,omitempty"`
	IsActive bool   `json:"is_active,omitempty"`
}

// DisplayName returns the name, falling back to the email address
func (u *User) DisplayName() string {
	if u == nil {
		return ""
	}
	if name := strings.TrimSpace(u.Name); name != "" {
		return name
	}
	return u.Email
}

// HasRole reports whether the record carries role. An empty role requirement always passes.
func (u *User) HasRole(role string) bool {
	if role == "" {
		return true
	}
	if u == nil {
		return false
	}
	return strings.EqualFold(u.Role, role)
}

// Account is a user as held by the stub API, including the password hash
type Account struct {
	User
	PasswordHash string `json:"-"` // never serialize
}

func HashPassword(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	return string(bytes), err
}

func CheckPasswordHash(password, hash string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	return err == nil
}
