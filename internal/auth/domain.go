package auth

import (
	"time"

	"github.com/google/uuid"

	"github.com/finentry/finentry/internal/shared"
)

// User represents an authenticated user account.
type User struct {
	ID           uuid.UUID
	Name         string
	Email        string
	PasswordHash string
	Role         shared.Role
	CompanyID    uuid.UUID
	IsActive     bool
	CreatedAt    time.Time
}

// Identity is the token subject for u.
func (u User) Identity() shared.Identity {
	return shared.Identity{UserID: u.ID, Name: u.Name, Email: u.Email, Role: u.Role, CompanyID: u.CompanyID}
}

// LoginInput is the credentials payload.
type LoginInput struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// UserView is the public part of a user returned after login.
type UserView struct {
	ID        uuid.UUID   `json:"id"`
	Name      string      `json:"name"`
	Email     string      `json:"email"`
	Role      shared.Role `json:"role"`
	CompanyID *uuid.UUID  `json:"companyId"`
}

// Session is the login response.
type Session struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
	User      UserView  `json:"user"`
}

func viewOf(u User) UserView {
	v := UserView{ID: u.ID, Name: u.Name, Email: u.Email, Role: u.Role}
	if u.CompanyID != uuid.Nil {
		id := u.CompanyID
		v.CompanyID = &id
	}
	return v
}
