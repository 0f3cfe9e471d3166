// Package model defines the data structures used throughout the application.
package model

import "time"

// User represents a registered account.
//
// PasswordHash is the bcrypt digest produced by auth.PasswordService. It never
// leaves the service layer: handlers render a PublicUser instead.
type User struct {
	ID           string    `json:"id"          db:"id"`
	Name         string    `json:"name"        db:"name"`
	Email        string    `json:"email"       db:"email"`
	PasswordHash string    `json:"-"           db:"password_hash"`
	IsNewUser    bool      `json:"is_new_user" db:"is_new_user"`
	CreatedAt    time.Time `json:"-"           db:"created_at"`
}

// PublicUser is the subset of a User returned to clients.
type PublicUser struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Email     string `json:"email"`
	IsNewUser bool   `json:"is_new_user"`
}

// Public strips the password digest and timestamps.
func (u *User) Public() PublicUser {
	return PublicUser{
		ID:        u.ID,
		Name:      u.Name,
		Email:     u.Email,
		IsNewUser: u.IsNewUser,
	}
}
