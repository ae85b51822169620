package model

import (
	"database/sql"
	"strings"
	"time"
)

// Placeholder media shown until the user uploads their own.
const (
	DefaultAvatarURL     = "https://via.placeholder.com/150x150"
	DefaultCoverImageURL = "https://via.placeholder.com/1200x400"
)

// User is the full identity record as stored. Password holds only the bcrypt
// hash once persisted; RefreshToken holds the single live refresh token or
// NULL. Neither ever leaves the system — clients only see PublicUser.
type User struct {
	ID           int            `json:"id"`
	Username     string         `json:"username"`
	Email        string         `json:"email"`
	FullName     string         `json:"fullName"`
	Password     string         `json:"-"`
	Avatar       string         `json:"avatar"`
	CoverImage   string         `json:"coverImage"`
	RefreshToken sql.NullString `json:"-"`
	CreatedAt    time.Time      `json:"createdAt"`
	UpdatedAt    time.Time      `json:"updatedAt"`
}

// PublicUser is the projection returned to clients.
type PublicUser struct {
	ID         int       `json:"id"`
	Username   string    `json:"username"`
	Email      string    `json:"email"`
	FullName   string    `json:"fullName"`
	Avatar     string    `json:"avatar"`
	CoverImage string    `json:"coverImage"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

func (u *User) Public() *PublicUser {
	return &PublicUser{
		ID:         u.ID,
		Username:   u.Username,
		Email:      u.Email,
		FullName:   u.FullName,
		Avatar:     u.Avatar,
		CoverImage: u.CoverImage,
		CreatedAt:  u.CreatedAt,
		UpdatedAt:  u.UpdatedAt,
	}
}

// NewUser normalizes identity fields and applies placeholder defaults.
// Username and email are trimmed and lower-cased before they ever hit the
// database, so the unique indexes compare canonical forms.
func NewUser(fullName, email, username, hashedPassword, avatarURL, coverImageURL string) *User {
	if avatarURL == "" {
		avatarURL = DefaultAvatarURL
	}
	if coverImageURL == "" {
		coverImageURL = DefaultCoverImageURL
	}
	return &User{
		Username:   strings.ToLower(strings.TrimSpace(username)),
		Email:      strings.ToLower(strings.TrimSpace(email)),
		FullName:   strings.TrimSpace(fullName),
		Password:   hashedPassword,
		Avatar:     avatarURL,
		CoverImage: coverImageURL,
	}
}
