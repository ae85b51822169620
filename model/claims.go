package model

import "github.com/golang-jwt/jwt/v5"

// AccessClaims carry enough identity to serve most requests without a
// credential lookup.
type AccessClaims struct {
	UserID   int    `json:"user_id"`
	Email    string `json:"email"`
	Username string `json:"username"`
	FullName string `json:"full_name"`
	jwt.RegisteredClaims
}

// RefreshClaims carry only the subject id.
type RefreshClaims struct {
	UserID int `json:"user_id"`
	jwt.RegisteredClaims
}
