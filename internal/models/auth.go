package models

import "github.com/golang-jwt/jwt/v5"

// UserRole enumerates the portal roles carried in identity tokens.
type UserRole string

const (
	RoleAdmin   UserRole = "ADMIN"
	RoleTeacher UserRole = "TEACHER"
	RoleHR      UserRole = "HR"
	RoleParent  UserRole = "PARENT"
)

// JWTClaims is the payload of access tokens issued by the identity
// service. This API only validates them; it never issues tokens.
type JWTClaims struct {
	UserID   string   `json:"user_id"`
	Role     UserRole `json:"role"`
	SchoolID string   `json:"school_id"`
	jwt.RegisteredClaims
}
