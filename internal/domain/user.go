package domain

import "time"

// UserRole grants access levels to back-office users.
type UserRole string

const (
	UserRoleTechnician UserRole = "TECHNICIAN"
	UserRoleAdmin      UserRole = "ADMIN"
)

// User is a technician or administrator of the field service app.
type User struct {
	ID           string
	Name         string
	Email        string
	PasswordHash string
	Role         UserRole
	CreatedAt    time.Time
}
