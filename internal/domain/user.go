package domain

import "time"

// UserRole differentiates dashboard users from administrators.
type UserRole string

const (
	UserRoleUser  UserRole = "user"
	UserRoleAdmin UserRole = "admin"
)

// User is a dashboard account. Units lists the unit ids the user is
// associated with; ticket queries for non-admins are scoped to these.
type User struct {
	ID           string
	Username     string
	Email        string
	PasswordHash string
	Role         UserRole
	Units        []string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// IsAdmin reports whether the user holds administrative privilege.
func (u *User) IsAdmin() bool {
	return u != nil && u.Role == UserRoleAdmin
}
