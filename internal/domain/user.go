package domain

import "time"

// Role enumerates the caller roles recognized by the service.
type Role string

const (
	RoleClient        Role = "CLIENT"
	RoleEmployee      Role = "EMPLOYEE"
	RoleAdministrator Role = "ADMINISTRATOR"
)

// User is the domain model for every account: clients who file claims,
// employees who work them and administrators who run the desk. The role is
// derived once at registration and never re-derived afterward.
type User struct {
	ID           string
	Name         string
	Email        string
	PasswordHash string
	Role         Role
	IsActive     bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// IsAdministrator reports whether the user holds the administrator role.
func (u *User) IsAdministrator() bool {
	return u != nil && u.Role == RoleAdministrator
}

// IsEmployee reports whether the user holds the employee role.
func (u *User) IsEmployee() bool {
	return u != nil && u.Role == RoleEmployee
}
