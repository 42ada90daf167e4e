package auth

import "time"

type Role string

const (
	RoleCitizen Role = "citizen"
	RoleOfficer Role = "officer"
	RoleAdmin   Role = "admin"
)

// Actor is the authenticated identity passed into every coordinator call. The
// boundary verifies the token once and builds this; coordinators assert on the
// capability methods instead of comparing role strings.
type Actor struct {
	ID   string
	Role Role
}

// CanReview reports whether the actor may review documents and run compliance
// checks on transfers and disputes.
func (a Actor) CanReview() bool {
	return a.Role == RoleOfficer || a.Role == RoleAdmin
}

// CanApprove reports whether the actor may approve or reject a transfer.
func (a Actor) CanApprove() bool {
	return a.Role == RoleOfficer || a.Role == RoleAdmin
}

// CanComplete reports whether the actor may finalize an approved transfer.
func (a Actor) CanComplete() bool {
	return a.Role == RoleAdmin
}

// User is the domain representation of an account. It mirrors the users table
// and carries no JSON annotations so it can be reused by different
// presentation layers.
type User struct {
	ID           string
	Email        string
	FullName     string
	PasswordHash string
	Phone        *string
	Role         Role
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// RegisterRequest contains account registration data supplied by callers.
type RegisterRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	FullName string `json:"full_name"`
	Role     Role   `json:"role"`
}

// LoginRequest contains login credentials.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}
