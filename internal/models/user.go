package models

import "time"

// Role identifies the privilege set of an authenticated principal.
type Role string

const (
	RoleAdmin     Role = "ADMIN"
	RoleStaff     Role = "STAFF"
	RoleLibrarian Role = "LIBRARIAN"
	RoleStudent   Role = "STUDENT"
	RoleNone      Role = "NONE"
)

// RegistrationPrefix returns the registration ID prefix for login-bearing roles.
func (r Role) RegistrationPrefix() (string, bool) {
	switch r {
	case RoleAdmin:
		return "ADM", true
	case RoleStaff:
		return "STA", true
	case RoleLibrarian:
		return "LIB", true
	default:
		return "", false
	}
}

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleStaff, RoleLibrarian, RoleStudent, RoleNone:
		return true
	}
	return false
}

// Gender is stored as a single-letter code.
type Gender string

const (
	GenderMale   Gender = "M"
	GenderFemale Gender = "F"
	GenderOther  Gender = "O"
)

// Person holds the identity and credential fields shared by every login-bearing account.
type Person struct {
	ID               int64      `db:"id" json:"id"`
	Username         string     `db:"username" json:"username"`
	Email            string     `db:"email" json:"email"`
	FirstName        string     `db:"first_name" json:"first_name"`
	LastName         string     `db:"last_name" json:"last_name"`
	PhoneNumber      *string    `db:"phone_number" json:"phone_number,omitempty"`
	Address          *string    `db:"address" json:"address,omitempty"`
	DateOfBirth      *Date      `db:"date_of_birth" json:"date_of_birth,omitempty"`
	Gender           *Gender    `db:"gender" json:"gender,omitempty"`
	ProfilePhoto     *string    `db:"profile_photo" json:"profile_photo,omitempty"`
	EmergencyContact string     `db:"emergency_contact" json:"emergency_contact"`
	RegistrationID   string     `db:"registration_id" json:"registration_id"`
	PasswordHash     string     `db:"password_hash" json:"-"`
	Active           bool       `db:"active" json:"active"`
	LastLogin        *time.Time `db:"last_login" json:"last_login,omitempty"`
	CreatedAt        time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt        time.Time  `db:"updated_at" json:"updated_at"`
}

// FullName joins first and last name, falling back to the username.
func (p Person) FullName() string {
	name := p.FirstName
	if p.LastName != "" {
		if name != "" {
			name += " "
		}
		name += p.LastName
	}
	if name == "" {
		return p.Username
	}
	return name
}

// Pagination contains pagination metadata returned in list responses.
type Pagination struct {
	Page       int `json:"page"`
	PageSize   int `json:"page_size"`
	TotalCount int `json:"total_count"`
}

// ListParams carries the paging and search options shared by list endpoints.
type ListParams struct {
	Search    string
	Page      int
	PageSize  int
	SortBy    string
	SortOrder string
}

// Normalize clamps paging values into the accepted range.
func (p *ListParams) Normalize() {
	if p.Page <= 0 {
		p.Page = 1
	}
	if p.PageSize <= 0 {
		p.PageSize = 20
	}
	if p.PageSize > 100 {
		p.PageSize = 100
	}
}

// Offset returns the row offset for the current page.
func (p ListParams) Offset() int {
	return (p.Page - 1) * p.PageSize
}
