package models

// AccountKind names the login-bearing role extension of a person.
type AccountKind string

const (
	AccountAdmin     AccountKind = "admins"
	AccountStaff     AccountKind = "staff"
	AccountLibrarian AccountKind = "librarians"
)

// Role returns the role granted by the account kind.
func (k AccountKind) Role() Role {
	switch k {
	case AccountAdmin:
		return RoleAdmin
	case AccountStaff:
		return RoleStaff
	case AccountLibrarian:
		return RoleLibrarian
	}
	return RoleNone
}

// Valid reports whether k names a known account table.
func (k AccountKind) Valid() bool {
	return k.Role() != RoleNone
}

// Admin is a person with administrative privileges.
type Admin struct {
	Person
	DepartmentID   *int64  `db:"department_id" json:"department_id,omitempty"`
	DepartmentName *string `db:"department_name" json:"department_name,omitempty"`
	Qualification  string  `db:"qualification" json:"qualification"`
}

// Staff is a teaching or office staff member.
type Staff struct {
	Person
	DepartmentID   *int64  `db:"department_id" json:"department_id,omitempty"`
	DepartmentName *string `db:"department_name" json:"department_name,omitempty"`
	Designation    string  `db:"designation" json:"designation"`
	Qualification  string  `db:"qualification" json:"qualification"`
}

// Librarian manages the library catalogue and lending records.
type Librarian struct {
	Person
	Qualification string `db:"qualification" json:"qualification"`
	JoiningDate   Date   `db:"joining_date" json:"joining_date"`
}

// AccountFilter narrows account listings.
type AccountFilter struct {
	ListParams
	DepartmentID *int64
	Active       *bool
}

// PersonInput is the shared payload for account creation and update.
type PersonInput struct {
	Username         *string `json:"username" validate:"omitempty,min=3,max=150"`
	Email            *string `json:"email" validate:"omitempty,email,max=254"`
	FirstName        *string `json:"first_name" validate:"omitempty,max=150"`
	LastName         *string `json:"last_name" validate:"omitempty,max=150"`
	PhoneNumber      *string `json:"phone_number" validate:"omitempty,max=15"`
	Address          *string `json:"address"`
	DateOfBirth      *Date   `json:"date_of_birth"`
	Gender           *Gender `json:"gender" validate:"omitempty,oneof=M F O"`
	EmergencyContact *string `json:"emergency_contact" validate:"omitempty,max=15"`
	Active           *bool   `json:"active"`
	Password         *string `json:"password" validate:"omitempty,min=8"`
	PasswordConfirm  *string `json:"password_confirm"`
}

// AccountInput is the create/update payload for admin, staff and librarian accounts.
// Fields that do not apply to the target kind are ignored.
type AccountInput struct {
	PersonInput
	DepartmentID  *int64  `json:"department_id" validate:"omitempty,gt=0"`
	Designation   *string `json:"designation" validate:"omitempty,max=50"`
	Qualification *string `json:"qualification" validate:"omitempty,max=100"`
	JoiningDate   *Date   `json:"joining_date"`
}
