package models

import "time"

// Student is a learner enrolled in exactly one grade.
type Student struct {
	ID            int64     `db:"id" json:"id"`
	Username      string    `db:"username" json:"username"`
	FirstName     string    `db:"first_name" json:"first_name"`
	LastName      string    `db:"last_name" json:"last_name"`
	GradeID       int64     `db:"grade_id" json:"grade_id"`
	Gender        *Gender   `db:"gender" json:"gender,omitempty"`
	AdmissionDate *Date     `db:"admission_date" json:"admission_date,omitempty"`
	ParentName    string    `db:"parent_name" json:"parent_name"`
	ParentContact string    `db:"parent_contact" json:"parent_contact"`
	Address       *string   `db:"address" json:"address,omitempty"`
	DateOfBirth   *Date     `db:"date_of_birth" json:"date_of_birth,omitempty"`
	ProfilePhoto  *string   `db:"profile_photo" json:"profile_photo,omitempty"`
	CreatedAt     time.Time `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time `db:"updated_at" json:"updated_at"`
}

// FullName joins first and last name, falling back to the username.
func (s Student) FullName() string {
	return Person{Username: s.Username, FirstName: s.FirstName, LastName: s.LastName}.FullName()
}

// StudentDetail adds the grade label to a student row.
type StudentDetail struct {
	Student
	GradeStandard int    `db:"grade_standard" json:"grade_standard"`
	GradeSection  string `db:"grade_section" json:"grade_section"`
}

// StudentFilter encapsulates allowed search parameters for listing students.
type StudentFilter struct {
	ListParams
	GradeID *int64
}

// StudentChoice is one entry of a grade-restricted student selector.
type StudentChoice struct {
	ID       int64  `db:"id" json:"id"`
	Username string `db:"username" json:"username"`
	FullName string `db:"full_name" json:"full_name"`
}

// StudentInput is the create/update payload for students.
type StudentInput struct {
	Username      *string `json:"username" validate:"omitempty,min=3,max=150"`
	FirstName     *string `json:"first_name" validate:"omitempty,max=150"`
	LastName      *string `json:"last_name" validate:"omitempty,max=150"`
	GradeID       *int64  `json:"grade_id" validate:"omitempty,gt=0"`
	Gender        *Gender `json:"gender" validate:"omitempty,oneof=M F O"`
	AdmissionDate *Date   `json:"admission_date"`
	ParentName    *string `json:"parent_name" validate:"omitempty,max=150"`
	ParentContact *string `json:"parent_contact" validate:"omitempty,max=15"`
	Address       *string `json:"address"`
	DateOfBirth   *Date   `json:"date_of_birth"`
}
