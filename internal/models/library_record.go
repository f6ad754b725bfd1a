package models

// LendingStatus is the derived state of a lending record.
type LendingStatus string

const (
	LendingBorrowed LendingStatus = "BORROWED"
	LendingReturned LendingStatus = "RETURNED"
	LendingOverdue  LendingStatus = "OVERDUE"
)

// Valid reports whether s is a known lending status.
func (s LendingStatus) Valid() bool {
	switch s {
	case LendingBorrowed, LendingReturned, LendingOverdue:
		return true
	}
	return false
}

// DeriveLendingStatus computes the status of a record from its dates.
// A late return stays OVERDUE; an open record past its due date is OVERDUE.
func DeriveLendingStatus(returnDate *Date, due, today Date) LendingStatus {
	if returnDate != nil && !returnDate.IsZero() {
		if returnDate.After(due) {
			return LendingOverdue
		}
		return LendingReturned
	}
	if today.After(due) {
		return LendingOverdue
	}
	return LendingBorrowed
}

// LibraryRecord is a checkout of one book copy by a student.
type LibraryRecord struct {
	ID           int64         `db:"id" json:"id"`
	GradeID      int64         `db:"grade_id" json:"grade_id" validate:"required,gt=0"`
	StudentID    int64         `db:"student_id" json:"student_id" validate:"required,gt=0"`
	BookID       int64         `db:"book_id" json:"book_id" validate:"required,gt=0"`
	BorrowedDate Date          `db:"borrowed_date" json:"borrowed_date"`
	DueDate      Date          `db:"due_date" json:"due_date"`
	ReturnDate   *Date         `db:"return_date" json:"return_date,omitempty"`
	Status       LendingStatus `db:"status" json:"status"`
	Remarks      string        `db:"remarks" json:"remarks"`
}

// Returned reports whether the copy has been handed back.
func (r LibraryRecord) Returned() bool {
	return r.ReturnDate != nil && !r.ReturnDate.IsZero()
}

// LibraryRecordDetail joins display names onto a lending record.
type LibraryRecordDetail struct {
	LibraryRecord
	StudentName   string `db:"student_name" json:"student_name"`
	BookTitle     string `db:"book_title" json:"book_title"`
	GradeStandard int    `db:"grade_standard" json:"grade_standard"`
	GradeSection  string `db:"grade_section" json:"grade_section"`
}

// LibraryRecordFilter narrows lending record listings.
type LibraryRecordFilter struct {
	ListParams
	Status    *LendingStatus
	GradeID   *int64
	StudentID *int64
	BookID    *int64
}

// LibraryRecordInput is the create/update payload for lending records.
// Status is derived and must not be supplied.
type LibraryRecordInput struct {
	Grade        FormRef `json:"grade"`
	Student      *int64  `json:"student"`
	Book         *int64  `json:"book"`
	BorrowedDate *Date   `json:"borrowed_date"`
	DueDate      *Date   `json:"due_date"`
	ReturnDate   *Date   `json:"return_date"`
	Remarks      *string `json:"remarks"`
	Status       *string `json:"status,omitempty"`
}
