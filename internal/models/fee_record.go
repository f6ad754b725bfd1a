package models

import "github.com/shopspring/decimal"

// FeeStatus tracks whether a fee has been settled.
type FeeStatus string

const (
	FeePending FeeStatus = "PENDING"
	FeePaid    FeeStatus = "PAID"
)

// Valid reports whether s is a known fee status.
func (s FeeStatus) Valid() bool {
	return s == FeePending || s == FeePaid
}

// FeeRecord is an amount owed by a student.
type FeeRecord struct {
	ID          int64           `db:"id" json:"id"`
	GradeID     int64           `db:"grade_id" json:"grade_id" validate:"required,gt=0"`
	StudentID   int64           `db:"student_id" json:"student_id" validate:"required,gt=0"`
	Amount      decimal.Decimal `db:"amount" json:"amount"`
	DueDate     Date            `db:"due_date" json:"due_date"`
	PaymentDate *Date           `db:"payment_date" json:"payment_date,omitempty"`
	Status      FeeStatus       `db:"status" json:"status" validate:"required,oneof=PENDING PAID"`
	Remarks     string          `db:"remarks" json:"remarks"`
}

// FeeRecordDetail joins display names onto a fee record.
type FeeRecordDetail struct {
	FeeRecord
	StudentName   string `db:"student_name" json:"student_name"`
	GradeStandard int    `db:"grade_standard" json:"grade_standard"`
	GradeSection  string `db:"grade_section" json:"grade_section"`
}

// FeeRecordFilter narrows fee record listings.
type FeeRecordFilter struct {
	ListParams
	Status    *FeeStatus
	GradeID   *int64
	StudentID *int64
}

// FeeRecordInput is the create/update payload for fee records.
type FeeRecordInput struct {
	Grade       FormRef          `json:"grade"`
	Student     *int64           `json:"student"`
	Amount      *decimal.Decimal `json:"amount"`
	DueDate     *Date            `json:"due_date"`
	PaymentDate *Date            `json:"payment_date"`
	Status      *FeeStatus       `json:"status"`
	Remarks     *string          `json:"remarks"`
}

// MaxFeeAmount is the largest value a NUMERIC(10,2) column accepts.
var MaxFeeAmount = decimal.RequireFromString("99999999.99")
