package models

import "fmt"

// Grade is a class identified by its standard and section, e.g. "10 - A".
type Grade struct {
	ID           int64   `db:"id" json:"id"`
	Standard     int     `db:"standard" json:"standard"`
	Section      string  `db:"section" json:"section"`
	InChargeID   *int64  `db:"in_charge_id" json:"in_charge_id,omitempty"`
	InChargeName *string `db:"in_charge_name" json:"in_charge_name,omitempty"`
}

// Label renders the grade for selectors and exports.
func (g Grade) Label() string {
	return fmt.Sprintf("%d - %s", g.Standard, g.Section)
}

// CreateGradeRequest is the payload for creating a grade.
type CreateGradeRequest struct {
	Standard   int    `json:"standard" validate:"required,gt=0"`
	Section    string `json:"section" validate:"required,max=10"`
	InChargeID *int64 `json:"in_charge_id" validate:"omitempty,gt=0"`
}

// UpdateGradeRequest is the payload for updating a grade. A zero in_charge_id clears the assignment.
type UpdateGradeRequest struct {
	Standard   *int    `json:"standard" validate:"omitempty,gt=0"`
	Section    *string `json:"section" validate:"omitempty,min=1,max=10"`
	InChargeID *int64  `json:"in_charge_id" validate:"omitempty,gte=0"`
}
