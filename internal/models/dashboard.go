package models

import "time"

// AdminDashboard summarises the whole institution.
type AdminDashboard struct {
	Admins      int       `db:"admins" json:"admins"`
	Staff       int       `db:"staff" json:"staff"`
	Librarians  int       `db:"librarians" json:"librarians"`
	Students    int       `db:"students" json:"students"`
	Departments int       `db:"departments" json:"departments"`
	Grades      int       `db:"grades" json:"grades"`
	GeneratedAt time.Time `db:"-" json:"generated_at"`
}

// StaffDashboard summarises grades and fee collection.
type StaffDashboard struct {
	Grades      int       `db:"grades" json:"grades"`
	Students    int       `db:"students" json:"students"`
	PendingFees int       `db:"pending_fees" json:"pending_fees"`
	PaidFees    int       `db:"paid_fees" json:"paid_fees"`
	OverdueFees int       `db:"overdue_fees" json:"overdue_fees"`
	GeneratedAt time.Time `db:"-" json:"generated_at"`
}

// LibraryDashboard summarises the catalogue and open loans.
type LibraryDashboard struct {
	Books           int       `db:"books" json:"books"`
	TotalCopies     int       `db:"total_copies" json:"total_copies"`
	AvailableCopies int       `db:"available_copies" json:"available_copies"`
	Borrowed        int       `db:"borrowed" json:"borrowed"`
	Overdue         int       `db:"overdue" json:"overdue"`
	GeneratedAt     time.Time `db:"-" json:"generated_at"`
}
