package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/sma-portal-api/internal/models"
)

// DashboardRepository aggregates entity counts for the role dashboards.
type DashboardRepository struct {
	db *sqlx.DB
}

// NewDashboardRepository constructs a DashboardRepository.
func NewDashboardRepository(db *sqlx.DB) *DashboardRepository {
	return &DashboardRepository{db: db}
}

// AdminSummary counts accounts and organizational units.
func (r *DashboardRepository) AdminSummary(ctx context.Context) (*models.AdminDashboard, error) {
	const query = `SELECT
        (SELECT COUNT(*) FROM admins) AS admins,
        (SELECT COUNT(*) FROM staff) AS staff,
        (SELECT COUNT(*) FROM librarians) AS librarians,
        (SELECT COUNT(*) FROM students) AS students,
        (SELECT COUNT(*) FROM departments) AS departments,
        (SELECT COUNT(*) FROM grades) AS grades`
	var summary models.AdminDashboard
	if err := r.db.GetContext(ctx, &summary, query); err != nil {
		return nil, fmt.Errorf("admin dashboard summary: %w", err)
	}
	return &summary, nil
}

// StaffSummary counts grades, students and fee states as of today.
func (r *DashboardRepository) StaffSummary(ctx context.Context, today models.Date) (*models.StaffDashboard, error) {
	const query = `SELECT
        (SELECT COUNT(*) FROM grades) AS grades,
        (SELECT COUNT(*) FROM students) AS students,
        (SELECT COUNT(*) FROM fee_records WHERE status = 'PENDING') AS pending_fees,
        (SELECT COUNT(*) FROM fee_records WHERE status = 'PAID') AS paid_fees,
        (SELECT COUNT(*) FROM fee_records WHERE status = 'PENDING' AND due_date < $1) AS overdue_fees`
	var summary models.StaffDashboard
	if err := r.db.GetContext(ctx, &summary, query, today); err != nil {
		return nil, fmt.Errorf("staff dashboard summary: %w", err)
	}
	return &summary, nil
}

// LibrarySummary counts catalogue size and open loans as of today.
func (r *DashboardRepository) LibrarySummary(ctx context.Context, today models.Date) (*models.LibraryDashboard, error) {
	const query = `SELECT
        (SELECT COUNT(*) FROM books) AS books,
        (SELECT COALESCE(SUM(total_copies), 0) FROM books) AS total_copies,
        (SELECT COALESCE(SUM(available_copies), 0) FROM books) AS available_copies,
        (SELECT COUNT(*) FROM library_records WHERE return_date IS NULL) AS borrowed,
        (SELECT COUNT(*) FROM library_records WHERE return_date IS NULL AND due_date < $1) AS overdue`
	var summary models.LibraryDashboard
	if err := r.db.GetContext(ctx, &summary, query, today); err != nil {
		return nil, fmt.Errorf("library dashboard summary: %w", err)
	}
	return &summary, nil
}
