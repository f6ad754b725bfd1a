package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/sma-portal-api/internal/models"
)

const selectGrade = `SELECT g.id, g.standard, g.section, g.in_charge_id, NULLIF(TRIM(CONCAT(u.first_name, ' ', u.last_name)), '') AS in_charge_name
        FROM grades g LEFT JOIN users u ON u.id = g.in_charge_id`

// GradeRepository persists grades.
type GradeRepository struct {
	db *sqlx.DB
}

// NewGradeRepository constructs a GradeRepository.
func NewGradeRepository(db *sqlx.DB) *GradeRepository {
	return &GradeRepository{db: db}
}

// List returns all grades ordered by standard then section.
func (r *GradeRepository) List(ctx context.Context) ([]models.Grade, error) {
	grades := []models.Grade{}
	if err := r.db.SelectContext(ctx, &grades, selectGrade+` ORDER BY g.standard, g.section`); err != nil {
		return nil, fmt.Errorf("list grades: %w", err)
	}
	return grades, nil
}

// FindByID returns a grade by id.
func (r *GradeRepository) FindByID(ctx context.Context, id int64) (*models.Grade, error) {
	var grade models.Grade
	if err := r.db.GetContext(ctx, &grade, selectGrade+` WHERE g.id = $1`, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find grade: %w", err)
	}
	return &grade, nil
}

// Create inserts a grade.
func (r *GradeRepository) Create(ctx context.Context, grade *models.Grade) error {
	const query = `INSERT INTO grades (standard, section, in_charge_id) VALUES ($1, $2, $3) RETURNING id`
	if err := r.db.QueryRowxContext(ctx, query, grade.Standard, grade.Section, grade.InChargeID).Scan(&grade.ID); err != nil {
		return fmt.Errorf("create grade: %w", err)
	}
	return nil
}

// Update modifies a grade.
func (r *GradeRepository) Update(ctx context.Context, grade *models.Grade) error {
	const query = `UPDATE grades SET standard = $2, section = $3, in_charge_id = $4 WHERE id = $1`
	res, err := r.db.ExecContext(ctx, query, grade.ID, grade.Standard, grade.Section, grade.InChargeID)
	if err != nil {
		return fmt.Errorf("update grade: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// Delete removes a grade. Students still assigned to it block the delete.
func (r *GradeRepository) Delete(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM grades WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete grade: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return sql.ErrNoRows
	}
	return nil
}
