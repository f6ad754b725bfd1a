package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/sma-portal-api/internal/models"
)

var feeRecordColumns = []string{
	"f.id", "f.grade_id", "f.student_id", "f.amount", "f.due_date", "f.payment_date", "f.status", "f.remarks",
	"TRIM(CONCAT(st.first_name, ' ', st.last_name)) AS student_name",
	"g.standard AS grade_standard", "g.section AS grade_section",
}

var feeRecordSorts = map[string]string{
	"due_date":     "f.due_date",
	"payment_date": "f.payment_date",
	"amount":       "f.amount",
	"status":       "f.status",
}

// FeeRecordRepository persists fee records.
type FeeRecordRepository struct {
	db *sqlx.DB
}

// NewFeeRecordRepository constructs a FeeRecordRepository.
func NewFeeRecordRepository(db *sqlx.DB) *FeeRecordRepository {
	return &FeeRecordRepository{db: db}
}

func feeRecordSelect(columns ...string) squirrel.SelectBuilder {
	return psql.Select(columns...).From("fee_records f").
		Join("students st ON st.id = f.student_id").
		Join("grades g ON g.id = f.grade_id")
}

func feeRecordConditions(filter models.FeeRecordFilter) squirrel.And {
	conds := squirrel.And{}
	if filter.Status != nil {
		conds = append(conds, squirrel.Eq{"f.status": *filter.Status})
	}
	if filter.GradeID != nil {
		conds = append(conds, squirrel.Eq{"f.grade_id": *filter.GradeID})
	}
	if filter.StudentID != nil {
		conds = append(conds, squirrel.Eq{"f.student_id": *filter.StudentID})
	}
	if filter.Search != "" {
		pattern := likePattern(filter.Search)
		conds = append(conds, squirrel.Or{
			squirrel.Like{"LOWER(st.first_name)": pattern},
			squirrel.Like{"LOWER(st.last_name)": pattern},
			squirrel.Like{"LOWER(f.remarks)": pattern},
		})
	}
	return conds
}

// List returns one page of fee records, latest due date first by default.
func (r *FeeRecordRepository) List(ctx context.Context, filter models.FeeRecordFilter) ([]models.FeeRecordDetail, int, error) {
	conds := feeRecordConditions(filter)
	query, args, err := paginate(feeRecordSelect(feeRecordColumns...).Where(conds).
		OrderBy(orderBy(filter.ListParams, feeRecordSorts, "f.due_date", "DESC"), "f.id DESC"), filter.ListParams).ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("build list fee records query: %w", err)
	}
	var records []models.FeeRecordDetail
	if err := r.db.SelectContext(ctx, &records, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list fee records: %w", err)
	}

	countQuery, countArgs, err := feeRecordSelect("COUNT(*)").Where(conds).ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("build count fee records query: %w", err)
	}
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, countArgs...); err != nil {
		return nil, 0, fmt.Errorf("count fee records: %w", err)
	}
	return records, total, nil
}

// ListAll returns every fee record matching the filter without paging, for exports.
func (r *FeeRecordRepository) ListAll(ctx context.Context, filter models.FeeRecordFilter) ([]models.FeeRecordDetail, error) {
	query, args, err := feeRecordSelect(feeRecordColumns...).Where(feeRecordConditions(filter)).
		OrderBy(orderBy(filter.ListParams, feeRecordSorts, "f.due_date", "DESC"), "f.id DESC").ToSql()
	if err != nil {
		return nil, fmt.Errorf("build export fee records query: %w", err)
	}
	records := []models.FeeRecordDetail{}
	if err := r.db.SelectContext(ctx, &records, query, args...); err != nil {
		return nil, fmt.Errorf("export fee records: %w", err)
	}
	return records, nil
}

// FindByID returns a fee record with display names.
func (r *FeeRecordRepository) FindByID(ctx context.Context, id int64) (*models.FeeRecordDetail, error) {
	query, args, err := feeRecordSelect(feeRecordColumns...).Where(squirrel.Eq{"f.id": id}).ToSql()
	if err != nil {
		return nil, fmt.Errorf("build find fee record query: %w", err)
	}
	var record models.FeeRecordDetail
	if err := r.db.GetContext(ctx, &record, query, args...); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find fee record: %w", err)
	}
	return &record, nil
}

// Create inserts a fee record.
func (r *FeeRecordRepository) Create(ctx context.Context, record *models.FeeRecord) error {
	const query = `INSERT INTO fee_records (grade_id, student_id, amount, due_date, payment_date, status, remarks)
        VALUES (:grade_id, :student_id, :amount, :due_date, :payment_date, :status, :remarks) RETURNING id`
	bound, args, err := r.db.BindNamed(query, record)
	if err != nil {
		return fmt.Errorf("bind create fee record: %w", err)
	}
	if err := r.db.QueryRowxContext(ctx, bound, args...).Scan(&record.ID); err != nil {
		return fmt.Errorf("create fee record: %w", err)
	}
	return nil
}

// Update modifies a fee record.
func (r *FeeRecordRepository) Update(ctx context.Context, record *models.FeeRecord) error {
	const query = `UPDATE fee_records SET grade_id = :grade_id, student_id = :student_id, amount = :amount, due_date = :due_date, payment_date = :payment_date, status = :status, remarks = :remarks WHERE id = :id`
	res, err := r.db.NamedExecContext(ctx, query, record)
	if err != nil {
		return fmt.Errorf("update fee record: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// Delete removes a fee record.
func (r *FeeRecordRepository) Delete(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM fee_records WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete fee record: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return sql.ErrNoRows
	}
	return nil
}
