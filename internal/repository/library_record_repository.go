package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/sma-portal-api/internal/models"
)

var libraryRecordColumns = []string{
	"r.id", "r.grade_id", "r.student_id", "r.book_id", "r.borrowed_date", "r.due_date", "r.return_date", "r.status", "r.remarks",
	"TRIM(CONCAT(st.first_name, ' ', st.last_name)) AS student_name", "b.title AS book_title",
	"g.standard AS grade_standard", "g.section AS grade_section",
}

var libraryRecordSorts = map[string]string{
	"borrowed_date": "r.borrowed_date",
	"due_date":      "r.due_date",
	"status":        "r.status",
}

const (
	checkoutCopy = `UPDATE books SET available_copies = available_copies - 1 WHERE id = $1 AND available_copies > 0`
	releaseCopy  = `UPDATE books SET available_copies = LEAST(available_copies + 1, total_copies) WHERE id = $1`
	lockRecord   = `SELECT book_id, return_date FROM library_records WHERE id = $1 FOR UPDATE`
)

// LibraryRecordRepository persists lending records and keeps book copy counts in step.
type LibraryRecordRepository struct {
	db *sqlx.DB
}

// NewLibraryRecordRepository constructs a LibraryRecordRepository.
func NewLibraryRecordRepository(db *sqlx.DB) *LibraryRecordRepository {
	return &LibraryRecordRepository{db: db}
}

func libraryRecordSelect(columns ...string) squirrel.SelectBuilder {
	return psql.Select(columns...).From("library_records r").
		Join("students st ON st.id = r.student_id").
		Join("books b ON b.id = r.book_id").
		Join("grades g ON g.id = r.grade_id")
}

func libraryRecordConditions(filter models.LibraryRecordFilter) squirrel.And {
	conds := squirrel.And{}
	if filter.Status != nil {
		conds = append(conds, squirrel.Eq{"r.status": *filter.Status})
	}
	if filter.GradeID != nil {
		conds = append(conds, squirrel.Eq{"r.grade_id": *filter.GradeID})
	}
	if filter.StudentID != nil {
		conds = append(conds, squirrel.Eq{"r.student_id": *filter.StudentID})
	}
	if filter.BookID != nil {
		conds = append(conds, squirrel.Eq{"r.book_id": *filter.BookID})
	}
	if filter.Search != "" {
		pattern := likePattern(filter.Search)
		conds = append(conds, squirrel.Or{
			squirrel.Like{"LOWER(b.title)": pattern},
			squirrel.Like{"LOWER(st.first_name)": pattern},
			squirrel.Like{"LOWER(st.last_name)": pattern},
		})
	}
	return conds
}

// List returns one page of lending records, newest checkout first by default.
func (r *LibraryRecordRepository) List(ctx context.Context, filter models.LibraryRecordFilter) ([]models.LibraryRecordDetail, int, error) {
	conds := libraryRecordConditions(filter)
	query, args, err := paginate(libraryRecordSelect(libraryRecordColumns...).Where(conds).
		OrderBy(orderBy(filter.ListParams, libraryRecordSorts, "r.borrowed_date", "DESC"), "r.id DESC"), filter.ListParams).ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("build list library records query: %w", err)
	}
	var records []models.LibraryRecordDetail
	if err := r.db.SelectContext(ctx, &records, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list library records: %w", err)
	}

	countQuery, countArgs, err := libraryRecordSelect("COUNT(*)").Where(conds).ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("build count library records query: %w", err)
	}
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, countArgs...); err != nil {
		return nil, 0, fmt.Errorf("count library records: %w", err)
	}
	return records, total, nil
}

// ListAll returns every record matching the filter without paging, for exports.
func (r *LibraryRecordRepository) ListAll(ctx context.Context, filter models.LibraryRecordFilter) ([]models.LibraryRecordDetail, error) {
	query, args, err := libraryRecordSelect(libraryRecordColumns...).Where(libraryRecordConditions(filter)).
		OrderBy(orderBy(filter.ListParams, libraryRecordSorts, "r.borrowed_date", "DESC"), "r.id DESC").ToSql()
	if err != nil {
		return nil, fmt.Errorf("build export library records query: %w", err)
	}
	records := []models.LibraryRecordDetail{}
	if err := r.db.SelectContext(ctx, &records, query, args...); err != nil {
		return nil, fmt.Errorf("export library records: %w", err)
	}
	return records, nil
}

// FindByID returns a lending record with display names.
func (r *LibraryRecordRepository) FindByID(ctx context.Context, id int64) (*models.LibraryRecordDetail, error) {
	query, args, err := libraryRecordSelect(libraryRecordColumns...).Where(squirrel.Eq{"r.id": id}).ToSql()
	if err != nil {
		return nil, fmt.Errorf("build find library record query: %w", err)
	}
	var record models.LibraryRecordDetail
	if err := r.db.GetContext(ctx, &record, query, args...); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find library record: %w", err)
	}
	return &record, nil
}

func checkout(ctx context.Context, tx *sqlx.Tx, bookID int64) error {
	res, err := tx.ExecContext(ctx, checkoutCopy, bookID)
	if err != nil {
		return fmt.Errorf("checkout copy: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNoCopiesAvailable
	}
	return nil
}

func release(ctx context.Context, tx *sqlx.Tx, bookID int64) error {
	if _, err := tx.ExecContext(ctx, releaseCopy, bookID); err != nil {
		return fmt.Errorf("release copy: %w", err)
	}
	return nil
}

// Create takes one copy of the book and inserts the record in one transaction.
func (r *LibraryRecordRepository) Create(ctx context.Context, record *models.LibraryRecord) error {
	return withTx(ctx, r.db, "create library record", func(tx *sqlx.Tx) error {
		if !record.Returned() {
			if err := checkout(ctx, tx, record.BookID); err != nil {
				return err
			}
		}
		const query = `INSERT INTO library_records (grade_id, student_id, book_id, borrowed_date, due_date, return_date, status, remarks)
        VALUES (:grade_id, :student_id, :book_id, :borrowed_date, :due_date, :return_date, :status, :remarks) RETURNING id`
		bound, args, err := tx.BindNamed(query, record)
		if err != nil {
			return fmt.Errorf("bind insert: %w", err)
		}
		return tx.QueryRowxContext(ctx, bound, args...).Scan(&record.ID)
	})
}

// Update rewrites the record and moves copies between books when the record is
// returned, reopened or pointed at another book.
func (r *LibraryRecordRepository) Update(ctx context.Context, record *models.LibraryRecord) error {
	return withTx(ctx, r.db, "update library record", func(tx *sqlx.Tx) error {
		var prev struct {
			BookID     int64        `db:"book_id"`
			ReturnDate *models.Date `db:"return_date"`
		}
		if err := tx.GetContext(ctx, &prev, lockRecord, record.ID); err != nil {
			return err
		}
		wasOut := prev.ReturnDate == nil || prev.ReturnDate.IsZero()
		isOut := !record.Returned()
		if !(wasOut && isOut && prev.BookID == record.BookID) {
			if wasOut {
				if err := release(ctx, tx, prev.BookID); err != nil {
					return err
				}
			}
			if isOut {
				if err := checkout(ctx, tx, record.BookID); err != nil {
					return err
				}
			}
		}
		const query = `UPDATE library_records SET grade_id = :grade_id, student_id = :student_id, book_id = :book_id, borrowed_date = :borrowed_date, due_date = :due_date, return_date = :return_date, status = :status, remarks = :remarks WHERE id = :id`
		_, err := tx.NamedExecContext(ctx, query, record)
		return err
	})
}

// Delete removes the record and gives the copy back when it was still out.
func (r *LibraryRecordRepository) Delete(ctx context.Context, id int64) error {
	return withTx(ctx, r.db, "delete library record", func(tx *sqlx.Tx) error {
		var prev struct {
			BookID     int64        `db:"book_id"`
			ReturnDate *models.Date `db:"return_date"`
		}
		if err := tx.GetContext(ctx, &prev, lockRecord, id); err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM library_records WHERE id = $1`, id); err != nil {
			return err
		}
		if prev.ReturnDate == nil || prev.ReturnDate.IsZero() {
			return release(ctx, tx, prev.BookID)
		}
		return nil
	})
}
