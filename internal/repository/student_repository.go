package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/sma-portal-api/internal/models"
)

var studentColumns = []string{
	"s.id", "s.username", "s.first_name", "s.last_name", "s.grade_id", "s.gender", "s.admission_date",
	"s.parent_name", "s.parent_contact", "s.address", "s.date_of_birth", "s.profile_photo", "s.created_at", "s.updated_at",
	"g.standard AS grade_standard", "g.section AS grade_section",
}

var studentSorts = map[string]string{
	"username":   "s.username",
	"last_name":  "s.last_name",
	"created_at": "s.created_at",
	"grade":      "g.standard",
}

// StudentRepository manages persistence for student records.
type StudentRepository struct {
	db *sqlx.DB
}

// NewStudentRepository constructs a StudentRepository.
func NewStudentRepository(db *sqlx.DB) *StudentRepository {
	return &StudentRepository{db: db}
}

func studentSelect(columns ...string) squirrel.SelectBuilder {
	return psql.Select(columns...).From("students s").Join("grades g ON g.id = s.grade_id")
}

// List returns students matching the provided filters.
func (r *StudentRepository) List(ctx context.Context, filter models.StudentFilter) ([]models.StudentDetail, int, error) {
	conds := squirrel.And{}
	if filter.GradeID != nil {
		conds = append(conds, squirrel.Eq{"s.grade_id": *filter.GradeID})
	}
	if filter.Search != "" {
		pattern := likePattern(filter.Search)
		conds = append(conds, squirrel.Or{
			squirrel.Like{"LOWER(s.username)": pattern},
			squirrel.Like{"LOWER(s.first_name)": pattern},
			squirrel.Like{"LOWER(s.last_name)": pattern},
		})
	}

	query, args, err := paginate(studentSelect(studentColumns...).Where(conds).
		OrderBy(orderBy(filter.ListParams, studentSorts, "s.created_at", "DESC")), filter.ListParams).ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("build list students query: %w", err)
	}
	var students []models.StudentDetail
	if err := r.db.SelectContext(ctx, &students, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list students: %w", err)
	}

	countQuery, countArgs, err := studentSelect("COUNT(*)").Where(conds).ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("build count students query: %w", err)
	}
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, countArgs...); err != nil {
		return nil, 0, fmt.Errorf("count students: %w", err)
	}
	return students, total, nil
}

// FindByID fetches a student detail by ID.
func (r *StudentRepository) FindByID(ctx context.Context, id int64) (*models.StudentDetail, error) {
	query, args, err := studentSelect(studentColumns...).Where(squirrel.Eq{"s.id": id}).ToSql()
	if err != nil {
		return nil, fmt.Errorf("build find student query: %w", err)
	}
	var detail models.StudentDetail
	if err := r.db.GetContext(ctx, &detail, query, args...); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find student: %w", err)
	}
	return &detail, nil
}

// ListChoicesByGrade returns the students enrolled in a grade, ordered by name.
func (r *StudentRepository) ListChoicesByGrade(ctx context.Context, gradeID int64) ([]models.StudentChoice, error) {
	const query = `SELECT id, username, TRIM(CONCAT(first_name, ' ', last_name)) AS full_name FROM students WHERE grade_id = $1 ORDER BY first_name, last_name, id`
	choices := []models.StudentChoice{}
	if err := r.db.SelectContext(ctx, &choices, query, gradeID); err != nil {
		return nil, fmt.Errorf("list students by grade: %w", err)
	}
	return choices, nil
}

// Create inserts a new student record.
func (r *StudentRepository) Create(ctx context.Context, student *models.Student) error {
	now := time.Now().UTC()
	student.CreatedAt = now
	student.UpdatedAt = now
	const query = `INSERT INTO students (username, first_name, last_name, grade_id, gender, admission_date, parent_name, parent_contact, address, date_of_birth, profile_photo, created_at, updated_at)
        VALUES (:username, :first_name, :last_name, :grade_id, :gender, :admission_date, :parent_name, :parent_contact, :address, :date_of_birth, :profile_photo, :created_at, :updated_at) RETURNING id`
	bound, args, err := r.db.BindNamed(query, student)
	if err != nil {
		return fmt.Errorf("bind create student: %w", err)
	}
	if err := r.db.QueryRowxContext(ctx, bound, args...).Scan(&student.ID); err != nil {
		return fmt.Errorf("create student: %w", err)
	}
	return nil
}

// Update modifies an existing student.
func (r *StudentRepository) Update(ctx context.Context, student *models.Student) error {
	student.UpdatedAt = time.Now().UTC()
	const query = `UPDATE students SET username = :username, first_name = :first_name, last_name = :last_name, grade_id = :grade_id, gender = :gender, admission_date = :admission_date, parent_name = :parent_name, parent_contact = :parent_contact, address = :address, date_of_birth = :date_of_birth, updated_at = :updated_at WHERE id = :id`
	res, err := r.db.NamedExecContext(ctx, query, student)
	if err != nil {
		return fmt.Errorf("update student: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// UpdateProfilePhoto stores the media reference of a student's photo.
func (r *StudentRepository) UpdateProfilePhoto(ctx context.Context, id int64, path string) error {
	const query = `UPDATE students SET profile_photo = $2, updated_at = $3 WHERE id = $1`
	res, err := r.db.ExecContext(ctx, query, id, path, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("update student photo: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

const (
	lockStudent = `SELECT id FROM students WHERE id = $1 FOR UPDATE`
	// releaseStudentCopies returns one copy per unreturned record the student holds.
	releaseStudentCopies = `UPDATE books b SET available_copies = LEAST(b.available_copies + held.n, b.total_copies)
        FROM (SELECT book_id, COUNT(*) AS n FROM library_records WHERE student_id = $1 AND return_date IS NULL GROUP BY book_id) held
        WHERE b.id = held.book_id`
)

// Delete removes a student; lending and fee records cascade. Copies of books the
// student still holds are released in the same transaction.
func (r *StudentRepository) Delete(ctx context.Context, id int64) error {
	return withTx(ctx, r.db, "delete student", func(tx *sqlx.Tx) error {
		var locked int64
		if err := tx.GetContext(ctx, &locked, lockStudent, id); err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, releaseStudentCopies, id); err != nil {
			return fmt.Errorf("release held copies: %w", err)
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM students WHERE id = $1`, id); err != nil {
			return err
		}
		return nil
	})
}
