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

var personColumns = []string{
	"u.id", "u.username", "u.email", "u.first_name", "u.last_name", "u.phone_number", "u.address",
	"u.date_of_birth", "u.gender", "u.profile_photo", "u.emergency_contact", "u.registration_id",
	"u.password_hash", "u.active", "u.last_login", "u.created_at", "u.updated_at",
}

const selectPerson = `SELECT id, username, email, first_name, last_name, phone_number, address, date_of_birth, gender, profile_photo, emergency_contact, registration_id, password_hash, active, last_login, created_at, updated_at FROM users`

// AccountRepository persists people and their admin, staff and librarian extensions.
type AccountRepository struct {
	db *sqlx.DB
}

// NewAccountRepository creates a new instance of AccountRepository.
func NewAccountRepository(db *sqlx.DB) *AccountRepository {
	return &AccountRepository{db: db}
}

func accountTable(kind models.AccountKind) (string, error) {
	if !kind.Valid() {
		return "", fmt.Errorf("unknown account kind %q", kind)
	}
	return string(kind), nil
}

func accountSelect(kind models.AccountKind, columns ...string) squirrel.SelectBuilder {
	table := string(kind)
	b := psql.Select(columns...).From("users u").Join(table + " a ON a.user_id = u.id")
	if kind != models.AccountLibrarian {
		b = b.LeftJoin("departments d ON d.id = a.department_id")
	}
	return b
}

func accountColumns(kind models.AccountKind) []string {
	columns := append([]string{}, personColumns...)
	switch kind {
	case models.AccountAdmin:
		columns = append(columns, "a.department_id", "d.name AS department_name", "a.qualification")
	case models.AccountStaff:
		columns = append(columns, "a.department_id", "d.name AS department_name", "a.designation", "a.qualification")
	case models.AccountLibrarian:
		columns = append(columns, "a.qualification", "a.joining_date")
	}
	return columns
}

func accountConditions(kind models.AccountKind, filter models.AccountFilter) squirrel.And {
	conds := squirrel.And{}
	if filter.Search != "" {
		pattern := likePattern(filter.Search)
		conds = append(conds, squirrel.Or{
			squirrel.Like{"LOWER(u.username)": pattern},
			squirrel.Like{"LOWER(u.first_name)": pattern},
			squirrel.Like{"LOWER(u.last_name)": pattern},
			squirrel.Like{"LOWER(u.registration_id)": pattern},
		})
	}
	if filter.Active != nil {
		conds = append(conds, squirrel.Eq{"u.active": *filter.Active})
	}
	if filter.DepartmentID != nil && kind != models.AccountLibrarian {
		conds = append(conds, squirrel.Eq{"a.department_id": *filter.DepartmentID})
	}
	return conds
}

var accountSorts = map[string]string{
	"username":        "u.username",
	"registration_id": "u.registration_id",
	"last_name":       "u.last_name",
	"created_at":      "u.created_at",
}

// list fills dest with one page of accounts of the given kind and returns the total count.
func (r *AccountRepository) list(ctx context.Context, kind models.AccountKind, filter models.AccountFilter, dest interface{}) (int, error) {
	if _, err := accountTable(kind); err != nil {
		return 0, err
	}
	conds := accountConditions(kind, filter)

	query, args, err := paginate(accountSelect(kind, accountColumns(kind)...).Where(conds).
		OrderBy(orderBy(filter.ListParams, accountSorts, "u.created_at", "DESC")), filter.ListParams).ToSql()
	if err != nil {
		return 0, fmt.Errorf("build list %s query: %w", kind, err)
	}
	if err := r.db.SelectContext(ctx, dest, query, args...); err != nil {
		return 0, fmt.Errorf("list %s: %w", kind, err)
	}

	countQuery, countArgs, err := accountSelect(kind, "COUNT(*)").Where(conds).ToSql()
	if err != nil {
		return 0, fmt.Errorf("build count %s query: %w", kind, err)
	}
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, countArgs...); err != nil {
		return 0, fmt.Errorf("count %s: %w", kind, err)
	}
	return total, nil
}

func (r *AccountRepository) find(ctx context.Context, kind models.AccountKind, id int64, dest interface{}) error {
	query, args, err := accountSelect(kind, accountColumns(kind)...).Where(squirrel.Eq{"u.id": id}).ToSql()
	if err != nil {
		return fmt.Errorf("build find %s query: %w", kind, err)
	}
	if err := r.db.GetContext(ctx, dest, query, args...); err != nil {
		if err == sql.ErrNoRows {
			return err
		}
		return fmt.Errorf("find %s: %w", kind, err)
	}
	return nil
}

// ListAdmins returns administrators matching the filter.
func (r *AccountRepository) ListAdmins(ctx context.Context, filter models.AccountFilter) ([]models.Admin, int, error) {
	var admins []models.Admin
	total, err := r.list(ctx, models.AccountAdmin, filter, &admins)
	return admins, total, err
}

// ListStaff returns staff members matching the filter.
func (r *AccountRepository) ListStaff(ctx context.Context, filter models.AccountFilter) ([]models.Staff, int, error) {
	var staff []models.Staff
	total, err := r.list(ctx, models.AccountStaff, filter, &staff)
	return staff, total, err
}

// ListLibrarians returns librarians matching the filter.
func (r *AccountRepository) ListLibrarians(ctx context.Context, filter models.AccountFilter) ([]models.Librarian, int, error) {
	var librarians []models.Librarian
	total, err := r.list(ctx, models.AccountLibrarian, filter, &librarians)
	return librarians, total, err
}

// FindAdmin returns an administrator by user id.
func (r *AccountRepository) FindAdmin(ctx context.Context, id int64) (*models.Admin, error) {
	var admin models.Admin
	if err := r.find(ctx, models.AccountAdmin, id, &admin); err != nil {
		return nil, err
	}
	return &admin, nil
}

// FindStaff returns a staff member by user id.
func (r *AccountRepository) FindStaff(ctx context.Context, id int64) (*models.Staff, error) {
	var staff models.Staff
	if err := r.find(ctx, models.AccountStaff, id, &staff); err != nil {
		return nil, err
	}
	return &staff, nil
}

// FindLibrarian returns a librarian by user id.
func (r *AccountRepository) FindLibrarian(ctx context.Context, id int64) (*models.Librarian, error) {
	var librarian models.Librarian
	if err := r.find(ctx, models.AccountLibrarian, id, &librarian); err != nil {
		return nil, err
	}
	return &librarian, nil
}

func insertPerson(ctx context.Context, tx *sqlx.Tx, person *models.Person) error {
	now := time.Now().UTC()
	person.CreatedAt = now
	person.UpdatedAt = now
	const query = `INSERT INTO users (username, email, first_name, last_name, phone_number, address, date_of_birth, gender, profile_photo, emergency_contact, registration_id, password_hash, active, created_at, updated_at)
        VALUES (:username, :email, :first_name, :last_name, :phone_number, :address, :date_of_birth, :gender, :profile_photo, :emergency_contact, :registration_id, :password_hash, :active, :created_at, :updated_at) RETURNING id`
	bound, args, err := tx.BindNamed(query, person)
	if err != nil {
		return fmt.Errorf("bind insert user: %w", err)
	}
	if err := tx.QueryRowxContext(ctx, bound, args...).Scan(&person.ID); err != nil {
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

func updatePerson(ctx context.Context, tx *sqlx.Tx, person *models.Person) error {
	person.UpdatedAt = time.Now().UTC()
	const query = `UPDATE users SET username = :username, email = :email, first_name = :first_name, last_name = :last_name, phone_number = :phone_number, address = :address, date_of_birth = :date_of_birth, gender = :gender, emergency_contact = :emergency_contact, password_hash = :password_hash, active = :active, updated_at = :updated_at WHERE id = :id`
	res, err := tx.NamedExecContext(ctx, query, person)
	if err != nil {
		return fmt.Errorf("update user: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// CreateAdmin inserts the person and admin rows in one transaction.
func (r *AccountRepository) CreateAdmin(ctx context.Context, admin *models.Admin) error {
	return withTx(ctx, r.db, "create admin", func(tx *sqlx.Tx) error {
		if err := insertPerson(ctx, tx, &admin.Person); err != nil {
			return err
		}
		const query = `INSERT INTO admins (user_id, department_id, qualification) VALUES ($1, $2, $3)`
		_, err := tx.ExecContext(ctx, query, admin.ID, admin.DepartmentID, admin.Qualification)
		return err
	})
}

// CreateStaff inserts the person and staff rows in one transaction.
func (r *AccountRepository) CreateStaff(ctx context.Context, staff *models.Staff) error {
	return withTx(ctx, r.db, "create staff", func(tx *sqlx.Tx) error {
		if err := insertPerson(ctx, tx, &staff.Person); err != nil {
			return err
		}
		const query = `INSERT INTO staff (user_id, department_id, designation, qualification) VALUES ($1, $2, $3, $4)`
		_, err := tx.ExecContext(ctx, query, staff.ID, staff.DepartmentID, staff.Designation, staff.Qualification)
		return err
	})
}

// CreateLibrarian inserts the person and librarian rows in one transaction.
func (r *AccountRepository) CreateLibrarian(ctx context.Context, librarian *models.Librarian) error {
	return withTx(ctx, r.db, "create librarian", func(tx *sqlx.Tx) error {
		if err := insertPerson(ctx, tx, &librarian.Person); err != nil {
			return err
		}
		const query = `INSERT INTO librarians (user_id, qualification, joining_date) VALUES ($1, $2, $3)`
		_, err := tx.ExecContext(ctx, query, librarian.ID, librarian.Qualification, librarian.JoiningDate)
		return err
	})
}

// UpdateAdmin updates the person and admin rows.
func (r *AccountRepository) UpdateAdmin(ctx context.Context, admin *models.Admin) error {
	return withTx(ctx, r.db, "update admin", func(tx *sqlx.Tx) error {
		if err := updatePerson(ctx, tx, &admin.Person); err != nil {
			return err
		}
		const query = `UPDATE admins SET department_id = $2, qualification = $3 WHERE user_id = $1`
		_, err := tx.ExecContext(ctx, query, admin.ID, admin.DepartmentID, admin.Qualification)
		return err
	})
}

// UpdateStaff updates the person and staff rows.
func (r *AccountRepository) UpdateStaff(ctx context.Context, staff *models.Staff) error {
	return withTx(ctx, r.db, "update staff", func(tx *sqlx.Tx) error {
		if err := updatePerson(ctx, tx, &staff.Person); err != nil {
			return err
		}
		const query = `UPDATE staff SET department_id = $2, designation = $3, qualification = $4 WHERE user_id = $1`
		_, err := tx.ExecContext(ctx, query, staff.ID, staff.DepartmentID, staff.Designation, staff.Qualification)
		return err
	})
}

// UpdateLibrarian updates the person and librarian rows.
func (r *AccountRepository) UpdateLibrarian(ctx context.Context, librarian *models.Librarian) error {
	return withTx(ctx, r.db, "update librarian", func(tx *sqlx.Tx) error {
		if err := updatePerson(ctx, tx, &librarian.Person); err != nil {
			return err
		}
		const query = `UPDATE librarians SET qualification = $2, joining_date = $3 WHERE user_id = $1`
		_, err := tx.ExecContext(ctx, query, librarian.ID, librarian.Qualification, librarian.JoiningDate)
		return err
	})
}

// Delete removes the person behind an account of the given kind; extension rows cascade.
func (r *AccountRepository) Delete(ctx context.Context, kind models.AccountKind, id int64) error {
	table, err := accountTable(kind)
	if err != nil {
		return err
	}
	query := fmt.Sprintf(`DELETE FROM users u WHERE u.id = $1 AND EXISTS (SELECT 1 FROM %s a WHERE a.user_id = u.id)`, table)
	res, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("delete %s: %w", kind, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// RegistrationIDExists reports whether any person already holds the registration ID.
func (r *AccountRepository) RegistrationIDExists(ctx context.Context, registrationID string) (bool, error) {
	const query = `SELECT EXISTS (SELECT 1 FROM users WHERE registration_id = $1)`
	var exists bool
	if err := r.db.GetContext(ctx, &exists, query, registrationID); err != nil {
		return false, fmt.Errorf("check registration id: %w", err)
	}
	return exists, nil
}

// FindPersonByUsername returns the person with the given username.
func (r *AccountRepository) FindPersonByUsername(ctx context.Context, username string) (*models.Person, error) {
	var person models.Person
	if err := r.db.GetContext(ctx, &person, selectPerson+` WHERE username = $1 LIMIT 1`, username); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find user by username: %w", err)
	}
	return &person, nil
}

// FindPersonByID returns the person with the given id.
func (r *AccountRepository) FindPersonByID(ctx context.Context, id int64) (*models.Person, error) {
	var person models.Person
	if err := r.db.GetContext(ctx, &person, selectPerson+` WHERE id = $1 LIMIT 1`, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find user by id: %w", err)
	}
	return &person, nil
}

// ResolveRole probes the admin, staff and librarian extensions in that order; the first match wins.
func (r *AccountRepository) ResolveRole(ctx context.Context, userID int64) (models.Role, error) {
	const query = `SELECT CASE
        WHEN EXISTS (SELECT 1 FROM admins WHERE user_id = $1) THEN 'ADMIN'
        WHEN EXISTS (SELECT 1 FROM staff WHERE user_id = $1) THEN 'STAFF'
        WHEN EXISTS (SELECT 1 FROM librarians WHERE user_id = $1) THEN 'LIBRARIAN'
        ELSE 'NONE' END`
	var role string
	if err := r.db.GetContext(ctx, &role, query, userID); err != nil {
		return models.RoleNone, fmt.Errorf("resolve role: %w", err)
	}
	return models.Role(role), nil
}

// UpdateLastLogin updates the last_login timestamp for a user.
func (r *AccountRepository) UpdateLastLogin(ctx context.Context, id int64, ts time.Time) error {
	const query = `UPDATE users SET last_login = $2 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, ts); err != nil {
		return fmt.Errorf("update last login: %w", err)
	}
	return nil
}

// UpdatePassword updates the stored password hash.
func (r *AccountRepository) UpdatePassword(ctx context.Context, id int64, passwordHash string, updatedAt time.Time) error {
	const query = `UPDATE users SET password_hash = $2, updated_at = $3 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, passwordHash, updatedAt); err != nil {
		return fmt.Errorf("update password: %w", err)
	}
	return nil
}

// UpdateProfilePhoto stores the media reference of a person's profile photo.
func (r *AccountRepository) UpdateProfilePhoto(ctx context.Context, id int64, path string) error {
	const query = `UPDATE users SET profile_photo = $2, updated_at = $3 WHERE id = $1`
	res, err := r.db.ExecContext(ctx, query, id, path, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("update profile photo: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return sql.ErrNoRows
	}
	return nil
}
