package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/sma-portal-api/internal/models"
	"github.com/noah-isme/sma-portal-api/pkg/database"
)

func newMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	sqlxdb := sqlx.NewDb(db, "sqlmock")
	return sqlxdb, mock, func() {
		db.Close()
	}
}

func TestResolveRole(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewAccountRepository(db)

	mock.ExpectQuery(`WHEN EXISTS \(SELECT 1 FROM admins WHERE user_id = \$1\) THEN 'ADMIN'`).
		WithArgs(int64(7)).
		WillReturnRows(sqlmock.NewRows([]string{"case"}).AddRow("STAFF"))

	role, err := repo.ResolveRole(context.Background(), 7)
	require.NoError(t, err)
	assert.Equal(t, models.RoleStaff, role)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateStaffInsertsPersonAndExtension(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewAccountRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery("INSERT INTO users").WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(12))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO staff (user_id, department_id, designation, qualification) VALUES ($1, $2, $3, $4)")).
		WithArgs(int64(12), nil, "Teacher", "MSc").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	staff := &models.Staff{
		Person:        models.Person{Username: "rina", RegistrationID: "STA20240001", PasswordHash: "$2a$10$x", Active: true},
		Designation:   "Teacher",
		Qualification: "MSc",
	}
	require.NoError(t, repo.CreateStaff(context.Background(), staff))
	assert.Equal(t, int64(12), staff.ID)
	assert.False(t, staff.CreatedAt.IsZero())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateAdminRollsBackOnDuplicateRegistrationID(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewAccountRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery("INSERT INTO users").WillReturnError(&pq.Error{Code: "23505", Constraint: "users_registration_id_key"})
	mock.ExpectRollback()

	err := repo.CreateAdmin(context.Background(), &models.Admin{Person: models.Person{Username: "root", RegistrationID: "ADM20240001"}})
	require.Error(t, err)
	assert.True(t, database.IsUniqueViolation(err, "users_registration_id_key"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRegistrationIDExists(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewAccountRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT EXISTS (SELECT 1 FROM users WHERE registration_id = $1)")).
		WithArgs("LIB20240042").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))

	exists, err := repo.RegistrationIDExists(context.Background(), "LIB20240042")
	require.NoError(t, err)
	assert.True(t, exists)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListAdmins(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewAccountRepository(db)

	now := time.Now()
	rows := sqlmock.NewRows([]string{
		"id", "username", "email", "first_name", "last_name", "phone_number", "address", "date_of_birth", "gender",
		"profile_photo", "emergency_contact", "registration_id", "password_hash", "active", "last_login", "created_at", "updated_at",
		"department_id", "department_name", "qualification",
	}).AddRow(1, "root", "root@school.test", "Ana", "Putri", nil, nil, nil, "F", nil, "", "ADM20240001", "hash", true, nil, now, now, 3, "Science", "MEd")
	mock.ExpectQuery(regexp.QuoteMeta("FROM users u JOIN admins a ON a.user_id = u.id LEFT JOIN departments d ON d.id = a.department_id WHERE (LOWER(u.username) LIKE $1 OR LOWER(u.first_name) LIKE $2 OR LOWER(u.last_name) LIKE $3 OR LOWER(u.registration_id) LIKE $4) ORDER BY u.created_at DESC LIMIT 20 OFFSET 0")).
		WithArgs("%ana%", "%ana%", "%ana%", "%ana%").
		WillReturnRows(rows)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM users u JOIN admins a")).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	admins, total, err := repo.ListAdmins(context.Background(), models.AccountFilter{ListParams: models.ListParams{Search: "Ana"}})
	require.NoError(t, err)
	require.Len(t, admins, 1)
	assert.Equal(t, 1, total)
	assert.Equal(t, "ADM20240001", admins[0].RegistrationID)
	require.NotNil(t, admins[0].DepartmentName)
	assert.Equal(t, "Science", *admins[0].DepartmentName)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDeleteAccountNotFound(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewAccountRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM users u WHERE u.id = $1 AND EXISTS (SELECT 1 FROM librarians a WHERE a.user_id = u.id)")).
		WithArgs(int64(4)).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.Delete(context.Background(), models.AccountLibrarian, 4)
	assert.ErrorIs(t, err, sql.ErrNoRows)
	assert.Error(t, repo.Delete(context.Background(), models.AccountKind("students"), 4))
	assert.NoError(t, mock.ExpectationsWereMet())
}
