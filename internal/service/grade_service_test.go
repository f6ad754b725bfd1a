package service

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/sma-portal-api/internal/models"
	appErrors "github.com/noah-isme/sma-portal-api/pkg/errors"
)

type fakeGradeRepo struct {
	grades    map[int64]models.Grade
	nextID    int64
	withPupil map[int64]bool
}

func newFakeGradeRepo() *fakeGradeRepo {
	return &fakeGradeRepo{grades: map[int64]models.Grade{}, withPupil: map[int64]bool{}}
}

func (f *fakeGradeRepo) List(ctx context.Context) ([]models.Grade, error) {
	out := []models.Grade{}
	for _, g := range f.grades {
		out = append(out, g)
	}
	return out, nil
}

func (f *fakeGradeRepo) FindByID(ctx context.Context, id int64) (*models.Grade, error) {
	g, ok := f.grades[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return &g, nil
}

func (f *fakeGradeRepo) Create(ctx context.Context, grade *models.Grade) error {
	for _, g := range f.grades {
		if g.Standard == grade.Standard && g.Section == grade.Section {
			return &pq.Error{Code: "23505", Constraint: "grades_standard_section_key"}
		}
	}
	if grade.InChargeID != nil && *grade.InChargeID == 404 {
		return &pq.Error{Code: "23503", Constraint: "grades_in_charge_id_fkey"}
	}
	f.nextID++
	grade.ID = f.nextID
	f.grades[grade.ID] = *grade
	return nil
}

func (f *fakeGradeRepo) Update(ctx context.Context, grade *models.Grade) error {
	f.grades[grade.ID] = *grade
	return nil
}

func (f *fakeGradeRepo) Delete(ctx context.Context, id int64) error {
	if f.withPupil[id] {
		return &pq.Error{Code: "23503", Constraint: "students_grade_id_fkey"}
	}
	if _, ok := f.grades[id]; !ok {
		return sql.ErrNoRows
	}
	delete(f.grades, id)
	return nil
}

func TestGradeServiceCreateAndDuplicate(t *testing.T) {
	svc := NewGradeService(newFakeGradeRepo(), schoolChoices(), NewValidator(), zap.NewNop())

	grade, err := svc.Create(context.Background(), models.CreateGradeRequest{Standard: 10, Section: "A"})
	require.NoError(t, err)
	assert.Equal(t, "10 - A", grade.Label())

	_, err = svc.Create(context.Background(), models.CreateGradeRequest{Standard: 10, Section: "A"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, appErrors.ErrConflict))

	_, err = svc.Create(context.Background(), models.CreateGradeRequest{Standard: 11, Section: "A", InChargeID: int64Ptr(404)})
	require.Error(t, err)
	assert.Contains(t, fieldsOf(t, err), "in_charge_id")

	_, err = svc.Create(context.Background(), models.CreateGradeRequest{Section: "B"})
	require.Error(t, err)
	assert.Contains(t, fieldsOf(t, err), "standard")
}

func TestGradeServiceUpdateClearsInCharge(t *testing.T) {
	repo := newFakeGradeRepo()
	svc := NewGradeService(repo, schoolChoices(), NewValidator(), zap.NewNop())
	grade, err := svc.Create(context.Background(), models.CreateGradeRequest{Standard: 10, Section: "A", InChargeID: int64Ptr(5)})
	require.NoError(t, err)

	updated, err := svc.Update(context.Background(), grade.ID, models.UpdateGradeRequest{InChargeID: int64Ptr(0)})
	require.NoError(t, err)
	assert.Nil(t, updated.InChargeID)
}

func TestGradeServiceDeleteProtectedWhileStudentsExist(t *testing.T) {
	repo := newFakeGradeRepo()
	svc := NewGradeService(repo, schoolChoices(), NewValidator(), zap.NewNop())
	grade, err := svc.Create(context.Background(), models.CreateGradeRequest{Standard: 10, Section: "A"})
	require.NoError(t, err)
	repo.withPupil[grade.ID] = true

	err = svc.Delete(context.Background(), grade.ID)
	assert.True(t, errors.Is(err, appErrors.ErrConflict))

	repo.withPupil[grade.ID] = false
	require.NoError(t, svc.Delete(context.Background(), grade.ID))
	assert.True(t, errors.Is(svc.Delete(context.Background(), grade.ID), appErrors.ErrNotFound))
}

func TestGradeServiceStudentChoices(t *testing.T) {
	repo := newFakeGradeRepo()
	svc := NewGradeService(repo, schoolChoices(), NewValidator(), zap.NewNop())
	grade, err := svc.Create(context.Background(), models.CreateGradeRequest{Standard: 10, Section: "A"})
	require.NoError(t, err)

	set, err := svc.StudentChoices(context.Background(), grade.ID)
	require.NoError(t, err)
	assert.Len(t, set.Students, 2)

	_, err = svc.StudentChoices(context.Background(), 99)
	assert.True(t, errors.Is(err, appErrors.ErrNotFound))
}
