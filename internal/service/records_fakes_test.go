package service

import (
	"context"
	"database/sql"
	"sort"
	"time"

	"github.com/noah-isme/sma-portal-api/internal/models"
	"github.com/noah-isme/sma-portal-api/internal/repository"
)

// fakeChoices lists students per grade.
type fakeChoices map[int64][]models.StudentChoice

func (f fakeChoices) ListChoicesByGrade(ctx context.Context, gradeID int64) ([]models.StudentChoice, error) {
	return f[gradeID], nil
}

func schoolChoices() fakeChoices {
	return fakeChoices{
		1: {{ID: 10, Username: "ana", FullName: "Ana Putri"}, {ID: 11, Username: "budi", FullName: "Budi Santoso"}},
		2: {{ID: 20, Username: "citra", FullName: "Citra Dewi"}},
	}
}

func fixedClock(year int, month time.Month, day int) Clock {
	return func() time.Time { return time.Date(year, month, day, 10, 0, 0, 0, time.UTC) }
}

// fakeLendingRepo mirrors the copy accounting of the SQL repository.
type fakeLendingRepo struct {
	nextID  int64
	records map[int64]models.LibraryRecord
	copies  map[int64]int
}

func newFakeLendingRepo(copies map[int64]int) *fakeLendingRepo {
	return &fakeLendingRepo{records: map[int64]models.LibraryRecord{}, copies: copies}
}

func (f *fakeLendingRepo) detail(r models.LibraryRecord) models.LibraryRecordDetail {
	return models.LibraryRecordDetail{LibraryRecord: r, StudentName: "student", BookTitle: "book", GradeStandard: 10, GradeSection: "A"}
}

func (f *fakeLendingRepo) List(ctx context.Context, filter models.LibraryRecordFilter) ([]models.LibraryRecordDetail, int, error) {
	out, _ := f.ListAll(ctx, filter)
	return out, len(out), nil
}

func (f *fakeLendingRepo) ListAll(ctx context.Context, filter models.LibraryRecordFilter) ([]models.LibraryRecordDetail, error) {
	out := []models.LibraryRecordDetail{}
	for _, r := range f.records {
		if filter.Status != nil && r.Status != *filter.Status {
			continue
		}
		out = append(out, f.detail(r))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (f *fakeLendingRepo) FindByID(ctx context.Context, id int64) (*models.LibraryRecordDetail, error) {
	r, ok := f.records[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	d := f.detail(r)
	return &d, nil
}

func (f *fakeLendingRepo) Create(ctx context.Context, record *models.LibraryRecord) error {
	if !record.Returned() {
		if f.copies[record.BookID] <= 0 {
			return repository.ErrNoCopiesAvailable
		}
		f.copies[record.BookID]--
	}
	f.nextID++
	record.ID = f.nextID
	f.records[record.ID] = *record
	return nil
}

func (f *fakeLendingRepo) Update(ctx context.Context, record *models.LibraryRecord) error {
	prev, ok := f.records[record.ID]
	if !ok {
		return sql.ErrNoRows
	}
	stillOut := !prev.Returned() && !record.Returned() && prev.BookID == record.BookID
	if !stillOut {
		if !record.Returned() {
			if f.copies[record.BookID] <= 0 {
				return repository.ErrNoCopiesAvailable
			}
			f.copies[record.BookID]--
		}
		if !prev.Returned() {
			f.copies[prev.BookID]++
		}
	}
	f.records[record.ID] = *record
	return nil
}

func (f *fakeLendingRepo) Delete(ctx context.Context, id int64) error {
	prev, ok := f.records[id]
	if !ok {
		return sql.ErrNoRows
	}
	if !prev.Returned() {
		f.copies[prev.BookID]++
	}
	delete(f.records, id)
	return nil
}

type fakeFeeRepo struct {
	nextID  int64
	records map[int64]models.FeeRecord
}

func newFakeFeeRepo() *fakeFeeRepo {
	return &fakeFeeRepo{records: map[int64]models.FeeRecord{}}
}

func (f *fakeFeeRepo) List(ctx context.Context, filter models.FeeRecordFilter) ([]models.FeeRecordDetail, int, error) {
	out, _ := f.ListAll(ctx, filter)
	return out, len(out), nil
}

func (f *fakeFeeRepo) ListAll(ctx context.Context, filter models.FeeRecordFilter) ([]models.FeeRecordDetail, error) {
	out := []models.FeeRecordDetail{}
	for _, r := range f.records {
		if filter.Status != nil && r.Status != *filter.Status {
			continue
		}
		out = append(out, models.FeeRecordDetail{FeeRecord: r, StudentName: "student", GradeStandard: 10, GradeSection: "A"})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (f *fakeFeeRepo) FindByID(ctx context.Context, id int64) (*models.FeeRecordDetail, error) {
	r, ok := f.records[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return &models.FeeRecordDetail{FeeRecord: r}, nil
}

func (f *fakeFeeRepo) Create(ctx context.Context, record *models.FeeRecord) error {
	f.nextID++
	record.ID = f.nextID
	f.records[record.ID] = *record
	return nil
}

func (f *fakeFeeRepo) Update(ctx context.Context, record *models.FeeRecord) error {
	if _, ok := f.records[record.ID]; !ok {
		return sql.ErrNoRows
	}
	f.records[record.ID] = *record
	return nil
}

func (f *fakeFeeRepo) Delete(ctx context.Context, id int64) error {
	if _, ok := f.records[id]; !ok {
		return sql.ErrNoRows
	}
	delete(f.records, id)
	return nil
}
