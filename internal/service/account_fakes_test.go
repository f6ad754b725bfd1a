package service

import (
	"context"
	"database/sql"
	"sync"
	"time"

	"github.com/lib/pq"

	"github.com/noah-isme/sma-portal-api/internal/models"
)

// fakeAccountRepo keeps accounts in memory and enforces the unique indexes of the users table.
type fakeAccountRepo struct {
	mu         sync.Mutex
	nextID     int64
	people     map[int64]*models.Person
	roles      map[int64]models.Role
	admins     map[int64]*models.Admin
	staff      map[int64]*models.Staff
	librarians map[int64]*models.Librarian
	lastLogin  map[int64]time.Time
	createErr  error
}

func newFakeAccountRepo() *fakeAccountRepo {
	return &fakeAccountRepo{
		people:     map[int64]*models.Person{},
		roles:      map[int64]models.Role{},
		admins:     map[int64]*models.Admin{},
		staff:      map[int64]*models.Staff{},
		librarians: map[int64]*models.Librarian{},
		lastLogin:  map[int64]time.Time{},
	}
}

func (f *fakeAccountRepo) addPerson(p models.Person, role models.Role) *models.Person {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	p.ID = f.nextID
	f.people[p.ID] = &p
	f.roles[p.ID] = role
	return &p
}

func (f *fakeAccountRepo) insertPerson(p *models.Person, role models.Role) error {
	if f.createErr != nil {
		return f.createErr
	}
	for _, existing := range f.people {
		if existing.Username == p.Username {
			return &pq.Error{Code: "23505", Constraint: "users_username_key"}
		}
		if existing.RegistrationID != "" && existing.RegistrationID == p.RegistrationID {
			return &pq.Error{Code: "23505", Constraint: registrationIDConstraint}
		}
	}
	f.nextID++
	p.ID = f.nextID
	clone := *p
	f.people[p.ID] = &clone
	f.roles[p.ID] = role
	return nil
}

func (f *fakeAccountRepo) RegistrationIDExists(ctx context.Context, id string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, p := range f.people {
		if p.RegistrationID == id {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeAccountRepo) ListAdmins(ctx context.Context, filter models.AccountFilter) ([]models.Admin, int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []models.Admin{}
	for _, a := range f.admins {
		out = append(out, *a)
	}
	return out, len(out), nil
}

func (f *fakeAccountRepo) ListStaff(ctx context.Context, filter models.AccountFilter) ([]models.Staff, int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []models.Staff{}
	for _, s := range f.staff {
		out = append(out, *s)
	}
	return out, len(out), nil
}

func (f *fakeAccountRepo) ListLibrarians(ctx context.Context, filter models.AccountFilter) ([]models.Librarian, int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []models.Librarian{}
	for _, l := range f.librarians {
		out = append(out, *l)
	}
	return out, len(out), nil
}

func (f *fakeAccountRepo) FindAdmin(ctx context.Context, id int64) (*models.Admin, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	a, ok := f.admins[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	clone := *a
	return &clone, nil
}

func (f *fakeAccountRepo) FindStaff(ctx context.Context, id int64) (*models.Staff, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.staff[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	clone := *s
	return &clone, nil
}

func (f *fakeAccountRepo) FindLibrarian(ctx context.Context, id int64) (*models.Librarian, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	l, ok := f.librarians[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	clone := *l
	return &clone, nil
}

func (f *fakeAccountRepo) CreateAdmin(ctx context.Context, admin *models.Admin) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.insertPerson(&admin.Person, models.RoleAdmin); err != nil {
		return err
	}
	clone := *admin
	f.admins[admin.ID] = &clone
	return nil
}

func (f *fakeAccountRepo) CreateStaff(ctx context.Context, staff *models.Staff) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if staff.DepartmentID != nil && *staff.DepartmentID == 404 {
		return &pq.Error{Code: "23503", Constraint: "staff_department_id_fkey"}
	}
	if err := f.insertPerson(&staff.Person, models.RoleStaff); err != nil {
		return err
	}
	clone := *staff
	f.staff[staff.ID] = &clone
	return nil
}

func (f *fakeAccountRepo) CreateLibrarian(ctx context.Context, librarian *models.Librarian) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.insertPerson(&librarian.Person, models.RoleLibrarian); err != nil {
		return err
	}
	clone := *librarian
	f.librarians[librarian.ID] = &clone
	return nil
}

func (f *fakeAccountRepo) UpdateAdmin(ctx context.Context, admin *models.Admin) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	clone := *admin
	f.admins[admin.ID] = &clone
	person := admin.Person
	f.people[admin.ID] = &person
	return nil
}

func (f *fakeAccountRepo) UpdateStaff(ctx context.Context, staff *models.Staff) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	clone := *staff
	f.staff[staff.ID] = &clone
	person := staff.Person
	f.people[staff.ID] = &person
	return nil
}

func (f *fakeAccountRepo) UpdateLibrarian(ctx context.Context, librarian *models.Librarian) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	clone := *librarian
	f.librarians[librarian.ID] = &clone
	person := librarian.Person
	f.people[librarian.ID] = &person
	return nil
}

func (f *fakeAccountRepo) Delete(ctx context.Context, kind models.AccountKind, id int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	var found bool
	switch kind {
	case models.AccountAdmin:
		_, found = f.admins[id]
		delete(f.admins, id)
	case models.AccountStaff:
		_, found = f.staff[id]
		delete(f.staff, id)
	case models.AccountLibrarian:
		_, found = f.librarians[id]
		delete(f.librarians, id)
	}
	if !found {
		return sql.ErrNoRows
	}
	delete(f.people, id)
	return nil
}

func (f *fakeAccountRepo) FindPersonByUsername(ctx context.Context, username string) (*models.Person, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, p := range f.people {
		if p.Username == username {
			clone := *p
			return &clone, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (f *fakeAccountRepo) FindPersonByID(ctx context.Context, id int64) (*models.Person, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.people[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	clone := *p
	return &clone, nil
}

func (f *fakeAccountRepo) ResolveRole(ctx context.Context, userID int64) (models.Role, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	role, ok := f.roles[userID]
	if !ok {
		return models.RoleNone, nil
	}
	return role, nil
}

func (f *fakeAccountRepo) UpdateLastLogin(ctx context.Context, id int64, ts time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lastLogin[id] = ts
	return nil
}

func (f *fakeAccountRepo) UpdatePassword(ctx context.Context, id int64, hash string, updatedAt time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.people[id]
	if !ok {
		return sql.ErrNoRows
	}
	p.PasswordHash = hash
	return nil
}

type fakeAuditWriter struct {
	mu      sync.Mutex
	entries []*models.AuditLog
	err     error
}

func (f *fakeAuditWriter) Create(ctx context.Context, entry *models.AuditLog) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.entries = append(f.entries, entry)
	return f.err
}
