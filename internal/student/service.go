package student

import (
	"context"
	"fmt"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

// Store is the persistence surface the service needs. *Repository satisfies
// it; tests plug in a fake.
type Store interface {
	Create(ctx context.Context, s Student) (Student, error)
	GetByUSN(ctx context.Context, usn string) (Student, error)
	GetByID(ctx context.Context, id string) (Student, error)
	List(ctx context.Context) ([]Student, error)
	UpdateStatus(ctx context.Context, id string, status Status) (Student, error)
	AttachUpload(ctx context.Context, usn string, up Upload) (Student, Upload, error)
}

// Service coordinates registration, login, uploads and faculty decisions.
type Service struct {
	store Store
}

// NewService creates a service backed by a store.
func NewService(store Store) *Service {
	return &Service{store: store}
}

// Register creates a student record. The password is hashed before it ever
// reaches the store; usn is upper-cased and immutable afterwards.
func (s *Service) Register(ctx context.Context, name, usn, email, password string) (Student, error) {
	name = strings.TrimSpace(name)
	usn = strings.ToUpper(strings.TrimSpace(usn))
	email = strings.TrimSpace(email)
	if name == "" || usn == "" || email == "" || password == "" {
		return Student{}, fmt.Errorf("%w: all fields are required", ErrValidation)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return Student{}, fmt.Errorf("hash password: %w", err)
	}

	return s.store.Create(ctx, Student{
		Name:         name,
		USN:          usn,
		Email:        email,
		PasswordHash: string(hash),
		Status:       StatusPending,
	})
}

// Login verifies credentials and returns the record. The caller must not
// serialize the password hash; the Student type already hides it.
func (s *Service) Login(ctx context.Context, usn, password string) (Student, error) {
	rec, err := s.store.GetByUSN(ctx, strings.ToUpper(strings.TrimSpace(usn)))
	if err != nil {
		return Student{}, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(rec.PasswordHash), []byte(password)); err != nil {
		return Student{}, ErrBadCredentials
	}
	return rec, nil
}

// Exists reports whether a usn is already registered.
func (s *Service) Exists(ctx context.Context, usn string) (bool, error) {
	_, err := s.store.GetByUSN(ctx, strings.ToUpper(strings.TrimSpace(usn)))
	if err == ErrNotFound {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// RecordUpload attaches a stored file to the student and unconditionally
// resets status to Pending: every new upload restarts review.
func (s *Service) RecordUpload(ctx context.Context, usn string, up Upload) (Student, Upload, error) {
	return s.store.AttachUpload(ctx, strings.ToUpper(strings.TrimSpace(usn)), up)
}

// SetStatus applies a faculty decision. The raw value is validated against
// the enum and the file-required rule before anything is written.
func (s *Service) SetStatus(ctx context.Context, id, raw string) (Student, error) {
	status, err := ParseStatus(raw)
	if err != nil {
		return Student{}, err
	}
	rec, err := s.store.GetByID(ctx, id)
	if err != nil {
		return Student{}, err
	}
	if err := CanTransition(status, rec.HasFile()); err != nil {
		return Student{}, err
	}
	return s.store.UpdateStatus(ctx, id, status)
}

// Reviewed pairs a record with the status faculty should see.
type Reviewed struct {
	Student
	EffectiveStatus Status `json:"effective_status"`
}

// ListForReview returns all students, usn-ordered, with the display-only
// effective status applied. Persisted status is left untouched.
func (s *Service) ListForReview(ctx context.Context) ([]Reviewed, error) {
	students, err := s.store.List(ctx)
	if err != nil {
		return nil, err
	}
	res := make([]Reviewed, 0, len(students))
	for _, st := range students {
		res = append(res, Reviewed{Student: st, EffectiveStatus: Effective(&st)})
	}
	return res, nil
}

// Search filters by case-insensitive substring over name or usn.
func Search(list []Reviewed, term string) []Reviewed {
	term = strings.ToLower(strings.TrimSpace(term))
	if term == "" {
		return list
	}
	var res []Reviewed
	for _, r := range list {
		if strings.Contains(strings.ToLower(r.Name), term) ||
			strings.Contains(strings.ToLower(r.USN), term) {
			res = append(res, r)
		}
	}
	return res
}

// FilterByStatus filters on effective status. "all" (or empty) keeps everything.
func FilterByStatus(list []Reviewed, status string) []Reviewed {
	if status == "" || strings.EqualFold(status, "all") {
		return list
	}
	var res []Reviewed
	for _, r := range list {
		if string(r.EffectiveStatus) == status {
			res = append(res, r)
		}
	}
	return res
}

// Counts are aggregates over a loaded listing, computed once, not re-queried.
type Counts struct {
	Total     int `json:"total"`
	Completed int `json:"completed"`
	Pending   int `json:"pending"`
	Hold      int `json:"hold"`
}

// CountByStatus tallies effective statuses for the dashboard cards.
func CountByStatus(list []Reviewed) Counts {
	c := Counts{Total: len(list)}
	for _, r := range list {
		switch r.EffectiveStatus {
		case StatusCompleted:
			c.Completed++
		case StatusPending:
			c.Pending++
		case StatusHold:
			c.Hold++
		}
	}
	return c
}
