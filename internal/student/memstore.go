package student

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemStore is an in-memory Store for development and tests. Insert-if-absent
// is atomic under one mutex, mirroring the database's uniqueness guarantee.
type MemStore struct {
	mu       sync.Mutex
	students map[string]Student // by id
	uploads  map[string]Upload  // by id
}

// NewMemStore creates an empty in-memory store.
func NewMemStore() *MemStore {
	return &MemStore{
		students: make(map[string]Student),
		uploads:  make(map[string]Upload),
	}
}

// Create inserts a student, rejecting duplicate usn or email without
// mutating anything.
func (m *MemStore) Create(_ context.Context, s Student) (Student, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.students {
		if existing.USN == s.USN {
			return Student{}, ErrDuplicateUSN
		}
		if existing.Email == s.Email {
			return Student{}, ErrDuplicateEmail
		}
	}
	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	if s.Status == "" {
		s.Status = StatusPending
	}
	now := time.Now().UTC()
	s.CreatedAt = now
	s.UpdatedAt = now
	m.students[s.ID] = s
	return s, nil
}

// GetByUSN returns a student by usn.
func (m *MemStore) GetByUSN(_ context.Context, usn string) (Student, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, s := range m.students {
		if s.USN == usn {
			return s, nil
		}
	}
	return Student{}, ErrNotFound
}

// GetByID returns a student by record id.
func (m *MemStore) GetByID(_ context.Context, id string) (Student, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.students[id]
	if !ok {
		return Student{}, ErrNotFound
	}
	return s, nil
}

// List returns all students ordered by usn.
func (m *MemStore) List(_ context.Context) ([]Student, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	res := make([]Student, 0, len(m.students))
	for _, s := range m.students {
		res = append(res, s)
	}
	sort.Slice(res, func(i, j int) bool { return res[i].USN < res[j].USN })
	return res, nil
}

// UpdateStatus sets the persisted status.
func (m *MemStore) UpdateStatus(_ context.Context, id string, status Status) (Student, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.students[id]
	if !ok {
		return Student{}, ErrNotFound
	}
	s.Status = status
	s.UpdatedAt = time.Now().UTC()
	m.students[id] = s
	return s, nil
}

// AttachUpload points the student at a new file, resets status to Pending,
// and appends to the upload history.
func (m *MemStore) AttachUpload(_ context.Context, usn string, up Upload) (Student, Upload, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, s := range m.students {
		if s.USN != usn {
			continue
		}
		s.PDF = &PDFRef{Filename: up.Filename, Path: up.Path}
		s.Status = StatusPending
		s.UpdatedAt = time.Now().UTC()
		m.students[id] = s

		if up.ID == "" {
			up.ID = uuid.NewString()
		}
		up.StudentID = id
		if up.ScanStatus == "" {
			up.ScanStatus = ScanPending
		}
		up.CreatedAt = time.Now().UTC()
		m.uploads[up.ID] = up
		return s, up, nil
	}
	return Student{}, Upload{}, ErrNotFound
}

// GetUpload returns one upload history row.
func (m *MemStore) GetUpload(_ context.Context, id string) (Upload, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	up, ok := m.uploads[id]
	if !ok {
		return Upload{}, ErrNotFound
	}
	return up, nil
}

// UpdateUploadScan records a scan verdict.
func (m *MemStore) UpdateUploadScan(_ context.Context, id, verdict string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	up, ok := m.uploads[id]
	if !ok {
		return ErrNotFound
	}
	up.ScanStatus = verdict
	m.uploads[id] = up
	return nil
}
