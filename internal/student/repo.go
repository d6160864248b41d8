package student

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
)

// Repository persists student records in Postgres.
type Repository struct {
	db *sql.DB
}

// NewRepository creates a repo.
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

const studentColumns = `id, name, usn, email, password_hash, pdf_filename, pdf_path, status, created_at, updated_at`

// Create inserts a new student. Uniqueness of usn and email is enforced by
// the database so concurrent registrations cannot race past a pre-check.
func (r *Repository) Create(ctx context.Context, s Student) (Student, error) {
	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	if s.Status == "" {
		s.Status = StatusPending
	}
	row := r.db.QueryRowContext(ctx, `
		INSERT INTO students (id, name, usn, email, password_hash, status)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING created_at, updated_at
	`, s.ID, s.Name, s.USN, s.Email, s.PasswordHash, s.Status)
	if err := row.Scan(&s.CreatedAt, &s.UpdatedAt); err != nil {
		return Student{}, mapUniqueViolation(err)
	}
	return s, nil
}

// GetByUSN returns a student by usn.
func (r *Repository) GetByUSN(ctx context.Context, usn string) (Student, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT `+studentColumns+` FROM students WHERE usn = $1
	`, usn)
	return scanStudent(row)
}

// GetByID returns a student by record id.
func (r *Repository) GetByID(ctx context.Context, id string) (Student, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT `+studentColumns+` FROM students WHERE id = $1
	`, id)
	return scanStudent(row)
}

// List returns all students ordered by usn for a stable faculty display.
func (r *Repository) List(ctx context.Context) ([]Student, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+studentColumns+` FROM students ORDER BY usn ASC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var res []Student
	for rows.Next() {
		s, err := scanStudentRows(rows)
		if err != nil {
			return nil, err
		}
		res = append(res, s)
	}
	return res, rows.Err()
}

// UpdateStatus sets the persisted status. Last write wins.
func (r *Repository) UpdateStatus(ctx context.Context, id string, status Status) (Student, error) {
	row := r.db.QueryRowContext(ctx, `
		UPDATE students SET status = $2, updated_at = NOW()
		WHERE id = $1
		RETURNING `+studentColumns+`
	`, id, status)
	return scanStudent(row)
}

// AttachUpload points the student at a newly stored file, resets status to
// Pending, and appends an upload history row, all in one transaction.
func (r *Repository) AttachUpload(ctx context.Context, usn string, up Upload) (Student, Upload, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return Student{}, Upload{}, err
	}
	defer tx.Rollback()

	row := tx.QueryRowContext(ctx, `
		UPDATE students
		SET pdf_filename = $2, pdf_path = $3, status = $4, updated_at = NOW()
		WHERE usn = $1
		RETURNING `+studentColumns+`
	`, usn, up.Filename, up.Path, StatusPending)
	s, err := scanStudent(row)
	if err != nil {
		return Student{}, Upload{}, err
	}

	if up.ID == "" {
		up.ID = uuid.NewString()
	}
	up.StudentID = s.ID
	if up.ScanStatus == "" {
		up.ScanStatus = ScanPending
	}
	if err := tx.QueryRowContext(ctx, `
		INSERT INTO uploads (id, student_id, filename, path, size_bytes, scan_status)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING created_at
	`, up.ID, up.StudentID, up.Filename, up.Path, up.SizeBytes, up.ScanStatus).Scan(&up.CreatedAt); err != nil {
		return Student{}, Upload{}, err
	}

	if err := tx.Commit(); err != nil {
		return Student{}, Upload{}, err
	}
	return s, up, nil
}

// GetUpload returns one upload history row.
func (r *Repository) GetUpload(ctx context.Context, id string) (Upload, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, student_id, filename, path, size_bytes, scan_status, created_at
		FROM uploads WHERE id = $1
	`, id)
	var up Upload
	if err := row.Scan(&up.ID, &up.StudentID, &up.Filename, &up.Path, &up.SizeBytes, &up.ScanStatus, &up.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Upload{}, ErrNotFound
		}
		return Upload{}, err
	}
	return up, nil
}

// UpdateUploadScan records the worker's verdict on an upload row.
func (r *Repository) UpdateUploadScan(ctx context.Context, id, verdict string) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE uploads SET scan_status = $2 WHERE id = $1
	`, id, verdict)
	return err
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanStudent(row rowScanner) (Student, error) {
	s, err := scanStudentRows(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Student{}, ErrNotFound
		}
		return Student{}, err
	}
	return s, nil
}

func scanStudentRows(row rowScanner) (Student, error) {
	var (
		s        Student
		filename sql.NullString
		path     sql.NullString
		status   string
		created  time.Time
		updated  time.Time
	)
	if err := row.Scan(&s.ID, &s.Name, &s.USN, &s.Email, &s.PasswordHash,
		&filename, &path, &status, &created, &updated); err != nil {
		return Student{}, err
	}
	if filename.Valid && filename.String != "" {
		s.PDF = &PDFRef{Filename: filename.String, Path: path.String}
	}
	s.Status = Status(status)
	s.CreatedAt = created
	s.UpdatedAt = updated
	return s, nil
}

// mapUniqueViolation converts Postgres unique violations into domain errors.
func mapUniqueViolation(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		switch pgErr.ConstraintName {
		case "students_usn_key":
			return ErrDuplicateUSN
		case "students_email_key":
			return ErrDuplicateEmail
		}
		return ErrDuplicateUSN
	}
	return err
}
