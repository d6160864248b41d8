package student

import "time"

// PDFRef points at the latest uploaded assignment for a student.
type PDFRef struct {
	Filename string `json:"filename"`
	Path     string `json:"path"`
}

// Student is the persistent record for a registered student.
// PasswordHash is never serialized.
type Student struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	USN          string    `json:"usn"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	PDF          *PDFRef   `json:"pdf,omitempty"`
	Status       Status    `json:"status"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// HasFile reports whether an assignment has been uploaded.
func (s *Student) HasFile() bool {
	return s.PDF != nil && s.PDF.Filename != ""
}

// Upload is one row of the append-only upload history. The student record
// only points at the latest one; older files stay on disk.
type Upload struct {
	ID         string    `json:"id"`
	StudentID  string    `json:"student_id"`
	Filename   string    `json:"filename"`
	Path       string    `json:"path"`
	SizeBytes  int64     `json:"size_bytes"`
	ScanStatus string    `json:"scan_status"`
	CreatedAt  time.Time `json:"created_at"`
}

// Scan verdicts recorded by the worker on upload history rows.
const (
	ScanPending = "pending"
	ScanClean   = "clean"
	ScanSuspect = "suspect"
	ScanFailed  = "failed"
)
