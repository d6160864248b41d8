package student

import "strings"

// Status is the persisted review state of a student's assignment.
type Status string

const (
	// StatusPending means the assignment awaits or is under review.
	StatusPending Status = "Pending"
	// StatusCompleted means faculty accepted the assignment.
	StatusCompleted Status = "Completed"
	// StatusHold means faculty rejected it or flagged an integrity concern.
	StatusHold Status = "Hold"
)

// ParseStatus validates a raw status value.
func ParseStatus(raw string) (Status, error) {
	switch Status(raw) {
	case StatusPending, StatusCompleted, StatusHold:
		return Status(raw), nil
	}
	return "", ErrInvalidStatus
}

// CanTransition reports whether a faculty decision may move a record to the
// given status. Accepting work requires that a file was actually submitted;
// every other move between the three states is allowed, including revising
// an earlier decision.
func CanTransition(to Status, hasFile bool) error {
	if to == StatusCompleted && !hasFile {
		return ErrFileRequired
	}
	return nil
}

// suspectFragments flags stored filenames that should never be auto-trusted.
var suspectFragments = []string{"fake", "invalid"}

// Effective computes the status shown to faculty. It layers two display-only
// overrides on the persisted value and never mutates storage:
//
//   - no uploaded assignment: Hold
//   - stored filename contains a denylisted fragment: Hold
func Effective(s *Student) Status {
	if s.PDF == nil || s.PDF.Filename == "" {
		return StatusHold
	}
	name := strings.ToLower(s.PDF.Filename)
	for _, frag := range suspectFragments {
		if strings.Contains(name, frag) {
			return StatusHold
		}
	}
	return s.Status
}
