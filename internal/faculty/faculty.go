// Package faculty holds the server-side capability table for subject logins.
// The subject-code/password pairs previously lived in client code with no
// server check; here they are seeded into the server and verified with bcrypt.
package faculty

import (
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

// ErrBadCapability means the subject code or password did not match.
var ErrBadCapability = errors.New("invalid subject code or password")

// defaultSeed mirrors the original deployment's five subjects. Override with
// FACULTY_SEED in any real deployment.
const defaultSeed = "BCS601:cc,BCS602:ds,BCS603:os,BCS604:cn,BCS605:se"

// subjectNames maps subject codes to display names for the dashboard header.
var subjectNames = map[string]string{
	"BCS601": "Cloud Computing",
	"BCS602": "Data Structures",
	"BCS603": "Operating Systems",
	"BCS604": "Computer Networks",
	"BCS605": "Software Engineering",
}

// Table verifies faculty capabilities keyed by subject code.
type Table struct {
	hashes map[string]string
}

// NewTable parses a "CODE:password,CODE:password" seed, hashing each password.
// An empty seed falls back to the default subjects.
func NewTable(seed string) (*Table, error) {
	if strings.TrimSpace(seed) == "" {
		seed = defaultSeed
	}
	hashes := make(map[string]string)
	for _, pair := range strings.Split(seed, ",") {
		code, pass, ok := strings.Cut(strings.TrimSpace(pair), ":")
		if !ok || code == "" || pass == "" {
			return nil, fmt.Errorf("faculty: malformed seed entry %q", pair)
		}
		hash, err := bcrypt.GenerateFromPassword([]byte(pass), bcrypt.DefaultCost)
		if err != nil {
			return nil, fmt.Errorf("faculty: hash seed password: %w", err)
		}
		hashes[strings.ToUpper(code)] = string(hash)
	}
	return &Table{hashes: hashes}, nil
}

// Verify checks a subject-code capability. The error never reveals whether
// the code or the password was wrong.
func (t *Table) Verify(code, password string) error {
	hash, ok := t.hashes[strings.ToUpper(strings.TrimSpace(code))]
	if !ok {
		return ErrBadCapability
	}
	if bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) != nil {
		return ErrBadCapability
	}
	return nil
}

// SubjectName returns the display name for a subject code, or the code
// itself when unknown.
func SubjectName(code string) string {
	code = strings.ToUpper(strings.TrimSpace(code))
	if name, ok := subjectNames[code]; ok {
		return name
	}
	return code
}
