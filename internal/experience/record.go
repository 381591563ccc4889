// Package experience defines the experience record, identifier generation,
// and input validation for the two write paths.
package experience

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Record is one persisted problem/solution note. Records written before
// identifier support may have an empty ID; they are kept in the log but
// excluded from indexing and voting.
type Record struct {
	ID        string `json:"id,omitempty"`
	Timestamp string `json:"timestamp"`
	Title     string `json:"title"`
	Problem   string `json:"problem"`
	Solution  string `json:"solution"`
	Keywords  string `json:"keywords"`
	Context   string `json:"context"`
	Votes     int    `json:"votes"`
}

// New creates a Record with a fresh identifier, the current timestamp, and a
// zero vote count.
func New(title, problem, solution, keywords, context string) Record {
	return Record{
		ID:        NewID(),
		Timestamp: time.Now().Format(time.RFC3339),
		Title:     title,
		Problem:   problem,
		Solution:  solution,
		Keywords:  keywords,
		Context:   context,
	}
}

// NewID returns a fresh record identifier.
func NewID() string {
	return fmt.Sprintf("exp-%s", uuid.New().String()[:8])
}

// SearchText returns the concatenation of all free-text fields, in the order
// the indexer tokenizes them.
func (r Record) SearchText() string {
	return strings.Join([]string{r.Title, r.Problem, r.Solution, r.Keywords, r.Context}, " ")
}

// ScanText returns the concatenation used by the linear-scan fallback, which
// matches the original substring search surface (context excluded).
func (r Record) ScanText() string {
	return strings.Join([]string{r.Title, r.Problem, r.Solution, r.Keywords}, " ")
}
