// Package feedback implements the tool-usage feedback log: a pure append
// JSONL file with no read path.
package feedback

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"
)

// Entry is one tool feedback rating.
type Entry struct {
	Timestamp string `json:"timestamp"`
	ToolName  string `json:"tool_name"`
	Rating    int    `json:"rating"`
	Feedback  string `json:"feedback"`
	Context   string `json:"context"`
}

// New creates an Entry with the current timestamp.
func New(toolName string, rating int, feedbackText, context string) Entry {
	return Entry{
		Timestamp: time.Now().Format(time.RFC3339),
		ToolName:  toolName,
		Rating:    rating,
		Feedback:  feedbackText,
		Context:   context,
	}
}

// Validate checks required fields and the rating bounds.
func (e Entry) Validate() error {
	if strings.TrimSpace(e.ToolName) == "" {
		return fmt.Errorf("tool_name is required")
	}
	if e.Rating < 1 || e.Rating > 5 {
		return fmt.Errorf("rating must be an integer between 1 and 5")
	}
	if strings.TrimSpace(e.Feedback) == "" {
		return fmt.Errorf("feedback is required")
	}
	return nil
}

// Log is the append-only feedback file.
type Log struct {
	path string
	mu   sync.Mutex
}

// NewLog creates a Log for the given path. The file is created on first
// append.
func NewLog(path string) *Log {
	return &Log{path: path}
}

// Append writes one entry to the end of the log.
func (l *Log) Append(entry Entry) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	f, err := os.OpenFile(l.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("opening %s for append: %w", l.path, err)
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(entry); err != nil {
		return fmt.Errorf("appending feedback entry: %w", err)
	}
	return nil
}
