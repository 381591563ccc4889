package feedback

import (
	"bufio"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
)

func TestEntryValidate(t *testing.T) {
	tests := []struct {
		name    string
		entry   Entry
		wantErr bool
	}{
		{"valid", New("grep", 4, "fast and precise", ""), false},
		{"rating too low", New("grep", 0, "meh", ""), true},
		{"rating too high", New("grep", 6, "great", ""), true},
		{"missing tool name", New("", 3, "ok", ""), true},
		{"missing feedback", New("grep", 3, "", ""), true},
		{"boundary ratings", New("grep", 1, "poor", ""), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.entry.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestLogAppend(t *testing.T) {
	path := filepath.Join(t.TempDir(), "feedback-tools.jsonl")
	log := NewLog(path)

	entries := []Entry{
		New("search_experience", 5, "found the fix immediately", "debugging session"),
		New("vote_experience", 3, "works but slow", ""),
	}
	for _, e := range entries {
		if err := log.Append(e); err != nil {
			t.Fatalf("Append: %v", err)
		}
	}

	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer f.Close()

	var got []Entry
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		var e Entry
		if err := json.Unmarshal(scanner.Bytes(), &e); err != nil {
			t.Fatalf("line not valid JSON: %v", err)
		}
		got = append(got, e)
	}
	if len(got) != len(entries) {
		t.Fatalf("got %d lines, want %d", len(got), len(entries))
	}
	for i := range entries {
		if got[i].ToolName != entries[i].ToolName || got[i].Rating != entries[i].Rating {
			t.Errorf("entry %d = %+v, want %+v", i, got[i], entries[i])
		}
	}
}
