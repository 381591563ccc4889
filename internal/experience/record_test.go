package experience

import (
	"strings"
	"testing"
)

func TestNewAssignsIdentity(t *testing.T) {
	rec := New("title", "problem", "solution", "kw", "ctx")
	if !strings.HasPrefix(rec.ID, "exp-") {
		t.Errorf("id = %q, want exp- prefix", rec.ID)
	}
	if rec.Timestamp == "" {
		t.Errorf("timestamp not set")
	}
	if rec.Votes != 0 {
		t.Errorf("votes = %d, want 0", rec.Votes)
	}
}

func TestNewIDUnique(t *testing.T) {
	seen := make(map[string]struct{})
	for i := 0; i < 1000; i++ {
		id := NewID()
		if _, dup := seen[id]; dup {
			t.Fatalf("duplicate id %s after %d generations", id, i)
		}
		seen[id] = struct{}{}
	}
}

func TestSearchTextIncludesAllFields(t *testing.T) {
	rec := Record{
		Title:    "ttt",
		Problem:  "ppp",
		Solution: "sss",
		Keywords: "kkk",
		Context:  "ccc",
	}
	text := rec.SearchText()
	for _, field := range []string{"ttt", "ppp", "sss", "kkk", "ccc"} {
		if !strings.Contains(text, field) {
			t.Errorf("SearchText missing %q", field)
		}
	}
	// The fallback scan surface excludes context, like the original
	// substring search.
	if strings.Contains(rec.ScanText(), "ccc") {
		t.Errorf("ScanText should not include context")
	}
}

func TestValidateNew(t *testing.T) {
	tests := []struct {
		name                     string
		title, problem, solution string
		wantErr                  bool
		wantField                string
	}{
		{"all present", "t", "p", "s", false, ""},
		{"missing title", "", "p", "s", true, "title"},
		{"missing problem", "t", "", "s", true, "problem"},
		{"missing solution", "t", "p", "", true, "solution"},
		{"whitespace only", "  ", "p", "s", true, "title"},
		{"all missing", "", "", "", true, "solution"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateNew(tt.title, tt.problem, tt.solution)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ValidateNew error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !strings.Contains(err.Error(), tt.wantField) {
				t.Errorf("error %q does not mention %q", err.Error(), tt.wantField)
			}
		})
	}
}
