package experience

import (
	"fmt"
	"sort"
	"strings"
)

const maxTitleLength = 1024

// ValidationError holds per-field validation failure messages.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for field, msg := range e.Fields {
		parts = append(parts, fmt.Sprintf("%s: %s", field, msg))
	}
	sort.Strings(parts)
	return strings.Join(parts, "; ")
}

// ValidateNew checks that the required fields of a new experience are present
// and returns a ValidationError listing every missing one.
func ValidateNew(title, problem, solution string) error {
	errs := make(map[string]string)

	if strings.TrimSpace(title) == "" {
		errs["title"] = "title is required"
	} else if len(title) > maxTitleLength {
		errs["title"] = fmt.Sprintf("title must be at most %d characters", maxTitleLength)
	}
	if strings.TrimSpace(problem) == "" {
		errs["problem"] = "problem is required"
	}
	if strings.TrimSpace(solution) == "" {
		errs["solution"] = "solution is required"
	}
	if len(errs) > 0 {
		return &ValidationError{Fields: errs}
	}
	return nil
}
