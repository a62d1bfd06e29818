package validate

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel kinds for this package. These allow errors.Is from callers.
var (
	ErrValidation = errors.New("setup validation failed")
	ErrInputRange = errors.New("input out of range")
)

// Violation kinds reported by Setup.
const (
	KindNoCandidates = "no_candidates"
	KindEmptyGroup   = "empty_group"
)

// Violation is one blocking issue found at commit time.
type Violation struct {
	Kind      string `json:"kind"`
	GroupID   string `json:"group_id,omitempty"`
	GroupName string `json:"group_name,omitempty"`
	Message   string `json:"message"`
}

// ValidationError lists every violation found in a setup snapshot.
type ValidationError struct {
	Violations []Violation
}

func (e *ValidationError) Error() string {
	msgs := make([]string, len(e.Violations))
	for i, v := range e.Violations {
		msgs[i] = v.Message
	}
	return fmt.Sprintf("%s: %s", ErrValidation, strings.Join(msgs, "; "))
}

// Is matches ErrValidation.
func (e *ValidationError) Is(target error) bool { return target == ErrValidation }

// EmptyGroups returns the ids of the groups reported as empty.
func (e *ValidationError) EmptyGroups() []string {
	var ids []string
	for _, v := range e.Violations {
		if v.Kind == KindEmptyGroup {
			ids = append(ids, v.GroupID)
		}
	}
	return ids
}

// InputRangeError rejects a single edit whose value is outside its range.
type InputRangeError struct {
	Field string
	Value string
	Min   float64
	Max   float64
}

func (e *InputRangeError) Error() string {
	return fmt.Sprintf("%s: %s must be an integer between %g and %g, got %q", ErrInputRange, e.Field, e.Min, e.Max, e.Value)
}

// Is matches ErrInputRange.
func (e *InputRangeError) Is(target error) bool { return target == ErrInputRange }
