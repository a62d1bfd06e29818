// Package validate holds commit-time setup checks and edit input validation.
package validate

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/okian/pooldraft/internal/domain/model"
)

var structValidate = validator.New()

// Snapshot is the read view Setup needs from a curation state.
type Snapshot interface {
	Groups() []model.Group
	CuratedCount() int
}

// Setup checks a snapshot before commit. Every check runs; the returned
// *ValidationError carries all violations at once.
func Setup(s Snapshot) error {
	var violations []Violation

	if s.CuratedCount() == 0 {
		violations = append(violations, Violation{
			Kind:    KindNoCandidates,
			Message: "at least one candidate must be assigned to a group",
		})
	}
	for _, g := range s.Groups() {
		if len(g.MemberIDs) == 0 {
			violations = append(violations, Violation{
				Kind:      KindEmptyGroup,
				GroupID:   g.ID,
				GroupName: g.Name,
				Message:   fmt.Sprintf("group %q (%s) has no members", g.Name, g.ID),
			})
		}
	}

	if len(violations) > 0 {
		return &ValidationError{Violations: violations}
	}
	return nil
}

// EditValues are the parsed per-event attributes of an override edit.
type EditValues struct {
	SkillScore int     `validate:"gte=0,lte=100"`
	BasePrice  float64 `validate:"gte=0"`
}

// ParseEdit turns raw form input into EditValues. The score must be an
// integer in [0,100] or an *InputRangeError is returned. The price is
// coerced: unparseable or non-finite input becomes 0, negatives clamp to 0.
func ParseEdit(rawScore, rawPrice string) (EditValues, error) {
	rangeErr := &InputRangeError{
		Field: "skill_score",
		Value: rawScore,
		Min:   model.MinSkillScore,
		Max:   model.MaxSkillScore,
	}

	score, err := strconv.Atoi(strings.TrimSpace(rawScore))
	if err != nil {
		return EditValues{}, rangeErr
	}

	v := EditValues{SkillScore: score, BasePrice: CoercePrice(rawPrice)}
	if err := structValidate.Struct(v); err != nil {
		return EditValues{}, rangeErr
	}
	return v, nil
}

// CoercePrice parses a price leniently, returning 0 for anything that is not
// a finite non-negative number.
func CoercePrice(raw string) float64 {
	p, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil || math.IsNaN(p) || math.IsInf(p, 0) || p < 0 {
		return 0
	}
	return p
}

// Candidate validates a master roster record.
func Candidate(c model.Candidate) error {
	if err := structValidate.Struct(c); err != nil {
		return fmt.Errorf("invalid candidate %q: %w", c.ID, err)
	}
	return nil
}

// Struct validates any tagged request struct with the shared validator.
func Struct(v any) error {
	return structValidate.Struct(v)
}
