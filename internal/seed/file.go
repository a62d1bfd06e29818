package seed

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/okian/pooldraft/internal/domain/model"
)

// fileCandidate is one roster row in a seed file. JSON files parse too,
// since YAML is a superset.
type fileCandidate struct {
	ID         string     `yaml:"id"`
	Name       string     `yaml:"name"`
	Role       model.Role `yaml:"role"`
	SkillScore int        `yaml:"skill_score"`
	BasePrice  float64    `yaml:"base_price"`
}

type rosterFile struct {
	Candidates []fileCandidate `yaml:"candidates"`
}

// ReadFile parses a roster file. Candidates without an id get the stable
// name-derived one.
func ReadFile(path string) ([]model.Candidate, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read roster %q: %w", path, err)
	}
	return Parse(raw)
}

// Parse decodes a roster document of the form {candidates: [...]}.
func Parse(raw []byte) ([]model.Candidate, error) {
	var doc rosterFile
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrBadRoster, err)
	}
	if len(doc.Candidates) == 0 {
		return nil, fmt.Errorf("%w: no candidates", ErrBadRoster)
	}
	out := make([]model.Candidate, len(doc.Candidates))
	for i, c := range doc.Candidates {
		id := c.ID
		if id == "" {
			id = CandidateID(c.Name)
		}
		out[i] = model.Candidate{
			ID:         id,
			Name:       c.Name,
			Role:       c.Role,
			SkillScore: c.SkillScore,
			BasePrice:  c.BasePrice,
		}
	}
	return out, nil
}
