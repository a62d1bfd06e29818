// Package seed loads master roster candidates into the store, either the
// built-in demo roster or a YAML/JSON roster file.
package seed

import (
	"github.com/google/uuid"

	"github.com/okian/pooldraft/internal/domain/model"
)

// namespace scopes the name-derived candidate ids so re-seeding updates the
// same rows instead of duplicating them.
var namespace = uuid.MustParse("0d7c3f52-8c1a-4b6e-9a55-2f0e6c1d9b47")

// CandidateID returns the stable id seeded candidates get for name.
func CandidateID(name string) string {
	return uuid.NewSHA1(namespace, []byte(name)).String()
}

type entry struct {
	name  string
	role  model.Role
	score int
	price float64
}

var defaults = []entry{
	{"Babar Azam", model.RoleBatsman, 93, 2.0},
	{"Steve Smith", model.RoleBatsman, 90, 2.0},
	{"Kane Williamson", model.RoleBatsman, 91, 2.0},
	{"David Warner", model.RoleBatsman, 88, 1.5},
	{"Suryakumar Yadav", model.RoleBatsman, 89, 1.5},
	{"Jos Buttler", model.RoleBatsman, 92, 2.0},
	{"Rohit Sharma", model.RoleBatsman, 95, 2.0},
	{"Virat Kohli", model.RoleBatsman, 94, 2.0},

	{"Jasprit Bumrah", model.RoleBowler, 95, 2.0},
	{"Pat Cummins", model.RoleBowler, 92, 2.0},
	{"Rashid Khan", model.RoleBowler, 94, 2.0},
	{"Shaheen Afridi", model.RoleBowler, 91, 2.0},
	{"Trent Boult", model.RoleBowler, 89, 1.5},
	{"Kagiso Rabada", model.RoleBowler, 88, 1.5},
	{"Wanindu Hasaranga", model.RoleBowler, 87, 1.0},
	{"Jofra Archer", model.RoleBowler, 86, 1.0},

	{"Hardik Pandya", model.RoleAllRounder, 88, 2.0},
	{"Ben Stokes", model.RoleAllRounder, 89, 2.0},
	{"Shakib Al Hasan", model.RoleAllRounder, 85, 1.5},
	{"Glenn Maxwell", model.RoleAllRounder, 86, 1.5},

	{"Rishabh Pant", model.RoleWicketKeeper, 87, 1.5},
	{"Quinton de Kock", model.RoleWicketKeeper, 89, 2.0},
}

// DefaultRoster returns the built-in demo roster.
func DefaultRoster() []model.Candidate {
	out := make([]model.Candidate, len(defaults))
	for i, e := range defaults {
		out[i] = model.Candidate{
			ID:         CandidateID(e.name),
			Name:       e.name,
			Role:       e.role,
			SkillScore: e.score,
			BasePrice:  e.price,
		}
	}
	return out
}
