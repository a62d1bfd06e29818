package seed

import (
	"context"
	"fmt"

	"github.com/okian/pooldraft/internal/domain/model"
	"github.com/okian/pooldraft/pkg/logger"
)

// CandidateWriter stores master roster records.
type CandidateWriter interface {
	UpsertCandidate(ctx context.Context, c model.Candidate, actor string) (model.Candidate, error)
}

// Report summarises a seeding run.
type Report struct {
	Seeded int
	Failed map[string]error
}

// Run upserts every candidate as actor. A candidate that fails is recorded
// in the report and the run continues; the returned error wraps ErrPartial
// when any failed. Cancellation stops the run.
func Run(ctx context.Context, w CandidateWriter, candidates []model.Candidate, actor string) (Report, error) {
	log := logger.Get().Named("seed")
	rep := Report{Failed: make(map[string]error)}

	for _, c := range candidates {
		if err := ctx.Err(); err != nil {
			return rep, err
		}
		if _, err := w.UpsertCandidate(ctx, c, actor); err != nil {
			rep.Failed[c.Name] = err
			log.Warn(ctx, "candidate not seeded", logger.String("name", c.Name), logger.Error(err))
			continue
		}
		rep.Seeded++
	}

	log.Info(ctx, "roster seeded",
		logger.Int("seeded", rep.Seeded),
		logger.Int("failed", len(rep.Failed)),
	)
	if len(rep.Failed) > 0 {
		return rep, fmt.Errorf("%w: %d of %d", ErrPartial, len(rep.Failed), len(candidates))
	}
	return rep, nil
}
