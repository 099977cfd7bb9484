package orchestrator

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/spigell/job-tailor/internal/jobs"
	"github.com/spigell/job-tailor/internal/logger"
)

// Summary describes a batch scoring run.
type Summary struct {
	Total   int
	Scored  int
	Skipped int
	Failed  int
	Scores  []*jobs.Score
}

// ScoreAll scores every stored job one after another. Jobs that already have
// a score are skipped unless rescore is set. A failing job is logged and the
// run continues; the returned error only covers listing the jobs.
func (o *Orchestrator) ScoreAll(ctx context.Context, rescore bool) (*Summary, error) {
	ids, err := o.jobs.List()
	if err != nil {
		return nil, err
	}

	summary := &Summary{Total: len(ids)}

	for _, id := range ids {
		if ctx.Err() != nil {
			return summary, ctx.Err()
		}

		if !rescore {
			_, err := o.scores.Get(id)
			if err == nil {
				summary.Skipped++
				o.logger.Debug("skipping already scored job", zap.String(logger.FieldJobID, id))
				continue
			}
			if !errors.Is(err, jobs.ErrNotFound) {
				o.logger.Warn("reading previous score failed, rescoring", zap.String(logger.FieldJobID, id), zap.Error(err))
			}
		}

		score, err := o.Score(ctx, id)
		if err != nil {
			summary.Failed++
			o.logger.Error("scoring failed", zap.String(logger.FieldJobID, id), zap.Error(err))
			continue
		}

		summary.Scored++
		summary.Scores = append(summary.Scores, score)
	}

	o.logger.Info("scoring finished",
		zap.Int("total", summary.Total),
		zap.Int("scored", summary.Scored),
		zap.Int("skipped", summary.Skipped),
		zap.Int("failed", summary.Failed),
	)

	return summary, nil
}
