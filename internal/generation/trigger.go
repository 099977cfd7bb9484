package generation

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/spigell/job-tailor/internal/jobs"
	"github.com/spigell/job-tailor/internal/logger"
)

// DocumentSink receives generated documents, usually the job store.
type DocumentSink interface {
	PutDocument(jobID, name string, content []byte) (string, error)
}

// Trigger generates every configured document kind for a job that scored
// above the threshold.
type Trigger struct {
	generator *Generator
	sources   map[Kind]string
	sink      DocumentSink
	logger    *zap.Logger
}

// NewTrigger builds a trigger; kinds without a source path are skipped.
func NewTrigger(g *Generator, sources map[Kind]string, sink DocumentSink, log *zap.Logger) *Trigger {
	return &Trigger{
		generator: g,
		sources:   sources,
		sink:      sink,
		logger:    logger.WithFields(log),
	}
}

// FileName is where a document of this kind is written inside the job directory.
func (k Kind) FileName() string {
	return string(k) + ".md"
}

func (t *Trigger) Trigger(ctx context.Context, job *jobs.Listing, score *jobs.Score) error {
	if job == nil {
		return errors.New("job is required")
	}

	var errs []error
	for _, kind := range Kinds() {
		path := strings.TrimSpace(t.sources[kind])
		if path == "" {
			continue
		}

		doc, err := t.generator.Generate(ctx, Request{Kind: kind, Job: job, SourcePath: path})
		if err != nil {
			errs = append(errs, err)
			continue
		}

		fields := []zap.Field{
			zap.String(logger.FieldJobID, job.ID),
			zap.String(logger.FieldCacheType, string(kind)),
			zap.Bool("from_cache", doc.FromCache),
		}
		if score != nil {
			fields = append(fields, zap.Int("overall_score", score.OverallScore))
		}

		if t.sink != nil {
			written, err := t.sink.PutDocument(job.ID, kind.FileName(), []byte(doc.Content))
			if err != nil {
				errs = append(errs, fmt.Errorf("save %s for job %s: %w", kind, job.ID, err))
				continue
			}
			fields = append(fields, zap.String("path", written))
		}

		t.logger.Info("document ready", fields...)
	}

	return errors.Join(errs...)
}
