// Package orchestrator scores stored jobs, asks the text generator for a
// rationale, persists the result and starts document generation for jobs
// that score high enough.
package orchestrator

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spigell/job-tailor/internal/ai"
	"github.com/spigell/job-tailor/internal/criteria"
	"github.com/spigell/job-tailor/internal/jobs"
	"github.com/spigell/job-tailor/internal/logger"
	"github.com/spigell/job-tailor/internal/scoring"
)

//go:embed rationale.md
var rationaleTemplate string

const defaultMaxLogLength = 200

type JobSource interface {
	Get(id string) (*jobs.Listing, error)
	List() ([]string, error)
}

type ScoreStore interface {
	Put(score *jobs.Score) error
	Get(jobID string) (*jobs.Score, error)
}

// Trigger is started for every job whose overall score reaches the threshold.
type Trigger interface {
	Trigger(ctx context.Context, job *jobs.Listing, score *jobs.Score) error
}

type Deps struct {
	Jobs      JobSource
	Scores    ScoreStore
	Generator ai.Generator
	// Trigger is optional.
	Trigger Trigger
	Logger  *zap.Logger
}

type Orchestrator struct {
	criteria  *criteria.Criteria
	engine    *scoring.Engine
	jobs      JobSource
	scores    ScoreStore
	generator ai.Generator
	trigger   Trigger
	threshold int
	logger    *zap.Logger
	maxLogLen int

	now   func() time.Time
	newID func() string
}

// New validates the criteria and wires the orchestrator. The threshold is an
// overall percentage in [0,100].
func New(c *criteria.Criteria, threshold int, deps Deps) (*Orchestrator, error) {
	if c == nil {
		return nil, errors.New("criteria are required")
	}
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("criteria: %w", err)
	}
	if threshold < 0 || threshold > 100 {
		return nil, fmt.Errorf("generate threshold must be within 0-100, got %d", threshold)
	}
	if deps.Jobs == nil || deps.Scores == nil || deps.Generator == nil {
		return nil, errors.New("job source, score store and text generator are required")
	}

	log := logger.WithFields(deps.Logger)

	return &Orchestrator{
		criteria:  c,
		engine:    scoring.NewEngine(log),
		jobs:      deps.Jobs,
		scores:    deps.Scores,
		generator: deps.Generator,
		trigger:   deps.Trigger,
		threshold: threshold,
		logger:    log,
		maxLogLen: defaultMaxLogLength,
		now:       time.Now,
		newID:     uuid.NewString,
	}, nil
}

// Load reads the criteria file and builds the orchestrator from it.
// A missing or invalid file is an error.
func Load(criteriaPath string, threshold int, deps Deps) (*Orchestrator, error) {
	c, err := criteria.Load(criteriaPath)
	if err != nil {
		return nil, err
	}
	return New(c, threshold, deps)
}

func (o *Orchestrator) Threshold() int {
	return o.threshold
}

// Score scores one job, persists the score and runs the trigger when the
// overall score reaches the threshold. Trigger failures are logged only.
func (o *Orchestrator) Score(ctx context.Context, jobID string) (*jobs.Score, error) {
	job, err := o.jobs.Get(jobID)
	if err != nil {
		return nil, fmt.Errorf("load job %s: %w", jobID, err)
	}
	if err := job.Validate(); err != nil {
		return nil, fmt.Errorf("load job %s: %w", jobID, err)
	}

	log := o.logger.With(zap.String(logger.FieldJobID, job.ID))

	result, err := o.engine.Score(job, o.criteria)
	if err != nil {
		return nil, fmt.Errorf("score job %s: %w", job.ID, err)
	}

	rationale, err := o.rationale(ctx, job, result, log)
	if err != nil {
		return nil, fmt.Errorf("generate rationale for job %s: %w", job.ID, err)
	}

	score := &jobs.Score{
		ID:           o.newID(),
		JobID:        job.ID,
		OverallScore: scoring.Percent(result.Overall),
		Rationale:    rationale,
		Breakdown:    result.Breakdown.Percents(),
		Explanations: result.Explanations.Record(),
		Timestamp:    o.now().UTC().Format(time.RFC3339),
	}

	if err := o.scores.Put(score); err != nil {
		return nil, fmt.Errorf("save score for job %s: %w", job.ID, err)
	}

	log.Info("job scored",
		zap.String("title", job.Title),
		zap.String("company", job.Company),
		zap.Int("overall_score", score.OverallScore),
	)

	if o.trigger != nil && score.OverallScore >= o.threshold {
		log.Info("score reached the generate threshold",
			zap.Int("overall_score", score.OverallScore),
			zap.Int("threshold", o.threshold),
		)
		if err := o.trigger.Trigger(ctx, job, score); err != nil {
			log.Warn("document generation failed", zap.Error(err))
		}
	}

	return score, nil
}

func (o *Orchestrator) rationale(ctx context.Context, job *jobs.Listing, result *scoring.Result, log *zap.Logger) (string, error) {
	prompt := buildRationalePrompt(job, result)

	log.Debug("rationale request",
		zap.Int("prompt_length", utf8.RuneCountInString(prompt)),
		zap.String("prompt_preview", logger.TruncateForLog(prompt, o.maxLogLen)),
	)

	text, err := o.generator.GenerateContent(ctx, prompt)
	if err != nil {
		return "", err
	}

	text = strings.TrimSpace(text)
	if text == "" {
		return "", errors.New("empty rationale")
	}

	log.Debug("rationale response", zap.String("response_preview", logger.TruncateForLog(text, o.maxLogLen)))
	return text, nil
}

func buildRationalePrompt(job *jobs.Listing, result *scoring.Result) string {
	p := result.Breakdown.Percents()

	replacements := []string{
		"{{TITLE}}", orUnknown(job.Title),
		"{{COMPANY}}", orUnknown(job.Company),
		"{{LOCATION}}", orUnknown(job.Location),
		"{{SALARY}}", scoring.DescribeSalary(job.Salary),
		"{{REQUIRED_SKILLS}}", strconv.Itoa(p.RequiredSkills),
		"{{PREFERRED_SKILLS}}", strconv.Itoa(p.PreferredSkills),
		"{{EXPERIENCE_LEVEL}}", strconv.Itoa(p.ExperienceLevel),
		"{{SALARY_SCORE}}", strconv.Itoa(p.Salary),
		"{{LOCATION_SCORE}}", strconv.Itoa(p.Location),
		"{{COMPANY_MATCH}}", strconv.Itoa(p.CompanyMatch),
		"{{OVERALL}}", strconv.Itoa(scoring.Percent(result.Overall)),
	}

	return strings.NewReplacer(replacements...).Replace(rationaleTemplate)
}

func orUnknown(s string) string {
	if s = strings.TrimSpace(s); s == "" {
		return "Unknown"
	}
	return s
}
