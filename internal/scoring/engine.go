// Package scoring computes how well a job listing matches the user's criteria.
//
// Every dimension produces a sub-score in [0,1] together with a human readable
// explanation. The overall score is the weighted sum of the sub-scores using
// normalized weights, so it stays in [0,1] as well.
package scoring

import (
	"errors"
	"fmt"
	"math"

	"go.uber.org/zap"

	"github.com/spigell/job-tailor/internal/criteria"
	"github.com/spigell/job-tailor/internal/jobs"
	"github.com/spigell/job-tailor/internal/logger"
)

// Breakdown holds the six sub-scores, each in [0,1].
type Breakdown struct {
	RequiredSkills  float64
	PreferredSkills float64
	ExperienceLevel float64
	Salary          float64
	Location        float64
	CompanyMatch    float64
}

// Explanations holds one explanation per sub-score.
type Explanations struct {
	RequiredSkills  string
	PreferredSkills string
	ExperienceLevel string
	Salary          string
	Location        string
	CompanyMatch    string
}

type Result struct {
	Overall      float64
	Breakdown    Breakdown
	Explanations Explanations
}

type Engine struct {
	logger *zap.Logger
}

func NewEngine(log *zap.Logger) *Engine {
	return &Engine{logger: logger.WithFields(log)}
}

// Score evaluates the job against the criteria. It fails only on missing input
// or criteria that do not validate; a deal breaker is a valid zero, not an error.
func (e *Engine) Score(job *jobs.Listing, c *criteria.Criteria) (*Result, error) {
	if job == nil {
		return nil, errors.New("job listing is required")
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}

	var res Result
	res.Breakdown.RequiredSkills, res.Explanations.RequiredSkills = scoreRequiredSkills(job, c)
	res.Breakdown.PreferredSkills, res.Explanations.PreferredSkills = scorePreferredSkills(job, c)
	res.Breakdown.ExperienceLevel, res.Explanations.ExperienceLevel = scoreExperience(job, c)
	res.Breakdown.Salary, res.Explanations.Salary = scoreSalary(job, c)
	res.Breakdown.Location, res.Explanations.Location = scoreLocation(job, c)
	res.Breakdown.CompanyMatch, res.Explanations.CompanyMatch = scoreCompanyMatch(job, c)

	if !c.Weights.IsNormalized() {
		e.logger.Debug("normalizing criteria weights", zap.Float64("weight_sum", c.Weights.Sum()))
	}
	res.Overall = weightedSum(res.Breakdown, c.Weights.Normalized())

	e.logger.Debug("job scored",
		zap.String(logger.FieldJobID, job.ID),
		zap.Float64("overall", res.Overall),
		zap.Float64("required_skills", res.Breakdown.RequiredSkills),
		zap.Float64("company_match", res.Breakdown.CompanyMatch),
	)

	return &res, nil
}

func weightedSum(b Breakdown, w criteria.Weights) float64 {
	total := b.RequiredSkills*w.RequiredSkills +
		b.PreferredSkills*w.PreferredSkills +
		b.ExperienceLevel*w.ExperienceLevel +
		b.Salary*w.Salary +
		b.Location*w.Location +
		b.CompanyMatch*w.CompanyMatch

	return clamp01(total)
}

// Percent converts a [0,1] score to an integer percentage.
func Percent(v float64) int {
	return int(math.Round(clamp01(v) * 100))
}

// Percents converts the whole breakdown to percentages.
func (b Breakdown) Percents() jobs.Breakdown {
	return jobs.Breakdown{
		RequiredSkills:  Percent(b.RequiredSkills),
		PreferredSkills: Percent(b.PreferredSkills),
		ExperienceLevel: Percent(b.ExperienceLevel),
		Salary:          Percent(b.Salary),
		Location:        Percent(b.Location),
		CompanyMatch:    Percent(b.CompanyMatch),
	}
}

func (e Explanations) Record() jobs.Explanations {
	return jobs.Explanations(e)
}

func clamp01(v float64) float64 {
	switch {
	case math.IsNaN(v) || v < 0:
		return 0
	case v > 1:
		return 1
	default:
		return v
	}
}

func ratio(part, total int) string {
	return fmt.Sprintf("%d/%d", part, total)
}
