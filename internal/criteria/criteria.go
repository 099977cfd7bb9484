// Package criteria describes what the user is looking for in a job and how
// much each scoring dimension matters.
package criteria

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/spf13/viper"
)

// ErrInvalid is returned for criteria that cannot be used for scoring.
var ErrInvalid = errors.New("invalid criteria")

// weightSumTolerance is how far the weight sum may drift from 1 before it is normalized.
const weightSumTolerance = 1e-6

type Criteria struct {
	RequiredSkills      []string             `json:"required_skills" mapstructure:"required_skills"`
	PreferredSkills     []string             `json:"preferred_skills" mapstructure:"preferred_skills"`
	ExperienceLevels    map[string]float64   `json:"experience_levels" mapstructure:"experience_levels"`
	SalaryRange         SalaryRange          `json:"salary_range" mapstructure:"salary_range"`
	Locations           []string             `json:"locations" mapstructure:"locations"`
	CompanyRequirements *CompanyRequirements `json:"company_requirements,omitempty" mapstructure:"company_requirements"`
	CulturalValues      []string             `json:"cultural_values,omitempty" mapstructure:"cultural_values"`
	DealBreakers        []string             `json:"deal_breakers,omitempty" mapstructure:"deal_breakers"`
	RoleRequirements    *RoleRequirements    `json:"role_requirements,omitempty" mapstructure:"role_requirements"`
	Weights             Weights              `json:"weights" mapstructure:"weights"`
}

type SalaryRange struct {
	Min      float64 `json:"min" mapstructure:"min"`
	Max      float64 `json:"max" mapstructure:"max"`
	Currency string  `json:"currency" mapstructure:"currency"`
}

// Configured reports whether the user stated a salary expectation at all.
func (s SalaryRange) Configured() bool {
	return s.Max > 0
}

type CompanyRequirements struct {
	Domains          []string `json:"domains,omitempty" mapstructure:"domains"`
	ExampleCompanies []string `json:"example_companies,omitempty" mapstructure:"example_companies"`
}

// RoleRequirements are soft signals about how the role is run.
type RoleRequirements struct {
	// LeadershipStyle is matched against player-coach phrasing when set.
	LeadershipStyle      string `json:"leadership_style,omitempty" mapstructure:"leadership_style"`
	Autonomy             bool   `json:"autonomy,omitempty" mapstructure:"autonomy"`
	StrategicInvolvement bool   `json:"strategic_involvement,omitempty" mapstructure:"strategic_involvement"`
}

// Any reports whether at least one role signal is requested.
func (r *RoleRequirements) Any() bool {
	return r != nil && (strings.TrimSpace(r.LeadershipStyle) != "" || r.Autonomy || r.StrategicInvolvement)
}

type Weights struct {
	RequiredSkills  float64 `json:"required_skills" mapstructure:"required_skills"`
	PreferredSkills float64 `json:"preferred_skills" mapstructure:"preferred_skills"`
	ExperienceLevel float64 `json:"experience_level" mapstructure:"experience_level"`
	Salary          float64 `json:"salary" mapstructure:"salary"`
	Location        float64 `json:"location" mapstructure:"location"`
	CompanyMatch    float64 `json:"company_match" mapstructure:"company_match"`
}

func (w Weights) values() []float64 {
	return []float64{w.RequiredSkills, w.PreferredSkills, w.ExperienceLevel, w.Salary, w.Location, w.CompanyMatch}
}

func (w Weights) Sum() float64 {
	var sum float64
	for _, v := range w.values() {
		sum += v
	}
	return sum
}

// Normalized scales the weights so they sum to 1. Weights must be validated first.
func (w Weights) Normalized() Weights {
	sum := w.Sum()
	if sum <= 0 || math.Abs(sum-1) <= weightSumTolerance {
		return w
	}

	return Weights{
		RequiredSkills:  w.RequiredSkills / sum,
		PreferredSkills: w.PreferredSkills / sum,
		ExperienceLevel: w.ExperienceLevel / sum,
		Salary:          w.Salary / sum,
		Location:        w.Location / sum,
		CompanyMatch:    w.CompanyMatch / sum,
	}
}

// IsNormalized reports whether the weights already sum to 1.
func (w Weights) IsNormalized() bool {
	return math.Abs(w.Sum()-1) <= weightSumTolerance
}

func (w Weights) Validate() error {
	for _, v := range w.values() {
		if v < 0 || math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("%w: weights must be non-negative finite numbers", ErrInvalid)
		}
	}
	if w.Sum() <= 0 {
		return fmt.Errorf("%w: at least one weight must be positive", ErrInvalid)
	}
	return nil
}

func (c *Criteria) Validate() error {
	if c == nil {
		return fmt.Errorf("%w: criteria are empty", ErrInvalid)
	}

	if err := c.Weights.Validate(); err != nil {
		return err
	}

	if c.SalaryRange.Min < 0 || c.SalaryRange.Max < 0 {
		return fmt.Errorf("%w: salary range must not be negative", ErrInvalid)
	}
	if c.SalaryRange.Configured() && c.SalaryRange.Min > c.SalaryRange.Max {
		return fmt.Errorf("%w: salary range min %.0f exceeds max %.0f", ErrInvalid, c.SalaryRange.Min, c.SalaryRange.Max)
	}

	for level, years := range c.ExperienceLevels {
		if years < 0 {
			return fmt.Errorf("%w: experience level %q has negative years", ErrInvalid, level)
		}
	}

	return nil
}

// Load reads criteria from a YAML or JSON file. A missing or broken file is an error.
func Load(path string) (*Criteria, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, errors.New("criteria file is not configured")
	}

	// level names such as "sr. engineer" contain dots, so they must not split keys
	v := viper.NewWithOptions(viper.KeyDelimiter("::"))
	v.SetConfigFile(path)

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("read criteria file %q: %w", path, err)
	}

	var c Criteria
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("decode criteria file %q: %w", path, err)
	}

	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("criteria file %q: %w", path, err)
	}

	return &c, nil
}
