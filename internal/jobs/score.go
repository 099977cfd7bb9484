package jobs

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// Score is the persisted result of scoring one job. It is never modified after creation.
type Score struct {
	ID           string       `json:"id"`
	JobID        string       `json:"jobId"`
	OverallScore int          `json:"overallScore"`
	Rationale    string       `json:"rationale"`
	Breakdown    Breakdown    `json:"breakdown"`
	Explanations Explanations `json:"explanations"`
	Timestamp    string       `json:"timestamp"`
}

// Breakdown holds the six sub-scores on a 0-100 scale.
type Breakdown struct {
	RequiredSkills  int `json:"required_skills"`
	PreferredSkills int `json:"preferred_skills"`
	ExperienceLevel int `json:"experience_level"`
	Salary          int `json:"salary"`
	Location        int `json:"location"`
	CompanyMatch    int `json:"company_match"`
}

// Explanations says why each sub-score came out the way it did.
type Explanations struct {
	RequiredSkills  string `json:"required_skills"`
	PreferredSkills string `json:"preferred_skills"`
	ExperienceLevel string `json:"experience_level"`
	Salary          string `json:"salary"`
	Location        string `json:"location"`
	CompanyMatch    string `json:"company_match"`
}

// ScoreStore persists scores next to the job they belong to.
type ScoreStore struct {
	jobs *Store
}

func NewScoreStore(jobs *Store) *ScoreStore {
	return &ScoreStore{jobs: jobs}
}

func (s *ScoreStore) Put(score *Score) error {
	if err := validateID(score.JobID); err != nil {
		return err
	}
	return writeJSON(filepath.Join(s.jobs.Dir(score.JobID), scoreFile), score)
}

func (s *ScoreStore) Get(jobID string) (*Score, error) {
	if err := validateID(jobID); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(filepath.Join(s.jobs.Dir(jobID), scoreFile))
	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("score for job %s: %w", jobID, ErrNotFound)
	}
	if err != nil {
		return nil, err
	}

	var score Score
	if err := json.Unmarshal(data, &score); err != nil {
		return nil, fmt.Errorf("parse score for job %s: %w", jobID, err)
	}

	return &score, nil
}
