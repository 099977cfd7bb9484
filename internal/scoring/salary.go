package scoring

import (
	"fmt"
	"math"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/spigell/job-tailor/internal/criteria"
	"github.com/spigell/job-tailor/internal/jobs"
)

const (
	// salaryUnknown is the neutral score when either side has no salary data.
	salaryUnknown = 0.5
	overlapBonus  = 1.2
	belowFactor   = 0.8
	aboveFactor   = 0.5
)

var amountPrinter = message.NewPrinter(language.English)

func scoreSalary(job *jobs.Listing, c *criteria.Criteria) (float64, string) {
	if !job.Salary.Known() {
		return salaryUnknown, "Salary not specified in the job posting"
	}
	if !c.SalaryRange.Configured() {
		return salaryUnknown, "No target salary range configured"
	}

	jobMin, jobMax := job.Salary.Range()
	wantMin, wantMax := c.SalaryRange.Min, c.SalaryRange.Max

	offered := formatRange(jobMin, jobMax, job.Salary.Currency)
	target := formatRange(wantMin, wantMax, c.SalaryRange.Currency)

	switch {
	case jobMin >= wantMin && jobMax <= wantMax:
		return 1, fmt.Sprintf("Job salary %s fits entirely within target %s", offered, target)

	// touching ranges share no amount, so they count as below or above
	case jobMax <= wantMin:
		score := clamp01(jobMax / wantMin * belowFactor)
		return score, fmt.Sprintf("Job salary %s is below target %s", offered, target)

	case jobMin >= wantMax:
		score := clamp01(1 - (jobMin-wantMax)/wantMax*aboveFactor)
		return score, fmt.Sprintf("Job salary %s is above target %s", offered, target)

	default:
		overlap := math.Min(jobMax, wantMax) - math.Max(jobMin, wantMin)
		smaller := math.Min(wantMax-wantMin, jobMax-jobMin)

		share := 1.0
		if smaller > 0 {
			share = math.Min(overlap/smaller, 1)
		}
		score := math.Min(share*overlapBonus, 1)

		return score, fmt.Sprintf("Job salary %s overlaps target %s (%d%% of the narrower range)", offered, target, Percent(share))
	}
}

func formatRange(lo, hi float64, currency string) string {
	var s string
	if lo == hi {
		s = amountPrinter.Sprintf("%.0f", lo)
	} else {
		s = amountPrinter.Sprintf("%.0f-%.0f", lo, hi)
	}

	if currency = strings.TrimSpace(currency); currency != "" {
		s += " " + currency
	}
	return s
}

// DescribeSalary renders the job salary for prompts and reports.
func DescribeSalary(s *jobs.Salary) string {
	if !s.Known() {
		return "Not specified"
	}
	lo, hi := s.Range()
	return formatRange(lo, hi, s.Currency)
}
