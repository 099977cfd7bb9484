package scoring

import (
	"fmt"
	"strings"

	"github.com/spigell/job-tailor/internal/criteria"
	"github.com/spigell/job-tailor/internal/jobs"
)

func scoreRequiredSkills(job *jobs.Listing, c *criteria.Criteria) (float64, string) {
	return scoreSkills(job.Text(), c.RequiredSkills, "required")
}

func scorePreferredSkills(job *jobs.Listing, c *criteria.Criteria) (float64, string) {
	return scoreSkills(job.Text(), c.PreferredSkills, "preferred")
}

// scoreSkills is the share of skills found as case-insensitive substrings of text.
// An empty skill list scores 1 since nothing is missing.
func scoreSkills(text string, skills []string, kind string) (float64, string) {
	wanted := nonBlank(skills)
	if len(wanted) == 0 {
		return 1, fmt.Sprintf("No %s skills specified", kind)
	}

	lower := strings.ToLower(text)

	var found, missing []string
	for _, skill := range wanted {
		if strings.Contains(lower, strings.ToLower(skill)) {
			found = append(found, skill)
			continue
		}
		missing = append(missing, skill)
	}

	score := float64(len(found)) / float64(len(wanted))

	var b strings.Builder
	fmt.Fprintf(&b, "Found %s %s skills", ratio(len(found), len(wanted)), kind)
	if len(found) > 0 {
		fmt.Fprintf(&b, ": %s", strings.Join(found, ", "))
	}
	if len(missing) > 0 {
		fmt.Fprintf(&b, ". Missing: %s", strings.Join(missing, ", "))
	}

	return score, b.String()
}

func nonBlank(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}
