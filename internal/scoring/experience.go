package scoring

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/spigell/job-tailor/internal/criteria"
	"github.com/spigell/job-tailor/internal/jobs"
)

// levelWithoutYears is awarded when a level keyword matches but no year count is given.
const levelWithoutYears = 0.7

var yearsPattern = regexp.MustCompile(`(?i)\b(\d{1,2})\s*\+?\s*(?:years?|yrs?)\b`)

// requestedYears returns every "<N>+ years" mention found in the description.
func requestedYears(description string) []int {
	var years []int
	for _, m := range yearsPattern.FindAllStringSubmatch(description, -1) {
		n, err := strconv.Atoi(m[1])
		if err != nil {
			continue
		}
		years = append(years, n)
	}
	return years
}

func scoreExperience(job *jobs.Listing, c *criteria.Criteria) (float64, string) {
	text := strings.ToLower(job.Text())

	maxRequested := -1
	for _, y := range requestedYears(job.Description) {
		if y > maxRequested {
			maxRequested = y
		}
	}

	levels := make([]string, 0, len(c.ExperienceLevels))
	for level := range c.ExperienceLevels {
		levels = append(levels, level)
	}
	sort.Strings(levels)

	best := 0.0
	explanation := "No experience level keywords found."
	matched := false

	for _, level := range levels {
		name := strings.ToLower(strings.TrimSpace(level))
		if name == "" || !strings.Contains(text, name) {
			continue
		}

		have := c.ExperienceLevels[level]

		var score float64
		var why string
		switch {
		case maxRequested < 0:
			score = levelWithoutYears
			why = fmt.Sprintf("Matched %q level, no explicit years requirement", level)
		case maxRequested == 0:
			score = 1
			why = fmt.Sprintf("Matched %q level, job asks for 0 years", level)
		default:
			score = min(have/float64(maxRequested), 1)
			why = fmt.Sprintf("Matched %q level: job asks for %d+ years, you have %s", level, maxRequested, strconv.FormatFloat(have, 'f', -1, 64))
		}

		if !matched || score > best {
			best = score
			explanation = why
			matched = true
		}
	}

	return best, explanation
}
