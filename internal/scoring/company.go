package scoring

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/spigell/job-tailor/internal/criteria"
	"github.com/spigell/job-tailor/internal/jobs"
)

const (
	domainAward   = 0.3
	exampleAward  = 0.2
	cultureAward  = 0.2
	roleAward     = 0.1
	noCompanyPref = 0.7
)

var (
	officeBreakerPattern = regexp.MustCompile(`return[- ]to[- ]office|\brto\b|in[- ]office|(?:5|five)[- ]days?`)
	officeJobPattern     = regexp.MustCompile(`return[- ]to[- ]office|\brto\b|(?:5|five)[- ]days?\s+(?:a|per)\s+week\s+(?:in|at)\s+(?:the\s+|our\s+)?office|(?:5|five)[- ]days?\s+(?:in|at)\s+(?:the\s+|our\s+)?office|fully\s+(?:in[- ]office|on[- ]?site)`)

	onCallBreakerPattern = regexp.MustCompile(`on[- ]call|pager`)
	onCallJobPattern     = regexp.MustCompile(`on[- ]call|pager\s*duty|pager\s+rotation|carry\s+(?:a\s+)?pager`)

	playerCoachPattern = regexp.MustCompile(`player[- ]coach|hands[- ]on\s+(?:lead|leader|manager|management)|lead\s+by\s+example`)
	autonomyPattern    = regexp.MustCompile(`autonom|ownership|self[- ]directed|independen`)
	strategicPattern   = regexp.MustCompile(`strateg|roadmap|vision|long[- ]term\s+direction`)
)

func scoreCompanyMatch(job *jobs.Listing, c *criteria.Criteria) (float64, string) {
	text := strings.ToLower(job.Title + " " + job.Description + " " + job.Company)

	for _, breaker := range nonBlank(c.DealBreakers) {
		if matchesDealBreaker(text, breaker) {
			return 0, fmt.Sprintf("Deal breaker found (%s): immediate disqualification", breaker)
		}
	}

	var score, ceiling float64
	var notes []string

	if req := c.CompanyRequirements; req != nil {
		if domains := nonBlank(req.Domains); len(domains) > 0 {
			ceiling += domainAward
			if d, ok := firstContained(text, domains); ok {
				score += domainAward
				notes = append(notes, "Domain match: "+d)
			} else {
				notes = append(notes, "No target domain mentioned")
			}
		}

		if examples := nonBlank(req.ExampleCompanies); len(examples) > 0 {
			ceiling += exampleAward
			if ex, ok := similarCompany(job.Company, examples); ok {
				score += exampleAward
				notes = append(notes, "Similar to example company "+ex)
			} else {
				notes = append(notes, "Not one of the example companies")
			}
		}
	}

	if values := nonBlank(c.CulturalValues); len(values) > 0 {
		ceiling += cultureAward

		var matched []string
		for _, v := range values {
			if strings.Contains(text, strings.ToLower(v)) {
				matched = append(matched, v)
			}
		}
		score += cultureAward * float64(len(matched)) / float64(len(values))

		note := "Cultural values matched " + ratio(len(matched), len(values))
		if len(matched) > 0 {
			note += ": " + strings.Join(matched, ", ")
		}
		notes = append(notes, note)
	}

	if role := c.RoleRequirements; role.Any() {
		if style := strings.ToLower(strings.TrimSpace(role.LeadershipStyle)); style != "" {
			ceiling += roleAward
			if playerCoachPattern.MatchString(text) || strings.Contains(text, style) {
				score += roleAward
				notes = append(notes, "Leadership style matches "+role.LeadershipStyle)
			}
		}
		if role.Autonomy {
			ceiling += roleAward
			if autonomyPattern.MatchString(text) {
				score += roleAward
				notes = append(notes, "Autonomy signals present")
			}
		}
		if role.StrategicInvolvement {
			ceiling += roleAward
			if strategicPattern.MatchString(text) {
				score += roleAward
				notes = append(notes, "Strategic involvement signals present")
			}
		}
	}

	if ceiling == 0 {
		return noCompanyPref, "No specific company criteria defined"
	}

	return clamp01(score / ceiling), strings.Join(notes, "; ")
}

// matchesDealBreaker checks office-attendance and on-call deal breakers by
// phrasing, everything else by plain substring.
func matchesDealBreaker(text, breaker string) bool {
	lower := strings.ToLower(breaker)

	switch {
	case officeBreakerPattern.MatchString(lower):
		if officeJobPattern.MatchString(text) {
			return true
		}
	case onCallBreakerPattern.MatchString(lower):
		if onCallJobPattern.MatchString(text) {
			return true
		}
	}

	return strings.Contains(text, lower)
}

func firstContained(text string, candidates []string) (string, bool) {
	for _, c := range candidates {
		if strings.Contains(text, strings.ToLower(c)) {
			return c, true
		}
	}
	return "", false
}

func similarCompany(company string, examples []string) (string, bool) {
	name := strings.ToLower(strings.TrimSpace(company))
	if name == "" {
		return "", false
	}

	for _, ex := range examples {
		lower := strings.ToLower(ex)
		if strings.Contains(name, lower) || strings.Contains(lower, name) {
			return ex, true
		}
	}
	return "", false
}
