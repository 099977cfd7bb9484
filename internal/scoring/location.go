package scoring

import (
	"fmt"
	"strings"

	"github.com/spigell/job-tailor/internal/criteria"
	"github.com/spigell/job-tailor/internal/jobs"
)

const (
	// remoteWildcard written exactly like this accepts any job location.
	// Other spellings such as "Remote" are matched against the job location like any city.
	remoteWildcard = "remote"
	// locationMiss is a soft penalty, a location mismatch never disqualifies.
	locationMiss = 0.3
)

func scoreLocation(job *jobs.Listing, c *criteria.Criteria) (float64, string) {
	wanted := nonBlank(c.Locations)
	if len(wanted) == 0 {
		return 1, "No location preferences configured"
	}

	location := strings.ToLower(strings.TrimSpace(job.Location))

	for _, pref := range wanted {
		if pref == remoteWildcard {
			return 1, "Location accepted: remote preference matches any location"
		}
	}

	for _, pref := range wanted {
		lower := strings.ToLower(pref)
		if location != "" && strings.Contains(location, lower) {
			return 1, fmt.Sprintf("Location matches preference: %s", pref)
		}
	}

	shown := job.Location
	if strings.TrimSpace(shown) == "" {
		shown = "unspecified"
	}

	return locationMiss, fmt.Sprintf("No location match for %s (preferred: %s)", shown, strings.Join(wanted, ", "))
}
