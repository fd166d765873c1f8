package pesu

import (
	"strings"

	"pesuacademy/lib/textutil"

	"github.com/antzucaro/matchr"
)

// minCourseSimilarity is the lowest jaro-winkler similarity a course title
// can have to a query and still be returned by FindCourse.
const minCourseSimilarity = 0.8

// FindCourse looks a course up by code or (approximate) title, codes and
// exact title substrings win over fuzzy matches.
func FindCourse(courses []Course, query string) (Course, bool) {
	normalized := textutil.NormalizeName(query)
	if normalized == "" {
		return Course{}, false
	}

	for _, c := range courses {
		if strings.EqualFold(strings.TrimSpace(c.Code), strings.TrimSpace(query)) || c.ID == query {
			return c, true
		}
	}
	for _, c := range courses {
		if textutil.MatchName(c.Title, []string{normalized}) {
			return c, true
		}
	}

	var (
		best      Course
		bestScore float64
	)
	for _, c := range courses {
		score := matchr.JaroWinkler(normalized, textutil.NormalizeName(c.Title), false)
		if score > bestScore {
			best = c
			bestScore = score
		}
	}
	if bestScore < minCourseSimilarity {
		return Course{}, false
	}
	return best, true
}
