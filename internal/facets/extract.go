package facets

import (
	"strings"

	"github.com/QuangLe1997/media-transcode-sub001/pkg/models"
)

// Assignment is the facet classification of one profile identifier. An axis
// with no matching rule is left as the empty string (unset).
type Assignment map[Axis]string

// Get returns the assigned value for axis, or "" when the axis is unset.
func (a Assignment) Get(axis Axis) string {
	return a[axis]
}

// Extract classifies a profile identifier against the rules table. For each
// axis the rules are tested in order and the first match wins; a profile may
// leave any axis unset.
func Extract(profileID string) Assignment {
	assignment := make(Assignment, len(Axes))
	for _, axis := range Axes {
		for _, rule := range axisRules[axis] {
			if matches(profileID, rule) {
				assignment[axis] = rule.Value
				break
			}
		}
	}
	return assignment
}

func matches(profileID string, rule Rule) bool {
	switch rule.Match {
	case matchSuffix:
		return strings.HasSuffix(profileID, rule.Pattern)
	default:
		return strings.Contains(profileID, rule.Pattern)
	}
}

// Counts aggregates per-axis-per-value counts across an output collection,
// used to render facet option counts next to each filter choice.
func Counts(outputs map[string][]models.OutputRef) map[Axis]map[string]int {
	counts := make(map[Axis]map[string]int, len(Axes))
	for _, axis := range Axes {
		counts[axis] = make(map[string]int)
	}

	for profileID := range outputs {
		assignment := Extract(profileID)
		for _, axis := range Axes {
			if value := assignment[axis]; value != "" {
				counts[axis][value]++
			}
		}
	}
	return counts
}
