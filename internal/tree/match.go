package tree

import (
	"strings"

	"github.com/stackpeek/stackpeek/internal/identity"
	"github.com/stackpeek/stackpeek/pkg/models"
)

// MatchKeys returns the set of resource URNs satisfying a free-text query.
// Matching is a case-insensitive substring check over the URN name, the
// simple type, the display id, and plain-string outputs users search by.
// An empty query matches every resource.
func MatchKeys(resources []models.Resource, query string) map[string]bool {
	matched := make(map[string]bool, len(resources))
	q := strings.ToLower(strings.TrimSpace(query))
	for _, r := range resources {
		if q == "" || matches(r, q) {
			matched[r.URN] = true
		}
	}
	return matched
}

func matches(r models.Resource, q string) bool {
	if strings.Contains(strings.ToLower(identity.URNName(r.URN)), q) {
		return true
	}
	if strings.Contains(strings.ToLower(identity.SimpleType(r.Type)), q) {
		return true
	}
	if strings.Contains(strings.ToLower(identity.DisplayID(r)), q) {
		return true
	}
	for _, key := range []string{"arn", "name"} {
		if s, ok := r.Outputs[key].(string); ok && strings.Contains(strings.ToLower(s), q) {
			return true
		}
	}
	return false
}
