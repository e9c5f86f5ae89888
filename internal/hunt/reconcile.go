// Package hunt finds orphaned cloud resources: items present in the cloud
// account but absent from the declared state snapshot.
package hunt

import (
	"strings"

	"github.com/stackpeek/stackpeek/internal/identity"
	"github.com/stackpeek/stackpeek/pkg/models"
)

// DeclaredIdentities collects the identity strings a snapshot contributes:
// each resource adds its physical id and its arn output when present, so a
// resource contributes zero, one, or two entries.
func DeclaredIdentities(resources []models.Resource) map[string]struct{} {
	ids := make(map[string]struct{})
	for _, r := range resources {
		if r.ID != "" {
			ids[r.ID] = struct{}{}
		}
		if arn, ok := r.Outputs["arn"].(string); ok && arn != "" {
			ids[arn] = struct{}{}
		}
	}
	return ids
}

// Reconcile classifies observed resources against the declared identity
// set. An observed ARN counts as managed when it is literally in the set or
// ends with any declared identity — the declared side often stores bare
// physical names while the cloud always returns full ARNs. The suffix rule
// can mistake an unrelated resource whose ARN happens to end with a short
// declared name for a managed one; that imprecision is accepted.
//
// Orphans are emitted in observed order; sorting is a presentation concern.
func Reconcile(declared map[string]struct{}, observed []models.ObservedResource) models.ScanResult {
	result := models.ScanResult{
		TotalFound:   len(observed),
		ManagedCount: len(declared),
		Orphans:      []models.Orphan{},
	}

	for _, obs := range observed {
		if _, ok := declared[obs.ARN]; ok {
			continue
		}
		if suffixMatch(declared, obs.ARN) {
			continue
		}
		result.Orphans = append(result.Orphans, toOrphan(obs))
	}
	return result
}

func suffixMatch(declared map[string]struct{}, arn string) bool {
	for id := range declared {
		if strings.HasSuffix(arn, id) {
			return true
		}
	}
	return false
}

func toOrphan(obs models.ObservedResource) models.Orphan {
	tags := make(map[string]string, len(obs.Tags))
	for _, t := range obs.Tags {
		tags[t.Key] = t.Value
	}

	name := tags["Name"]
	if name == "" {
		name = identity.ARNTail(obs.ARN)
	}

	return models.Orphan{
		ARN:  obs.ARN,
		Type: identity.ARNService(obs.ARN),
		Tags: tags,
		Name: name,
	}
}
