// Package tree turns the flat resource list of a state snapshot into
// navigable, search-annotated hierarchies.
package tree

import (
	"fmt"
	"sort"
	"strings"

	"github.com/stackpeek/stackpeek/internal/identity"
	"github.com/stackpeek/stackpeek/pkg/models"
)

// Mode selects how the forest is organized.
type Mode string

const (
	// ModeTree nests every resource under its declared parent.
	ModeTree Mode = "tree"
	// ModeCategorized additionally lifts well-known building-block types
	// to root level so they are not buried under scaffolding resources.
	ModeCategorized Mode = "categorized"
)

// stackRootMarker appears in the parent URN of resources attached directly
// to the Pulumi stack root.
const stackRootMarker = "pulumi:pulumi:Stack"

// promotedTypes are the top-level building blocks users scan for in the
// categorized view.
var promotedTypes = map[string]bool{
	"Api":          true,
	"ApiGatewayV2": true,
	"Aurora":       true,
	"Bucket":       true,
	"Cdn":          true,
	"Cluster":      true,
	"Cron":         true,
	"Database":     true,
	"Dynamo":       true,
	"Function":     true,
	"Postgres":     true,
	"Queue":        true,
	"Router":       true,
	"StateMachine": true,
	"Table":        true,
	"Topic":        true,
	"Vpc":          true,
}

// Forest is the outcome of one build pass. Warnings carry data-quality
// anomalies (parent cycles, dangling parent references) that were repaired
// rather than failed on.
type Forest struct {
	Groups   []models.TypeGroup `json:"groups"`
	Warnings []string           `json:"warnings,omitempty"`
}

// Build organizes a flat resource snapshot into type-grouped hierarchies.
// It is total over arbitrary input: every resource lands in exactly one
// node, cyclic or dangling parent references promote the node to root, and
// no input shape makes it panic or loop.
func Build(resources []models.Resource, matched map[string]bool, mode Mode) Forest {
	nodes := make(map[string]*models.TreeNode, len(resources))
	for i := range resources {
		r := resources[i]
		nodes[r.URN] = &models.TreeNode{Resource: r, IsMatch: matched[r.URN]}
	}

	var f Forest
	var roots []*models.TreeNode
	for _, r := range resources {
		n := nodes[r.URN]
		switch {
		case isRoot(r, mode):
			roots = append(roots, n)
		case inParentCycle(r, nodes):
			f.Warnings = append(f.Warnings, fmt.Sprintf("parent cycle through %s; promoted to root", r.URN))
			roots = append(roots, n)
		default:
			parent, ok := nodes[r.Parent]
			if !ok {
				f.Warnings = append(f.Warnings, fmt.Sprintf("parent %s of %s not in snapshot; promoted to root", r.Parent, r.URN))
				roots = append(roots, n)
				break
			}
			parent.Children = append(parent.Children, n)
		}
	}

	for _, root := range roots {
		propagateVisibility(root, make(map[string]bool))
	}

	byType := make(map[string][]*models.TreeNode)
	for _, root := range roots {
		if !root.IsVisible {
			continue
		}
		t := identity.SimpleType(root.Resource.Type)
		byType[t] = append(byType[t], root)
	}

	names := make([]string, 0, len(byType))
	for t := range byType {
		names = append(names, t)
	}
	sort.Strings(names)

	f.Groups = make([]models.TypeGroup, 0, len(names))
	for _, t := range names {
		f.Groups = append(f.Groups, models.TypeGroup{Type: t, Nodes: byType[t]})
	}
	return f
}

func isRoot(r models.Resource, mode Mode) bool {
	if r.Parent == "" || strings.Contains(r.Parent, stackRootMarker) {
		return true
	}
	if mode == ModeCategorized && promotedTypes[identity.SimpleType(r.Type)] {
		return true
	}
	return false
}

// inParentCycle walks the ancestor chain of r. Revisiting any URN means the
// chain loops, so r must become a root to keep the build total.
func inParentCycle(r models.Resource, nodes map[string]*models.TreeNode) bool {
	seen := map[string]bool{r.URN: true}
	cur := r.Parent
	for cur != "" {
		if seen[cur] {
			return true
		}
		seen[cur] = true
		p, ok := nodes[cur]
		if !ok {
			return false
		}
		cur = p.Resource.Parent
	}
	return false
}

// propagateVisibility computes IsVisible bottom-up: a node is visible when
// it matches or any descendant is visible. The visited set guards against
// traversal loops in malformed input.
func propagateVisibility(n *models.TreeNode, seen map[string]bool) bool {
	if seen[n.Resource.URN] {
		return n.IsVisible
	}
	seen[n.Resource.URN] = true

	visible := n.IsMatch
	for _, c := range n.Children {
		if propagateVisibility(c, seen) {
			visible = true
		}
	}
	n.IsVisible = visible
	return visible
}
