package models

// Resource is one declared resource from a Pulumi/SST state snapshot.
// Outputs is the open-ended attribute bag the provider returned; its shape
// varies per resource type and must be treated as opaque except for
// well-known optional keys (arn, name, region, routeKey).
type Resource struct {
	URN     string         `json:"urn"`
	Type    string         `json:"type"`
	ID      string         `json:"id,omitempty"`
	Parent  string         `json:"parent,omitempty"`
	Outputs map[string]any `json:"outputs,omitempty"`
}

// TreeNode wraps a Resource with display state derived during one build
// pass. IsVisible is true when the node matches the active search or any
// descendant does, so matched leaves keep their ancestor chain on screen.
type TreeNode struct {
	Resource  Resource    `json:"resource"`
	Children  []*TreeNode `json:"children,omitempty"`
	IsMatch   bool        `json:"is_match"`
	IsVisible bool        `json:"is_visible"`
}

// TypeGroup buckets visible root nodes sharing a simple type.
type TypeGroup struct {
	Type  string      `json:"type"`
	Nodes []*TreeNode `json:"nodes"`
}

// Tag is one key/value pair attached to an observed cloud resource.
type Tag struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// ObservedResource is a resource returned by the cloud tagging query.
type ObservedResource struct {
	ARN  string `json:"arn"`
	Tags []Tag  `json:"tags"`
}

// Orphan is an observed resource with no matching declared identity.
type Orphan struct {
	ARN  string            `json:"arn"`
	Type string            `json:"type"`
	Tags map[string]string `json:"tags"`
	Name string            `json:"name"`
}

// ScanResult is the outcome of one orphan reconciliation pass. It is not
// persisted as live state; callers re-run the scan to refresh it.
type ScanResult struct {
	TotalFound   int      `json:"total_found"`
	ManagedCount int      `json:"managed_count"`
	Orphans      []Orphan `json:"orphans"`
	Warnings     []string `json:"warnings,omitempty"`
}

// StateMetadata summarizes a state snapshot for display. All fields are
// non-empty, falling back to a sentinel when inference fails.
type StateMetadata struct {
	App     string `json:"app"`
	Stage   string `json:"stage"`
	Region  string `json:"region"`
	Account string `json:"account"`
}
