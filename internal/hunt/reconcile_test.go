package hunt

import (
	"errors"
	"testing"

	"github.com/stackpeek/stackpeek/pkg/models"
)

func TestDeclaredIdentities(t *testing.T) {
	resources := []models.Resource{
		{
			ID:      "shop-prod-uploads",
			Outputs: map[string]any{"arn": "arn:aws:s3:::shop-prod-uploads"},
		},
		{ID: "shop-prod-api"},
		{Outputs: map[string]any{"arn": "arn:aws:sns:eu-west-1:123456789012:alerts"}},
		{}, // neither id nor arn: contributes nothing
	}

	ids := DeclaredIdentities(resources)
	want := []string{
		"shop-prod-uploads",
		"arn:aws:s3:::shop-prod-uploads",
		"shop-prod-api",
		"arn:aws:sns:eu-west-1:123456789012:alerts",
	}
	if len(ids) != len(want) {
		t.Fatalf("identities = %d, want %d (%v)", len(ids), len(want), ids)
	}
	for _, id := range want {
		if _, ok := ids[id]; !ok {
			t.Errorf("missing identity %q", id)
		}
	}
}

func TestReconcile(t *testing.T) {
	declared := map[string]struct{}{
		"my-bucket":    {},
		"shop-prod-fn": {},
	}
	observed := []models.ObservedResource{
		// Exact match would need the full ARN declared; this one matches by
		// suffix against the bare physical name.
		{ARN: "arn:aws:s3:::my-bucket"},
		{ARN: "arn:aws:lambda:eu-west-1:123456789012:function:shop-prod-fn"},
		{
			ARN:  "arn:aws:s3:::orphan-bucket",
			Tags: []models.Tag{{Key: "sst:app", Value: "shop"}, {Key: "Name", Value: "leftover-bucket"}},
		},
	}

	result := Reconcile(declared, observed)

	if result.TotalFound != 3 {
		t.Errorf("total_found = %d, want 3", result.TotalFound)
	}
	if result.ManagedCount != 2 {
		t.Errorf("managed_count = %d, want 2", result.ManagedCount)
	}
	if len(result.Orphans) != 1 {
		t.Fatalf("orphans = %d, want 1", len(result.Orphans))
	}

	o := result.Orphans[0]
	if o.ARN != "arn:aws:s3:::orphan-bucket" {
		t.Errorf("orphan arn = %q", o.ARN)
	}
	if o.Type != "s3" {
		t.Errorf("orphan type = %q, want s3", o.Type)
	}
	if o.Name != "leftover-bucket" {
		t.Errorf("orphan name = %q, want the Name tag", o.Name)
	}
	if o.Tags["sst:app"] != "shop" {
		t.Errorf("orphan tags = %v, want sst:app preserved", o.Tags)
	}
}

func TestReconcile_ExactMatch(t *testing.T) {
	declared := map[string]struct{}{"arn:aws:s3:::my-bucket": {}}
	observed := []models.ObservedResource{{ARN: "arn:aws:s3:::my-bucket"}}

	result := Reconcile(declared, observed)
	if len(result.Orphans) != 0 {
		t.Errorf("orphans = %+v, want none for an exact arn match", result.Orphans)
	}
}

func TestReconcile_EmptyDeclared(t *testing.T) {
	observed := []models.ObservedResource{
		{ARN: "arn:aws:s3:::a"},
		{ARN: "arn:aws:s3:::b"},
	}
	result := Reconcile(map[string]struct{}{}, observed)

	if len(result.Orphans) != 2 {
		t.Errorf("orphans = %d, want every observed resource", len(result.Orphans))
	}
	// Observed order is preserved.
	if result.Orphans[0].ARN != "arn:aws:s3:::a" || result.Orphans[1].ARN != "arn:aws:s3:::b" {
		t.Errorf("orphan order = %+v", result.Orphans)
	}
}

func TestReconcile_NoObserved(t *testing.T) {
	result := Reconcile(map[string]struct{}{"x": {}}, nil)
	if result.Orphans == nil {
		t.Error("orphans must be an empty slice, not nil")
	}
	if result.TotalFound != 0 {
		t.Errorf("total_found = %d, want 0", result.TotalFound)
	}
}

func TestReconcile_OrphanWithoutNameTag(t *testing.T) {
	observed := []models.ObservedResource{
		{ARN: "arn:aws:lambda:eu-west-1:123456789012:function:stray-fn"},
	}
	result := Reconcile(map[string]struct{}{}, observed)

	if result.Orphans[0].Name != "stray-fn" {
		t.Errorf("name = %q, want the arn tail", result.Orphans[0].Name)
	}
}

func TestClassifyAWSError(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantCred bool
	}{
		{"expired token", errors.New("operation error Resource Groups Tagging API: GetResources, ExpiredToken: the security token is expired"), true},
		{"invalid client token", errors.New("InvalidClientTokenId: the token is invalid"), true},
		{"sso retrieval", errors.New("failed to retrieve credentials: sso session expired"), true},
		{"imds", errors.New("no EC2 IMDS role found"), true},
		{"throttling", errors.New("ThrottlingException: rate exceeded"), false},
		{"nil", nil, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := classifyAWSError(tt.err)
			var credErr *CredentialsError
			isCred := errors.As(got, &credErr)
			if isCred != tt.wantCred {
				t.Errorf("classifyAWSError() cred = %v, want %v (err: %v)", isCred, tt.wantCred, got)
			}
			if tt.err != nil && !errors.Is(got, tt.err) {
				t.Error("classified error must wrap the original")
			}
		})
	}
}
