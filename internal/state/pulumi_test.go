package state

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
)

const checkpointJSON = `{
  "version": 3,
  "checkpoint": {
    "stack": "organization/shop/prod",
    "latest": {
      "resources": [
        {
          "urn": "urn:pulumi:prod::shop::pulumi:pulumi:Stack::shop-prod",
          "type": "pulumi:pulumi:Stack"
        },
        {
          "urn": "urn:pulumi:prod::shop::sst:aws:Bucket::uploads",
          "type": "sst:aws:Bucket",
          "id": "shop-prod-uploads",
          "parent": "urn:pulumi:prod::shop::pulumi:pulumi:Stack::shop-prod",
          "outputs": {"arn": "arn:aws:s3:::shop-prod-uploads"}
        }
      ]
    }
  }
}`

const stackExportJSON = `{
  "version": 3,
  "deployment": {
    "resources": [
      {"urn": "urn:pulumi:dev::shop::sst:aws:Function::api", "type": "sst:aws:Function", "id": "shop-dev-api"}
    ]
  }
}`

const bareResourcesJSON = `{
  "stack": "organization/shop/dev",
  "resources": [
    {"urn": "urn:pulumi:dev::shop::sst:aws:Queue::jobs", "type": "sst:aws:Queue"}
  ]
}`

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestFileSource_Checkpoint(t *testing.T) {
	path := writeFile(t, t.TempDir(), "prod.json", checkpointJSON)
	src := &FileSource{Path: path}

	snap, err := src.Read(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if snap.Stack != "organization/shop/prod" {
		t.Errorf("stack = %q", snap.Stack)
	}
	if len(snap.Resources) != 2 {
		t.Fatalf("resources = %d, want 2", len(snap.Resources))
	}
	bucket := snap.Resources[1]
	if bucket.ID != "shop-prod-uploads" {
		t.Errorf("bucket id = %q", bucket.ID)
	}
	if arn, _ := bucket.Outputs["arn"].(string); arn != "arn:aws:s3:::shop-prod-uploads" {
		t.Errorf("bucket arn = %q", arn)
	}
}

func TestFileSource_StackExport(t *testing.T) {
	path := writeFile(t, t.TempDir(), "export.json", stackExportJSON)
	snap, err := (&FileSource{Path: path}).Read(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(snap.Resources) != 1 || snap.Resources[0].Type != "sst:aws:Function" {
		t.Errorf("resources = %+v", snap.Resources)
	}
}

func TestFileSource_BareResources(t *testing.T) {
	path := writeFile(t, t.TempDir(), "bare.json", bareResourcesJSON)
	snap, err := (&FileSource{Path: path}).Read(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if snap.Stack != "organization/shop/dev" {
		t.Errorf("stack = %q", snap.Stack)
	}
	if len(snap.Resources) != 1 {
		t.Errorf("resources = %d, want 1", len(snap.Resources))
	}
}

func TestFileSource_EmptyCheckpoint(t *testing.T) {
	path := writeFile(t, t.TempDir(), "fresh.json", `{"checkpoint": {"stack": "organization/shop/dev"}}`)
	snap, err := (&FileSource{Path: path}).Read(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(snap.Resources) != 0 {
		t.Errorf("resources = %d, want 0 before first deployment", len(snap.Resources))
	}
	if snap.Stack != "organization/shop/dev" {
		t.Errorf("stack = %q", snap.Stack)
	}
}

func TestFileSource_Missing(t *testing.T) {
	src := &FileSource{Path: filepath.Join(t.TempDir(), "nope.json")}
	if _, err := src.Read(context.Background()); !errors.Is(err, ErrNoState) {
		t.Errorf("err = %v, want ErrNoState", err)
	}
}

func TestFileSource_Garbage(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"not json", "not json at all"},
		{"unrecognized shape", `{"something": "else"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeFile(t, t.TempDir(), "bad.json", tt.content)
			if _, err := (&FileSource{Path: path}).Read(context.Background()); !errors.Is(err, ErrNoState) {
				t.Errorf("err = %v, want ErrNoState", err)
			}
		})
	}
}

func TestNone(t *testing.T) {
	if _, err := None.Read(context.Background()); !errors.Is(err, ErrNoState) {
		t.Errorf("err = %v, want ErrNoState", err)
	}
}
