package history

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stackpeek/stackpeek/pkg/models"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(filepath.Join(t.TempDir(), "hunts.db"))
	if err != nil {
		t.Fatal(err)
	}
	if err := store.Init(context.Background()); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestRecordAndFinish(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	id, err := store.Record(ctx, Hunt{
		App: "shop", Stage: "prod", Region: "eu-west-1",
		StartedAt: time.Now(), Status: "running",
	})
	if err != nil {
		t.Fatal(err)
	}
	if id == 0 {
		t.Fatal("expected a non-zero id")
	}

	result := models.ScanResult{
		TotalFound:   5,
		ManagedCount: 4,
		Orphans: []models.Orphan{
			{ARN: "arn:aws:s3:::stray", Type: "s3", Name: "stray", Tags: map[string]string{"sst:app": "shop"}},
		},
	}
	if err := store.Finish(ctx, id, "completed", result); err != nil {
		t.Fatal(err)
	}

	hunts, err := store.List(ctx, 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(hunts) != 1 {
		t.Fatalf("hunts = %d, want 1", len(hunts))
	}

	h := hunts[0]
	if h.Status != "completed" {
		t.Errorf("status = %q", h.Status)
	}
	if h.TotalFound != 5 || h.ManagedCount != 4 || h.OrphanCount != 1 {
		t.Errorf("counts = %d/%d/%d, want 5/4/1", h.TotalFound, h.ManagedCount, h.OrphanCount)
	}
	if h.FinishedAt == nil {
		t.Error("finished_at should be set")
	}
	if len(h.Orphans) != 1 || h.Orphans[0].Name != "stray" {
		t.Errorf("orphans = %+v", h.Orphans)
	}
	if h.Orphans[0].Tags["sst:app"] != "shop" {
		t.Errorf("orphan tags = %v, want sst:app preserved through the round trip", h.Orphans[0].Tags)
	}
}

func TestList_NewestFirst(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	base := time.Now().Add(-time.Hour)
	for i, app := range []string{"first", "second", "third"} {
		if _, err := store.Record(ctx, Hunt{
			App: app, Stage: "prod", Region: "eu-west-1",
			StartedAt: base.Add(time.Duration(i) * time.Minute), Status: "running",
		}); err != nil {
			t.Fatal(err)
		}
	}

	hunts, err := store.List(ctx, 2)
	if err != nil {
		t.Fatal(err)
	}
	if len(hunts) != 2 {
		t.Fatalf("hunts = %d, want limit of 2", len(hunts))
	}
	if hunts[0].App != "third" || hunts[1].App != "second" {
		t.Errorf("order = %s, %s; want third, second", hunts[0].App, hunts[1].App)
	}
}

func TestLatest(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	if latest, err := store.Latest(ctx); err != nil || latest != nil {
		t.Fatalf("latest = %+v, %v; want nil on an empty log", latest, err)
	}

	// A running hunt is not the latest completed one.
	if _, err := store.Record(ctx, Hunt{
		App: "shop", Stage: "prod", Region: "eu-west-1",
		StartedAt: time.Now(), Status: "running",
	}); err != nil {
		t.Fatal(err)
	}
	if latest, err := store.Latest(ctx); err != nil || latest != nil {
		t.Fatalf("latest = %+v, %v; want nil while only a running hunt exists", latest, err)
	}

	id, err := store.Record(ctx, Hunt{
		App: "shop", Stage: "dev", Region: "eu-west-1",
		StartedAt: time.Now().Add(time.Second), Status: "running",
	})
	if err != nil {
		t.Fatal(err)
	}
	if err := store.Finish(ctx, id, "completed", models.ScanResult{TotalFound: 1}); err != nil {
		t.Fatal(err)
	}

	latest, err := store.Latest(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if latest == nil || latest.Stage != "dev" || latest.Status != "completed" {
		t.Errorf("latest = %+v, want the completed dev hunt", latest)
	}
}

func TestOpen_CreatesDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "dir", "hunts.db")
	store, err := Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer store.Close() //nolint:errcheck // test cleanup

	if err := store.Init(context.Background()); err != nil {
		t.Fatal(err)
	}
}
