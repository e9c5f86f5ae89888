// Package state reads declared infrastructure state from Pulumi/SST
// checkpoint files, locally or from S3. Every read returns a fresh
// snapshot; nothing is cached between requests.
package state

import (
	"context"
	"errors"

	"github.com/stackpeek/stackpeek/pkg/models"
)

// ErrNoState marks a missing or unreadable declared-state source. Callers
// decide whether that is fatal (display paths) or degrades the operation
// (orphan scans).
var ErrNoState = errors.New("no declared state found")

// Snapshot is one declared-state read: the flat resource list plus the
// stack identifier when the source carries one.
type Snapshot struct {
	Resources []models.Resource
	Stack     string
}

// Source reads declared infrastructure state. Implementations wrap
// ErrNoState when the underlying state cannot be found or parsed.
type Source interface {
	Read(ctx context.Context) (Snapshot, error)
}

// None is a Source with no state behind it; every read fails with
// ErrNoState. It keeps degraded flows (orphan scans without a local
// workspace) on the normal code path.
var None Source = noneSource{}

type noneSource struct{}

func (noneSource) Read(context.Context) (Snapshot, error) {
	return Snapshot{}, ErrNoState
}
