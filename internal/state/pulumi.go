package state

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/stackpeek/stackpeek/pkg/models"
)

// FileSource reads a Pulumi/SST checkpoint or stack-export file from disk.
type FileSource struct {
	Path string
}

func (s *FileSource) Read(ctx context.Context) (Snapshot, error) {
	data, err := os.ReadFile(s.Path)
	if err != nil {
		return Snapshot{}, fmt.Errorf("%w: %v", ErrNoState, err)
	}
	snap, err := parseCheckpoint(data)
	if err != nil {
		return Snapshot{}, fmt.Errorf("%w: parsing %s: %v", ErrNoState, s.Path, err)
	}
	return snap, nil
}

// Checkpoint files come in three shapes: the live checkpoint written by the
// engine, the `pulumi stack export` output, and a bare resource list.
type checkpointFile struct {
	Checkpoint *struct {
		Stack  string      `json:"stack"`
		Latest *deployment `json:"latest"`
	} `json:"checkpoint"`
	Deployment *deployment       `json:"deployment"`
	Stack      string            `json:"stack"`
	Resources  []models.Resource `json:"resources"`
}

type deployment struct {
	Resources []models.Resource `json:"resources"`
}

func parseCheckpoint(data []byte) (Snapshot, error) {
	var cf checkpointFile
	if err := json.Unmarshal(data, &cf); err != nil {
		return Snapshot{}, err
	}
	switch {
	case cf.Checkpoint != nil && cf.Checkpoint.Latest != nil:
		return Snapshot{Resources: cf.Checkpoint.Latest.Resources, Stack: cf.Checkpoint.Stack}, nil
	case cf.Checkpoint != nil:
		// Checkpoint written before the first deployment: stack exists,
		// no resources yet.
		return Snapshot{Stack: cf.Checkpoint.Stack}, nil
	case cf.Deployment != nil:
		return Snapshot{Resources: cf.Deployment.Resources, Stack: cf.Stack}, nil
	case cf.Resources != nil:
		return Snapshot{Resources: cf.Resources, Stack: cf.Stack}, nil
	}
	return Snapshot{}, fmt.Errorf("unrecognized state file shape")
}
