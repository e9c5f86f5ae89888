package state

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Discover probes dir for an SST or Pulumi workspace layout and returns
// the checkpoint path of its most recently written stack. Best effort:
// returns ErrNoState when no layout is recognized.
func Discover(dir string) (string, error) {
	// SST keeps Pulumi checkpoints under .sst/.pulumi/stacks/<app>/<stage>.json.
	if path := newestCheckpoint(filepath.Join(dir, ".sst", ".pulumi", "stacks", "*", "*.json")); path != "" {
		return path, nil
	}

	// Plain Pulumi workspace with a local backend: Pulumi.yaml names the
	// project, stacks live under .pulumi/stacks/<project>/.
	if data, err := os.ReadFile(filepath.Join(dir, "Pulumi.yaml")); err == nil {
		var proj struct {
			Name string `yaml:"name"`
		}
		if err := yaml.Unmarshal(data, &proj); err == nil && proj.Name != "" {
			if path := newestCheckpoint(filepath.Join(dir, ".pulumi", "stacks", proj.Name, "*.json")); path != "" {
				return path, nil
			}
		}
	}

	if path := newestCheckpoint(filepath.Join(dir, ".pulumi", "stacks", "*.json")); path != "" {
		return path, nil
	}

	return "", ErrNoState
}

// newestCheckpoint globs for checkpoint files and returns the most recently
// modified one, skipping the .bak copies the engine leaves behind.
func newestCheckpoint(pattern string) string {
	paths, _ := filepath.Glob(pattern)

	var best string
	var bestTime time.Time
	for _, p := range paths {
		if strings.Contains(filepath.Base(p), ".bak") {
			continue
		}
		info, err := os.Stat(p)
		if err != nil {
			continue
		}
		if best == "" || info.ModTime().After(bestTime) {
			best, bestTime = p, info.ModTime()
		}
	}
	return best
}
