package state

import (
	"strings"

	"github.com/stackpeek/stackpeek/pkg/models"
)

const (
	unknown       = "unknown"
	defaultRegion = "us-east-1"
)

// InferMetadata derives a display summary from the stack identifier and the
// resource snapshot. Purely best effort: the stack identifier triplet wins,
// URN headers fill in app and stage when the identifier is absent, and
// region and account come from the first resource that carries them.
func InferMetadata(snap Snapshot) models.StateMetadata {
	meta := models.StateMetadata{App: unknown, Stage: unknown, Region: defaultRegion, Account: unknown}

	// Stack identifiers look like organization/app/stage.
	if parts := strings.Split(snap.Stack, "/"); len(parts) == 3 {
		meta.App, meta.Stage = parts[1], parts[2]
	}

	for _, r := range snap.Resources {
		if meta.App == unknown {
			if app, stage, ok := parseURNHeader(r.URN); ok {
				meta.App, meta.Stage = app, stage
			}
		}
		if meta.Region == defaultRegion {
			if region, ok := r.Outputs["region"].(string); ok && region != "" {
				meta.Region = region
			}
		}
		if arn, ok := r.Outputs["arn"].(string); ok {
			parts := strings.SplitN(arn, ":", 6)
			if len(parts) == 6 && parts[0] == "arn" {
				if meta.Region == defaultRegion && parts[3] != "" {
					meta.Region = parts[3]
				}
				if meta.Account == unknown && parts[4] != "" {
					meta.Account = parts[4]
				}
			}
		}
	}
	return meta
}

// parseURNHeader extracts app and stage from a URN of the form
// urn:pulumi:<stage>::<app>::<type>::<name>.
func parseURNHeader(urn string) (app, stage string, ok bool) {
	segments := strings.Split(urn, "::")
	if len(segments) < 2 {
		return "", "", false
	}
	header := strings.Split(segments[0], ":")
	if len(header) != 3 || header[0] != "urn" || header[1] != "pulumi" || header[2] == "" {
		return "", "", false
	}
	return segments[1], header[2], true
}
