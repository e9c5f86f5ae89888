package hunt

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/stackpeek/stackpeek/internal/history"
	"github.com/stackpeek/stackpeek/internal/state"
	"github.com/stackpeek/stackpeek/pkg/models"
)

// Hunter runs orphan scans end to end: declared state in, classified scan
// result out, with each run recorded in the hunt log.
type Hunter struct {
	source  state.Source
	fetcher TagFetcher
	log     *history.Store // optional
	logger  *slog.Logger
}

// NewHunter creates a Hunter. The history store may be nil when no audit
// log is wanted (one-shot CLI runs against a read-only filesystem).
func NewHunter(source state.Source, fetcher TagFetcher, log *history.Store, logger *slog.Logger) *Hunter {
	return &Hunter{source: source, fetcher: fetcher, log: log, logger: logger}
}

// Run executes one reconciliation pass. A failed declared-state read
// degrades the scan — the managed set is empty, every observed resource is
// reported, and a warning is attached. A failed tag query fails the run,
// with credential failures surfaced as CredentialsError.
func (h *Hunter) Run(ctx context.Context, app, stage, region string) (models.ScanResult, error) {
	declared := map[string]struct{}{}
	var warnings []string

	snap, err := h.source.Read(ctx)
	if err != nil {
		h.logger.Warn("declared state unavailable, scanning in degraded mode", "error", err)
		warnings = append(warnings, fmt.Sprintf("declared state unavailable (%v); every observed resource is reported as orphaned", err))
	} else {
		declared = DeclaredIdentities(snap.Resources)
	}

	var huntID int64
	recorded := false
	if h.log != nil {
		huntID, err = h.log.Record(ctx, history.Hunt{
			App: app, Stage: stage, Region: region,
			StartedAt: time.Now(), Status: "running",
		})
		if err != nil {
			h.logger.Warn("recording hunt", "error", err)
		} else {
			recorded = true
		}
	}

	observed, err := h.fetcher.FetchTaggedResources(ctx, app, stage)
	if err != nil {
		if recorded {
			_ = h.log.Finish(ctx, huntID, "failed", models.ScanResult{})
		}
		return models.ScanResult{}, err
	}

	result := Reconcile(declared, observed)
	result.Warnings = warnings

	h.logger.Info("hunt completed",
		"found", result.TotalFound, "managed", result.ManagedCount, "orphans", len(result.Orphans))

	if recorded {
		if err := h.log.Finish(ctx, huntID, "completed", result); err != nil {
			h.logger.Warn("finishing hunt record", "error", err)
		}
	}
	return result, nil
}
