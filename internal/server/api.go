package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/stackpeek/stackpeek/internal/console"
	"github.com/stackpeek/stackpeek/internal/hunt"
	"github.com/stackpeek/stackpeek/internal/identity"
	"github.com/stackpeek/stackpeek/internal/state"
	"github.com/stackpeek/stackpeek/internal/tree"
	"github.com/stackpeek/stackpeek/pkg/models"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func (s *Server) handleHealthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleState(w http.ResponseWriter, r *http.Request) {
	snap, err := s.source.Read(r.Context())
	if err != nil {
		s.logger.Error("reading state", "error", err)
		writeError(w, http.StatusServiceUnavailable, "no declared state available")
		return
	}

	meta := state.InferMetadata(snap)
	writeJSON(w, http.StatusOK, map[string]any{
		"app":             meta.App,
		"stage":           meta.Stage,
		"region":          meta.Region,
		"account":         meta.Account,
		"resources_total": len(snap.Resources),
	})
}

// resourceSummary is the flat per-resource payload for the list view.
type resourceSummary struct {
	URN         string `json:"urn"`
	Type        string `json:"type"`
	SimpleType  string `json:"simple_type"`
	DisplayID   string `json:"display_id"`
	ConsoleLink string `json:"console_link,omitempty"`
}

func (s *Server) handleResources(w http.ResponseWriter, r *http.Request) {
	snap, err := s.source.Read(r.Context())
	if err != nil {
		s.logger.Error("reading state", "error", err)
		writeError(w, http.StatusServiceUnavailable, "no declared state available")
		return
	}

	query := r.URL.Query().Get("q")
	mode := r.URL.Query().Get("mode")
	if mode == "" {
		mode = string(tree.ModeCategorized)
	}

	matched := tree.MatchKeys(snap.Resources, query)
	region := state.InferMetadata(snap).Region

	switch mode {
	case "list":
		summaries := []resourceSummary{}
		for _, res := range snap.Resources {
			if !matched[res.URN] {
				continue
			}
			summaries = append(summaries, resourceSummary{
				URN:         res.URN,
				Type:        res.Type,
				SimpleType:  identity.SimpleType(res.Type),
				DisplayID:   identity.DisplayID(res),
				ConsoleLink: console.Link(res, region),
			})
		}
		writeJSON(w, http.StatusOK, map[string]any{"mode": mode, "resources": summaries})

	case string(tree.ModeTree), string(tree.ModeCategorized):
		forest := tree.Build(snap.Resources, matched, tree.Mode(mode))
		for _, warning := range forest.Warnings {
			s.logger.Warn("tree anomaly", "detail", warning)
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"mode":     mode,
			"groups":   forest.Groups,
			"warnings": forest.Warnings,
		})

	default:
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid mode %q (use: tree, categorized, list)", mode))
	}
}

func (s *Server) handleHunt(w http.ResponseWriter, r *http.Request) {
	app := queryOr(r, "app", s.huntCfg.App)
	stage := queryOr(r, "stage", s.huntCfg.Stage)
	region := queryOr(r, "region", s.huntCfg.Region)

	fetcher, err := s.newFetcher(r.Context(), region)
	if err != nil {
		s.writeHuntError(w, err)
		return
	}

	hunter := hunt.NewHunter(s.source, fetcher, s.log, s.logger)
	result, err := hunter.Run(r.Context(), app, stage, region)
	if err != nil {
		s.writeHuntError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

func (s *Server) writeHuntError(w http.ResponseWriter, err error) {
	var credErr *hunt.CredentialsError
	if errors.As(err, &credErr) {
		writeError(w, http.StatusUnauthorized, credErr.Error())
		return
	}
	s.logger.Error("hunt failed", "error", err)
	writeError(w, http.StatusBadGateway, "tag query failed")
}

func (s *Server) handleHuntHistory(w http.ResponseWriter, r *http.Request) {
	if s.log == nil {
		writeError(w, http.StatusServiceUnavailable, "hunt history not configured")
		return
	}

	hunts, err := s.log.List(r.Context(), 50)
	if err != nil {
		s.logger.Error("listing hunts", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	writeJSON(w, http.StatusOK, hunts)
}

func (s *Server) handleExportOrphans(w http.ResponseWriter, r *http.Request) {
	if s.log == nil {
		writeError(w, http.StatusServiceUnavailable, "hunt history not configured")
		return
	}

	latest, err := s.log.Latest(r.Context())
	if err != nil {
		s.logger.Error("loading latest hunt", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if latest == nil {
		writeError(w, http.StatusNotFound, "no completed hunt yet")
		return
	}

	orphans := latest.Orphans
	if orphans == nil {
		orphans = []models.Orphan{}
	}

	w.Header().Set("Content-Disposition",
		fmt.Sprintf("attachment; filename=%q", exportFilename(latest.App, latest.Stage)))
	writeJSON(w, http.StatusOK, orphans)
}

// exportFilename avoids wildcard characters in the download name.
func exportFilename(app, stage string) string {
	if app == "" || app == hunt.Wildcard {
		app = "all"
	}
	if stage == "" || stage == hunt.Wildcard {
		stage = "all"
	}
	return fmt.Sprintf("stackpeek-orphans-%s-%s.json", app, stage)
}

func queryOr(r *http.Request, key, fallback string) string {
	if v := r.URL.Query().Get(key); v != "" {
		return v
	}
	return fallback
}
