package server

import "net/http"

// RegisterRoutes registers all API routes on the given mux.
func RegisterRoutes(mux *http.ServeMux, s *Server) {
	mux.HandleFunc("GET /healthz", s.handleHealthz)
	mux.HandleFunc("GET /api/v1/state", s.handleState)
	mux.HandleFunc("GET /api/v1/resources", s.handleResources)
	mux.HandleFunc("GET /api/v1/hunt/history", s.handleHuntHistory)
	mux.HandleFunc("GET /api/v1/hunt/export", s.handleExportOrphans)

	if !s.readOnly {
		mux.HandleFunc("POST /api/v1/hunt", s.handleHunt)
	}
}
