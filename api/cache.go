package api

import (
	"net/http"
)

func (s *Server) handleCacheStats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.answers.Stats(r.Context()))
}

func (s *Server) handleCacheClear(w http.ResponseWriter, r *http.Request) {
	if !s.answers.Clear(r.Context()) {
		writeError(w, http.StatusBadGateway, "cache clear failed")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "cleared"})
}

func (s *Server) handleCacheHealth(w http.ResponseWriter, r *http.Request) {
	if err := s.answers.Ping(r.Context()); err != nil {
		writeJSON(w, http.StatusBadGateway, map[string]string{
			"status": "unhealthy",
			"error":  err.Error(),
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

type healthResponse struct {
	Status     string            `json:"status"`
	Components map[string]string `json:"components"`
}

// handleHealthz reports overall service liveness. Storage failure makes the
// service unavailable; an unreachable cache only degrades it because queries
// still work without answer caching.
func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	components := map[string]string{
		"storage": "ok",
		"cache":   "ok",
	}
	status := "ok"
	code := http.StatusOK

	if _, err := s.chunks.CountChunks(r.Context()); err != nil {
		components["storage"] = "unavailable"
		status = "unavailable"
		code = http.StatusServiceUnavailable
	}

	if err := s.answers.Ping(r.Context()); err != nil {
		components["cache"] = "unreachable"
		if status == "ok" {
			status = "degraded"
		}
	}

	writeJSON(w, code, healthResponse{Status: status, Components: components})
}
