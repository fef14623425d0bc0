package api

import "net/http"

type infoResponse struct {
	Message string `json:"message"`
	Version string `json:"version"`
	Docs    string `json:"docs"`
	Health  string `json:"health"`
}

func (s *Server) handleInfo(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, infoResponse{
		Message: "Salary estimation service",
		Version: s.version,
		Docs:    "/api-docs",
		Health:  "/health",
	})
}

// handleLiveness always answers 200 while the process serves requests.
func (s *Server) handleLiveness(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.deps.Health(r.Context()))
}

// handleHealth answers 200 when a model is serving and 503 otherwise, so
// load balancers hold traffic until the first model is installed.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	h := s.deps.Health(r.Context())
	status := http.StatusOK
	if !h.ModelLoaded {
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, h)
}
