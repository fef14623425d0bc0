package api

import (
	"net/http"

	"github.com/okian/salaryd/pkg/logger"
)

// handleRetrain runs one retraining cycle synchronously. The outcome is
// returned whether or not the challenger was promoted.
func (s *Server) handleRetrain(w http.ResponseWriter, r *http.Request) {
	out, err := s.deps.Retrain(r.Context())
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	s.log.Info(r.Context(), "retrain requested",
		logger.String("status", out.Status),
		logger.Bool("promoted", out.Promoted),
		logger.String("model_version", out.ModelVersion))
	writeJSON(w, http.StatusOK, out)
}
