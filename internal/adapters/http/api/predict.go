package api

import (
	"net/http"

	"github.com/okian/salaryd/internal/domain/types"
)

func (s *Server) handlePredict(w http.ResponseWriter, r *http.Request) {
	var req predictRequest
	if status, err := decodeBody(w, r, &req); err != nil {
		writeError(w, status, requestCode(status), err)
		return
	}
	out, err := s.deps.Predict(r.Context(), types.PredictInput{
		Experience: req.literals(),
		City:       req.City,
		JobLevel:   req.JobLevel,
	})
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func requestCode(status int) string {
	if status == http.StatusUnprocessableEntity {
		return codeInvalidInput
	}
	return codeBadRequest
}
