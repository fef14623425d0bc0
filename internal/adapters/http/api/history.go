package api

import (
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/okian/salaryd/internal/domain/history"
)

func (s *Server) handleListHistory(w http.ResponseWriter, r *http.Request) {
	params, err := parseListParams(r.URL.Query())
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, codeInvalidInput, err)
		return
	}
	listing, err := s.deps.History(r.Context(), params)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, listing)
}

func (s *Server) handleGetHistory(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, codeInvalidInput, err)
		return
	}
	rec, err := s.deps.HistoryRecord(r.Context(), id)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

func (s *Server) handleFeedback(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, codeInvalidInput, err)
		return
	}
	var req feedbackRequest
	if status, err := decodeBody(w, r, &req); err != nil {
		writeError(w, status, requestCode(status), err)
		return
	}
	rec, err := s.deps.SubmitFeedback(r.Context(), id, req.ActualSalaries)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

func parseID(raw string) (int64, error) {
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id < 1 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidID, raw)
	}
	return id, nil
}

// parseListParams reads page, size, city and job_level. Absent page and
// size default to 1 and history.DefaultPageSize.
func parseListParams(q url.Values) (history.ListParams, error) {
	p := history.ListParams{
		Page:     1,
		Size:     history.DefaultPageSize,
		City:     strings.TrimSpace(q.Get("city")),
		JobLevel: strings.TrimSpace(q.Get("job_level")),
	}
	var err error
	if p.Page, err = intParam(q, "page", p.Page); err != nil {
		return history.ListParams{}, err
	}
	if p.Size, err = intParam(q, "size", p.Size); err != nil {
		return history.ListParams{}, err
	}
	if err := history.ValidatePage(p.Page, p.Size); err != nil {
		return history.ListParams{}, err
	}
	return p, nil
}

func intParam(q url.Values, key string, def int) (int, error) {
	raw := strings.TrimSpace(q.Get(key))
	if raw == "" {
		return def, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%w: %s must be an integer, got %q", history.ErrInvalidPage, key, raw)
	}
	return v, nil
}
