package httpapi

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/goliatone/go-blog/internal/index"
)

const maxIndexPageSize = 100

type indexListResponse struct {
	Posts  []*index.PostRecord `json:"posts"`
	Total  int                 `json:"total"`
	Limit  int                 `json:"limit,omitempty"`
	Offset int                 `json:"offset,omitempty"`
}

func (s *Server) handleListIndexed(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	filter := index.Filter{
		Category: query.Get("category"),
		Tag:      query.Get("tag"),
		Limit:    queryInt(query.Get("limit"), 0),
		Offset:   queryInt(query.Get("offset"), 0),
	}
	if filter.Limit > maxIndexPageSize {
		filter.Limit = maxIndexPageSize
	}

	records, total, err := s.deps.Index.List(r.Context(), filter)
	if err != nil {
		writeError(w, err)
		return
	}
	if records == nil {
		records = []*index.PostRecord{}
	}
	writeJSON(w, http.StatusOK, indexListResponse{
		Posts:  records,
		Total:  total,
		Limit:  filter.Limit,
		Offset: filter.Offset,
	})
}

func (s *Server) handleGetIndexed(w http.ResponseWriter, r *http.Request) {
	record, err := s.deps.Index.Get(r.Context(), chi.URLParam(r, "slug"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, record)
}

// queryInt parses a non-negative integer, falling back on anything else.
func queryInt(value string, fallback int) int {
	parsed, err := strconv.Atoi(value)
	if err != nil || parsed < 0 {
		return fallback
	}
	return parsed
}
