package api

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/tennisfel/compendium/internal/apperr"
	"github.com/tennisfel/compendium/internal/index"
)

type entryDTO struct {
	ID       string   `json:"id"`
	Name     string   `json:"name"`
	Type     string   `json:"type"`
	Pack     string   `json:"pack"`
	SourceID string   `json:"source_id"`
	Tags     []string `json:"tags"`
	Body     string   `json:"body,omitempty"`
}

type searchResultDTO struct {
	entryDTO
	Snippet string `json:"snippet,omitempty"`
}

func toEntryDTO(e *index.EntryRow, withBody bool) entryDTO {
	tags := e.Tags
	if tags == nil {
		tags = []string{}
	}
	dto := entryDTO{
		ID:       e.ID,
		Name:     e.Name,
		Type:     e.Type,
		Pack:     e.Pack,
		SourceID: e.SourceID,
		Tags:     tags,
	}
	if withBody {
		dto.Body = e.Body
	}
	return dto
}

func (s *Server) handleListEntries(w http.ResponseWriter, r *http.Request) {
	q := index.ListQuery{
		Type:   r.URL.Query().Get("type"),
		Pack:   r.URL.Query().Get("pack"),
		Limit:  queryInt(r, "limit"),
		Offset: queryInt(r, "offset"),
	}
	entries, err := s.repo.List(r.Context(), q)
	if err != nil {
		s.logger.Error("list entries", slog.String("error", err.Error()))
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	out := make([]entryDTO, 0, len(entries))
	for i := range entries {
		out = append(out, toEntryDTO(&entries[i], false))
	}
	writeJSON(w, http.StatusOK, map[string]any{"entries": out})
}

func (s *Server) handleGetEntry(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	entry, err := s.repo.Get(r.Context(), id)
	if errors.Is(err, apperr.ErrNotFound) {
		writeError(w, http.StatusNotFound, "entry not found")
		return
	}
	if err != nil {
		s.logger.Error("get entry", slog.String("id", id), slog.String("error", err.Error()))
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	writeJSON(w, http.StatusOK, toEntryDTO(entry, true))
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")
	if query == "" {
		writeError(w, http.StatusBadRequest, "missing query parameter q")
		return
	}
	results, err := s.repo.Search(r.Context(), query, queryInt(r, "limit"))
	if err != nil {
		s.logger.Error("search", slog.String("q", query), slog.String("error", err.Error()))
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	out := make([]searchResultDTO, 0, len(results))
	for i := range results {
		out = append(out, searchResultDTO{
			entryDTO: toEntryDTO(&results[i].EntryRow, false),
			Snippet:  results[i].Snippet,
		})
	}
	writeJSON(w, http.StatusOK, map[string]any{"results": out})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	n, err := s.repo.Count(r.Context())
	if err != nil {
		writeError(w, http.StatusServiceUnavailable, "index unavailable")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"status": "ok", "entries": n})
}

func queryInt(r *http.Request, name string) int {
	n, err := strconv.Atoi(r.URL.Query().Get(name))
	if err != nil {
		return 0
	}
	return n
}
