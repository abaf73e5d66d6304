// Package api provides the HTTP handlers for the query API.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"querypilot/internal/domain"
	"querypilot/internal/service/catalog"
)

// maxRequestBody bounds a question payload.
const maxRequestBody = 1 << 20

// QueryService answers natural-language questions.
type QueryService interface {
	Submit(ctx context.Context, prompt string) *domain.Response
}

// CatalogService exposes the current planning context.
type CatalogService interface {
	State() *domain.CatalogState
	Reload(ctx context.Context) (*domain.CatalogState, error)
}

// HistoryLister pages through recorded pipeline outcomes.
type HistoryLister interface {
	List(ctx context.Context, page domain.PageRequest) ([]domain.QueryHistoryEntry, int64, error)
}

// Handler serves the JSON API.
type Handler struct {
	query   QueryService
	catalog CatalogService
	history HistoryLister // nil when history is disabled
	logger  *slog.Logger
}

// NewHandler creates a Handler. history may be nil.
func NewHandler(query QueryService, cat CatalogService, history HistoryLister, logger *slog.Logger) *Handler {
	return &Handler{
		query:   query,
		catalog: cat,
		history: history,
		logger:  logger.With("component", "api"),
	}
}

// RegisterRoutes mounts every API route on r.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/health", h.Health)
	r.Post("/query", h.Query)
	r.Get("/openapi.json", h.OpenAPI)

	r.Route("/v1", func(r chi.Router) {
		r.Post("/query", h.Query)
		r.Get("/schema", h.GetSchema)
		r.Post("/schema/reload", h.ReloadSchema)
		r.Get("/schema/join-path", h.JoinPath)
		r.Get("/history", h.ListHistory)
	})
}

// QueryRequest is the body of POST /query.
type QueryRequest struct {
	Prompt string `json:"prompt"`
}

// SchemaResponse describes the loaded catalog.
type SchemaResponse struct {
	SchemaText    string                `json:"schema_text"`
	Tables        []string              `json:"tables"`
	Columns       map[string][]string   `json:"columns"`
	Relationships []domain.Relationship `json:"relationships"`
	DateRanges    domain.DateRanges     `json:"date_ranges"`
	LoadedAt      time.Time             `json:"loaded_at"`
}

// JoinPathResponse is the result of a join-path search.
type JoinPathResponse struct {
	Tables []string              `json:"tables"`
	Path   []domain.Relationship `json:"path"`
	Joins  []string              `json:"joins"`
}

// HistoryResponse is one page of query history.
type HistoryResponse struct {
	Entries       []domain.QueryHistoryEntry `json:"entries"`
	Total         int64                      `json:"total"`
	NextPageToken string                     `json:"next_page_token,omitempty"`
}

// Health reports liveness.
func (h *Handler) Health(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = io.WriteString(w, "ok")
}

// Query runs the full pipeline for one question. Pipeline failures are part
// of the 200 response; only malformed requests are rejected.
func (h *Handler) Query(w http.ResponseWriter, r *http.Request) {
	var req QueryRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBody))
	if err := dec.Decode(&req); err != nil {
		var maxBytes *http.MaxBytesError
		if errors.As(err, &maxBytes) {
			writeJSON(w, http.StatusRequestEntityTooLarge, ErrorResponse{
				Code:    http.StatusRequestEntityTooLarge,
				Message: "request body too large",
			})
			return
		}
		h.writeError(w, r, domain.ErrValidation("invalid request body: %v", err))
		return
	}
	prompt := strings.TrimSpace(req.Prompt)
	if prompt == "" {
		h.writeError(w, r, domain.ErrValidation("prompt is required"))
		return
	}
	writeJSON(w, http.StatusOK, h.query.Submit(r.Context(), prompt))
}

// GetSchema returns the current catalog state.
func (h *Handler) GetSchema(w http.ResponseWriter, r *http.Request) {
	st := h.catalog.State()
	if st == nil {
		h.writeError(w, r, domain.ErrNotFound("catalog not loaded"))
		return
	}
	writeJSON(w, http.StatusOK, schemaToAPI(st))
}

// ReloadSchema rebuilds the catalog. On failure the previous state stays in
// effect.
func (h *Handler) ReloadSchema(w http.ResponseWriter, r *http.Request) {
	st, err := h.catalog.Reload(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, schemaToAPI(st))
}

// JoinPath finds the relationships connecting ?tables=A,B,C.
func (h *Handler) JoinPath(w http.ResponseWriter, r *http.Request) {
	st := h.catalog.State()
	if st == nil {
		h.writeError(w, r, domain.ErrNotFound("catalog not loaded"))
		return
	}
	tables := splitList(r.URL.Query()["tables"])
	path, err := catalog.JoinPath(st.Snapshot, tables)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if path == nil {
		path = []domain.Relationship{}
	}
	joins := make([]string, len(path))
	for i, rel := range path {
		joins[i] = rel.String()
	}
	writeJSON(w, http.StatusOK, JoinPathResponse{Tables: tables, Path: path, Joins: joins})
}

// ListHistory pages through recorded outcomes, newest first.
func (h *Handler) ListHistory(w http.ResponseWriter, r *http.Request) {
	if h.history == nil {
		h.writeError(w, r, domain.ErrNotFound("query history is disabled (set HISTORY_DB_PATH)"))
		return
	}
	page := domain.PageRequest{PageToken: r.URL.Query().Get("page_token")}
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			h.writeError(w, r, domain.ErrValidation("limit must be a positive integer"))
			return
		}
		page.MaxResults = n
	}

	entries, total, err := h.history.List(r.Context(), page)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if entries == nil {
		entries = []domain.QueryHistoryEntry{}
	}
	writeJSON(w, http.StatusOK, HistoryResponse{
		Entries:       entries,
		Total:         total,
		NextPageToken: domain.NextPageToken(page.Offset(), page.Limit(), total),
	})
}

func schemaToAPI(st *domain.CatalogState) SchemaResponse {
	ranges := st.DateRanges
	if ranges == nil {
		ranges = domain.DateRanges{}
	}
	rels := st.Snapshot.Relationships
	if rels == nil {
		rels = []domain.Relationship{}
	}
	return SchemaResponse{
		SchemaText:    st.Snapshot.Text,
		Tables:        st.Snapshot.Tables,
		Columns:       st.Snapshot.Columns,
		Relationships: rels,
		DateRanges:    ranges,
		LoadedAt:      st.LoadedAt,
	}
}

// splitList flattens repeated and comma-separated query values.
func splitList(values []string) []string {
	var out []string
	for _, v := range values {
		for _, part := range strings.Split(v, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}

func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	code := httpStatusFromDomainError(err)
	logger := h.logger.With("method", r.Method, "path", r.URL.Path)
	if id := domain.RequestIDFromContext(r.Context()); id != "" {
		logger = logger.With("request_id", id)
	}
	if code >= http.StatusInternalServerError {
		logger.Error("request failed", "error", err)
	} else {
		logger.Debug("request rejected", "status", code, "error", err)
	}
	writeJSON(w, code, ErrorResponse{Code: code, Message: err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
