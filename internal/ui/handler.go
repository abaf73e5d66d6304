// Package ui serves the server-rendered question page.
package ui

import (
	"context"
	"log/slog"
	"net/http"

	gomponents "maragu.dev/gomponents"

	"querypilot/internal/domain"
)

// QueryService answers natural-language questions.
type QueryService interface {
	Submit(ctx context.Context, prompt string) *domain.Response
}

// CatalogService exposes the loaded schema for the sidebar.
type CatalogService interface {
	State() *domain.CatalogState
}

type Handler struct {
	Query      QueryService
	Catalog    CatalogService
	Production bool
	logger     *slog.Logger
}

func NewHandler(query QueryService, cat CatalogService, production bool, logger *slog.Logger) *Handler {
	return &Handler{
		Query:      query,
		Catalog:    cat,
		Production: production,
		logger:     logger.With("component", "ui"),
	}
}

func renderHTML(w http.ResponseWriter, status int, node gomponents.Node) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_ = node.Render(w)
}
