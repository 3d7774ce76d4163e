package api

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/starford/filecat/internal/apperr"
	"github.com/starford/filecat/internal/filter"
	"github.com/starford/filecat/internal/workspace"
)

// Handler holds API route handlers.
type Handler struct {
	svc *workspace.Service
}

// NewHandler creates a new Handler.
func NewHandler(svc *workspace.Service) *Handler {
	return &Handler{svc: svc}
}

// Tree handles GET /api/catalog.
//
//	@Summary		Get the directory tree
//	@Tags			catalog
//	@Produce		json
//	@Param			sort	query		string	false	"Sort siblings"	Enums(name)
//	@Success		200		{object}	render.DirectoryView
//	@Security		BearerAuth
//	@Router			/catalog [get]
func (h *Handler) Tree(w http.ResponseWriter, r *http.Request) {
	sorted := r.URL.Query().Get("sort") == "name"
	writeJSON(w, http.StatusOK, h.svc.Tree(sorted))
}

// Files handles GET /api/catalog/files.
//
//	@Summary		List retained files, depth first
//	@Tags			catalog
//	@Produce		json
//	@Success		200	{object}	FileListResponse
//	@Security		BearerAuth
//	@Router			/catalog/files [get]
func (h *Handler) Files(w http.ResponseWriter, _ *http.Request) {
	files := h.svc.Files()
	writeJSON(w, http.StatusOK, FileListResponse{Files: files, Total: len(files)})
}

// Toggle handles POST /api/catalog/toggle.
//
//	@Summary		Expand or collapse a directory
//	@Tags			catalog
//	@Accept			json
//	@Produce		json
//	@Param			body	body		ToggleRequest	true	"Directory root"
//	@Success		200		{object}	ToggleResponse
//	@Failure		400		{object}	errResponse
//	@Failure		404		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/catalog/toggle [post]
func (h *Handler) Toggle(w http.ResponseWriter, r *http.Request) {
	var req ToggleRequest
	if !decode(w, r, &req) {
		return
	}
	expanded, err := h.svc.Toggle(req.Root)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			writeJSON(w, http.StatusNotFound, errorBody("directory not found"))
		} else {
			slog.Error("toggle failed", slog.String("root", req.Root), slog.String("error", err.Error()))
			writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		}
		return
	}
	writeJSON(w, http.StatusOK, ToggleResponse{Root: req.Root, Expanded: expanded})
}

// Reveal handles POST /api/catalog/reveal. A path outside the catalog is
// not an error.
//
//	@Summary		Expand the ancestors of a file
//	@Tags			catalog
//	@Accept			json
//	@Produce		json
//	@Param			body	body		RevealRequest	true	"File path"
//	@Success		200		{object}	RevealResponse
//	@Failure		400		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/catalog/reveal [post]
func (h *Handler) Reveal(w http.ResponseWriter, r *http.Request) {
	var req RevealRequest
	if !decode(w, r, &req) {
		return
	}
	chain := h.svc.Reveal(req.Path)
	if chain == nil {
		chain = []string{}
	}
	writeJSON(w, http.StatusOK, RevealResponse{Path: req.Path, Expanded: chain})
}

// Rebuild handles POST /api/catalog/rebuild.
//
//	@Summary		Re-list the content and rebuild the catalog
//	@Tags			catalog
//	@Success		204	"Rebuilt"
//	@Failure		502	{object}	errResponse
//	@Security		BearerAuth
//	@Router			/catalog/rebuild [post]
func (h *Handler) Rebuild(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.Rebuild(r.Context()); err != nil {
		slog.Error("rebuild failed", slog.String("error", err.Error()))
		writeJSON(w, http.StatusBadGateway, errorBody("listing failed"))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// GetFilter handles GET /api/catalog/filter.
//
//	@Summary		Get the active filter
//	@Tags			catalog
//	@Produce		json
//	@Success		200	{object}	filter.Config
//	@Security		BearerAuth
//	@Router			/catalog/filter [get]
func (h *Handler) GetFilter(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, h.svc.Filter())
}

// SetFilter handles PUT /api/catalog/filter.
//
//	@Summary		Replace the filter and rebuild
//	@Tags			catalog
//	@Accept			json
//	@Produce		json
//	@Param			body	body		FilterRequest	true	"Filter patterns"
//	@Success		200		{object}	filter.Config
//	@Failure		400		{object}	errResponse
//	@Failure		502		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/catalog/filter [put]
func (h *Handler) SetFilter(w http.ResponseWriter, r *http.Request) {
	var req FilterRequest
	if !decode(w, r, &req) {
		return
	}
	cfg := filter.Config{Includes: req.Includes, Excludes: req.Excludes}
	if err := h.svc.SetFilter(r.Context(), cfg); err != nil {
		if errors.Is(err, apperr.ErrInvalidFilterPattern) {
			writeJSON(w, http.StatusBadRequest, errorBody(err.Error()))
		} else {
			slog.Error("set filter failed", slog.String("error", err.Error()))
			writeJSON(w, http.StatusBadGateway, errorBody("listing failed"))
		}
		return
	}
	writeJSON(w, http.StatusOK, h.svc.Filter())
}

// ReferenceOptions handles GET /api/reference/options.
//
//	@Summary		List selectable files of the document-reference field
//	@Tags			reference
//	@Produce		json
//	@Param			q		query		string	false	"Substring filter"
//	@Param			limit	query		int		false	"Max options"
//	@Success		200		{object}	OptionsResponse
//	@Security		BearerAuth
//	@Router			/reference/options [get]
func (h *Handler) ReferenceOptions(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	limit, _ := strconv.Atoi(q.Get("limit"))
	writeJSON(w, http.StatusOK, OptionsResponse{Options: h.svc.ReferenceOptions(q.Get("q"), limit)})
}
