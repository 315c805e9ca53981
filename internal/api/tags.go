package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// ListTags handles GET /api/tags.
func (h *Handler) ListTags(w http.ResponseWriter, r *http.Request) {
	tags, err := h.svc.ListTags(r.Context())
	if err != nil {
		writeError(w, r, "list tags", err)
		return
	}
	writeJSON(w, http.StatusOK, TagListResponse{Tags: nonNil(tags)})
}

// RootTags handles GET /api/tags/roots.
func (h *Handler) RootTags(w http.ResponseWriter, r *http.Request) {
	tags, err := h.svc.TagChildren(r.Context(), "")
	if err != nil {
		writeError(w, r, "root tags", err)
		return
	}
	writeJSON(w, http.StatusOK, TagListResponse{Tags: nonNil(tags)})
}

// TagChildren handles GET /api/tags/{id}/children.
func (h *Handler) TagChildren(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if _, err := h.svc.GetTag(r.Context(), id); err != nil {
		writeError(w, r, "tag children", err)
		return
	}
	tags, err := h.svc.TagChildren(r.Context(), id)
	if err != nil {
		writeError(w, r, "tag children", err)
		return
	}
	writeJSON(w, http.StatusOK, TagListResponse{Tags: nonNil(tags)})
}

// GetTag handles GET /api/tags/{id}.
func (h *Handler) GetTag(w http.ResponseWriter, r *http.Request) {
	tag, err := h.svc.GetTag(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, "get tag", err)
		return
	}
	writeJSON(w, http.StatusOK, tag)
}

// CreateTag handles POST /api/tags.
func (h *Handler) CreateTag(w http.ResponseWriter, r *http.Request) {
	var req TagRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	tag, err := h.svc.CreateTag(r.Context(), req)
	if err != nil {
		writeError(w, r, "create tag", err)
		return
	}
	writeJSON(w, http.StatusCreated, tag)
}

// UpdateTag handles PUT /api/tags/{id}.
func (h *Handler) UpdateTag(w http.ResponseWriter, r *http.Request) {
	var req TagRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	tag, err := h.svc.UpdateTag(r.Context(), chi.URLParam(r, "id"), req)
	if err != nil {
		writeError(w, r, "update tag", err)
		return
	}
	writeJSON(w, http.StatusOK, tag)
}

// DeleteTag handles DELETE /api/tags/{id}.
func (h *Handler) DeleteTag(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.DeleteTag(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeError(w, r, "delete tag", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
