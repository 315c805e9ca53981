package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// ListLinks handles GET /api/links.
func (h *Handler) ListLinks(w http.ResponseWriter, r *http.Request) {
	links, err := h.svc.AllLinks(r.Context())
	if err != nil {
		writeError(w, r, "list links", err)
		return
	}
	writeJSON(w, http.StatusOK, LinkListResponse{Links: nonNil(links)})
}

// CreateLink handles POST /api/links. Returns 201 when a link was created
// and 200 when the pair was already linked.
func (h *Handler) CreateLink(w http.ResponseWriter, r *http.Request) {
	var req LinkRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	link, created, err := h.svc.CreateLink(r.Context(), req.SourceID, req.TargetID, req.Context)
	if err != nil {
		writeError(w, r, "create link", err)
		return
	}
	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	writeJSON(w, status, LinkResponse{Link: link, Created: created})
}

// DeleteLink handles DELETE /api/links/{id}.
func (h *Handler) DeleteLink(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.DeleteLink(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeError(w, r, "delete link", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// NoteLinks handles GET /api/notes/{id}/links.
func (h *Handler) NoteLinks(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if _, err := h.svc.GetNote(r.Context(), id); err != nil {
		writeError(w, r, "note links", err)
		return
	}
	links, err := h.svc.LinksForNote(r.Context(), id)
	if err != nil {
		writeError(w, r, "note links", err)
		return
	}
	writeJSON(w, http.StatusOK, LinkListResponse{Links: nonNil(links)})
}

// DeleteNoteLinks handles DELETE /api/notes/{id}/links.
func (h *Handler) DeleteNoteLinks(w http.ResponseWriter, r *http.Request) {
	n, err := h.svc.DeleteLinksForNote(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, "delete note links", err)
		return
	}
	writeJSON(w, http.StatusOK, CountResponse{Count: n})
}

// ReconcileNoteLinks handles POST /api/notes/{id}/links/reconcile.
func (h *Handler) ReconcileNoteLinks(w http.ResponseWriter, r *http.Request) {
	n, err := h.svc.ReconcileNoteLinks(r.Context(), chi.URLParam(r, "id"), notePassword(r))
	if err != nil {
		writeError(w, r, "reconcile links", err)
		return
	}
	writeJSON(w, http.StatusOK, CountResponse{Count: n})
}
