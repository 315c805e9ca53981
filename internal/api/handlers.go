package api

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/starford/lumina/internal/models"
	"github.com/starford/lumina/internal/noteservice"
)

// Handler holds API route handlers.
type Handler struct {
	svc *noteservice.Service
}

// NewHandler creates a new Handler.
func NewHandler(svc *noteservice.Service) *Handler {
	return &Handler{svc: svc}
}

func queryInt(r *http.Request, key string) int {
	n, _ := strconv.Atoi(r.URL.Query().Get(key))
	return n
}

// ListNotes handles GET /api/notes.
//
//	@Summary		List notes, newest first, optionally filtered by tag
//	@Tags			notes
//	@Produce		json
//	@Param			limit	query		int		false	"Page size"
//	@Param			offset	query		int		false	"Page offset"
//	@Param			tag		query		string	false	"Tag id or name"
//	@Success		200		{object}	NoteListResponse
//	@Security		BearerAuth
//	@Router			/notes [get]
func (h *Handler) ListNotes(w http.ResponseWriter, r *http.Request) {
	limit, offset := queryInt(r, "limit"), queryInt(r, "offset")
	if tag := r.URL.Query().Get("tag"); tag != "" {
		notes, err := h.svc.NotesByTag(r.Context(), tag)
		if err != nil {
			writeError(w, r, "notes by tag", err)
			return
		}
		writeJSON(w, http.StatusOK, NoteListResponse{Notes: nonNil(notes)})
		return
	}

	notes, err := h.svc.ListNotes(r.Context(), limit, offset)
	if err != nil {
		writeError(w, r, "list notes", err)
		return
	}
	writeJSON(w, http.StatusOK, NoteListResponse{Notes: nonNil(notes), Limit: limit, Offset: offset})
}

// PinnedNotes handles GET /api/notes/pinned.
//
//	@Summary		List pinned notes
//	@Tags			notes
//	@Produce		json
//	@Success		200	{object}	NoteListResponse
//	@Security		BearerAuth
//	@Router			/notes/pinned [get]
func (h *Handler) PinnedNotes(w http.ResponseWriter, r *http.Request) {
	notes, err := h.svc.PinnedNotes(r.Context())
	if err != nil {
		writeError(w, r, "pinned notes", err)
		return
	}
	writeJSON(w, http.StatusOK, NoteListResponse{Notes: nonNil(notes)})
}

// GetNote handles GET /api/notes/{id}. With an X-Note-Password header an
// encrypted note is returned decrypted; without one it is returned as stored.
//
//	@Summary		Get a single note by id
//	@Tags			notes
//	@Produce		json
//	@Param			id					path		string	true	"Note id"
//	@Param			X-Note-Password		header		string	false	"Password of an encrypted note"
//	@Success		200					{object}	models.Note
//	@Failure		403					{object}	errResponse
//	@Failure		404					{object}	errResponse
//	@Security		BearerAuth
//	@Router			/notes/{id} [get]
func (h *Handler) GetNote(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var (
		note *models.Note
		err  error
	)
	if pw := notePassword(r); pw != "" {
		note, err = h.svc.OpenNote(r.Context(), id, pw)
	} else {
		note, err = h.svc.GetNote(r.Context(), id)
	}
	if err != nil {
		writeError(w, r, "get note", err)
		return
	}
	writeJSON(w, http.StatusOK, note)
}

// CreateNote handles POST /api/notes.
//
//	@Summary		Create a new note
//	@Tags			notes
//	@Accept			json
//	@Produce		json
//	@Param			body				body		NoteRequest	true	"Note to create"
//	@Param			X-Note-Password		header		string		false	"Required when is_encrypted is set"
//	@Success		201					{object}	models.Note
//	@Failure		400					{object}	errResponse
//	@Failure		403					{object}	errResponse
//	@Security		BearerAuth
//	@Router			/notes [post]
func (h *Handler) CreateNote(w http.ResponseWriter, r *http.Request) {
	var req NoteRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	note, err := h.svc.CreateNote(r.Context(), req, notePassword(r))
	if err != nil {
		writeError(w, r, "create note", err)
		return
	}
	writeJSON(w, http.StatusCreated, note)
}

// UpdateNote handles PUT /api/notes/{id}.
//
//	@Summary		Replace a note's title, content, tags and flags
//	@Tags			notes
//	@Accept			json
//	@Produce		json
//	@Param			id					path		string		true	"Note id"
//	@Param			X-Note-Password		header		string		false	"Required for encrypted notes"
//	@Param			body				body		NoteRequest	true	"Updated note"
//	@Success		200					{object}	models.Note
//	@Failure		400					{object}	errResponse
//	@Failure		403					{object}	errResponse
//	@Failure		404					{object}	errResponse
//	@Security		BearerAuth
//	@Router			/notes/{id} [put]
func (h *Handler) UpdateNote(w http.ResponseWriter, r *http.Request) {
	var req NoteRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	note, err := h.svc.UpdateNote(r.Context(), chi.URLParam(r, "id"), req, notePassword(r))
	if err != nil {
		writeError(w, r, "update note", err)
		return
	}
	writeJSON(w, http.StatusOK, note)
}

// PinNote handles PUT /api/notes/{id}/pin.
func (h *Handler) PinNote(w http.ResponseWriter, r *http.Request) {
	var req PinRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	note, err := h.svc.SetPinned(r.Context(), chi.URLParam(r, "id"), req.Pinned)
	if err != nil {
		writeError(w, r, "pin note", err)
		return
	}
	writeJSON(w, http.StatusOK, note)
}

// DeleteNote handles DELETE /api/notes/{id}.
//
//	@Summary		Delete a note and every link touching it
//	@Tags			notes
//	@Param			id	path	string	true	"Note id"
//	@Success		204	"Note deleted"
//	@Failure		404	{object}	errResponse
//	@Security		BearerAuth
//	@Router			/notes/{id} [delete]
func (h *Handler) DeleteNote(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.DeleteNote(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeError(w, r, "delete note", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// RenderNote handles GET /api/notes/{id}/html.
func (h *Handler) RenderNote(w http.ResponseWriter, r *http.Request) {
	html, err := h.svc.RenderHTML(r.Context(), chi.URLParam(r, "id"), notePassword(r))
	if err != nil {
		writeError(w, r, "render note", err)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(html))
}

// DailyNote handles GET /api/daily/{date}, where date is YYYY-MM-DD or
// "today". The note is created on first access.
//
//	@Summary		Get or create the daily note for a date
//	@Tags			notes
//	@Produce		json
//	@Param			date	path		string	true	"YYYY-MM-DD or today"
//	@Success		200		{object}	models.Note
//	@Failure		400		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/daily/{date} [get]
func (h *Handler) DailyNote(w http.ResponseWriter, r *http.Request) {
	date := chi.URLParam(r, "date")
	var (
		note *models.Note
		err  error
	)
	if strings.EqualFold(date, "today") {
		note, err = h.svc.Today(r.Context())
	} else {
		note, err = h.svc.GetOrCreateDailyNote(r.Context(), date)
	}
	if err != nil {
		writeError(w, r, "daily note", err)
		return
	}
	writeJSON(w, http.StatusOK, note)
}

// Search handles GET /api/search.
//
//	@Summary		Case-insensitive substring search over titles and unencrypted content
//	@Tags			search
//	@Produce		json
//	@Param			q		query		string	true	"Search query"
//	@Param			limit	query		int		false	"Max results"
//	@Success		200		{object}	SearchResponse
//	@Failure		400		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/search [get]
func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	q := strings.TrimSpace(r.URL.Query().Get("q"))
	if q == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("query parameter 'q' is required"))
		return
	}
	results, err := h.svc.Search(r.Context(), q, queryInt(r, "limit"))
	if err != nil {
		writeError(w, r, "search", err)
		return
	}
	writeJSON(w, http.StatusOK, SearchResponse{Results: nonNil(results)})
}

// Graph handles GET /api/graph.
//
//	@Summary		Get a bounded snapshot of the note graph
//	@Tags			graph
//	@Produce		json
//	@Param			limit	query		int	false	"Maximum number of nodes"
//	@Success		200		{object}	models.GraphData
//	@Security		BearerAuth
//	@Router			/graph [get]
func (h *Handler) Graph(w http.ResponseWriter, r *http.Request) {
	g, err := h.svc.Graph(r.Context(), queryInt(r, "limit"))
	if err != nil {
		writeError(w, r, "graph", err)
		return
	}
	writeJSON(w, http.StatusOK, g)
}
