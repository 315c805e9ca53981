package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/starford/lumina/internal/noteservice"
)

// NewRouter creates a chi router with all API routes mounted.
// authEnabled controls whether Bearer token auth is enforced.
// sseHandler, if non-nil, is mounted at GET /events inside the auth group.
func NewRouter(svc *noteservice.Service, authEnabled bool, token string, sseHandler http.Handler) chi.Router {
	h := NewHandler(svc)

	r := chi.NewRouter()
	r.Use(AuthMiddleware(authEnabled, token))

	r.Route("/notes", func(r chi.Router) {
		r.Get("/", h.ListNotes)
		r.Post("/", h.CreateNote)
		r.Get("/pinned", h.PinnedNotes)
		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", h.GetNote)
			r.Put("/", h.UpdateNote)
			r.Delete("/", h.DeleteNote)
			r.Put("/pin", h.PinNote)
			r.Get("/html", h.RenderNote)
			r.Get("/links", h.NoteLinks)
			r.Delete("/links", h.DeleteNoteLinks)
			r.Post("/links/reconcile", h.ReconcileNoteLinks)
		})
	})

	r.Get("/daily/{date}", h.DailyNote)
	r.Get("/search", h.Search)
	r.Get("/graph", h.Graph)

	r.Route("/tags", func(r chi.Router) {
		r.Get("/", h.ListTags)
		r.Post("/", h.CreateTag)
		r.Get("/roots", h.RootTags)
		r.Get("/{id}", h.GetTag)
		r.Put("/{id}", h.UpdateTag)
		r.Delete("/{id}", h.DeleteTag)
		r.Get("/{id}/children", h.TagChildren)
	})

	r.Route("/links", func(r chi.Router) {
		r.Get("/", h.ListLinks)
		r.Post("/", h.CreateLink)
		r.Delete("/{id}", h.DeleteLink)
	})

	if sseHandler != nil {
		r.Get("/events", sseHandler.ServeHTTP)
	}

	return r
}
