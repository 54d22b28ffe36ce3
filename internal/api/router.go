package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/starford/smartnotes/internal/editor"
	"github.com/starford/smartnotes/internal/notes"
	"github.com/starford/smartnotes/internal/wikilink"
)

// NewRouter creates a chi router with all API routes mounted.
// authEnabled controls whether Bearer token auth is enforced.
// sseHandler, if non-nil, is mounted at GET /events inside the auth group.
func NewRouter(store *notes.Store, sessions *editor.Manager, resolver *wikilink.Resolver, authEnabled bool, token string, sseHandler http.Handler) chi.Router {
	h := NewHandler(store, sessions, resolver)

	r := chi.NewRouter()
	r.Use(AuthMiddleware(authEnabled, token))

	r.Route("/notes", func(r chi.Router) {
		r.Get("/", h.ListNotes)
		r.Post("/", h.CreateNote)
		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", h.GetNote)
			r.Patch("/", h.UpdateNote)
			r.Delete("/", h.DeleteNote)
			r.Post("/star", h.ToggleStar)
			r.Get("/backlinks", h.Backlinks)
			r.Post("/suggest", h.Suggest)
		})
	})

	r.Get("/folders", h.ListFolders)
	r.Post("/folders", h.CreateFolder)
	r.Delete("/folders/{id}", h.DeleteFolder)

	r.Post("/sessions", h.OpenSession)
	r.Route("/sessions/{sid}", func(r chi.Router) {
		r.Get("/", h.GetSession)
		r.Delete("/", h.CloseSession)
		r.Put("/contents", h.PutSessionContents)
		r.Post("/links", h.ChooseLink)
	})

	if sseHandler != nil {
		r.Get("/events", sseHandler.ServeHTTP)
	}

	return r
}
