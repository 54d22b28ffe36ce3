package api

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/starford/smartnotes/internal/apperr"
	"github.com/starford/smartnotes/internal/delta"
	"github.com/starford/smartnotes/internal/editor"
	"github.com/starford/smartnotes/internal/notes"
	"github.com/starford/smartnotes/internal/wikilink"
)

// Handler holds API route handlers.
type Handler struct {
	store    *notes.Store
	sessions *editor.Manager
	resolver *wikilink.Resolver
}

// NewHandler creates a new Handler.
func NewHandler(store *notes.Store, sessions *editor.Manager, resolver *wikilink.Resolver) *Handler {
	return &Handler{store: store, sessions: sessions, resolver: resolver}
}

// ListNotes handles GET /api/notes.
//
//	@Summary		List notes, most recently updated first
//	@Tags			notes
//	@Produce		json
//	@Param			q		query		string	false	"Search query"
//	@Param			starred	query		bool	false	"Only starred notes"
//	@Param			folder	query		string	false	"Folder id, or inbox"
//	@Success		200		{object}	NoteListResponse
//	@Security		BearerAuth
//	@Router			/notes [get]
func (h *Handler) ListNotes(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	starred, _ := strconv.ParseBool(q.Get("starred"))
	query := q.Get("q")

	list := h.store.Search(r.Context(), query)
	list = notes.Filter{StarredOnly: starred, Folder: q.Get("folder")}.Apply(list)
	if query == "" {
		notes.SortByUpdated(list)
	}
	writeJSON(w, http.StatusOK, NoteListResponse{Notes: toNoteDTOs(list), Total: len(list)})
}

// GetNote handles GET /api/notes/{id}.
//
//	@Summary		Get a single note
//	@Tags			notes
//	@Produce		json
//	@Param			id	path		string	true	"Note id"
//	@Success		200	{object}	NoteDTO
//	@Failure		404	{object}	errResponse
//	@Security		BearerAuth
//	@Router			/notes/{id} [get]
func (h *Handler) GetNote(w http.ResponseWriter, r *http.Request) {
	n, ok := h.store.GetNote(r.Context(), chi.URLParam(r, "id"))
	if !ok {
		writeJSON(w, http.StatusNotFound, errorBody("not found"))
		return
	}
	writeJSON(w, http.StatusOK, toNoteDTO(n))
}

// CreateNote handles POST /api/notes.
//
//	@Summary		Create a new note
//	@Tags			notes
//	@Accept			json
//	@Produce		json
//	@Param			body	body		CreateNoteRequest	true	"Note to create"
//	@Success		201		{object}	NoteDTO
//	@Failure		400		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/notes [post]
func (h *Handler) CreateNote(w http.ResponseWriter, r *http.Request) {
	var req CreateNoteRequest
	if !readJSON(w, r, &req) {
		return
	}
	ctx := r.Context()

	folderID := req.FolderID
	switch {
	case req.NewFolderName != "":
		f, err := h.store.UpsertFolder(ctx, req.NewFolderName)
		if err != nil {
			if errors.Is(err, apperr.ErrInvalidInput) {
				writeJSON(w, http.StatusBadRequest, errorBody(err.Error()))
				return
			}
			internalError(w, "create folder failed", err)
			return
		}
		folderID = f.ID
	case folderID != "" && !h.folderExists(r, folderID):
		writeJSON(w, http.StatusBadRequest, errorBody("unknown folder"))
		return
	}

	n, err := h.store.CreateNote(ctx, notes.NoteInput{
		Title:    req.Title,
		Document: req.Document,
		Tags:     req.Tags,
		FolderID: folderID,
	})
	if err != nil {
		internalError(w, "create note failed", err)
		return
	}
	writeJSON(w, http.StatusCreated, toNoteDTO(n))
}

// UpdateNote handles PATCH /api/notes/{id}.
//
//	@Summary		Update fields of a note
//	@Tags			notes
//	@Accept			json
//	@Produce		json
//	@Param			id		path		string				true	"Note id"
//	@Param			body	body		UpdateNoteRequest	true	"Fields to change"
//	@Success		200		{object}	NoteDTO
//	@Failure		400		{object}	errResponse
//	@Failure		404		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/notes/{id} [patch]
func (h *Handler) UpdateNote(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var req UpdateNoteRequest
	if !readJSON(w, r, &req) {
		return
	}
	if req.FolderID != nil && *req.FolderID != "" && !h.folderExists(r, *req.FolderID) {
		writeJSON(w, http.StatusBadRequest, errorBody("unknown folder"))
		return
	}

	ok, err := h.store.UpdateNote(r.Context(), id, notes.Patch{
		Title:    req.Title,
		Document: req.Document,
		Tags:     req.Tags,
		FolderID: req.FolderID,
		Starred:  req.Starred,
	})
	if err != nil {
		internalError(w, "update note failed", err, slog.String("id", id))
		return
	}
	if !ok {
		writeJSON(w, http.StatusNotFound, errorBody("not found"))
		return
	}
	h.GetNote(w, r)
}

// DeleteNote handles DELETE /api/notes/{id}.
//
//	@Summary		Delete a note
//	@Tags			notes
//	@Param			id	path	string	true	"Note id"
//	@Success		204	"Note deleted"
//	@Security		BearerAuth
//	@Router			/notes/{id} [delete]
func (h *Handler) DeleteNote(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := h.store.DeleteNote(r.Context(), id); err != nil {
		internalError(w, "delete note failed", err, slog.String("id", id))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ToggleStar handles POST /api/notes/{id}/star.
//
//	@Summary		Star or unstar a note
//	@Tags			notes
//	@Produce		json
//	@Param			id	path		string	true	"Note id"
//	@Success		200	{object}	NoteDTO
//	@Failure		404	{object}	errResponse
//	@Security		BearerAuth
//	@Router			/notes/{id}/star [post]
func (h *Handler) ToggleStar(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	ok, err := h.store.ToggleStar(r.Context(), id)
	if err != nil {
		internalError(w, "toggle star failed", err, slog.String("id", id))
		return
	}
	if !ok {
		writeJSON(w, http.StatusNotFound, errorBody("not found"))
		return
	}
	h.GetNote(w, r)
}

// Backlinks handles GET /api/notes/{id}/backlinks.
//
//	@Summary		Notes linking to a note
//	@Tags			notes
//	@Produce		json
//	@Param			id	path		string	true	"Note id"
//	@Success		200	{object}	BacklinksResponse
//	@Failure		404	{object}	errResponse
//	@Security		BearerAuth
//	@Router			/notes/{id}/backlinks [get]
func (h *Handler) Backlinks(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if _, ok := h.store.GetNote(r.Context(), id); !ok {
		writeJSON(w, http.StatusNotFound, errorBody("not found"))
		return
	}
	writeJSON(w, http.StatusOK, BacklinksResponse{Notes: toNoteDTOs(h.store.Backlinks(r.Context(), id))})
}

// Suggest handles POST /api/notes/{id}/suggest.
//
//	@Summary		Wiki-link suggestions at a cursor position
//	@Tags			links
//	@Accept			json
//	@Produce		json
//	@Param			id		path		string			true	"Id of the note being edited"
//	@Param			body	body		SuggestRequest	true	"Text and cursor"
//	@Success		200		{object}	wikilink.Suggestion
//	@Security		BearerAuth
//	@Router			/notes/{id}/suggest [post]
func (h *Handler) Suggest(w http.ResponseWriter, r *http.Request) {
	var req SuggestRequest
	if !readJSON(w, r, &req) {
		return
	}
	doc := delta.FromText(req.Text)
	if req.Document != nil {
		doc = *req.Document
	}
	buf := delta.NewBuffer(doc)
	buf.SetSelection(req.Cursor)

	s := h.resolver.Suggest(buf, h.store.ListNotes(r.Context()), chi.URLParam(r, "id"))
	writeJSON(w, http.StatusOK, s)
}

func (h *Handler) folderExists(r *http.Request, id string) bool {
	for _, f := range h.store.ListFolders(r.Context()) {
		if f.ID == id {
			return true
		}
	}
	return false
}
