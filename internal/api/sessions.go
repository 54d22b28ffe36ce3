package api

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/starford/smartnotes/internal/apperr"
	"github.com/starford/smartnotes/internal/editor"
)

func (h *Handler) session(w http.ResponseWriter, r *http.Request) (string, *editor.Session, bool) {
	sid := chi.URLParam(r, "sid")
	s, ok := h.sessions.Get(sid)
	if !ok {
		writeJSON(w, http.StatusNotFound, errorBody("session not found"))
		return "", nil, false
	}
	return sid, s, true
}

// OpenSession handles POST /api/sessions.
//
//	@Summary		Open an editing session on a note
//	@Tags			sessions
//	@Accept			json
//	@Produce		json
//	@Param			body	body		OpenSessionRequest	true	"Note to edit"
//	@Success		201		{object}	SessionResponse
//	@Failure		404		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/sessions [post]
func (h *Handler) OpenSession(w http.ResponseWriter, r *http.Request) {
	var req OpenSessionRequest
	if !readJSON(w, r, &req) {
		return
	}
	sid, s, err := h.sessions.Open(r.Context(), req.NoteID)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			writeJSON(w, http.StatusNotFound, errorBody("note not found"))
			return
		}
		internalError(w, "open session failed", err)
		return
	}
	writeJSON(w, http.StatusCreated, SessionResponse{ID: sid, State: s.State()})
}

// GetSession handles GET /api/sessions/{sid}.
//
//	@Summary		Current state of an editing session
//	@Tags			sessions
//	@Produce		json
//	@Param			sid	path		string	true	"Session id"
//	@Success		200	{object}	SessionResponse
//	@Failure		404	{object}	errResponse
//	@Security		BearerAuth
//	@Router			/sessions/{sid} [get]
func (h *Handler) GetSession(w http.ResponseWriter, r *http.Request) {
	sid, s, ok := h.session(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, SessionResponse{ID: sid, State: s.State()})
}

// PutSessionContents handles PUT /api/sessions/{sid}/contents.
//
//	@Summary		Replace the live document and cursor
//	@Tags			sessions
//	@Accept			json
//	@Produce		json
//	@Param			sid		path		string					true	"Session id"
//	@Param			body	body		SessionContentsRequest	true	"Editor contents"
//	@Success		200		{object}	SessionResponse
//	@Failure		404		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/sessions/{sid}/contents [put]
func (h *Handler) PutSessionContents(w http.ResponseWriter, r *http.Request) {
	sid, s, ok := h.session(w, r)
	if !ok {
		return
	}
	var req SessionContentsRequest
	if !readJSON(w, r, &req) {
		return
	}
	if req.Title != nil {
		s.SetTitle(*req.Title)
	}
	cursor := -1
	if req.Cursor != nil {
		cursor = max(*req.Cursor, 0)
	}
	s.SetContents(req.Document, cursor)
	writeJSON(w, http.StatusOK, SessionResponse{ID: sid, State: s.State()})
}

// ChooseLink handles POST /api/sessions/{sid}/links.
//
//	@Summary		Insert a link to the chosen note
//	@Tags			sessions
//	@Accept			json
//	@Produce		json
//	@Param			sid		path		string				true	"Session id"
//	@Param			body	body		SessionLinkRequest	true	"Chosen note"
//	@Success		200		{object}	SessionLinkResponse
//	@Failure		404		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/sessions/{sid}/links [post]
func (h *Handler) ChooseLink(w http.ResponseWriter, r *http.Request) {
	sid, s, ok := h.session(w, r)
	if !ok {
		return
	}
	var req SessionLinkRequest
	if !readJSON(w, r, &req) {
		return
	}
	linked, err := s.ChooseLink(r.Context(), req.NoteID)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			writeJSON(w, http.StatusNotFound, errorBody("note not found"))
			return
		}
		internalError(w, "choose link failed", err)
		return
	}
	writeJSON(w, http.StatusOK, SessionLinkResponse{
		Linked:          linked,
		SessionResponse: SessionResponse{ID: sid, State: s.State()},
	})
}

// CloseSession handles DELETE /api/sessions/{sid}.
//
//	@Summary		Save pending changes and close the session
//	@Tags			sessions
//	@Param			sid	path	string	true	"Session id"
//	@Success		204	"Session closed"
//	@Failure		404	{object}	errResponse
//	@Security		BearerAuth
//	@Router			/sessions/{sid} [delete]
func (h *Handler) CloseSession(w http.ResponseWriter, r *http.Request) {
	sid := chi.URLParam(r, "sid")
	if err := h.sessions.Close(sid); err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			writeJSON(w, http.StatusNotFound, errorBody("session not found"))
			return
		}
		internalError(w, "close session failed", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
