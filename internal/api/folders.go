package api

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/starford/smartnotes/internal/apperr"
)

// ListFolders handles GET /api/folders.
//
//	@Summary		List folders
//	@Tags			folders
//	@Produce		json
//	@Success		200	{object}	FolderListResponse
//	@Security		BearerAuth
//	@Router			/folders [get]
func (h *Handler) ListFolders(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, FolderListResponse{Folders: h.store.ListFolders(r.Context())})
}

// CreateFolder handles POST /api/folders. An existing folder with the same
// name is returned unchanged.
//
//	@Summary		Find or create a folder by name
//	@Tags			folders
//	@Accept			json
//	@Produce		json
//	@Param			body	body		CreateFolderRequest	true	"Folder name"
//	@Success		200		{object}	models.Folder
//	@Failure		400		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/folders [post]
func (h *Handler) CreateFolder(w http.ResponseWriter, r *http.Request) {
	var req CreateFolderRequest
	if !readJSON(w, r, &req) {
		return
	}
	f, err := h.store.UpsertFolder(r.Context(), req.Name)
	if err != nil {
		if errors.Is(err, apperr.ErrInvalidInput) {
			writeJSON(w, http.StatusBadRequest, errorBody("name is required"))
			return
		}
		internalError(w, "create folder failed", err)
		return
	}
	writeJSON(w, http.StatusOK, f)
}

// DeleteFolder handles DELETE /api/folders/{id}.
//
//	@Summary		Delete a folder
//	@Description	Refused while notes are filed under the folder unless force is set; forced deletion moves them to the Inbox.
//	@Tags			folders
//	@Produce		json
//	@Param			id		path	string	true	"Folder id"
//	@Param			force	query	bool	false	"Delete even if notes remain"
//	@Success		204		"Folder deleted"
//	@Failure		409		{object}	FolderBlockedResponse
//	@Security		BearerAuth
//	@Router			/folders/{id} [delete]
func (h *Handler) DeleteFolder(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	force, _ := strconv.ParseBool(r.URL.Query().Get("force"))

	res, err := h.store.DeleteFolder(r.Context(), id, force)
	if err != nil {
		internalError(w, "delete folder failed", err, slog.String("id", id))
		return
	}
	if !res.OK {
		writeJSON(w, http.StatusConflict, FolderBlockedResponse{Error: "folder is not empty", Blocked: res.Blocked})
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
