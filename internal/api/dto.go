package api

import (
	"time"

	"github.com/starford/smartnotes/internal/delta"
	"github.com/starford/smartnotes/internal/editor"
	"github.com/starford/smartnotes/internal/models"
)

// NoteDTO is the API representation of a note.
type NoteDTO struct {
	ID        string      `json:"id" example:"3f1c..." validate:"required"`
	Title     string      `json:"title" example:"Project plan" validate:"required"`
	Document  delta.Delta `json:"document" validate:"required"`
	PlainText string      `json:"plain_text" example:"Goals for Q1\n"`
	Tags      []string    `json:"tags" example:"work,q1" validate:"required"`
	FolderID  string      `json:"folder_id,omitempty"`
	Starred   bool        `json:"starred"`
	CreatedAt time.Time   `json:"created_at"`
	UpdatedAt time.Time   `json:"updated_at"`
}

func toNoteDTO(n models.Note) NoteDTO {
	tags := n.Tags
	if tags == nil {
		tags = []string{}
	}
	doc := n.Document
	if doc.Ops == nil {
		doc = delta.New()
	}
	return NoteDTO{
		ID:        n.ID,
		Title:     n.Title,
		Document:  doc,
		PlainText: n.PlainText,
		Tags:      tags,
		FolderID:  n.FolderID,
		Starred:   n.Starred,
		CreatedAt: time.UnixMilli(n.CreatedAt).UTC(),
		UpdatedAt: time.UnixMilli(n.UpdatedAt).UTC(),
	}
}

func toNoteDTOs(list []models.Note) []NoteDTO {
	out := make([]NoteDTO, len(list))
	for i, n := range list {
		out[i] = toNoteDTO(n)
	}
	return out
}

// NoteListResponse wraps note listings.
type NoteListResponse struct {
	Notes []NoteDTO `json:"notes" validate:"required"`
	Total int       `json:"total" example:"42" validate:"required"`
}

// CreateNoteRequest is the request body for creating a note. Every field is
// optional. NewFolderName files the note under that folder, creating it when
// needed, and takes precedence over FolderID.
type CreateNoteRequest struct {
	Title         string       `json:"title" example:"Project plan"`
	Document      *delta.Delta `json:"document"`
	Tags          []string     `json:"tags" example:"work"`
	FolderID      string       `json:"folder_id"`
	NewFolderName string       `json:"new_folder_name" example:"Work"`
}

// UpdateNoteRequest is the request body for patching a note. Omitted fields
// are left unchanged; an empty folder_id moves the note to the Inbox.
type UpdateNoteRequest struct {
	Title    *string      `json:"title"`
	Document *delta.Delta `json:"document"`
	Tags     []string     `json:"tags"`
	FolderID *string      `json:"folder_id"`
	Starred  *bool        `json:"starred"`
}

// SuggestRequest asks for wiki-link suggestions at a cursor. Document, when
// set, takes precedence over Text.
type SuggestRequest struct {
	Text     string       `json:"text" example:"see [[Pro"`
	Document *delta.Delta `json:"document"`
	Cursor   int          `json:"cursor" example:"9"`
}

// BacklinksResponse lists the notes linking to a note.
type BacklinksResponse struct {
	Notes []NoteDTO `json:"notes" validate:"required"`
}

// FolderListResponse wraps folder listings.
type FolderListResponse struct {
	Folders []models.Folder `json:"folders" validate:"required"`
}

// CreateFolderRequest is the request body for creating a folder.
type CreateFolderRequest struct {
	Name string `json:"name" example:"Work" validate:"required"`
}

// FolderBlockedResponse is returned when a folder still holds notes.
type FolderBlockedResponse struct {
	Error   string `json:"error" validate:"required"`
	Blocked int    `json:"blocked" example:"3" validate:"required"`
}

// OpenSessionRequest is the request body for opening an editing session.
type OpenSessionRequest struct {
	NoteID string `json:"note_id" validate:"required"`
}

// SessionResponse describes an editing session.
type SessionResponse struct {
	ID string `json:"id" validate:"required"`
	editor.State
}

// SessionContentsRequest replaces a session's title, document and cursor.
// A missing cursor leaves the editor without focus.
type SessionContentsRequest struct {
	Title    *string     `json:"title"`
	Document delta.Delta `json:"document" validate:"required"`
	Cursor   *int        `json:"cursor"`
}

// SessionLinkRequest chooses a note from the open suggestion overlay.
type SessionLinkRequest struct {
	NoteID string `json:"note_id" validate:"required"`
}

// SessionLinkResponse reports whether a link was inserted.
type SessionLinkResponse struct {
	Linked bool `json:"linked"`
	SessionResponse
}
