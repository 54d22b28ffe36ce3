// Package models defines the domain types for smartnotes.
package models

import (
	"time"

	"github.com/starford/smartnotes/internal/delta"
)

// DefaultTitle is used whenever a note would otherwise have an empty title.
const DefaultTitle = "Untitled"

// Note is a single note in the index. Timestamps are epoch milliseconds.
type Note struct {
	ID        string      `json:"id"`
	Title     string      `json:"title"`
	Document  delta.Delta `json:"delta"`
	PlainText string      `json:"plainText"`
	Tags      []string    `json:"tags"`
	FolderID  string      `json:"folderId,omitempty"` // empty means Inbox
	Starred   bool        `json:"starred"`
	CreatedAt int64       `json:"createdAt"`
	UpdatedAt int64       `json:"updatedAt"`
}

// InInbox reports whether the note has no folder.
func (n Note) InInbox() bool {
	return n.FolderID == ""
}

// Updated returns UpdatedAt as a time.Time.
func (n Note) Updated() time.Time {
	return time.UnixMilli(n.UpdatedAt)
}

// Clone returns a deep copy of the note.
func (n Note) Clone() Note {
	c := n
	c.Document = n.Document.Clone()
	if n.Tags != nil {
		c.Tags = append([]string{}, n.Tags...)
	}
	return c
}

// Folder groups notes by name.
type Folder struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Index is the persisted aggregate: every note and every folder.
type Index struct {
	Notes   []Note   `json:"notes"`
	Folders []Folder `json:"folders"`
}

// NewIndex returns an empty index.
func NewIndex() *Index {
	return &Index{Notes: []Note{}, Folders: []Folder{}}
}

// NoteByID returns the position of the note with id, or -1.
func (idx *Index) NoteByID(id string) int {
	for i := range idx.Notes {
		if idx.Notes[i].ID == id {
			return i
		}
	}
	return -1
}

// FolderByName returns the position of the first folder named name, or -1.
func (idx *Index) FolderByName(name string) int {
	for i := range idx.Folders {
		if idx.Folders[i].Name == name {
			return i
		}
	}
	return -1
}
