package wikilink

import (
	"unicode/utf8"

	"github.com/starford/smartnotes/internal/delta"
	"github.com/starford/smartnotes/internal/models"
)

// Editor is the live document the resolver reads and rewrites. Indices are
// document positions.
type Editor interface {
	// Selection returns the cursor, or false when the editor has no focus.
	Selection() (int, bool)
	Text(index, length int) string
	DeleteText(index, length int)
	InsertText(index int, text string, attrs delta.Attributes)
	SetSelection(index int)
	Position(index int) delta.Position
}

// Suggestion is the state of the autocomplete overlay.
type Suggestion struct {
	Open   bool           `json:"open"`
	Query  string         `json:"query"`
	Items  []Candidate    `json:"items"`
	Anchor delta.Position `json:"anchor"`
}

// Resolver turns a typed trigger into a link to another note.
type Resolver struct {
	lookback int
	max      int
}

// NewResolver returns a resolver scanning lookback positions before the
// cursor and offering at most max candidates. Non-positive values select the
// defaults.
func NewResolver(lookback, max int) *Resolver {
	if lookback <= 0 {
		lookback = DefaultLookback
	}
	if max <= 0 {
		max = DefaultMaxSuggestions
	}
	return &Resolver{lookback: lookback, max: max}
}

// trigger locates the open trigger before the cursor. from is the document
// index of the trigger.
func (r *Resolver) trigger(ed Editor) (query string, from, cursor int, ok bool) {
	cursor, ok = ed.Selection()
	if !ok {
		return "", 0, 0, false
	}
	start := max(0, cursor-r.lookback)
	query, offset, ok := Scan(ed.Text(start, cursor-start))
	if !ok {
		return "", 0, 0, false
	}
	return query, start + offset, cursor, true
}

// Suggest computes the overlay for the current editor state. notes is the
// full note list; currentID is the note being edited.
func (r *Resolver) Suggest(ed Editor, notes []models.Note, currentID string) Suggestion {
	query, _, cursor, ok := r.trigger(ed)
	if !ok {
		return Suggestion{Items: []Candidate{}}
	}
	anchor := ed.Position(cursor)
	anchor.Line++ // overlay sits on the line below the cursor
	return Suggestion{
		Open:   true,
		Query:  query,
		Items:  Candidates(notes, currentID, query, r.max),
		Anchor: anchor,
	}
}

// Choose replaces the trigger and query with a link to target followed by a
// space, leaving the cursor after the space. It does nothing and returns
// false when the editor has no cursor or no open trigger.
func (r *Resolver) Choose(ed Editor, target models.Note) bool {
	_, from, cursor, ok := r.trigger(ed)
	if !ok {
		return false
	}
	ed.DeleteText(from, cursor-from)
	ed.InsertText(from, target.Title, attrsFor(target))
	end := from + utf8.RuneCountInString(target.Title)
	ed.InsertText(end, " ", nil)
	ed.SetSelection(end + 1)
	return true
}
