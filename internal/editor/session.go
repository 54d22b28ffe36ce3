// Package editor holds live editing sessions: the document being edited,
// its cursor, the wiki-link overlay and the debounced save back to the
// note store.
package editor

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/starford/smartnotes/internal/apperr"
	"github.com/starford/smartnotes/internal/delta"
	"github.com/starford/smartnotes/internal/models"
	"github.com/starford/smartnotes/internal/notes"
	"github.com/starford/smartnotes/internal/wikilink"
)

// DefaultSaveDelay is how long a session waits after the last change before
// saving.
const DefaultSaveDelay = 600 * time.Millisecond

// Store is the part of the note store a session needs.
type Store interface {
	GetNote(ctx context.Context, id string) (models.Note, bool)
	ListNotes(ctx context.Context) []models.Note
	UpdateNote(ctx context.Context, id string, p notes.Patch) (bool, error)
}

// Options configures a session.
type Options struct {
	SaveDelay      time.Duration
	LinkLookback   int
	MaxSuggestions int
	Logger         *slog.Logger
}

// State is a snapshot of a session.
type State struct {
	NoteID     string              `json:"note_id"`
	Title      string              `json:"title"`
	Document   delta.Delta         `json:"document"`
	Cursor     *int                `json:"cursor"`
	Suggestion wikilink.Suggestion `json:"suggestion"`
	Dirty      bool                `json:"dirty"`
}

// Session edits one note.
type Session struct {
	store    Store
	noteID   string
	resolver *wikilink.Resolver
	saver    *Debouncer
	logger   *slog.Logger
	ctx      context.Context

	mu         sync.Mutex
	title      string
	buf        *delta.Buffer
	suggestion wikilink.Suggestion
	saveErr    error
}

// Open starts a session on the note with the given id. It returns
// apperr.ErrNotFound when the note does not exist.
func Open(ctx context.Context, store Store, id string, opts Options) (*Session, error) {
	n, ok := store.GetNote(ctx, id)
	if !ok {
		return nil, apperr.ErrNotFound
	}
	if opts.SaveDelay <= 0 {
		opts.SaveDelay = DefaultSaveDelay
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &Session{
		store:      store,
		noteID:     id,
		resolver:   wikilink.NewResolver(opts.LinkLookback, opts.MaxSuggestions),
		saver:      NewDebouncer(opts.SaveDelay),
		logger:     opts.Logger.With(slog.String("note", id)),
		ctx:        context.WithoutCancel(ctx),
		title:      n.Title,
		buf:        delta.NewBuffer(n.Document),
		suggestion: wikilink.Suggestion{Items: []wikilink.Candidate{}},
	}, nil
}

// NoteID returns the id of the note being edited.
func (s *Session) NoteID() string { return s.noteID }

// State returns a snapshot of the session.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()

	st := State{
		NoteID:     s.noteID,
		Title:      s.title,
		Document:   s.buf.Contents(),
		Suggestion: s.suggestion,
		Dirty:      s.saver.Pending(),
	}
	if c, ok := s.buf.Selection(); ok {
		st.Cursor = &c
	}
	return st
}

// Suggestion returns the current wiki-link overlay.
func (s *Session) Suggestion() wikilink.Suggestion {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.suggestion
}

// SetTitle changes the title and schedules a save.
func (s *Session) SetTitle(title string) {
	s.mu.Lock()
	s.title = title
	s.mu.Unlock()
	s.scheduleSave()
}

// SetContents replaces the document. A negative cursor leaves the editor
// without focus.
func (s *Session) SetContents(doc delta.Delta, cursor int) {
	s.mu.Lock()
	s.buf.SetContents(doc)
	if cursor >= 0 {
		s.buf.SetSelection(cursor)
	} else {
		s.buf.Blur()
	}
	s.refresh()
	s.mu.Unlock()
	s.scheduleSave()
}

// Type inserts unformatted text at the cursor, or at the end of the document
// when the editor has no focus, and leaves the cursor after it.
func (s *Session) Type(text string) {
	s.mu.Lock()
	at, ok := s.buf.Selection()
	if !ok {
		at = s.buf.Length()
		s.buf.SetSelection(at)
	}
	s.buf.InsertText(at, text, nil)
	s.refresh()
	s.mu.Unlock()
	s.scheduleSave()
}

// Select moves the cursor.
func (s *Session) Select(index int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.buf.SetSelection(index)
	s.refresh()
}

// Blur removes focus, closing the overlay.
func (s *Session) Blur() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.buf.Blur()
	s.refresh()
}

// ChooseLink replaces the open trigger with a link to the note targetID.
// It reports false when no trigger is open.
func (s *Session) ChooseLink(ctx context.Context, targetID string) (bool, error) {
	target, ok := s.store.GetNote(ctx, targetID)
	if !ok {
		return false, apperr.ErrNotFound
	}

	s.mu.Lock()
	chosen := s.resolver.Choose(s.buf, target)
	if chosen {
		s.refresh()
	}
	s.mu.Unlock()

	if chosen {
		s.scheduleSave()
	}
	return chosen, nil
}

// refresh recomputes the overlay. Must be called with mu held.
func (s *Session) refresh() {
	s.suggestion = s.resolver.Suggest(s.buf, s.store.ListNotes(s.ctx), s.noteID)
}

func (s *Session) scheduleSave() {
	s.saver.Trigger(s.save)
}

func (s *Session) save() {
	s.mu.Lock()
	title := strings.TrimSpace(s.title)
	if title == "" {
		title = models.DefaultTitle
	}
	doc := s.buf.Contents()
	s.mu.Unlock()

	ok, err := s.store.UpdateNote(s.ctx, s.noteID, notes.Patch{Title: &title, Document: &doc})
	switch {
	case err != nil:
		s.logger.Error("save note failed", slog.String("error", err.Error()))
	case !ok:
		err = apperr.ErrNotFound
		s.logger.Warn("note removed while editing")
	default:
		s.logger.Debug("note saved")
	}

	s.mu.Lock()
	s.saveErr = err
	s.mu.Unlock()
}

// Flush saves pending changes now and returns the result of the most recent
// save.
func (s *Session) Flush() error {
	s.saver.Flush()
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.saveErr
}

// Close flushes pending changes and stops the session.
func (s *Session) Close() error {
	err := s.Flush()
	s.saver.Stop()
	if errors.Is(err, apperr.ErrNotFound) {
		return nil
	}
	return err
}
