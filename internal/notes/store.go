// Package notes is the note index store: every note and folder lives in one
// JSON document under a single storage key. Each mutation reads the whole
// index, changes it in memory, writes it back and announces the change.
package notes

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/starford/smartnotes/internal/apperr"
	"github.com/starford/smartnotes/internal/checksum"
	"github.com/starford/smartnotes/internal/delta"
	"github.com/starford/smartnotes/internal/models"
	"github.com/starford/smartnotes/internal/storage"
)

// DefaultKey is the storage key holding the index.
const DefaultKey = "smart-notes.index.v1"

const maxIDAttempts = 16

// Notifier is told after every successful write.
type Notifier interface {
	NotifyChanged()
}

// NoteInput describes a new note. Zero values select the defaults.
type NoteInput struct {
	Title     string
	Document  *delta.Delta
	PlainText *string
	Tags      []string
	FolderID  string
	Starred   bool
}

// Patch lists the fields to change on a note. Nil fields are left alone.
type Patch struct {
	Title     *string
	Document  *delta.Delta
	PlainText *string
	Tags      []string
	FolderID  *string
	Starred   *bool
}

// FolderDeletion is the outcome of DeleteFolder. Blocked is the number of
// notes still filed under the folder when the deletion was refused.
type FolderDeletion struct {
	OK      bool `json:"ok"`
	Blocked int  `json:"blocked,omitempty"`
}

// Store implements the note index operations.
type Store struct {
	provider storage.Provider
	notifier Notifier
	logger   *slog.Logger

	key   string
	now   func() time.Time
	newID func() string

	mu      sync.Mutex
	lastSum string
}

// Option configures a Store.
type Option func(*Store)

// WithKey overrides the storage key.
func WithKey(key string) Option {
	return func(s *Store) {
		if key != "" {
			s.key = key
		}
	}
}

// WithClock overrides the time source used for timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// WithIDGenerator overrides how note and folder ids are minted.
func WithIDGenerator(fn func() string) Option {
	return func(s *Store) { s.newID = fn }
}

// NewStore creates a store over provider. notifier may be nil.
func NewStore(provider storage.Provider, notifier Notifier, logger *slog.Logger, opts ...Option) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Store{
		provider: provider,
		notifier: notifier,
		logger:   logger,
		key:      DefaultKey,
		now:      time.Now,
		newID:    uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Key returns the storage key holding the index.
func (s *Store) Key() string { return s.key }

// load reads the index. Missing, unreadable or corrupt data yields an empty
// index; the failure is logged and never returned.
func (s *Store) load(ctx context.Context) *models.Index {
	data, err := s.provider.Get(ctx, s.key)
	if err != nil {
		if !errors.Is(err, storage.ErrNotFound) {
			s.logger.Warn("read index failed", slog.String("key", s.key), slog.String("error", err.Error()))
		}
		return models.NewIndex()
	}
	return s.decode(data)
}

func (s *Store) decode(data []byte) *models.Index {
	idx := &models.Index{}
	if err := json.Unmarshal(data, idx); err != nil {
		s.logger.Warn("corrupt index, starting empty", slog.String("key", s.key), slog.String("error", err.Error()))
		return models.NewIndex()
	}
	if idx.Notes == nil {
		idx.Notes = []models.Note{}
	}
	if idx.Folders == nil {
		idx.Folders = []models.Folder{}
	}
	return idx
}

// save writes the whole index and notifies observers.
func (s *Store) save(ctx context.Context, idx *models.Index) error {
	data, err := json.Marshal(idx)
	if err != nil {
		return fmt.Errorf("notes: encode index: %w", err)
	}
	if err := s.provider.Set(ctx, s.key, data); err != nil {
		return fmt.Errorf("notes: write index: %w", err)
	}
	s.lastSum = checksum.Sum(data)
	if s.notifier != nil {
		s.notifier.NotifyChanged()
	}
	return nil
}

func (s *Store) stamp() int64 {
	return s.now().UnixMilli()
}

func (s *Store) uniqueID(taken func(string) bool) (string, error) {
	for range maxIDAttempts {
		id := s.newID()
		if id != "" && !taken(id) {
			return id, nil
		}
	}
	return "", fmt.Errorf("notes: could not allocate a unique id")
}

func normalizeTitle(title string) string {
	if strings.TrimSpace(title) == "" {
		return models.DefaultTitle
	}
	return title
}

// CreateNote adds a note at the front of the index.
func (s *Store) CreateNote(ctx context.Context, in NoteInput) (models.Note, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.load(ctx)
	id, err := s.uniqueID(func(id string) bool { return idx.NoteByID(id) >= 0 })
	if err != nil {
		return models.Note{}, err
	}

	doc := delta.New()
	if in.Document != nil {
		doc = in.Document.Clone()
		if doc.Ops == nil {
			doc.Ops = []delta.Op{}
		}
	}
	plain := doc.PlainText()
	if in.PlainText != nil {
		plain = *in.PlainText
	}
	tags := []string{}
	if in.Tags != nil {
		tags = append(tags, in.Tags...)
	}

	ts := s.stamp()
	n := models.Note{
		ID:        id,
		Title:     normalizeTitle(in.Title),
		Document:  doc,
		PlainText: plain,
		Tags:      tags,
		FolderID:  in.FolderID,
		Starred:   in.Starred,
		CreatedAt: ts,
		UpdatedAt: ts,
	}
	idx.Notes = append([]models.Note{n}, idx.Notes...)
	if err := s.save(ctx, idx); err != nil {
		return models.Note{}, err
	}
	return n.Clone(), nil
}

// UpdateNote applies p to the note with the given id and stamps UpdatedAt.
// It reports false, without writing, when no such note exists.
func (s *Store) UpdateNote(ctx context.Context, id string, p Patch) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.update(ctx, id, func(n *models.Note) { p.apply(n) })
}

func (s *Store) update(ctx context.Context, id string, fn func(*models.Note)) (bool, error) {
	idx := s.load(ctx)
	i := idx.NoteByID(id)
	if i < 0 {
		return false, nil
	}
	n := &idx.Notes[i]
	fn(n)
	n.UpdatedAt = s.stamp()
	if err := s.save(ctx, idx); err != nil {
		return false, err
	}
	return true, nil
}

func (p Patch) apply(n *models.Note) {
	if p.Title != nil {
		n.Title = normalizeTitle(*p.Title)
	}
	if p.Document != nil {
		n.Document = p.Document.Clone()
		if n.Document.Ops == nil {
			n.Document.Ops = []delta.Op{}
		}
		n.PlainText = n.Document.PlainText()
	}
	if p.PlainText != nil {
		n.PlainText = *p.PlainText
	}
	if p.Tags != nil {
		n.Tags = append([]string{}, p.Tags...)
	}
	if p.FolderID != nil {
		n.FolderID = *p.FolderID
	}
	if p.Starred != nil {
		n.Starred = *p.Starred
	}
}

// ToggleStar flips the starred flag. It reports false when the note does not
// exist.
func (s *Store) ToggleStar(ctx context.Context, id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.update(ctx, id, func(n *models.Note) { n.Starred = !n.Starred })
}

// DeleteNote removes the note with the given id. Deleting an unknown id is
// not an error.
func (s *Store) DeleteNote(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.load(ctx)
	kept := idx.Notes[:0]
	for _, n := range idx.Notes {
		if n.ID != id {
			kept = append(kept, n)
		}
	}
	if len(kept) == len(idx.Notes) {
		return nil
	}
	idx.Notes = kept
	return s.save(ctx, idx)
}

// GetNote returns a copy of the note with the given id.
func (s *Store) GetNote(ctx context.Context, id string) (models.Note, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.load(ctx)
	if i := idx.NoteByID(id); i >= 0 {
		return idx.Notes[i], true
	}
	return models.Note{}, false
}

// ListNotes returns every note in storage order.
func (s *Store) ListNotes(ctx context.Context) []models.Note {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.load(ctx).Notes
}

// ListFolders returns every folder in storage order.
func (s *Store) ListFolders(ctx context.Context) []models.Folder {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.load(ctx).Folders
}

// Snapshot returns the whole index.
func (s *Store) Snapshot(ctx context.Context) models.Index {
	s.mu.Lock()
	defer s.mu.Unlock()

	return *s.load(ctx)
}

// UpsertFolder returns the folder named name, creating it when missing.
// Names are trimmed and compared case-sensitively.
func (s *Store) UpsertFolder(ctx context.Context, name string) (models.Folder, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return models.Folder{}, fmt.Errorf("%w: folder name is required", apperr.ErrInvalidInput)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.load(ctx)
	if i := idx.FolderByName(name); i >= 0 {
		return idx.Folders[i], nil
	}
	id, err := s.uniqueID(func(id string) bool {
		for _, f := range idx.Folders {
			if f.ID == id {
				return true
			}
		}
		return false
	})
	if err != nil {
		return models.Folder{}, err
	}
	f := models.Folder{ID: id, Name: name}
	idx.Folders = append(idx.Folders, f)
	if err := s.save(ctx, idx); err != nil {
		return models.Folder{}, err
	}
	return f, nil
}

// DeleteFolder removes a folder. While notes are filed under it the deletion
// is refused unless force is set; forced deletion moves those notes to the
// Inbox.
func (s *Store) DeleteFolder(ctx context.Context, id string, force bool) (FolderDeletion, error) {
	// The empty id is the Inbox, which is not a folder.
	if id == "" {
		return FolderDeletion{OK: true}, nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.load(ctx)
	count := 0
	for _, n := range idx.Notes {
		if n.FolderID == id {
			count++
		}
	}
	if count > 0 && !force {
		return FolderDeletion{OK: false, Blocked: count}, nil
	}

	folders := idx.Folders[:0]
	for _, f := range idx.Folders {
		if f.ID != id {
			folders = append(folders, f)
		}
	}
	if len(folders) == len(idx.Folders) && count == 0 {
		return FolderDeletion{OK: true}, nil
	}
	idx.Folders = folders
	for i := range idx.Notes {
		if idx.Notes[i].FolderID == id {
			idx.Notes[i].FolderID = ""
		}
	}
	if err := s.save(ctx, idx); err != nil {
		return FolderDeletion{}, err
	}
	return FolderDeletion{OK: true}, nil
}

// HandleExternalChange is called when the stored index may have been
// rewritten by another process. Observers are notified unless the stored
// bytes are the ones this store last wrote.
func (s *Store) HandleExternalChange(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := s.provider.Get(ctx, s.key)
	if err != nil && !errors.Is(err, storage.ErrNotFound) {
		s.logger.Warn("read index failed", slog.String("key", s.key), slog.String("error", err.Error()))
		return
	}
	sum := ""
	if err == nil {
		sum = checksum.Sum(data)
	}
	if sum == s.lastSum {
		return
	}
	s.lastSum = sum
	s.logger.Info("index changed externally", slog.String("key", s.key))
	if s.notifier != nil {
		s.notifier.NotifyChanged()
	}
}
