package editor

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/starford/smartnotes/internal/apperr"
	"github.com/starford/smartnotes/internal/delta"
	"github.com/starford/smartnotes/internal/models"
	"github.com/starford/smartnotes/internal/notes"
	"github.com/starford/smartnotes/internal/testutil"
)

func newStore(t *testing.T) *notes.Store {
	return testutil.TestStore(t, nil)
}

func testOptions() Options {
	return Options{SaveDelay: time.Hour, Logger: testutil.Logger()}
}

func mustCreate(t *testing.T, s *notes.Store, title string) models.Note {
	t.Helper()
	n, err := s.CreateNote(context.Background(), notes.NoteInput{Title: title})
	if err != nil {
		t.Fatal(err)
	}
	return n
}

func TestOpen_MissingNote(t *testing.T) {
	_, err := Open(context.Background(), newStore(t), "nope", testOptions())
	if !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("err = %v", err)
	}
}

func TestSession_TypeSuggestChoose(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()
	mustCreate(t, store, "Alpha")
	mustCreate(t, store, "Beta")
	current := mustCreate(t, store, "Scratch")

	sess, err := Open(ctx, store, current.ID, testOptions())
	if err != nil {
		t.Fatal(err)
	}
	sess.Type("Link to [[Al")

	sug := sess.Suggestion()
	if !sug.Open || len(sug.Items) != 1 || sug.Items[0].Title != "Alpha" {
		t.Fatalf("suggestion = %+v", sug)
	}

	ok, err := sess.ChooseLink(ctx, sug.Items[0].ID)
	if err != nil || !ok {
		t.Fatalf("choose = %v, %v", ok, err)
	}
	st := sess.State()
	if st.Document.PlainText() != "Link to Alpha " {
		t.Errorf("text = %q", st.Document.PlainText())
	}
	if st.Suggestion.Open {
		t.Error("overlay should close after choosing")
	}
	if st.Cursor == nil || *st.Cursor != 14 {
		t.Errorf("cursor = %v", st.Cursor)
	}
	if !st.Dirty {
		t.Error("expected pending save")
	}

	// Nothing is written until the save fires.
	if n, _ := store.GetNote(ctx, current.ID); n.PlainText != "" {
		t.Errorf("saved too early: %q", n.PlainText)
	}
	if err := sess.Flush(); err != nil {
		t.Fatal(err)
	}
	n, _ := store.GetNote(ctx, current.ID)
	if n.PlainText != "Link to Alpha " {
		t.Errorf("saved text = %q", n.PlainText)
	}
	if links := n.Document.Links(); len(links) != 1 || links[0] != "/note/"+sug.Items[0].ID {
		t.Errorf("saved links = %v", links)
	}
}

func TestSession_ChooseWithoutTrigger(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()
	target := mustCreate(t, store, "Alpha")
	current := mustCreate(t, store, "Scratch")

	sess, _ := Open(ctx, store, current.ID, testOptions())
	sess.Type("plain")
	ok, err := sess.ChooseLink(ctx, target.ID)
	if err != nil || ok {
		t.Errorf("choose = %v, %v", ok, err)
	}
	if _, err := sess.ChooseLink(ctx, "missing"); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("missing target err = %v", err)
	}
}

func TestSession_BlurClosesOverlay(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()
	mustCreate(t, store, "Alpha")
	current := mustCreate(t, store, "Scratch")

	sess, _ := Open(ctx, store, current.ID, testOptions())
	sess.SetContents(delta.FromText("see [["), 6)
	if !sess.Suggestion().Open {
		t.Fatal("overlay should be open")
	}
	sess.Blur()
	if sess.Suggestion().Open {
		t.Error("overlay should close on blur")
	}
	sess.Select(6)
	if !sess.Suggestion().Open {
		t.Error("overlay should reopen on focus")
	}
}

func TestSession_SaveNormalizesTitle(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()
	n := mustCreate(t, store, "Draft")

	sess, _ := Open(ctx, store, n.ID, testOptions())
	sess.SetTitle("   ")
	if err := sess.Close(); err != nil {
		t.Fatal(err)
	}
	got, _ := store.GetNote(ctx, n.ID)
	if got.Title != "Untitled" {
		t.Errorf("title = %q", got.Title)
	}

	sess, _ = Open(ctx, store, n.ID, testOptions())
	sess.SetTitle("  Plan  ")
	sess.Flush()
	got, _ = store.GetNote(ctx, n.ID)
	if got.Title != "Plan" {
		t.Errorf("title = %q", got.Title)
	}
}

func TestSession_DebouncedSave(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()
	n := mustCreate(t, store, "Draft")

	opts := testOptions()
	opts.SaveDelay = 20 * time.Millisecond
	sess, _ := Open(ctx, store, n.ID, opts)
	sess.Type("a")
	sess.Type("b")

	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		if got, _ := store.GetNote(ctx, n.ID); got.PlainText == "ab" {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Error("debounced save never landed")
}

func TestSession_NoteDeletedWhileEditing(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()
	n := mustCreate(t, store, "Draft")

	sess, _ := Open(ctx, store, n.ID, testOptions())
	sess.Type("x")
	if err := store.DeleteNote(ctx, n.ID); err != nil {
		t.Fatal(err)
	}
	if err := sess.Flush(); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("flush err = %v", err)
	}
	if len(store.ListNotes(ctx)) != 0 {
		t.Error("save resurrected a deleted note")
	}
}

func TestManager(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()
	n := mustCreate(t, store, "Draft")
	m := NewManager(store, testOptions())

	id, sess, err := m.Open(ctx, n.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got, ok := m.Get(id); !ok || got != sess {
		t.Fatal("session not registered")
	}
	if _, _, err := m.Open(ctx, "missing"); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("open missing = %v", err)
	}

	sess.Type("pending")
	if err := m.CloseAll(); err != nil {
		t.Fatal(err)
	}
	if m.Len() != 0 {
		t.Errorf("sessions left: %d", m.Len())
	}
	if got, _ := store.GetNote(ctx, n.ID); got.PlainText != "pending" {
		t.Errorf("CloseAll did not flush: %q", got.PlainText)
	}
	if err := m.Close(id); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("closing twice = %v", err)
	}
}

type slowStore struct {
	*notes.Store
	started chan struct{}
	once    sync.Once
}

func (s *slowStore) UpdateNote(ctx context.Context, id string, p notes.Patch) (bool, error) {
	s.once.Do(func() { close(s.started) })
	time.Sleep(100 * time.Millisecond)
	return s.Store.UpdateNote(ctx, id, p)
}

func TestSession_CloseWaitsForSaveInFlight(t *testing.T) {
	base := newStore(t)
	ctx := context.Background()
	n := mustCreate(t, base, "Draft")
	store := &slowStore{Store: base, started: make(chan struct{})}

	opts := testOptions()
	opts.SaveDelay = 5 * time.Millisecond
	sess, err := Open(ctx, store, n.ID, opts)
	if err != nil {
		t.Fatal(err)
	}
	sess.Type("last edit")

	select {
	case <-store.started:
	case <-time.After(time.Second):
		t.Fatal("save never started")
	}
	if err := sess.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	if got, _ := base.GetNote(ctx, n.ID); got.PlainText != "last edit" {
		t.Errorf("plain text after close = %q, want the in-flight save", got.PlainText)
	}
}
