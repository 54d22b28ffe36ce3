package wikilink

import (
	"reflect"
	"strings"
	"testing"

	"github.com/starford/smartnotes/internal/delta"
	"github.com/starford/smartnotes/internal/models"
)

func TestScan(t *testing.T) {
	cases := []struct {
		before string
		query  string
		offset int
		ok     bool
	}{
		{"...see [[Proj", "Proj", 7, true},
		{"[[", "", 0, true},
		{"a [[first]] then [[ sec ", "sec", 17, true},
		{"no trigger here", "", 0, false},
		{"single [ bracket", "", 0, false},
		{"héé [[Ü", "Ü", 4, true},
	}
	for _, c := range cases {
		q, off, ok := Scan(c.before)
		if q != c.query || off != c.offset || ok != c.ok {
			t.Errorf("Scan(%q) = (%q, %d, %v), want (%q, %d, %v)", c.before, q, off, ok, c.query, c.offset, c.ok)
		}
	}
}

func notesFixture() []models.Note {
	return []models.Note{
		{ID: "1", Title: "Alpha"},
		{ID: "2", Title: "Beta"},
		{ID: "3", Title: "alphabet soup"},
		{ID: "4", Title: "Gamma"},
	}
}

func TestCandidates_SubstringCaseInsensitive(t *testing.T) {
	got := Candidates(notesFixture(), "", "ALPH", 8)
	want := []Candidate{{ID: "1", Title: "Alpha"}, {ID: "3", Title: "alphabet soup"}}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Candidates = %+v", got)
	}
}

func TestCandidates_ExcludesCurrentAndLimits(t *testing.T) {
	got := Candidates(notesFixture(), "1", "", 2)
	want := []Candidate{{ID: "2", Title: "Beta"}, {ID: "3", Title: "alphabet soup"}}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Candidates = %+v", got)
	}
	if got := Candidates(notesFixture(), "", "zzz", 8); len(got) != 0 {
		t.Errorf("expected no candidates, got %+v", got)
	}
}

func TestLinkTargetRoundTrip(t *testing.T) {
	href := LinkTarget("abc-123")
	if href != "/note/abc-123" {
		t.Errorf("LinkTarget = %q", href)
	}
	id, ok := ParseLinkTarget(href)
	if !ok || id != "abc-123" {
		t.Errorf("ParseLinkTarget = %q, %v", id, ok)
	}
	for _, bad := range []string{"https://example.com", "/note/", "/note/a/b", "note/x"} {
		if _, ok := ParseLinkTarget(bad); ok {
			t.Errorf("ParseLinkTarget(%q) should fail", bad)
		}
	}
}

func TestExtractTitles(t *testing.T) {
	got := ExtractTitles("See [[Note A]] and [[Note B|alias]].\nAlso [[ Note A ]] again, [[ ]] and [[|x]].")
	if !reflect.DeepEqual(got, []string{"Note A", "Note B"}) {
		t.Errorf("ExtractTitles = %v", got)
	}
}

func TestLinksTo(t *testing.T) {
	target := models.Note{ID: "t", Title: "Target"}
	viaAttr := models.Note{ID: "a", Document: delta.Delta{Ops: []delta.Op{
		{Insert: "Target", Attributes: delta.Attributes{delta.LinkAttribute: "/note/t"}},
	}}}
	viaTitle := models.Note{ID: "b", PlainText: "mentions [[target]] loosely"}
	unrelated := models.Note{ID: "c", PlainText: "Target without brackets"}

	if !LinksTo(viaAttr, target) {
		t.Error("link attribute not detected")
	}
	if !LinksTo(viaTitle, target) {
		t.Error("[[Title]] reference not detected")
	}
	if LinksTo(unrelated, target) {
		t.Error("plain mention should not count")
	}
	if LinksTo(target, target) {
		t.Error("a note does not link to itself")
	}
}

func TestSuggest_NoSelection(t *testing.T) {
	b := delta.NewBuffer(delta.FromText("[[Al"))
	s := NewResolver(0, 0).Suggest(b, notesFixture(), "")
	if s.Open {
		t.Error("overlay should stay closed without a cursor")
	}
}

func TestSuggest_TriggerOutsideWindow(t *testing.T) {
	text := "[[Al" + strings.Repeat("x", 60)
	b := delta.NewBuffer(delta.FromText(text))
	b.SetSelection(len(text))
	if s := NewResolver(50, 8).Suggest(b, notesFixture(), ""); s.Open {
		t.Errorf("trigger beyond lookback should not open overlay: %+v", s)
	}
}

func TestSuggest_LookbackBoundary(t *testing.T) {
	tests := []struct {
		name     string
		text     string
		wantOpen bool
	}{
		// Trigger starts exactly lookback positions before the cursor.
		{"at edge", "xx[[Al" + strings.Repeat(" ", 46), true},
		// One position further back only its second bracket is in the window.
		{"one past edge", "x[[Al" + strings.Repeat(" ", 47), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := delta.NewBuffer(delta.FromText(tt.text))
			b.SetSelection(b.Length())
			s := NewResolver(50, 8).Suggest(b, notesFixture(), "")
			if s.Open != tt.wantOpen {
				t.Fatalf("open = %v, want %v (%+v)", s.Open, tt.wantOpen, s)
			}
			if tt.wantOpen && s.Query != "Al" {
				t.Errorf("query = %q", s.Query)
			}
		})
	}
}

func TestSuggest_IgnoresTextAfterCursor(t *testing.T) {
	b := delta.NewBuffer(delta.FromText("short [[Al"))
	b.SetSelection(3)
	if s := NewResolver(50, 8).Suggest(b, notesFixture(), ""); s.Open {
		t.Errorf("trigger after cursor must not be seen: %+v", s)
	}
}

func TestSuggest_AnchorBelowCursor(t *testing.T) {
	b := delta.NewBuffer(delta.FromText("line one\nsee [[Gam"))
	b.SetSelection(b.Length())
	s := NewResolver(50, 8).Suggest(b, notesFixture(), "")
	if !s.Open || s.Query != "Gam" {
		t.Fatalf("suggestion = %+v", s)
	}
	if s.Anchor != (delta.Position{Line: 2, Column: 9}) {
		t.Errorf("anchor = %+v", s.Anchor)
	}
	if len(s.Items) != 1 || s.Items[0].Title != "Gamma" {
		t.Errorf("items = %+v", s.Items)
	}
}

func TestChoose_NoTriggerIsNoop(t *testing.T) {
	b := delta.NewBuffer(delta.FromText("nothing to see"))
	b.SetSelection(b.Length())
	if NewResolver(0, 0).Choose(b, models.Note{ID: "1", Title: "Alpha"}) {
		t.Error("Choose should report false without a trigger")
	}
	if b.Contents().PlainText() != "nothing to see" {
		t.Errorf("document changed: %q", b.Contents().PlainText())
	}
}

func TestChoose_AcrossFormattedText(t *testing.T) {
	b := delta.NewBuffer(delta.Delta{Ops: []delta.Op{
		{Insert: "bold ", Attributes: delta.Attributes{"bold": true}},
		{Insert: "[[Ga"},
		{Insert: "\n"},
	}})
	b.SetSelection(9)
	if !NewResolver(0, 0).Choose(b, models.Note{ID: "4", Title: "Gamma"}) {
		t.Fatal("Choose returned false")
	}
	want := []delta.Op{
		{Insert: "bold ", Attributes: delta.Attributes{"bold": true}},
		{Insert: "Gamma", Attributes: delta.Attributes{delta.LinkAttribute: "/note/4"}},
		{Insert: " \n"},
	}
	if got := b.Contents().Ops; !reflect.DeepEqual(got, want) {
		t.Errorf("ops = %#v", got)
	}
	if idx, _ := b.Selection(); idx != 11 {
		t.Errorf("cursor = %d, want 11", idx)
	}
}

func TestEndToEnd_AlphaBeta(t *testing.T) {
	notes := []models.Note{
		{ID: "beta", Title: "Beta"},
		{ID: "alpha", Title: "Alpha"},
	}
	b := delta.NewBuffer(delta.FromText("Link to [[Al"))
	b.SetSelection(b.Length())

	r := NewResolver(0, 0)
	s := r.Suggest(b, notes, "beta")
	if !s.Open || len(s.Items) != 1 || s.Items[0].ID != "alpha" {
		t.Fatalf("suggestion = %+v", s)
	}

	if !r.Choose(b, notes[1]) {
		t.Fatal("Choose returned false")
	}
	doc := b.Contents()
	if doc.PlainText() != "Link to Alpha " {
		t.Errorf("text = %q", doc.PlainText())
	}
	if links := doc.Links(); len(links) != 1 || links[0] != "/note/alpha" {
		t.Errorf("links = %v", links)
	}
	if s := r.Suggest(b, notes, "beta"); s.Open {
		t.Error("overlay should close once the trigger is consumed")
	}
}
