package delta

import (
	"reflect"
	"testing"
)

func TestBuffer_InsertSplitsAndMerges(t *testing.T) {
	b := NewBuffer(FromText("Hello world\n"))
	b.InsertText(6, "big ", nil)
	want := []Op{{Insert: "Hello big world\n"}}
	if got := b.Contents().Ops; !reflect.DeepEqual(got, want) {
		t.Errorf("ops = %#v", got)
	}

	b.InsertText(6, "very ", Attributes{"bold": true})
	want = []Op{
		{Insert: "Hello "},
		{Insert: "very ", Attributes: Attributes{"bold": true}},
		{Insert: "big world\n"},
	}
	if got := b.Contents().Ops; !reflect.DeepEqual(got, want) {
		t.Errorf("ops = %#v", got)
	}
}

func TestBuffer_InsertAtEndAndAfterEmbed(t *testing.T) {
	b := NewBuffer(Delta{Ops: []Op{{Insert: "a"}, {Insert: map[string]any{"image": "x"}}}})
	b.InsertText(2, "z", nil)
	b.InsertText(99, "!", nil)
	if got := b.Text(0, b.Length()); got != "a"+string(EmbedRune)+"z!" {
		t.Errorf("text = %q", got)
	}
	if n := len(b.Contents().Ops); n != 3 {
		t.Errorf("ops = %d, want 3", n)
	}
}

func TestBuffer_DeleteAcrossOps(t *testing.T) {
	b := NewBuffer(Delta{Ops: []Op{
		{Insert: "abc"},
		{Insert: "def", Attributes: Attributes{"italic": true}},
		{Insert: "ghi"},
	}})
	b.DeleteText(2, 5)
	want := []Op{{Insert: "abhi"}}
	if got := b.Contents().Ops; !reflect.DeepEqual(got, want) {
		t.Errorf("ops = %#v", got)
	}
}

func TestBuffer_CursorTracksEdits(t *testing.T) {
	b := NewBuffer(FromText("0123456789"))
	if _, ok := b.Selection(); ok {
		t.Fatal("new buffer should be unfocused")
	}
	b.SetSelection(5)

	b.InsertText(2, "xx", nil)
	if idx, _ := b.Selection(); idx != 7 {
		t.Errorf("after insert before cursor: %d, want 7", idx)
	}
	b.InsertText(9, "yy", nil)
	if idx, _ := b.Selection(); idx != 7 {
		t.Errorf("after insert past cursor: %d, want 7", idx)
	}
	b.DeleteText(0, 3)
	if idx, _ := b.Selection(); idx != 4 {
		t.Errorf("after delete before cursor: %d, want 4", idx)
	}
	b.DeleteText(2, 10)
	if idx, _ := b.Selection(); idx != 2 {
		t.Errorf("after delete spanning cursor: %d, want 2", idx)
	}

	b.Blur()
	if _, ok := b.Selection(); ok {
		t.Error("blurred buffer should have no selection")
	}
}

func TestBuffer_SetSelectionClamps(t *testing.T) {
	b := NewBuffer(FromText("abc"))
	b.SetSelection(42)
	if idx, ok := b.Selection(); !ok || idx != 3 {
		t.Errorf("selection = %d,%v", idx, ok)
	}
	b.SetSelection(-1)
	if idx, _ := b.Selection(); idx != 0 {
		t.Errorf("selection = %d, want 0", idx)
	}
}

func TestBuffer_Position(t *testing.T) {
	b := NewBuffer(FromText("one\ntwo\nthree"))
	cases := map[int]Position{
		0:  {Line: 0, Column: 0},
		3:  {Line: 0, Column: 3},
		4:  {Line: 1, Column: 0},
		10: {Line: 2, Column: 2},
	}
	for idx, want := range cases {
		if got := b.Position(idx); got != want {
			t.Errorf("Position(%d) = %+v, want %+v", idx, got, want)
		}
	}
}

func TestBuffer_MultibyteRunes(t *testing.T) {
	b := NewBuffer(FromText("héllo wörld"))
	b.DeleteText(1, 1)
	b.InsertText(1, "e", nil)
	if got := b.Contents().PlainText(); got != "hello wörld" {
		t.Errorf("text = %q", got)
	}
}
