package delta

// Position locates a document index as a zero-based line and column.
type Position struct {
	Line   int `json:"line"`
	Column int `json:"column"`
}

// Buffer is a live, editable document with a cursor. A buffer without focus
// has no selection.
type Buffer struct {
	doc     Delta
	cursor  int
	focused bool
}

// NewBuffer returns an unfocused buffer holding a copy of d.
func NewBuffer(d Delta) *Buffer {
	return &Buffer{doc: d.Clone()}
}

// Contents returns a copy of the current document.
func (b *Buffer) Contents() Delta {
	doc := b.doc.Clone()
	if doc.Ops == nil {
		doc.Ops = []Op{}
	}
	return doc
}

// SetContents replaces the document, keeping the cursor within bounds.
func (b *Buffer) SetContents(d Delta) {
	b.doc = Delta{Ops: normalize(d.Clone().Ops)}
	b.cursor = clamp(b.cursor, 0, b.doc.Length())
}

// Length returns the document length.
func (b *Buffer) Length() int {
	return b.doc.Length()
}

// Selection returns the cursor index and whether the buffer has focus.
func (b *Buffer) Selection() (int, bool) {
	return b.cursor, b.focused
}

// SetSelection focuses the buffer and moves the cursor.
func (b *Buffer) SetSelection(index int) {
	b.cursor = clamp(index, 0, b.doc.Length())
	b.focused = true
}

// Blur removes focus; the cursor position is kept for the next focus.
func (b *Buffer) Blur() {
	b.focused = false
}

// Text returns document text in [index, index+length).
func (b *Buffer) Text(index, length int) string {
	return b.doc.Text(index, length)
}

// InsertText inserts text with the given attributes at index. A cursor at or
// after index moves with the inserted text.
func (b *Buffer) InsertText(index int, text string, attrs Attributes) {
	if text == "" {
		return
	}
	index = clamp(index, 0, b.doc.Length())
	before, after := split(b.doc.Ops, index)
	ops := append(before, Op{Insert: text, Attributes: attrs.clone()})
	ops = append(ops, after...)
	b.doc = Delta{Ops: normalize(ops)}

	if b.cursor >= index {
		b.cursor += FromText(text).Length()
	}
}

// DeleteText removes length positions starting at index.
func (b *Buffer) DeleteText(index, length int) {
	total := b.doc.Length()
	index = clamp(index, 0, total)
	end := clamp(index+length, index, total)
	if end == index {
		return
	}
	before, _ := split(b.doc.Ops, index)
	_, after := split(b.doc.Ops, end)
	b.doc = Delta{Ops: normalize(append(before, after...))}

	switch {
	case b.cursor >= end:
		b.cursor -= end - index
	case b.cursor > index:
		b.cursor = index
	}
}

// Position returns the line and column of index.
func (b *Buffer) Position(index int) Position {
	var pos Position
	for _, r := range b.doc.Text(0, index) {
		if r == '\n' {
			pos.Line++
			pos.Column = 0
			continue
		}
		pos.Column++
	}
	return pos
}
