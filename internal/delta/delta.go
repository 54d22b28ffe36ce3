// Package delta models the editor document format: an ordered list of insert
// operations, each carrying either text or an embed plus optional formatting
// attributes.
package delta

import (
	"reflect"
	"strings"
	"unicode/utf8"
)

// EmbedRune stands in for a non-text insert (image, formula) when a document
// is addressed as text, so that indices stay aligned with document length.
const EmbedRune = '￼'

// LinkAttribute is the attribute key holding a hyperlink target.
const LinkAttribute = "link"

// Attributes holds the formatting of an insert (bold, link, header, ...).
type Attributes map[string]any

// Op is a single insert operation. Insert is a string for text, or an
// arbitrary JSON object for embeds.
type Op struct {
	Insert     any        `json:"insert"`
	Attributes Attributes `json:"attributes,omitempty"`
}

// Delta is a complete document.
type Delta struct {
	Ops []Op `json:"ops"`
}

// New returns an empty document.
func New() Delta {
	return Delta{Ops: []Op{}}
}

// FromText returns a document holding a single unformatted text insert.
func FromText(text string) Delta {
	if text == "" {
		return New()
	}
	return Delta{Ops: []Op{{Insert: text}}}
}

// Text returns the op's text and whether the op is a text insert.
func (o Op) Text() (string, bool) {
	s, ok := o.Insert.(string)
	return s, ok
}

// Len is the op's length in document positions: runes for text, 1 for embeds.
func (o Op) Len() int {
	if s, ok := o.Insert.(string); ok {
		return utf8.RuneCountInString(s)
	}
	if o.Insert == nil {
		return 0
	}
	return 1
}

// PlainText flattens the document: every text insert concatenated, embeds
// contribute nothing.
func (d Delta) PlainText() string {
	var sb strings.Builder
	for _, op := range d.Ops {
		if s, ok := op.Text(); ok {
			sb.WriteString(s)
		}
	}
	return sb.String()
}

// Length returns the number of document positions.
func (d Delta) Length() int {
	n := 0
	for _, op := range d.Ops {
		n += op.Len()
	}
	return n
}

// Text returns the runes in [index, index+length), clamped to the document,
// with embeds rendered as EmbedRune.
func (d Delta) Text(index, length int) string {
	runes := d.runes()
	start := clamp(index, 0, len(runes))
	end := clamp(index+length, start, len(runes))
	return string(runes[start:end])
}

// Links returns the targets of every link attribute in document order.
func (d Delta) Links() []string {
	var out []string
	for _, op := range d.Ops {
		if href, ok := op.Attributes[LinkAttribute].(string); ok && href != "" {
			out = append(out, href)
		}
	}
	return out
}

// Clone returns a copy whose op slice and attribute maps are not shared.
func (d Delta) Clone() Delta {
	if d.Ops == nil {
		return Delta{}
	}
	ops := make([]Op, len(d.Ops))
	for i, op := range d.Ops {
		ops[i] = Op{Insert: op.Insert, Attributes: op.Attributes.clone()}
	}
	return Delta{Ops: ops}
}

func (d Delta) runes() []rune {
	out := make([]rune, 0, d.Length())
	for _, op := range d.Ops {
		if s, ok := op.Text(); ok {
			out = append(out, []rune(s)...)
		} else if op.Insert != nil {
			out = append(out, EmbedRune)
		}
	}
	return out
}

func (a Attributes) clone() Attributes {
	if a == nil {
		return nil
	}
	out := make(Attributes, len(a))
	for k, v := range a {
		out[k] = v
	}
	return out
}

func (a Attributes) equal(b Attributes) bool {
	if len(a) == 0 && len(b) == 0 {
		return true
	}
	return reflect.DeepEqual(a, b)
}

// split cuts ops at document position index. Text inserts straddling the
// position are divided; the returned slices never alias ops.
func split(ops []Op, index int) (before, after []Op) {
	pos := 0
	for i, op := range ops {
		n := op.Len()
		switch {
		case pos+n <= index:
			before = append(before, op)
		case pos >= index:
			after = append(after, ops[i:]...)
			return before, after
		default:
			r := []rune(op.Insert.(string))
			k := index - pos
			before = append(before, Op{Insert: string(r[:k]), Attributes: op.Attributes})
			after = append(after, Op{Insert: string(r[k:]), Attributes: op.Attributes})
			after = append(after, ops[i+1:]...)
			return before, after
		}
		pos += n
	}
	return before, after
}

// normalize drops empty text inserts and merges neighbouring text inserts
// that share the same attributes.
func normalize(ops []Op) []Op {
	out := make([]Op, 0, len(ops))
	for _, op := range ops {
		if s, ok := op.Text(); ok {
			if s == "" {
				continue
			}
			if n := len(out); n > 0 {
				if prev, ok := out[n-1].Text(); ok && out[n-1].Attributes.equal(op.Attributes) {
					out[n-1].Insert = prev + s
					continue
				}
			}
		}
		out = append(out, op)
	}
	return out
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
