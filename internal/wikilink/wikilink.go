// Package wikilink implements [[Title]] autocomplete inside the editor and
// the parsing needed to follow links between notes.
package wikilink

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/starford/smartnotes/internal/delta"
	"github.com/starford/smartnotes/internal/models"
)

const (
	// Trigger opens autocomplete.
	Trigger = "[["
	// LinkPrefix prefixes a note id to form a navigation target.
	LinkPrefix = "/note/"

	DefaultLookback       = 50
	DefaultMaxSuggestions = 8
)

var titleRe = regexp.MustCompile(`\[\[([^\]]+)\]\]`)

// Scan looks for the last trigger in before, the text immediately preceding
// the cursor. It returns the trimmed query typed after the trigger and the
// trigger's rune offset within before.
func Scan(before string) (query string, offset int, ok bool) {
	i := strings.LastIndex(before, Trigger)
	if i < 0 {
		return "", 0, false
	}
	return strings.TrimSpace(before[i+len(Trigger):]), utf8.RuneCountInString(before[:i]), true
}

// Candidate is a note offered for linking.
type Candidate struct {
	ID    string `json:"id"`
	Title string `json:"title"`
}

// Candidates returns up to max notes, other than currentID, whose title
// contains query case-insensitively. Order follows notes.
func Candidates(notes []models.Note, currentID, query string, max int) []Candidate {
	q := strings.ToLower(query)
	out := []Candidate{}
	for _, n := range notes {
		if len(out) >= max {
			break
		}
		if n.ID == currentID {
			continue
		}
		if strings.Contains(strings.ToLower(n.Title), q) {
			out = append(out, Candidate{ID: n.ID, Title: n.Title})
		}
	}
	return out
}

// LinkTarget returns the navigation target for a note id.
func LinkTarget(id string) string {
	return LinkPrefix + id
}

// ParseLinkTarget extracts the note id from a navigation target.
func ParseLinkTarget(href string) (string, bool) {
	id, ok := strings.CutPrefix(href, LinkPrefix)
	if !ok || id == "" || strings.Contains(id, "/") {
		return "", false
	}
	return id, true
}

// ExtractTitles returns the deduplicated titles referenced as [[Title]] or
// [[Title|alias]] in text.
func ExtractTitles(text string) []string {
	matches := titleRe.FindAllStringSubmatch(text, -1)
	seen := make(map[string]struct{}, len(matches))
	var out []string
	for _, m := range matches {
		title, _, _ := strings.Cut(m[1], "|")
		title = strings.TrimSpace(title)
		if title == "" {
			continue
		}
		if _, ok := seen[title]; ok {
			continue
		}
		seen[title] = struct{}{}
		out = append(out, title)
	}
	return out
}

// LinksTo reports whether n links to target, either through a link attribute
// carrying target's navigation path or a [[Title]] reference to its title.
func LinksTo(n, target models.Note) bool {
	if n.ID == target.ID {
		return false
	}
	for _, href := range n.Document.Links() {
		if id, ok := ParseLinkTarget(href); ok && id == target.ID {
			return true
		}
	}
	text := n.PlainText
	if text == "" {
		text = n.Document.PlainText()
	}
	for _, title := range ExtractTitles(text) {
		if strings.EqualFold(title, target.Title) {
			return true
		}
	}
	return false
}

// attrsFor returns the attributes of an inserted link.
func attrsFor(target models.Note) delta.Attributes {
	return delta.Attributes{delta.LinkAttribute: LinkTarget(target.ID)}
}
