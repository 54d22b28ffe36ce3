package notes

import (
	"context"
	"sort"
	"strings"

	"github.com/sahilm/fuzzy"

	"github.com/starford/smartnotes/internal/models"
	"github.com/starford/smartnotes/internal/wikilink"
)

type hit struct {
	pos   int
	title bool
	score int
}

// Search returns the notes matching query, best match first. Titles and tags
// are matched fuzzily; the plain text body by case-insensitive substring.
// Body-only matches rank after every title or tag match. A blank query
// returns every note in storage order.
func (s *Store) Search(ctx context.Context, query string) []models.Note {
	return Search(s.ListNotes(ctx), query)
}

// Search ranks notes against query. See Store.Search.
func Search(notes []models.Note, query string) []models.Note {
	query = strings.TrimSpace(query)
	if query == "" {
		return notes
	}

	hits := make(map[int]*hit)
	record := func(pos, score int) {
		h, ok := hits[pos]
		if !ok {
			hits[pos] = &hit{pos: pos, title: true, score: score}
			return
		}
		if !h.title || score > h.score {
			h.title, h.score = true, score
		}
	}

	titles := make([]string, len(notes))
	var tags []string
	var tagOwner []int
	for i, n := range notes {
		titles[i] = n.Title
		for _, tag := range n.Tags {
			tags = append(tags, tag)
			tagOwner = append(tagOwner, i)
		}
	}
	for _, m := range fuzzy.Find(query, titles) {
		record(m.Index, m.Score)
	}
	for _, m := range fuzzy.Find(query, tags) {
		record(tagOwner[m.Index], m.Score)
	}

	lower := strings.ToLower(query)
	for i, n := range notes {
		if _, ok := hits[i]; ok {
			continue
		}
		if strings.Contains(strings.ToLower(n.PlainText), lower) {
			hits[i] = &hit{pos: i}
		}
	}

	ranked := make([]*hit, 0, len(hits))
	for _, h := range hits {
		ranked = append(ranked, h)
	}
	sort.Slice(ranked, func(a, b int) bool {
		x, y := ranked[a], ranked[b]
		if x.title != y.title {
			return x.title
		}
		if x.score != y.score {
			return x.score > y.score
		}
		return x.pos < y.pos
	})

	out := make([]models.Note, len(ranked))
	for i, h := range ranked {
		out[i] = notes[h.pos]
	}
	return out
}

// Backlinks returns the notes that link to the note with the given id, in
// storage order. An unknown id has no backlinks.
func (s *Store) Backlinks(ctx context.Context, id string) []models.Note {
	all := s.ListNotes(ctx)
	var target *models.Note
	for i := range all {
		if all[i].ID == id {
			target = &all[i]
			break
		}
	}
	out := []models.Note{}
	if target == nil {
		return out
	}
	for _, n := range all {
		if wikilink.LinksTo(n, *target) {
			out = append(out, n)
		}
	}
	return out
}
