package notes

import (
	"sort"

	"github.com/starford/smartnotes/internal/models"
)

// InboxFolder selects notes without a folder in Filter.Folder.
const InboxFolder = "inbox"

// Filter narrows a note list the way the list view does.
type Filter struct {
	StarredOnly bool
	// Folder is a folder id, InboxFolder, or empty for every folder.
	Folder string
}

// Apply returns the notes in list that pass f, preserving order.
func (f Filter) Apply(list []models.Note) []models.Note {
	out := make([]models.Note, 0, len(list))
	for _, n := range list {
		if f.StarredOnly && !n.Starred {
			continue
		}
		switch f.Folder {
		case "":
		case InboxFolder:
			if !n.InInbox() {
				continue
			}
		default:
			if n.FolderID != f.Folder {
				continue
			}
		}
		out = append(out, n)
	}
	return out
}

// SortByUpdated orders list by UpdatedAt, most recent first. Equal
// timestamps keep their relative order.
func SortByUpdated(list []models.Note) {
	sort.SliceStable(list, func(i, j int) bool {
		return list[i].UpdatedAt > list[j].UpdatedAt
	})
}
