package markdown

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/starford/smartnotes/internal/delta"
	"github.com/starford/smartnotes/internal/models"
	"github.com/starford/smartnotes/internal/notes"
	"github.com/starford/smartnotes/internal/storage"
)

// Store is the part of the note store used by Import and Export.
type Store interface {
	CreateNote(ctx context.Context, in notes.NoteInput) (models.Note, error)
	UpsertFolder(ctx context.Context, name string) (models.Folder, error)
	Snapshot(ctx context.Context) models.Index
}

// Import creates one note per *.md file under dir. The folder comes from the
// frontmatter or, failing that, the file's top-level directory. It returns
// the number of notes created.
func Import(ctx context.Context, store Store, dir string, logger *slog.Logger) (int, error) {
	if logger == nil {
		logger = slog.Default()
	}
	count := 0
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if path != dir && strings.HasPrefix(d.Name(), ".") {
				return filepath.SkipDir
			}
			return nil
		}
		if !strings.EqualFold(filepath.Ext(path), ".md") {
			return nil
		}
		if err := ctx.Err(); err != nil {
			return err
		}

		rel, err := filepath.Rel(dir, path)
		if err != nil {
			return err
		}
		if err := importFile(ctx, store, path, filepath.ToSlash(rel)); err != nil {
			logger.Warn("skip file", slog.String("path", rel), slog.String("error", err.Error()))
			return nil
		}
		count++
		return nil
	})
	if err != nil {
		return count, fmt.Errorf("markdown: import %s: %w", dir, err)
	}
	logger.Info("import complete", slog.Int("notes", count))
	return count, nil
}

func importFile(ctx context.Context, store Store, path, rel string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	res, err := Parse(data)
	if err != nil {
		return err
	}

	title := res.Title
	if title == "" {
		title = strings.TrimSuffix(filepath.Base(rel), filepath.Ext(rel))
	}

	folder := strings.TrimSpace(res.Frontmatter.Folder)
	if folder == "" {
		if top, _, nested := strings.Cut(rel, "/"); nested {
			folder = top
		}
	}
	var folderID string
	if folder != "" {
		f, err := store.UpsertFolder(ctx, folder)
		if err != nil {
			return err
		}
		folderID = f.ID
	}

	doc := delta.FromText(res.Body)
	_, err = store.CreateNote(ctx, notes.NoteInput{
		Title:    title,
		Document: &doc,
		Tags:     res.Tags,
		FolderID: folderID,
		Starred:  res.Frontmatter.Starred,
	})
	return err
}

var unsafeRe = regexp.MustCompile(`[^\p{L}\p{N}]+`)

// Slug turns a title into a file name stem.
func Slug(title string) string {
	s := strings.Trim(unsafeRe.ReplaceAllString(strings.ToLower(title), "-"), "-")
	if s == "" {
		return "untitled"
	}
	return s
}

// Export writes every note to dir as <folder>/<slug>.md, Inbox notes at the
// top level. It returns the number of files written.
func Export(ctx context.Context, store Store, dir string) (int, error) {
	idx := store.Snapshot(ctx)
	names := make(map[string]string, len(idx.Folders))
	for _, f := range idx.Folders {
		names[f.ID] = f.Name
	}

	used := make(map[string]bool)
	for i, n := range idx.Notes {
		if err := ctx.Err(); err != nil {
			return i, err
		}
		folder := names[n.FolderID]
		data, err := Render(n, folder)
		if err != nil {
			return i, err
		}

		rel := Slug(n.Title)
		if folder != "" {
			rel = Slug(folder) + "/" + rel
		}
		rel = uniqueName(used, rel)
		path := filepath.Join(dir, filepath.FromSlash(rel)+".md")
		if err := storage.WriteFileAtomic(path, data); err != nil {
			return i, fmt.Errorf("markdown: export %s: %w", rel, err)
		}
	}
	return len(idx.Notes), nil
}

// uniqueName returns base, or base-N with the smallest N >= 2 not yet in
// used, and records the result.
func uniqueName(used map[string]bool, base string) string {
	name := base
	for k := 2; used[name]; k++ {
		name = fmt.Sprintf("%s-%d", base, k)
	}
	used[name] = true
	return name
}
