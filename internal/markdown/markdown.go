// Package markdown converts notes to and from Markdown files with YAML
// frontmatter.
package markdown

import (
	"bytes"
	"fmt"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/starford/smartnotes/internal/models"
	"github.com/starford/smartnotes/internal/wikilink"
)

var tagRe = regexp.MustCompile(`(?:^|\s)#([A-Za-z][A-Za-z0-9_/-]*)`)

// Frontmatter is the metadata block at the top of a note file.
type Frontmatter struct {
	ID      string   `yaml:"id,omitempty"`
	Title   string   `yaml:"title,omitempty"`
	Tags    []string `yaml:"tags,omitempty"`
	Folder  string   `yaml:"folder,omitempty"`
	Starred bool     `yaml:"starred,omitempty"`
}

// Result holds the output of parsing a Markdown file.
type Result struct {
	Frontmatter Frontmatter
	// HasFrontmatter is false when the file had no valid frontmatter block.
	HasFrontmatter bool
	Body           string
	Links          []string
	Tags           []string
	Title          string
}

// Parse extracts frontmatter, body, wiki links and tags from raw Markdown.
// Invalid frontmatter is treated as part of the body.
func Parse(data []byte) (*Result, error) {
	fm, ok, body := splitFrontmatter(data)
	return &Result{
		Frontmatter:    fm,
		HasFrontmatter: ok,
		Body:           body,
		Links:          nonNil(wikilink.ExtractTitles(body)),
		Tags:           extractTags(body, fm.Tags),
		Title:          deriveTitle(fm, body),
	}, nil
}

// splitFrontmatter separates YAML frontmatter (between leading --- delimiters)
// from the Markdown body. If no frontmatter is found the entire content is body.
func splitFrontmatter(data []byte) (Frontmatter, bool, string) {
	const delim = "---"
	var fm Frontmatter
	trimmed := bytes.TrimLeft(data, "\n\r")

	if !bytes.HasPrefix(trimmed, []byte(delim)) {
		return fm, false, string(data)
	}

	rest := trimmed[len(delim):]
	idx := bytes.Index(rest, []byte("\n"+delim))
	if idx < 0 {
		return fm, false, string(data)
	}

	yamlBlock := rest[:idx]
	afterDelim := rest[idx+1+len(delim):]
	body := strings.TrimLeft(string(afterDelim), "\n\r")

	if err := yaml.Unmarshal(yamlBlock, &fm); err != nil {
		return Frontmatter{}, false, string(data)
	}
	return fm, true, body
}

// extractTags merges frontmatter tags with inline #tags, deduplicated.
func extractTags(body string, declared []string) []string {
	seen := make(map[string]struct{})
	out := []string{}
	add := func(t string) {
		t = strings.TrimSpace(t)
		if t == "" {
			return
		}
		if _, dup := seen[t]; dup {
			return
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	for _, t := range declared {
		add(t)
	}
	for _, m := range tagRe.FindAllStringSubmatch(body, -1) {
		add(m[1])
	}
	return out
}

// deriveTitle returns the frontmatter title if present, otherwise the first
// H1 heading, otherwise empty string.
func deriveTitle(fm Frontmatter, body string) string {
	if t := strings.TrimSpace(fm.Title); t != "" {
		return t
	}
	for _, line := range strings.Split(body, "\n") {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "# ") {
			return strings.TrimSpace(trimmed[2:])
		}
	}
	return ""
}

// Render produces the Markdown file for a note. folder is the note's folder
// name, empty for the Inbox.
func Render(n models.Note, folder string) ([]byte, error) {
	fm := Frontmatter{
		ID:      n.ID,
		Title:   n.Title,
		Tags:    n.Tags,
		Folder:  folder,
		Starred: n.Starred,
	}
	head, err := yaml.Marshal(fm)
	if err != nil {
		return nil, fmt.Errorf("markdown: encode frontmatter: %w", err)
	}

	var buf bytes.Buffer
	buf.WriteString("---\n")
	buf.Write(head)
	buf.WriteString("---\n")
	buf.WriteString(n.PlainText)
	return buf.Bytes(), nil
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
