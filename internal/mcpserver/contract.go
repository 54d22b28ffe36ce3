package mcpserver

// LinkFormatURI is the resource describing how notes link to each other.
const LinkFormatURI = "smartnotes://link-format"

// LinkFormatContract describes how notes are stored and linked, for LLM
// consumers creating or reading notes.
const LinkFormatContract = `# Smart Notes Link Format

Notes are rich-text documents identified by an opaque id. Each note has a
title, a plain-text rendering of its body, optional tags, an optional folder
and a starred flag. Notes without a folder live in the Inbox.

## Linking

- While typing, ` + "`[[`" + ` opens a picker of notes whose title contains the
  text typed after it (case-insensitive, at most 8 results).
- Choosing a note replaces ` + "`[[query`" + ` with the note's title, formatted as
  a link to ` + "`/note/<id>`" + `, followed by a space.
- In plain text, write ` + "`[[Exact Title]]`" + ` or ` + "`[[Exact Title|alias]]`" + `.
  Such references count as links for backlinks; title matching ignores case.

## Rules

1. Titles are free text. An empty title is stored as "Untitled".
2. Folder names are matched exactly (case-sensitive). Creating a note in a
   folder that does not exist yet creates the folder.
3. Use the ` + "`suggest_links`" + ` tool to find link targets and
   ` + "`get_backlinks`" + ` to see what links to a note.

## Example

` + "```" + `text
Planning notes for Q1. See [[Project Alpha]] and [[Budget 2025|the budget]].
` + "```" + `
`
