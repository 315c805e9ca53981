package mcpserver

// NoteFormatContract describes how LLM consumers should write note content
// so that titles, tags and links are picked up by the store.
const NoteFormatContract = `# Lumina Note Format Contract

A note is a title plus a Markdown body. Notes are addressed by id; titles are
how notes reference each other.

## Fields

- **title**: human-readable, at most 500 characters. Used for search, the
  graph and wiki-link resolution. Titles are matched case-insensitively.
- **content**: standard Markdown (UTF-8).
- **tags**: optional list of tag names. Unknown names are created on first use.

## Links

- Reference another note with ` + "`" + `[[Other note title]]` + "`" + `.
- Use ` + "`" + `[[Other note title|shown text]]` + "`" + ` when the display text differs.
- A link whose title matches no note is kept in the text but creates no edge.
  Run link reconciliation later, once the target exists.

## Tags

- Inline ` + "`" + `#hashtags` + "`" + ` in the body are attached as tags (when enabled).
- Tags are case-insensitive; prefer lowercase kebab-case (` + "`" + `project-x` + "`" + `).

## Daily notes

- One note per calendar day, titled ` + "`" + `Daily Note - January 02, 2006` + "`" + `.
  Use the ` + "`" + `daily_note` + "`" + ` tool instead of creating them by hand.

## Markdown files

When notes are mirrored from or exported to a directory, each file carries YAML
frontmatter:

` + "```" + `markdown
---
title: Weekly standup 2025-01-20
tags:
  - meeting-notes
  - project-x
pinned: false
---

Attendees: Alice, Bob.

- [[Alice]] to review the [[Design doc|design]]
` + "```" + `

Without a ` + "`" + `title` + "`" + ` key the first ` + "`" + `# heading` + "`" + ` is used, then the file name.

## Encryption

Encrypted notes store ciphertext only. Reading one requires its password;
search never matches encrypted content.
`
