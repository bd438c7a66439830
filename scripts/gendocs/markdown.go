package main

import (
	"fmt"
	"strings"
)

// MarkdownWriter accumulates markdown output with consistent blank-line
// spacing between blocks.
type MarkdownWriter struct {
	b strings.Builder
}

// NewMarkdownWriter creates an empty writer.
func NewMarkdownWriter() *MarkdownWriter {
	return &MarkdownWriter{}
}

// Frontmatter writes the YAML frontmatter block.
func (w *MarkdownWriter) Frontmatter(title, description string) {
	w.b.WriteString("---\n")
	fmt.Fprintf(&w.b, "title: %s\n", title)
	fmt.Fprintf(&w.b, "description: %s\n", description)
	w.b.WriteString("---\n\n")
}

// GeneratedMarker writes a comment marking the file as generated.
func (w *MarkdownWriter) GeneratedMarker() {
	w.b.WriteString("<!-- Generated by scripts/gendocs. DO NOT EDIT. -->\n\n")
}

// Header writes a heading at the given level.
func (w *MarkdownWriter) Header(level int, text string) {
	fmt.Fprintf(&w.b, "%s %s\n\n", strings.Repeat("#", level), text)
}

// Paragraph writes a block of text followed by a blank line.
func (w *MarkdownWriter) Paragraph(text string) {
	w.b.WriteString(strings.TrimSpace(text))
	w.b.WriteString("\n\n")
}

// CodeBlock writes a fenced code block.
func (w *MarkdownWriter) CodeBlock(lang, code string) {
	fmt.Fprintf(&w.b, "```%s\n%s\n```\n\n", lang, strings.TrimRight(code, "\n"))
}

// BulletList writes one bullet per item.
func (w *MarkdownWriter) BulletList(items []string) {
	for _, item := range items {
		fmt.Fprintf(&w.b, "- %s\n", item)
	}
	w.b.WriteString("\n")
}

// Table writes a markdown table. Empty row sets produce nothing.
func (w *MarkdownWriter) Table(headers []string, rows [][]string) {
	if len(rows) == 0 {
		return
	}

	w.b.WriteString("| " + strings.Join(headers, " | ") + " |\n")

	seps := make([]string, len(headers))
	for i := range seps {
		seps[i] = "---"
	}
	w.b.WriteString("| " + strings.Join(seps, " | ") + " |\n")

	for _, row := range rows {
		cells := make([]string, len(row))
		for i, cell := range row {
			cells[i] = strings.ReplaceAll(cell, "|", "\\|")
		}
		w.b.WriteString("| " + strings.Join(cells, " | ") + " |\n")
	}
	w.b.WriteString("\n")
}

// String returns the accumulated markdown.
func (w *MarkdownWriter) String() string {
	return w.b.String()
}

// Bytes returns the accumulated markdown.
func (w *MarkdownWriter) Bytes() []byte {
	return []byte(w.b.String())
}

// InlineCode wraps text in backticks.
func InlineCode(text string) string {
	return "`" + text + "`"
}

// cleanDescription flattens a description onto one line for table cells.
func cleanDescription(desc string) string {
	desc = strings.TrimSpace(desc)
	if i := strings.IndexByte(desc, '\n'); i >= 0 {
		desc = desc[:i]
	}
	return strings.TrimSuffix(desc, ".")
}
