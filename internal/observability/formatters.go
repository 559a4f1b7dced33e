// Package observability provides formatted console output for the CLI.
package observability

import (
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/jonathan/company-lookup/internal/describe"
	"github.com/jonathan/company-lookup/internal/ingestion"
	"github.com/jonathan/company-lookup/internal/transcript"
)

const (
	// boxWidth is the default width for formatted output boxes
	boxWidth = 72
	// maxRowsToShow is the number of CSV rows displayed in a preview
	maxRowsToShow = 10
)

// Printer handles formatted output for the CLI
type Printer struct {
	out io.Writer
}

// NewPrinter creates a new Printer that writes to the given writer
func NewPrinter(out io.Writer) *Printer {
	return &Printer{out: out}
}

// printBox prints a formatted box with a title and content
//
//nolint:errcheck // writing to stdout; errors are not recoverable
func (p *Printer) printBox(title string, content string) {
	border := strings.Repeat("─", boxWidth-2)
	fmt.Fprintf(p.out, "┌%s┐\n", border)
	fmt.Fprintf(p.out, "│ %s │\n", pad(title, boxWidth-4))
	fmt.Fprintf(p.out, "├%s┤\n", border)

	for _, line := range strings.Split(content, "\n") {
		for _, part := range wrap(line, boxWidth-4) {
			fmt.Fprintf(p.out, "│ %s │\n", pad(part, boxWidth-4))
		}
	}

	fmt.Fprintf(p.out, "└%s┘\n", border)
}

// PrintCollection shows the collected names, any upload warnings and the CSV preview.
//
//nolint:errcheck
func (p *Printer) PrintCollection(coll *ingestion.Collection) {
	if coll == nil {
		return
	}

	for _, w := range coll.Warnings {
		fmt.Fprintf(p.out, "⚠ %s\n", w)
	}

	if coll.Preview != nil {
		p.PrintPreview(coll.Preview)
	}

	if len(coll.Names) == 0 {
		return
	}
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("%d name(s):\n", len(coll.Names)))
	for i, name := range coll.Names {
		sb.WriteString(fmt.Sprintf("  %d. %s\n", i+1, name))
	}
	p.printBox("COMPANY NAMES", strings.TrimSuffix(sb.String(), "\n"))
}

// PrintPreview outputs the header and the first rows of an uploaded CSV.
func (p *Printer) PrintPreview(preview *ingestion.Preview) {
	if preview == nil {
		return
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Encoding: %s\n\n", preview.Encoding))
	if len(preview.Header) > 0 {
		sb.WriteString(strings.Join(preview.Header, " | "))
		sb.WriteString("\n")
		sb.WriteString(strings.Repeat("-", min(boxWidth-4, utf8.RuneCountInString(strings.Join(preview.Header, " | ")))))
		sb.WriteString("\n")
	}

	count := min(len(preview.Rows), maxRowsToShow)
	for i := 0; i < count; i++ {
		sb.WriteString(strings.Join(preview.Rows[i], " | "))
		sb.WriteString("\n")
	}
	if len(preview.Rows) > maxRowsToShow {
		sb.WriteString(fmt.Sprintf("... and %d more rows\n", len(preview.Rows)-maxRowsToShow))
	}

	p.printBox("CSV PREVIEW", strings.TrimSuffix(sb.String(), "\n"))
}

// PrintResult outputs one finished company description.
func (p *Printer) PrintResult(index int, result describe.Result) {
	title := fmt.Sprintf("#%d  %s", index+1, result.Name)
	p.printBox(title, result.Description)
}

// PrintTranscript outputs the chat history in order.
func (p *Printer) PrintTranscript(entries []transcript.Entry) {
	if len(entries) == 0 {
		return
	}

	lines := make([]string, 0, len(entries))
	for _, e := range entries {
		lines = append(lines, e.String())
	}
	p.printBox("CHAT HISTORY", strings.Join(lines, "\n"))
}

// PrintExport reports where the transcript was written.
//
//nolint:errcheck
func (p *Printer) PrintExport(path string, content []byte) {
	fmt.Fprintf(p.out, "✓ %s: %s (%d bytes)\n", transcript.DownloadLabel, path, len(content))
}

func pad(s string, width int) string {
	n := utf8.RuneCountInString(s)
	if n >= width {
		return s
	}
	return s + strings.Repeat(" ", width-n)
}

// wrap splits a line into rune-counted segments no wider than width, breaking on spaces when possible.
func wrap(line string, width int) []string {
	if utf8.RuneCountInString(line) <= width {
		return []string{line}
	}

	var parts []string
	var current []rune
	for _, word := range strings.Split(line, " ") {
		w := []rune(word)
		for len(w) > width {
			if len(current) > 0 {
				parts = append(parts, string(current))
				current = nil
			}
			parts = append(parts, string(w[:width]))
			w = w[width:]
		}
		switch {
		case len(current) == 0:
			current = w
		case len(current)+1+len(w) <= width:
			current = append(append(current, ' '), w...)
		default:
			parts = append(parts, string(current))
			current = w
		}
	}
	if len(current) > 0 {
		parts = append(parts, string(current))
	}
	return parts
}
