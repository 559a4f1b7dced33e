package fetch

import (
	"context"
	"log"
	"strings"
	"time"

	"github.com/jonathan/company-lookup/internal/search"
)

// DefaultExcerptLength is the maximum number of characters kept per page.
const DefaultExcerptLength = 1200

// ExcerptsHeader introduces the excerpt block appended to a search summary.
const ExcerptsHeader = "Source excerpts:"

// Renderer renders a URL to HTML, e.g. in a headless browser.
type Renderer func(ctx context.Context, url string) (string, error)

// Enricher fetches the pages behind the top organic results and turns them into excerpts.
type Enricher struct {
	MaxPages      int
	ExcerptLength int
	Options       *Options
	// Render is used when plain HTTP yields too little text. Nil disables the fallback.
	Render  Renderer
	Verbose bool
}

// NewEnricher creates an Enricher for the first maxPages results.
// useBrowser enables the headless Chrome fallback for script-rendered pages.
func NewEnricher(maxPages int, timeout time.Duration, useBrowser, verbose bool) *Enricher {
	opts := DefaultOptions()
	if timeout > 0 {
		opts.Timeout = timeout
	}
	e := &Enricher{
		MaxPages:      maxPages,
		ExcerptLength: DefaultExcerptLength,
		Options:       opts,
		Verbose:       verbose,
	}
	if useBrowser {
		e.Render = func(ctx context.Context, url string) (string, error) {
			return WithBrowser(ctx, url, opts.Timeout, verbose)
		}
	}
	return e
}

// Enrich returns "title: excerpt" lines under ExcerptsHeader for the first
// MaxPages results that carry a link. Pages that cannot be fetched are skipped.
// It returns an empty string when nothing could be extracted.
func (e *Enricher) Enrich(ctx context.Context, results []search.OrganicResult) (string, error) {
	if e.MaxPages <= 0 {
		return "", nil
	}

	var lines []string
	for _, r := range results {
		if len(lines) >= e.MaxPages {
			break
		}
		if r.Link == "" {
			continue
		}

		text, err := e.pageText(ctx, r.Link)
		if err != nil {
			if ctx.Err() != nil {
				return "", ctx.Err()
			}
			if e.Verbose {
				log.Printf("[FETCH] skipping %s: %v", r.Link, err)
			}
			continue
		}
		if text == "" {
			continue
		}

		lines = append(lines, r.Title+": "+truncate(flatten(text), e.excerptLength()))
	}

	if len(lines) == 0 {
		return "", nil
	}
	return ExcerptsHeader + "\n" + strings.Join(lines, "\n"), nil
}

func (e *Enricher) pageText(ctx context.Context, url string) (string, error) {
	page, err := URL(ctx, url, e.Options)
	if err != nil {
		return "", err
	}

	text, err := ExtractMainText(page.HTML, CompanyPageSelectors())
	if err != nil {
		return "", err
	}

	if e.Render != nil && ShouldUseBrowser(text) {
		html, err := e.Render(ctx, url)
		if err != nil {
			if e.Verbose {
				log.Printf("[FETCH] browser fallback failed for %s: %v", url, err)
			}
			return text, nil
		}
		if rendered, err := ExtractMainText(html, CompanyPageSelectors()); err == nil && len(rendered) > len(text) {
			text = rendered
		}
	}

	return text, nil
}

func (e *Enricher) excerptLength() int {
	if e.ExcerptLength <= 0 {
		return DefaultExcerptLength
	}
	return e.ExcerptLength
}

func flatten(text string) string {
	return strings.Join(strings.Fields(text), " ")
}

// truncate cuts text to at most n runes, appending "..." when shortened.
func truncate(text string, n int) string {
	runes := []rune(text)
	if len(runes) <= n {
		return text
	}
	return string(runes[:n]) + "..."
}
