// Package analysis drives the chunked map-then-synthesize LLM pipeline that
// turns a bounded article list into a citation-backed report.
package analysis

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/ShabalalaWATP/UkraineOSINT/internal/sources"
)

const (
	// DefaultMaxCharsPerChunk bounds one generation call's document payload.
	DefaultMaxCharsPerChunk = 12000
	// excerptCap bounds a single rendered document block's excerpt.
	excerptCap = 1200
)

// renderBlock formats one article as a citation-indexed document block. The
// 1-based index n is what the report's [#n] markers refer back to.
func renderBlock(a sources.Article, n int) string {
	text := a.ContentExcerpt
	if text == "" {
		text = a.Description
	}
	if text == "" {
		text = a.Title
	}
	text = strings.Join(strings.Fields(text), " ")
	if r := []rune(text); len(r) > excerptCap {
		text = string(r[:excerptCap])
	}

	title := a.Title
	if title == "" {
		title = "(no title)"
	}
	outlet := a.Source
	if u, err := url.Parse(a.URL); err == nil && u.Hostname() != "" {
		outlet = u.Hostname()
	}
	return fmt.Sprintf("[#%d] %s\nOutlet: %s\nDate: %s\nURL: %s\nExcerpt: %s",
		n, title, outlet, a.PublishedAt, a.URL, text)
}

// Chunk truncates articles to maxDocs, renders each as a citation block and
// greedily packs blocks into character-budgeted chunks. A block is never
// split, so every citation index lives in exactly one chunk.
func Chunk(articles []sources.Article, maxDocs, maxChars int) []string {
	if maxChars <= 0 {
		maxChars = DefaultMaxCharsPerChunk
	}
	if maxDocs > 0 && len(articles) > maxDocs {
		articles = articles[:maxDocs]
	}

	var chunks []string
	var buf strings.Builder
	for i, a := range articles {
		block := renderBlock(a, i+1)
		if buf.Len() > 0 && buf.Len()+2+len(block) > maxChars {
			chunks = append(chunks, buf.String())
			buf.Reset()
		}
		if buf.Len() > 0 {
			buf.WriteString("\n\n")
		}
		buf.WriteString(block)
	}
	if buf.Len() > 0 {
		chunks = append(chunks, buf.String())
	}
	return chunks
}
