package analysis

import (
	"strings"
	"testing"

	"github.com/ShabalalaWATP/UkraineOSINT/internal/sources"
)

func testArticle(n int, excerpt string) sources.Article {
	return sources.Article{
		ID:             "id",
		Source:         "rss",
		Title:          "Article title",
		URL:            "https://news.example.com/story",
		PublishedAt:    "2026-08-01T10:00:00Z",
		ContentExcerpt: excerpt,
	}
}

func TestChunkKeepsBlockOrderAndNumbering(t *testing.T) {
	arts := []sources.Article{
		testArticle(1, "first story body"),
		testArticle(2, "second story body"),
		testArticle(3, "third story body"),
	}
	chunks := Chunk(arts, 0, 0)
	if len(chunks) != 1 {
		t.Fatalf("expected one chunk, got %d", len(chunks))
	}
	joined := chunks[0]
	p1 := strings.Index(joined, "[#1]")
	p2 := strings.Index(joined, "[#2]")
	p3 := strings.Index(joined, "[#3]")
	if p1 < 0 || p2 < 0 || p3 < 0 {
		t.Fatalf("missing citation markers in chunk:\n%s", joined)
	}
	if !(p1 < p2 && p2 < p3) {
		t.Fatalf("blocks out of order: %d %d %d", p1, p2, p3)
	}
}

func TestChunkNeverSplitsABlock(t *testing.T) {
	long := strings.Repeat("w ", 800)
	arts := []sources.Article{
		testArticle(1, long),
		testArticle(2, long),
		testArticle(3, long),
	}
	// Max chars fits roughly one rendered block, so each lands alone.
	chunks := Chunk(arts, 0, 1700)
	if len(chunks) != 3 {
		t.Fatalf("expected 3 chunks, got %d", len(chunks))
	}
	for i, c := range chunks {
		if strings.Count(c, "[#") != 1 {
			t.Fatalf("chunk %d holds a partial or merged block:\n%s", i, c)
		}
	}
}

func TestChunkDocCap(t *testing.T) {
	arts := make([]sources.Article, 10)
	for i := range arts {
		arts[i] = testArticle(i+1, "body")
	}
	chunks := Chunk(arts, 4, 0)
	total := 0
	for _, c := range chunks {
		total += strings.Count(c, "[#")
	}
	if total != 4 {
		t.Fatalf("expected 4 rendered documents, got %d", total)
	}
}

func TestRenderBlockExcerptCapAndFallbacks(t *testing.T) {
	a := testArticle(1, strings.Repeat("x", 5000))
	block := renderBlock(a, 1)
	if len([]rune(block)) > 1500 {
		t.Fatalf("excerpt not capped, block is %d runes", len([]rune(block)))
	}

	a = testArticle(1, "")
	a.Description = "fallback description"
	if !strings.Contains(renderBlock(a, 1), "fallback description") {
		t.Fatalf("expected description fallback")
	}

	a.Description = ""
	if !strings.Contains(renderBlock(a, 1), "Excerpt: Article title") {
		t.Fatalf("expected title fallback, got:\n%s", renderBlock(a, 1))
	}
}

func TestChunkDeterministic(t *testing.T) {
	arts := []sources.Article{
		testArticle(1, "alpha"),
		testArticle(2, "beta"),
	}
	a := Chunk(arts, 0, 0)
	b := Chunk(arts, 0, 0)
	if len(a) != len(b) {
		t.Fatalf("chunk counts differ: %d vs %d", len(a), len(b))
	}
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("chunk %d differs between runs", i)
		}
	}
}
