package scrape

import (
	"regexp"
	"strings"
)

// BookRef is a book link discovered on an author page.
type BookRef struct {
	Title  string
	Author string
	Link   string
}

// Book is the transient record built during crawling, before the
// catalog assigns its own key.
type Book struct {
	BookID     int
	Title      string
	Author     string
	AuthorID   int
	Labels     []string
	CategoryID int
	Series     string
	Content    string
	URL        string
}

// pageContent is one fetched content page.
type pageContent struct {
	Title   string
	Content string
}

// banglaIndexPrefix matches a leading Bangla-numeral chapter index,
// e.g. "০১. " or "২ - ".
var banglaIndexPrefix = regexp.MustCompile(`^[০-৯]+[.\-\s]*`)

// stripIndexPrefix removes the leading Bangla-numeral index from a
// title.
func stripIndexPrefix(title string) string {
	return banglaIndexPrefix.ReplaceAllString(title, "")
}

// splitTitleAuthor separates "title – author" headings. Headings
// without the em-dash keep the whole text as title and fall back to
// "Unknown Author".
func splitTitleAuthor(heading string) (string, string) {
	if before, after, found := strings.Cut(heading, "–"); found {
		return strings.TrimSpace(before), strings.TrimSpace(after)
	}
	return strings.TrimSpace(heading), "Unknown Author"
}
