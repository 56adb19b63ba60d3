// Package page extracts candidate listings and detail fields from raw source
// documents. A Schema compiles one source's selectors once at startup; the
// same schema is then applied to every page that source returns.
package page

import (
	"bytes"
	"fmt"
	"net/url"
	"strings"

	"github.com/andybalholm/cascadia"
	readability "github.com/go-shiori/go-readability"
	"golang.org/x/net/html"

	"github.com/mohammad-safakhou/memedex/config"
	"github.com/mohammad-safakhou/memedex/internal/helpers"
	"github.com/mohammad-safakhou/memedex/models"
)

// Placeholder values substituted when an expected content node is missing.
// Parse misses are recovered locally and never surface as hard failures.
const (
	FallbackTitle   = "Untitled"
	FallbackSummary = "Description unavailable."
)

// TruncationMarker is appended to summaries cut at the configured length.
const TruncationMarker = "..."

// DetailFields is the extracted content of a detail page.
type DetailFields struct {
	Title   string
	Summary string
}

// Schema holds the compiled selectors for one source.
type Schema struct {
	listing cascadia.Matcher
	title   cascadia.Matcher
	content cascadia.Matcher
}

// NewSchema compiles the selectors of a source configuration.
func NewSchema(cfg config.SourceConfig) (*Schema, error) {
	listing, err := cascadia.Parse(cfg.ListingSelector)
	if err != nil {
		return nil, fmt.Errorf("listing selector %q: %w", cfg.ListingSelector, err)
	}
	title, err := cascadia.Parse(cfg.TitleSelector)
	if err != nil {
		return nil, fmt.Errorf("title selector %q: %w", cfg.TitleSelector, err)
	}
	content, err := cascadia.Parse(cfg.ContentSelector)
	if err != nil {
		return nil, fmt.Errorf("content selector %q: %w", cfg.ContentSelector, err)
	}
	return &Schema{listing: listing, title: title, content: content}, nil
}

// ParseListing extracts up to limit candidates from a search-results page,
// in document order. Entries without a title or href are skipped. An empty
// slice means the source found nothing; only an unparseable document is an
// error.
func (s *Schema) ParseListing(doc []byte, limit int) ([]models.Candidate, error) {
	root, err := html.Parse(bytes.NewReader(doc))
	if err != nil {
		return nil, fmt.Errorf("parsing listing document: %w", err)
	}

	candidates := make([]models.Candidate, 0, limit)
	for _, node := range cascadia.QueryAll(root, s.listing) {
		if len(candidates) >= limit {
			break
		}
		title := collapseText(node)
		href := attr(node, "href")
		if title == "" || href == "" {
			continue
		}
		candidates = append(candidates, models.Candidate{Title: title, Href: href})
	}
	return candidates, nil
}

// ParseDetail extracts the title and summary text of a detail page. The
// summary comes from the configured content node with anchors flattened to
// their text; when the node is missing, readability extraction is tried
// before falling back to the placeholder. The summary is truncated to maxLen
// runes with a marker appended when cut.
func (s *Schema) ParseDetail(doc []byte, pageURL string, maxLen int) (DetailFields, error) {
	root, err := html.Parse(bytes.NewReader(doc))
	if err != nil {
		return DetailFields{}, fmt.Errorf("parsing detail document: %w", err)
	}

	fields := DetailFields{Title: FallbackTitle, Summary: FallbackSummary}

	if node := cascadia.Query(root, s.title); node != nil {
		if text := collapseText(node); text != "" {
			fields.Title = text
		}
	}

	summary := ""
	if node := cascadia.Query(root, s.content); node != nil {
		summary = collapseText(node)
	}
	if summary == "" {
		summary = readabilityText(doc, pageURL)
	}
	if summary != "" {
		fields.Summary = helpers.Truncate(summary, maxLen, TruncationMarker)
	}
	return fields, nil
}

// readabilityText is the salvage path for detail pages whose content node
// moved: generic article extraction instead of the configured selector.
func readabilityText(doc []byte, pageURL string) string {
	parsed, err := url.Parse(pageURL)
	if err != nil {
		parsed = &url.URL{}
	}
	article, err := readability.FromReader(bytes.NewReader(doc), parsed)
	if err != nil {
		return ""
	}
	return strings.Join(strings.Fields(article.TextContent), " ")
}

// collapseText walks a node's subtree collecting text content with
// whitespace collapsed. Anchor tags contribute their text only, which
// matches how listings and body copy are read.
func collapseText(n *html.Node) string {
	var b strings.Builder
	var walk func(*html.Node)
	walk = func(node *html.Node) {
		if node.Type == html.TextNode {
			b.WriteString(node.Data)
			b.WriteByte(' ')
			return
		}
		if node.Type == html.ElementNode && (node.Data == "script" || node.Data == "style") {
			return
		}
		for child := node.FirstChild; child != nil; child = child.NextSibling {
			walk(child)
		}
	}
	walk(n)
	return strings.Join(strings.Fields(b.String()), " ")
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return strings.TrimSpace(a.Val)
		}
	}
	return ""
}
