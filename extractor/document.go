package extractor

import (
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/go-shiori/go-readability"
	"go.uber.org/zap"
	"golang.org/x/net/html"
)

// Document is a parsed HTML page. It is read-only after Parse and may be
// shared by detectors running concurrently.
type Document struct {
	doc  *goquery.Document
	text string
}

// Parse parses rawHTML. Malformed markup never fails; the parser repairs it
// the way a browser would, and unreadable input yields an empty document.
func Parse(rawHTML string) *Document {
	// Scripting disabled so <noscript> content is parsed as markup.
	root, err := html.ParseWithOptions(strings.NewReader(rawHTML), html.ParseOptionEnableScripting(false))
	if err != nil {
		zap.S().Debugw("html parse failed, using empty document", "error", err)
		root = &html.Node{Type: html.DocumentNode}
	}
	d := &Document{doc: goquery.NewDocumentFromNode(root)}
	d.text = strings.ToLower(NodeText(root))
	return d
}

// Find runs a CSS selector over the document.
func (d *Document) Find(selector string) *goquery.Selection {
	return d.doc.Find(selector)
}

// Text returns the visible text of the page, lowercased with whitespace collapsed.
func (d *Document) Text() string {
	return d.text
}

// Title returns the trimmed text of the first <title> element.
func (d *Document) Title() string {
	return collapse(d.doc.Find("title").First().Text())
}

// ExtractText converts rawHTML into lowercase visible text with whitespace collapsed.
func ExtractText(rawHTML string) string {
	if rawHTML == "" {
		return ""
	}
	return Parse(rawHTML).Text()
}

// NodeText returns the visible text under n with whitespace collapsed.
// Script, style and template contents and comments are not visible text.
func NodeText(n *html.Node) string {
	var parts []string
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		switch n.Type {
		case html.TextNode:
			if s := strings.TrimSpace(n.Data); s != "" {
				parts = append(parts, s)
			}
			return
		case html.CommentNode, html.DoctypeNode:
			return
		case html.ElementNode:
			switch n.Data {
			case "script", "style", "template":
				return
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return collapse(strings.Join(parts, " "))
}

// SelectionText returns the visible text of the first node in s.
func SelectionText(s *goquery.Selection) string {
	if s.Length() == 0 {
		return ""
	}
	return NodeText(s.Get(0))
}

// PageTitle returns the article title readability extracts from rawHTML,
// falling back to the <title> element.
func PageTitle(rawHTML, pageURL string) string {
	if strings.TrimSpace(rawHTML) == "" {
		return ""
	}
	if u, err := url.Parse(pageURL); err == nil {
		article, err := readability.FromReader(strings.NewReader(rawHTML), u)
		if err == nil && strings.TrimSpace(article.Title) != "" {
			return collapse(article.Title)
		}
		if err != nil {
			zap.S().Debugw("readability extraction failed, falling back to <title>", "url", pageURL, "error", err)
		}
	}
	return Parse(rawHTML).Title()
}

func collapse(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
