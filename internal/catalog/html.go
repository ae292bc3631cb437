package catalog

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/k3a/html2text"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/temirov/kiwixctl/internal/types"
)

const (
	libraryContainerClass = "kiwix"
	bookListClass         = "book__list"
	bookTitleClass        = "book__title"
	bookDescriptionClass  = "book__description"
)

func (catalogClient *Client) fetchHTML(ctx context.Context, source string) ([]types.CatalogEntry, error) {
	body, err := catalogClient.get(ctx, source, maxCatalogBytes)
	if err != nil {
		return nil, err
	}
	entries, parseErr := parseLibraryPage(body)
	if parseErr != nil {
		return nil, fmt.Errorf("%s: %w", source, parseErr)
	}
	return entries, nil
}

// parseLibraryPage collects the book anchors found under .kiwix .book__list.
func parseLibraryPage(body []byte) ([]types.CatalogEntry, error) {
	document, err := html.Parse(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("%w: parse library page: %v", types.ErrParse, err)
	}

	var entries []types.CatalogEntry
	seen := map[types.ArchiveID]struct{}{}
	for _, container := range findByClass(document, libraryContainerClass) {
		for _, bookList := range findByClass(container, bookListClass) {
			for _, anchor := range findElements(bookList, atom.A) {
				archive, linkErr := types.ArchiveIDFromLink(attribute(anchor, "href"))
				if linkErr != nil {
					continue
				}
				if _, duplicate := seen[archive]; duplicate {
					continue
				}
				seen[archive] = struct{}{}
				entries = append(entries, types.CatalogEntry{
					ID:      archive,
					Title:   bookTitle(anchor),
					Summary: bookSummary(anchor),
				})
			}
		}
	}
	if entries == nil {
		entries = []types.CatalogEntry{}
	}
	return entries, nil
}

func bookTitle(anchor *html.Node) string {
	if titles := findByClass(anchor, bookTitleClass); len(titles) > 0 {
		return collapseWhitespace(textContent(titles[0]))
	}
	return collapseWhitespace(textContent(anchor))
}

func bookSummary(anchor *html.Node) string {
	descriptions := findByClass(anchor, bookDescriptionClass)
	if len(descriptions) == 0 {
		return ""
	}
	var rendered bytes.Buffer
	for child := descriptions[0].FirstChild; child != nil; child = child.NextSibling {
		if err := html.Render(&rendered, child); err != nil {
			return collapseWhitespace(textContent(descriptions[0]))
		}
	}
	return collapseWhitespace(html2text.HTML2Text(rendered.String()))
}

// findByClass returns the descendants of root (root excluded) carrying className.
func findByClass(root *html.Node, className string) []*html.Node {
	var matches []*html.Node
	walkDescendants(root, func(node *html.Node) {
		if node.Type == html.ElementNode && hasClass(node, className) {
			matches = append(matches, node)
		}
	})
	return matches
}

func findElements(root *html.Node, element atom.Atom) []*html.Node {
	var matches []*html.Node
	walkDescendants(root, func(node *html.Node) {
		if node.Type == html.ElementNode && node.DataAtom == element {
			matches = append(matches, node)
		}
	})
	return matches
}

func walkDescendants(root *html.Node, visit func(*html.Node)) {
	for child := root.FirstChild; child != nil; child = child.NextSibling {
		visit(child)
		walkDescendants(child, visit)
	}
}

func hasClass(node *html.Node, className string) bool {
	for _, class := range strings.Fields(attribute(node, "class")) {
		if class == className {
			return true
		}
	}
	return false
}

func attribute(node *html.Node, name string) string {
	for _, attr := range node.Attr {
		if attr.Key == name {
			return attr.Val
		}
	}
	return ""
}

func textContent(node *html.Node) string {
	var builder strings.Builder
	if node.Type == html.TextNode {
		builder.WriteString(node.Data)
	}
	walkDescendants(node, func(descendant *html.Node) {
		if descendant.Type == html.TextNode {
			builder.WriteString(descendant.Data)
			builder.WriteByte(' ')
		}
	})
	return builder.String()
}

func collapseWhitespace(value string) string {
	return strings.Join(strings.Fields(value), " ")
}
