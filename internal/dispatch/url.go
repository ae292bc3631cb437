package dispatch

import (
	"net/url"
	"strings"

	"golang.org/x/text/unicode/norm"

	"github.com/temirov/kiwixctl/internal/types"
)

const (
	articleNamespace  = "A"
	searchPath        = "/search"
	contentParameter  = "content"
	patternParameter  = "pattern"
	wordSeparator     = " "
	articleSeparator  = "_"
	encodedSpace      = "%20"
	queryEncodedSpace = "+"
)

// NormalizeQuery trims surrounding whitespace and converts the text to Unicode NFC.
func NormalizeQuery(query string) string {
	return norm.NFC.String(strings.TrimSpace(query))
}

// BuildQueryURL returns the address that shows query within archive for the given strategy.
func BuildQueryURL(strategy types.Strategy, endpoint types.Endpoint, archive types.ArchiveID, query string) string {
	if strategy.URL == types.URLArticlePath {
		article := strings.ReplaceAll(query, wordSeparator, articleSeparator)
		return endpoint.Origin() + "/" + escapePath(archive.String()) + "/" + articleNamespace + "/" + escapePath(article)
	}
	return endpoint.URL(searchPath) + "?" +
		contentParameter + "=" + escapeQuery(archive.String()) + "&" +
		patternParameter + "=" + escapeQuery(query)
}

// FullContextURL returns the address of a search across every archive the server holds.
func FullContextURL(endpoint types.Endpoint, query string) string {
	return endpoint.URL(searchPath) + "?" + patternParameter + "=" + escapeQuery(query)
}

// escapeQuery percent-encodes a query value with spaces as %20.
func escapeQuery(value string) string {
	return strings.ReplaceAll(url.QueryEscape(value), queryEncodedSpace, encodedSpace)
}

// escapePath encodes every segment of value and keeps the separators.
func escapePath(value string) string {
	segments := strings.Split(value, "/")
	for index, segment := range segments {
		segments[index] = url.PathEscape(segment)
	}
	return strings.Join(segments, "/")
}
