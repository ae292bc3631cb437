// Package types defines every cross‑package data structure used by the kiwixctl CLI.
package types

import (
	"fmt"
	"strconv"
	"strings"
)

const (
	CommandLaunch     = "launch"
	CommandStop       = "stop"
	CommandPing       = "ping"
	CommandList       = "list"
	CommandSearch     = "search"
	CommandSearchAll  = "search-all"
	CommandAtPoint    = "at-point"
	CommandSuggest    = "suggest"
	CommandURL        = "url"
	CommandServe      = "serve"
	CommandConfigInit = "init"

	FormatTable = "table"
	FormatJSON  = "json"

	// ArchiveExtension is the file extension of offline content archives.
	ArchiveExtension = ".zim"
	// LibraryFileName is the library descriptor conventionally kept next to the archives.
	LibraryFileName = "library.xml"
)

// Topology describes where the content server runs relative to the client.
type Topology string

const (
	// TopologyRemote is a server managed by an operator outside of kiwixctl.
	TopologyRemote Topology = "remote"
	// TopologyDocker is a local server running inside a container.
	TopologyDocker Topology = "docker"
	// TopologyNative is a local kiwix-serve process spawned by kiwixctl.
	TopologyNative Topology = "native"
)

// ParseTopology converts a configuration value into a Topology.
func ParseTopology(value string) (Topology, error) {
	switch Topology(strings.ToLower(strings.TrimSpace(value))) {
	case TopologyRemote:
		return TopologyRemote, nil
	case TopologyDocker:
		return TopologyDocker, nil
	case TopologyNative:
		return TopologyNative, nil
	default:
		return "", fmt.Errorf("unsupported topology %q", value)
	}
}

// IsLocal reports whether the server is expected to run on this machine.
func (topology Topology) IsLocal() bool {
	return topology == TopologyDocker || topology == TopologyNative
}

// APIVersion selects the server API dialect.
type APIVersion string

const (
	APIVersion1 APIVersion = "v1"
	APIVersion2 APIVersion = "v2"
)

// ParseAPIVersion converts a configuration value into an APIVersion.
func ParseAPIVersion(value string) (APIVersion, error) {
	switch APIVersion(strings.ToLower(strings.TrimSpace(value))) {
	case APIVersion1:
		return APIVersion1, nil
	case APIVersion2:
		return APIVersion2, nil
	default:
		return "", fmt.Errorf("unsupported api version %q", value)
	}
}

// ArchiveID names one offline content archive served by the content server.
type ArchiveID string

// DeriveArchiveID strips the archive extension from a file name.
func DeriveArchiveID(fileName string) (ArchiveID, error) {
	if !strings.HasSuffix(fileName, ArchiveExtension) {
		return "", fmt.Errorf("%q does not have the %s extension", fileName, ArchiveExtension)
	}
	trimmed := strings.TrimSuffix(fileName, ArchiveExtension)
	if trimmed == "" {
		return "", fmt.Errorf("%q has an empty archive name", fileName)
	}
	return ArchiveID(trimmed), nil
}

// ArchiveIDFromLink extracts an archive identifier from a catalog link such as "/wikipedia_en".
func ArchiveIDFromLink(link string) (ArchiveID, error) {
	trimmed := strings.TrimPrefix(strings.TrimSpace(link), "/")
	if trimmed == "" {
		return "", fmt.Errorf("catalog link %q has no archive name", link)
	}
	return ArchiveID(trimmed), nil
}

// String returns the identifier as plain text.
func (archive ArchiveID) String() string {
	return string(archive)
}

// Endpoint is the base URL and port of the content server.
type Endpoint struct {
	BaseURL string
	Port    int
}

// Origin returns "{base}:{port}" without a trailing slash.
func (endpoint Endpoint) Origin() string {
	base := strings.TrimRight(strings.TrimSpace(endpoint.BaseURL), "/")
	return base + ":" + strconv.Itoa(endpoint.Port)
}

// URL joins the origin with an absolute request path.
func (endpoint Endpoint) URL(requestPath string) string {
	if !strings.HasPrefix(requestPath, "/") {
		requestPath = "/" + requestPath
	}
	return endpoint.Origin() + requestPath
}

// Root returns the URL of the server index page.
func (endpoint Endpoint) Root() string {
	return endpoint.URL("/")
}

// CatalogEntry is one archive as shown in a picker or listing.
type CatalogEntry struct {
	ID        ArchiveID `json:"id"`
	Title     string    `json:"title,omitempty"`
	Summary   string    `json:"summary,omitempty"`
	Thumbnail []byte    `json:"-"`
}

// SuggestionList holds the autocomplete candidates for one input value.
type SuggestionList []string
