// Package catalog enumerates the archives a content server can serve.
//
// The discovery method depends on the configured strategy: the OPDS feed of a
// remote v2 server, the HTML index page of a remote v1 server, or the archive
// files in the local library directory. Every failure is logged and degrades
// to an empty result so interactive callers never have to handle errors.
package catalog

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/temirov/kiwixctl/internal/types"
	"github.com/temirov/kiwixctl/internal/utils"
)

const (
	defaultRequestTimeout       = 10 * time.Second
	maxCatalogBytes       int64 = 8 << 20
	maxThumbnailBytes     int64 = 512 << 10
	userAgentValue              = "kiwixctl-catalog"

	catalogFailureMessage = "catalog unavailable"
)

type httpClient interface {
	Do(request *http.Request) (*http.Response, error)
}

// Options selects how and where archives are discovered.
type Options struct {
	Strategy         types.Strategy
	Endpoint         types.Endpoint
	LibraryDirectory string
	FetchThumbnails  bool
}

// Client lists archives according to Options.
type Client struct {
	options Options
	client  httpClient
	logger  *zap.Logger
}

// NewClient returns a Client backed by the provided HTTP client or a default client when nil.
func NewClient(options Options, client httpClient, logger *zap.Logger) *Client {
	if client == nil {
		client = &http.Client{Timeout: defaultRequestTimeout}
	}
	return &Client{
		options: options,
		client:  client,
		logger:  utils.LoggerOrNop(logger),
	}
}

// ListArchives returns the identifiers of every discovered archive.
func (catalogClient *Client) ListArchives(ctx context.Context) []types.ArchiveID {
	entries := catalogClient.ListEntries(ctx)
	archives := make([]types.ArchiveID, 0, len(entries))
	for _, entry := range entries {
		archives = append(archives, entry.ID)
	}
	return archives
}

// ListEntries returns every discovered archive with its display decoration.
func (catalogClient *Client) ListEntries(ctx context.Context) []types.CatalogEntry {
	entries, source, err := catalogClient.fetch(ctx)
	if err != nil {
		catalogClient.logger.Warn(catalogFailureMessage,
			zap.String("source", source),
			zap.String("kind", failureKind(err)),
			zap.Error(err),
		)
		return []types.CatalogEntry{}
	}
	return entries
}

func (catalogClient *Client) fetch(ctx context.Context) ([]types.CatalogEntry, string, error) {
	switch catalogClient.options.Strategy.Catalog {
	case types.CatalogOPDS:
		source := catalogClient.options.Endpoint.URL(opdsSearchPath)
		entries, err := catalogClient.fetchOPDS(ctx, source)
		return entries, source, err
	case types.CatalogHTML:
		source := catalogClient.options.Endpoint.Root()
		entries, err := catalogClient.fetchHTML(ctx, source)
		return entries, source, err
	default:
		source := catalogClient.options.LibraryDirectory
		entries, err := listDirectory(source)
		return entries, source, err
	}
}

// get performs a GET request and returns at most limit bytes of a successful body.
func (catalogClient *Client) get(ctx context.Context, target string, limit int64) ([]byte, error) {
	request, requestErr := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if requestErr != nil {
		return nil, fmt.Errorf("%w: build request for %s: %v", types.ErrTransport, target, requestErr)
	}
	request.Header.Set("User-Agent", userAgentValue)
	response, responseErr := catalogClient.client.Do(request)
	if responseErr != nil {
		return nil, fmt.Errorf("%w: %s: %v", types.ErrTransport, target, responseErr)
	}
	defer response.Body.Close()
	if response.StatusCode < http.StatusOK || response.StatusCode >= http.StatusMultipleChoices {
		return nil, fmt.Errorf("%w: %s: unexpected status %d", types.ErrTransport, target, response.StatusCode)
	}
	body, readErr := io.ReadAll(io.LimitReader(response.Body, limit))
	if readErr != nil {
		return nil, fmt.Errorf("%w: read %s: %v", types.ErrTransport, target, readErr)
	}
	return body, nil
}

// resolveLink turns a server-relative link into an absolute URL.
func (catalogClient *Client) resolveLink(link string) string {
	if strings.HasPrefix(link, "http://") || strings.HasPrefix(link, "https://") {
		return link
	}
	return catalogClient.options.Endpoint.URL(link)
}

func failureKind(err error) string {
	switch {
	case errors.Is(err, types.ErrDirectoryUnavailable):
		return "directory"
	case errors.Is(err, types.ErrParse):
		return "parse"
	default:
		return "transport"
	}
}
