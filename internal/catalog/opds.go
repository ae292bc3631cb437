package catalog

import (
	"bytes"
	"context"
	"encoding/xml"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/temirov/kiwixctl/internal/types"
)

const (
	opdsSearchPath      = "/catalog/search?start=0&count="
	opdsHTMLLinkType    = "text/html"
	opdsThumbnailSuffix = "/image/thumbnail"
)

type opdsFeed struct {
	Entries []opdsEntry `xml:"entry"`
}

type opdsEntry struct {
	Title   string     `xml:"title"`
	Summary string     `xml:"summary"`
	Links   []opdsLink `xml:"link"`
}

type opdsLink struct {
	Rel  string `xml:"rel,attr"`
	Type string `xml:"type,attr"`
	Href string `xml:"href,attr"`
}

func (catalogClient *Client) fetchOPDS(ctx context.Context, source string) ([]types.CatalogEntry, error) {
	body, err := catalogClient.get(ctx, source, maxCatalogBytes)
	if err != nil {
		return nil, err
	}
	feed, parseErr := parseOPDSFeed(body)
	if parseErr != nil {
		return nil, fmt.Errorf("%s: %w", source, parseErr)
	}

	entries := make([]types.CatalogEntry, 0, len(feed.Entries))
	for _, feedEntry := range feed.Entries {
		htmlLink, found := feedEntry.link(func(link opdsLink) bool { return link.Type == opdsHTMLLinkType })
		if !found {
			continue
		}
		archive, linkErr := types.ArchiveIDFromLink(htmlLink.Href)
		if linkErr != nil {
			catalogClient.logger.Debug("skipping catalog entry", zap.String("title", feedEntry.Title), zap.Error(linkErr))
			continue
		}
		entry := types.CatalogEntry{
			ID:      archive,
			Title:   strings.TrimSpace(feedEntry.Title),
			Summary: strings.TrimSpace(feedEntry.Summary),
		}
		if catalogClient.options.FetchThumbnails {
			entry.Thumbnail = catalogClient.fetchThumbnail(ctx, feedEntry)
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

func parseOPDSFeed(body []byte) (opdsFeed, error) {
	var feed opdsFeed
	if err := xml.NewDecoder(bytes.NewReader(body)).Decode(&feed); err != nil {
		return opdsFeed{}, fmt.Errorf("%w: decode opds feed: %v", types.ErrParse, err)
	}
	return feed, nil
}

// fetchThumbnail is best-effort decoration; failures leave the entry without an image.
func (catalogClient *Client) fetchThumbnail(ctx context.Context, feedEntry opdsEntry) []byte {
	thumbnailLink, found := feedEntry.link(func(link opdsLink) bool {
		return strings.HasSuffix(link.Rel, opdsThumbnailSuffix)
	})
	if !found || strings.TrimSpace(thumbnailLink.Href) == "" {
		return nil
	}
	target := catalogClient.resolveLink(thumbnailLink.Href)
	image, err := catalogClient.get(ctx, target, maxThumbnailBytes)
	if err != nil {
		catalogClient.logger.Debug("thumbnail unavailable", zap.String("url", target), zap.Error(err))
		return nil
	}
	return image
}

func (entry opdsEntry) link(matches func(opdsLink) bool) (opdsLink, bool) {
	for _, link := range entry.Links {
		if matches(link) {
			return link, true
		}
	}
	return opdsLink{}, false
}
