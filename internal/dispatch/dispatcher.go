// Package dispatch validates search requests, builds server URLs and opens them.
package dispatch

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/temirov/kiwixctl/internal/types"
	"github.com/temirov/kiwixctl/internal/utils"
)

const openingMessage = "opening url"

// Dispatcher turns a query into a URL for the configured strategy and opens it.
type Dispatcher struct {
	strategy types.Strategy
	endpoint types.Endpoint
	opener   Opener
	logger   *zap.Logger
}

// NewDispatcher returns a Dispatcher using opener to show URLs.
func NewDispatcher(strategy types.Strategy, endpoint types.Endpoint, opener Opener, logger *zap.Logger) *Dispatcher {
	return &Dispatcher{
		strategy: strategy,
		endpoint: endpoint,
		opener:   opener,
		logger:   utils.LoggerOrNop(logger),
	}
}

// QueryURL validates query and archive and returns the address OpenQuery would open.
func (dispatcher *Dispatcher) QueryURL(query string, archive types.ArchiveID) (string, error) {
	normalized := NormalizeQuery(query)
	if normalized == "" {
		return "", fmt.Errorf("%w: query is empty", types.ErrInvalidQuery)
	}
	archive = types.ArchiveID(strings.TrimSpace(archive.String()))
	if archive == "" {
		return "", fmt.Errorf("%w: archive is empty", types.ErrInvalidQuery)
	}
	return BuildQueryURL(dispatcher.strategy, dispatcher.endpoint, archive, normalized), nil
}

// OpenQuery opens the page for query within archive. Empty input returns types.ErrInvalidQuery and opens nothing.
func (dispatcher *Dispatcher) OpenQuery(ctx context.Context, query string, archive types.ArchiveID) error {
	address, err := dispatcher.QueryURL(query, archive)
	if err != nil {
		return err
	}
	return dispatcher.open(ctx, address)
}

// FullContextURL validates query and returns the cross-archive search address.
func (dispatcher *Dispatcher) FullContextURL(query string) (string, error) {
	normalized := NormalizeQuery(query)
	if normalized == "" {
		return "", fmt.Errorf("%w: query is empty", types.ErrInvalidQuery)
	}
	return FullContextURL(dispatcher.endpoint, normalized), nil
}

// OpenFullContext opens a search for query across every archive.
func (dispatcher *Dispatcher) OpenFullContext(ctx context.Context, query string) error {
	address, err := dispatcher.FullContextURL(query)
	if err != nil {
		return err
	}
	return dispatcher.open(ctx, address)
}

func (dispatcher *Dispatcher) open(ctx context.Context, address string) error {
	dispatcher.logger.Debug(openingMessage, zap.String("url", address))
	return dispatcher.opener.Open(ctx, address)
}
