package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/temirov/kiwixctl/internal/bridge"
	"github.com/temirov/kiwixctl/internal/types"
)

// bridgeOperations are the App operations reachable from editors.
type bridgeOperations interface {
	ListCatalog(ctx context.Context) []types.CatalogEntry
	Suggest(ctx context.Context, archive types.ArchiveID, term string) types.SuggestionList
	SearchArchive(ctx context.Context, archive types.ArchiveID, query string) error
	SearchFullContext(ctx context.Context, query string) error
	QueryURL(archive types.ArchiveID, query string) (string, error)
	LaunchServer(ctx context.Context) error
	StopServer(ctx context.Context) error
	Ping(ctx context.Context) bool
}

type urlResult struct {
	URL string `json:"url"`
}

type pingResult struct {
	Reachable bool `json:"reachable"`
}

type acknowledgement struct {
	OK bool `json:"ok"`
}

var acknowledged = acknowledgement{OK: true}

// bridgeCommands binds every editor command to operations. The bridge never prompts,
// so commands that would ask for a missing archive or query reject the request instead.
func bridgeCommands(operations bridgeOperations) []bridge.Command {
	return []bridge.Command{
		{
			Name:        types.CommandList,
			Description: "List the archives the server offers",
			Handle: func(ctx context.Context, _ bridge.Request) (any, error) {
				entries := operations.ListCatalog(ctx)
				if entries == nil {
					entries = []types.CatalogEntry{}
				}
				return entries, nil
			},
		},
		{
			Name:        types.CommandSuggest,
			Description: "Suggest search terms for {archive, term}",
			Handle: func(ctx context.Context, request bridge.Request) (any, error) {
				return operations.Suggest(ctx, request.ArchiveID(), request.Term), nil
			},
		},
		{
			Name:        types.CommandSearch,
			Description: "Open {query} within {archive}",
			Handle: func(ctx context.Context, request bridge.Request) (any, error) {
				if request.ArchiveID() == "" || strings.TrimSpace(request.Query) == "" {
					return nil, fmt.Errorf("%w: archive and query are required", types.ErrInvalidQuery)
				}
				if err := operations.SearchArchive(ctx, request.ArchiveID(), request.Query); err != nil {
					return nil, err
				}
				return queryURL(operations, request)
			},
		},
		{
			Name:        types.CommandSearchAll,
			Description: "Open a search for {query} across every archive",
			Handle: func(ctx context.Context, request bridge.Request) (any, error) {
				if strings.TrimSpace(request.Query) == "" {
					return nil, fmt.Errorf("%w: query is required", types.ErrInvalidQuery)
				}
				if err := operations.SearchFullContext(ctx, request.Query); err != nil {
					return nil, err
				}
				return acknowledged, nil
			},
		},
		{
			Name:        types.CommandURL,
			Description: "Return the result URL for {archive, query}",
			Handle: func(_ context.Context, request bridge.Request) (any, error) {
				return queryURL(operations, request)
			},
		},
		{
			Name:        types.CommandLaunch,
			Description: "Start the content server",
			Handle: func(ctx context.Context, _ bridge.Request) (any, error) {
				if err := operations.LaunchServer(ctx); err != nil {
					return nil, err
				}
				return acknowledged, nil
			},
		},
		{
			Name:        types.CommandStop,
			Description: "Stop a native content server",
			Handle: func(ctx context.Context, _ bridge.Request) (any, error) {
				if err := operations.StopServer(ctx); err != nil {
					return nil, err
				}
				return acknowledged, nil
			},
		},
		{
			Name:        types.CommandPing,
			Description: "Report whether the content server answers",
			Handle: func(ctx context.Context, _ bridge.Request) (any, error) {
				return pingResult{Reachable: operations.Ping(ctx)}, nil
			},
		},
	}
}

func queryURL(operations bridgeOperations, request bridge.Request) (any, error) {
	address, err := operations.QueryURL(request.ArchiveID(), request.Query)
	if err != nil {
		return nil, err
	}
	return urlResult{URL: address}, nil
}
