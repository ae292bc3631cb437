// Package app coordinates the catalog, server, suggestion, picker and dispatch components
// behind the user-facing operations.
package app

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/temirov/kiwixctl/internal/picker"
	"github.com/temirov/kiwixctl/internal/point"
	"github.com/temirov/kiwixctl/internal/suggest"
	"github.com/temirov/kiwixctl/internal/types"
	"github.com/temirov/kiwixctl/internal/utils"
)

const (
	archivePrompt            = "Archive"
	searchPromptFormat       = "Search %s"
	fullContextPrompt        = "Search all archives"
	pointUnavailableMessage  = "thing at point unavailable"
	launchFailedMessage      = "server launch failed"
	serverUnavailableMessage = "content server did not become reachable"
)

// ServerManager controls the content server.
type ServerManager interface {
	Launch(ctx context.Context) error
	Stop(ctx context.Context) error
	Ping(ctx context.Context, session *types.Session) bool
}

// Catalog lists available archives.
type Catalog interface {
	ListArchives(ctx context.Context) []types.ArchiveID
	ListEntries(ctx context.Context) []types.CatalogEntry
}

// Suggester produces autocomplete candidates.
type Suggester interface {
	Suggest(ctx context.Context, session *types.Session, input string, archive types.ArchiveID) types.SuggestionList
	QueryFunc(session *types.Session, archive types.ArchiveID) suggest.QueryFunc
}

// Dispatcher builds and opens result URLs.
type Dispatcher interface {
	QueryURL(query string, archive types.ArchiveID) (string, error)
	OpenQuery(ctx context.Context, query string, archive types.ArchiveID) error
	OpenFullContext(ctx context.Context, query string) error
}

// Dependencies are the components an App coordinates.
type Dependencies struct {
	Server     ServerManager
	Catalog    Catalog
	Suggester  Suggester
	Dispatcher Dispatcher
	Picker     picker.Picker
	Point      point.Provider
	Logger     *zap.Logger
}

// App owns the per-invocation Session and runs the user-facing operations.
type App struct {
	session    *types.Session
	server     ServerManager
	catalog    Catalog
	suggester  Suggester
	dispatcher Dispatcher
	picker     picker.Picker
	point      point.Provider
	logger     *zap.Logger
}

// New returns an App with a fresh Session.
func New(dependencies Dependencies) *App {
	return &App{
		session:    types.NewSession(),
		server:     dependencies.Server,
		catalog:    dependencies.Catalog,
		suggester:  dependencies.Suggester,
		dispatcher: dependencies.Dispatcher,
		picker:     dependencies.Picker,
		point:      dependencies.Point,
		logger:     utils.LoggerOrNop(dependencies.Logger),
	}
}

// Session exposes the availability state shared by this App's operations.
func (application *App) Session() *types.Session {
	return application.session
}

// LaunchServer starts the content server for the configured topology.
func (application *App) LaunchServer(ctx context.Context) error {
	return application.server.Launch(ctx)
}

// StopServer stops a server started by LaunchServer.
func (application *App) StopServer(ctx context.Context) error {
	return application.server.Stop(ctx)
}

// Ping reports whether the content server answers.
func (application *App) Ping(ctx context.Context) bool {
	return application.server.Ping(ctx, application.session)
}

// ListCatalog returns every discovered archive with its decoration.
func (application *App) ListCatalog(ctx context.Context) []types.CatalogEntry {
	return application.catalog.ListEntries(ctx)
}

// Suggest returns the suggestions for term within archive.
func (application *App) Suggest(ctx context.Context, archive types.ArchiveID, term string) types.SuggestionList {
	return application.suggester.Suggest(ctx, application.session, term, archive)
}

// QueryURL returns the result address without opening it.
func (application *App) QueryURL(archive types.ArchiveID, query string) (string, error) {
	return application.dispatcher.QueryURL(query, archive)
}

// SearchArchive opens query within archive, asking the user for whichever of them is missing.
func (application *App) SearchArchive(ctx context.Context, archive types.ArchiveID, query string) error {
	if archive == "" {
		chosen, err := application.chooseArchive(ctx)
		if err != nil {
			return err
		}
		archive = chosen
	}
	if strings.TrimSpace(query) == "" {
		chosen, err := application.chooseQuery(ctx, archive)
		if err != nil {
			return err
		}
		query = chosen
	}
	return application.dispatcher.OpenQuery(ctx, query, archive)
}

// SearchFullContext opens a search across every archive.
func (application *App) SearchFullContext(ctx context.Context, query string) error {
	if strings.TrimSpace(query) == "" {
		chosen, err := application.picker.Complete(ctx, fullContextPrompt, nil)
		if err != nil {
			return err
		}
		query = chosen
	}
	return application.dispatcher.OpenFullContext(ctx, query)
}

// SearchAtPoint searches for the thing at point, starting the server when it does not answer.
// The availability flag is cleared when the operation ends so the next one checks again.
func (application *App) SearchAtPoint(ctx context.Context) error {
	defer application.session.Reset()

	thing := application.thingAtPoint(ctx)
	if !application.ensureServer(ctx) {
		return fmt.Errorf("%w: %s", types.ErrServerUnavailable, serverUnavailableMessage)
	}

	archive, err := application.chooseArchive(ctx)
	if err != nil {
		return err
	}
	query := thing
	if query == "" {
		chosen, chooseErr := application.chooseQuery(ctx, archive)
		if chooseErr != nil {
			return chooseErr
		}
		query = chosen
	}
	return application.dispatcher.OpenQuery(ctx, query, archive)
}

func (application *App) thingAtPoint(ctx context.Context) string {
	if application.point == nil {
		return ""
	}
	thing, err := application.point.ThingAtPoint(ctx)
	if err != nil {
		application.logger.Warn(pointUnavailableMessage, zap.Error(err))
		return ""
	}
	return thing
}

// ensureServer pings, launches once when the ping fails, and pings again.
func (application *App) ensureServer(ctx context.Context) bool {
	if application.server.Ping(ctx, application.session) {
		return true
	}
	if err := application.server.Launch(ctx); err != nil {
		application.logger.Warn(launchFailedMessage, zap.Error(err))
	}
	return application.server.Ping(ctx, application.session)
}

func (application *App) chooseArchive(ctx context.Context) (types.ArchiveID, error) {
	archives := application.catalog.ListArchives(ctx)
	candidates := make([]string, 0, len(archives))
	for _, archive := range archives {
		candidates = append(candidates, archive.String())
	}
	selection, err := application.picker.Choose(ctx, archivePrompt, candidates)
	if err != nil {
		return "", err
	}
	return types.ArchiveID(strings.TrimSpace(selection)), nil
}

func (application *App) chooseQuery(ctx context.Context, archive types.ArchiveID) (string, error) {
	query := application.suggester.QueryFunc(application.session, archive)
	return application.picker.Complete(ctx, fmt.Sprintf(searchPromptFormat, archive), query)
}
