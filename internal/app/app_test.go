package app

import (
	"context"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/temirov/kiwixctl/internal/picker"
	"github.com/temirov/kiwixctl/internal/suggest"
	"github.com/temirov/kiwixctl/internal/types"
)

type fakeServer struct {
	pingResults []bool
	pings       int
	launches    int
	launchErr   error
	stops       int
}

func (server *fakeServer) Launch(context.Context) error {
	server.launches++
	return server.launchErr
}

func (server *fakeServer) Stop(context.Context) error {
	server.stops++
	return nil
}

func (server *fakeServer) Ping(_ context.Context, session *types.Session) bool {
	result := false
	if server.pings < len(server.pingResults) {
		result = server.pingResults[server.pings]
	}
	server.pings++
	session.SetAvailable(result)
	return result
}

type fakeCatalog struct {
	archives []types.ArchiveID
	calls    int
}

func (catalog *fakeCatalog) ListArchives(context.Context) []types.ArchiveID {
	catalog.calls++
	return catalog.archives
}

func (catalog *fakeCatalog) ListEntries(context.Context) []types.CatalogEntry {
	entries := make([]types.CatalogEntry, 0, len(catalog.archives))
	for _, archive := range catalog.archives {
		entries = append(entries, types.CatalogEntry{ID: archive, Title: archive.String()})
	}
	return entries
}

type fakeSuggester struct {
	boundArchive types.ArchiveID
}

func (suggester *fakeSuggester) Suggest(context.Context, *types.Session, string, types.ArchiveID) types.SuggestionList {
	return types.SuggestionList{"Linux"}
}

func (suggester *fakeSuggester) QueryFunc(_ *types.Session, archive types.ArchiveID) suggest.QueryFunc {
	suggester.boundArchive = archive
	return func(context.Context, string) types.SuggestionList { return types.SuggestionList{"Linux"} }
}

type openedQuery struct {
	Query   string
	Archive types.ArchiveID
}

type fakeDispatcher struct {
	opened      []openedQuery
	fullContext []string
}

func (dispatcher *fakeDispatcher) QueryURL(query string, archive types.ArchiveID) (string, error) {
	return "http://host:8080/" + archive.String() + "/A/" + query, nil
}

func (dispatcher *fakeDispatcher) OpenQuery(_ context.Context, query string, archive types.ArchiveID) error {
	if query == "" || archive == "" {
		return types.ErrInvalidQuery
	}
	dispatcher.opened = append(dispatcher.opened, openedQuery{Query: query, Archive: archive})
	return nil
}

func (dispatcher *fakeDispatcher) OpenFullContext(_ context.Context, query string) error {
	if query == "" {
		return types.ErrInvalidQuery
	}
	dispatcher.fullContext = append(dispatcher.fullContext, query)
	return nil
}

type fakePicker struct {
	choice          string
	completion      string
	err             error
	chosenFrom      []string
	completePrompts []string
}

func (fake *fakePicker) Choose(_ context.Context, _ string, candidates []string) (string, error) {
	fake.chosenFrom = candidates
	return fake.choice, fake.err
}

func (fake *fakePicker) Complete(_ context.Context, prompt string, _ suggest.QueryFunc) (string, error) {
	fake.completePrompts = append(fake.completePrompts, prompt)
	return fake.completion, fake.err
}

type fakePoint struct {
	thing string
	err   error
}

func (fake fakePoint) ThingAtPoint(context.Context) (string, error) {
	return fake.thing, fake.err
}

type fixture struct {
	server     *fakeServer
	catalog    *fakeCatalog
	suggester  *fakeSuggester
	dispatcher *fakeDispatcher
	picker     *fakePicker
	app        *App
}

func newFixture(pingResults []bool, thing string) fixture {
	server := &fakeServer{pingResults: pingResults}
	catalog := &fakeCatalog{archives: []types.ArchiveID{"wikipedia_en_all", "gutenberg_en"}}
	suggester := &fakeSuggester{}
	dispatcher := &fakeDispatcher{}
	fakeChooser := &fakePicker{choice: "wikipedia_en_all", completion: "Linux kernel"}
	application := New(Dependencies{
		Server:     server,
		Catalog:    catalog,
		Suggester:  suggester,
		Dispatcher: dispatcher,
		Picker:     fakeChooser,
		Point:      fakePoint{thing: thing},
	})
	return fixture{server: server, catalog: catalog, suggester: suggester, dispatcher: dispatcher, picker: fakeChooser, app: application}
}

func TestSearchAtPointUsesThingAtPoint(t *testing.T) {
	t.Parallel()
	testFixture := newFixture([]bool{true}, "recursion")
	if err := testFixture.app.SearchAtPoint(context.Background()); err != nil {
		t.Fatalf("search at point: %v", err)
	}
	expected := []openedQuery{{Query: "recursion", Archive: "wikipedia_en_all"}}
	if diff := cmp.Diff(expected, testFixture.dispatcher.opened); diff != "" {
		t.Fatalf("unexpected dispatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"wikipedia_en_all", "gutenberg_en"}, testFixture.picker.chosenFrom); diff != "" {
		t.Fatalf("unexpected archive candidates (-want +got):\n%s", diff)
	}
	if len(testFixture.picker.completePrompts) != 0 {
		t.Fatalf("expected no query prompt, got %v", testFixture.picker.completePrompts)
	}
	if testFixture.server.launches != 0 {
		t.Fatalf("expected no launch for a reachable server")
	}
	if testFixture.app.Session().Available() {
		t.Fatalf("expected the availability flag to be reset")
	}
}

func TestSearchAtPointLaunchesUnreachableServer(t *testing.T) {
	t.Parallel()
	testFixture := newFixture([]bool{false, true}, "")
	if err := testFixture.app.SearchAtPoint(context.Background()); err != nil {
		t.Fatalf("search at point: %v", err)
	}
	if testFixture.server.launches != 1 || testFixture.server.pings != 2 {
		t.Fatalf("expected one launch between two pings, got %d launches and %d pings", testFixture.server.launches, testFixture.server.pings)
	}
	expected := []openedQuery{{Query: "Linux kernel", Archive: "wikipedia_en_all"}}
	if diff := cmp.Diff(expected, testFixture.dispatcher.opened); diff != "" {
		t.Fatalf("unexpected dispatch (-want +got):\n%s", diff)
	}
	if testFixture.suggester.boundArchive != "wikipedia_en_all" {
		t.Fatalf("expected suggestions bound to the chosen archive, got %q", testFixture.suggester.boundArchive)
	}
	if testFixture.app.Session().Available() {
		t.Fatalf("expected the availability flag to be reset")
	}
}

func TestSearchAtPointReportsUnavailableServer(t *testing.T) {
	t.Parallel()
	testFixture := newFixture([]bool{false, false}, "recursion")
	testFixture.server.launchErr = errors.New("docker: command not found")

	err := testFixture.app.SearchAtPoint(context.Background())
	if !errors.Is(err, types.ErrServerUnavailable) {
		t.Fatalf("expected server unavailable, got %v", err)
	}
	if len(testFixture.dispatcher.opened) != 0 {
		t.Fatalf("expected nothing dispatched, got %v", testFixture.dispatcher.opened)
	}
	if testFixture.catalog.calls != 0 {
		t.Fatalf("expected no catalog lookup, got %d", testFixture.catalog.calls)
	}
}

func TestSearchAtPointStopsOnCancelledPicker(t *testing.T) {
	t.Parallel()
	testFixture := newFixture([]bool{true}, "recursion")
	testFixture.picker.err = picker.ErrCancelled
	if err := testFixture.app.SearchAtPoint(context.Background()); !errors.Is(err, picker.ErrCancelled) {
		t.Fatalf("expected cancellation, got %v", err)
	}
	if len(testFixture.dispatcher.opened) != 0 {
		t.Fatalf("expected nothing dispatched")
	}
	if testFixture.app.Session().Available() {
		t.Fatalf("expected the availability flag to be reset after an early return")
	}
}

func TestSearchArchivePromptsOnlyForMissingValues(t *testing.T) {
	t.Parallel()
	testCases := []struct {
		name            string
		archive         types.ArchiveID
		query           string
		expected        openedQuery
		expectedChooses bool
		expectedPrompts int
	}{
		{name: "both given", archive: "gutenberg_en", query: "Dickens", expected: openedQuery{Query: "Dickens", Archive: "gutenberg_en"}},
		{name: "archive missing", query: "Dickens", expected: openedQuery{Query: "Dickens", Archive: "wikipedia_en_all"}, expectedChooses: true},
		{name: "query missing", archive: "gutenberg_en", expected: openedQuery{Query: "Linux kernel", Archive: "gutenberg_en"}, expectedPrompts: 1},
	}
	for _, testCase := range testCases {
		testCase := testCase
		t.Run(testCase.name, func(t *testing.T) {
			t.Parallel()
			testFixture := newFixture(nil, "")
			if err := testFixture.app.SearchArchive(context.Background(), testCase.archive, testCase.query); err != nil {
				t.Fatalf("search archive: %v", err)
			}
			if diff := cmp.Diff([]openedQuery{testCase.expected}, testFixture.dispatcher.opened); diff != "" {
				t.Fatalf("unexpected dispatch (-want +got):\n%s", diff)
			}
			if (testFixture.picker.chosenFrom != nil) != testCase.expectedChooses {
				t.Fatalf("expected archive prompt %t", testCase.expectedChooses)
			}
			if len(testFixture.picker.completePrompts) != testCase.expectedPrompts {
				t.Fatalf("expected %d query prompts, got %d", testCase.expectedPrompts, len(testFixture.picker.completePrompts))
			}
		})
	}
}

func TestSearchFullContext(t *testing.T) {
	t.Parallel()
	testFixture := newFixture(nil, "")
	if err := testFixture.app.SearchFullContext(context.Background(), ""); err != nil {
		t.Fatalf("search full context: %v", err)
	}
	if diff := cmp.Diff([]string{"Linux kernel"}, testFixture.dispatcher.fullContext); diff != "" {
		t.Fatalf("unexpected dispatch (-want +got):\n%s", diff)
	}
}

func TestPassThroughOperations(t *testing.T) {
	t.Parallel()
	testFixture := newFixture([]bool{true}, "")
	if err := testFixture.app.LaunchServer(context.Background()); err != nil {
		t.Fatalf("launch: %v", err)
	}
	if err := testFixture.app.StopServer(context.Background()); err != nil {
		t.Fatalf("stop: %v", err)
	}
	if !testFixture.app.Ping(context.Background()) {
		t.Fatalf("expected ping to succeed")
	}
	if testFixture.server.launches != 1 || testFixture.server.stops != 1 {
		t.Fatalf("expected one launch and one stop")
	}
	if entries := testFixture.app.ListCatalog(context.Background()); len(entries) != 2 {
		t.Fatalf("expected two entries, got %d", len(entries))
	}
	if diff := cmp.Diff(types.SuggestionList{"Linux"}, testFixture.app.Suggest(context.Background(), "wiki", "lin")); diff != "" {
		t.Fatalf("unexpected suggestions (-want +got):\n%s", diff)
	}
}
