package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/temirov/kiwixctl/internal/bridge"
	"github.com/temirov/kiwixctl/internal/types"
)

type fakeOperations struct {
	mutex       sync.Mutex
	reachable   bool
	searched    []string
	fullContext []string
	launches    int
	stops       int
}

func (operations *fakeOperations) ListCatalog(context.Context) []types.CatalogEntry {
	return []types.CatalogEntry{{ID: "wikipedia_en_all", Title: "Wikipedia"}}
}

func (operations *fakeOperations) Suggest(_ context.Context, archive types.ArchiveID, term string) types.SuggestionList {
	if archive == "" || term == "" {
		return types.SuggestionList{}
	}
	return types.SuggestionList{term, term + " kernel"}
}

func (operations *fakeOperations) SearchArchive(_ context.Context, archive types.ArchiveID, query string) error {
	operations.mutex.Lock()
	defer operations.mutex.Unlock()
	operations.searched = append(operations.searched, archive.String()+"/"+query)
	return nil
}

func (operations *fakeOperations) SearchFullContext(_ context.Context, query string) error {
	operations.mutex.Lock()
	defer operations.mutex.Unlock()
	operations.fullContext = append(operations.fullContext, query)
	return nil
}

func (operations *fakeOperations) QueryURL(archive types.ArchiveID, query string) (string, error) {
	if archive == "" || strings.TrimSpace(query) == "" {
		return "", types.ErrInvalidQuery
	}
	return "http://localhost:8080/content/" + archive.String() + "/" + strings.ReplaceAll(query, " ", "_"), nil
}

func (operations *fakeOperations) LaunchServer(context.Context) error {
	operations.launches++
	return nil
}

func (operations *fakeOperations) StopServer(context.Context) error {
	operations.stops++
	return nil
}

func (operations *fakeOperations) Ping(context.Context) bool {
	return operations.reachable
}

func TestBridgeCommands(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name           string
		command        string
		payload        string
		expectedResult string
		expectedStatus int
	}{
		{name: "list", command: types.CommandList, expectedResult: `[{"id":"wikipedia_en_all","title":"Wikipedia"}]`},
		{name: "suggest", command: types.CommandSuggest, payload: `{"archive":"wiki","term":"Linux"}`, expectedResult: `["Linux","Linux kernel"]`},
		{name: "search", command: types.CommandSearch, payload: `{"archive":"wiki","query":"Linux kernel"}`, expectedResult: `{"url":"http://localhost:8080/content/wiki/Linux_kernel"}`},
		{name: "search without query", command: types.CommandSearch, payload: `{"archive":"wiki","query":"  "}`, expectedStatus: http.StatusBadRequest},
		{name: "search without archive", command: types.CommandSearch, payload: `{"archive":"  ","query":"Linux"}`, expectedStatus: http.StatusBadRequest},
		{name: "search all", command: types.CommandSearchAll, payload: `{"query":"Linux"}`, expectedResult: `{"ok":true}`},
		{name: "search all without query", command: types.CommandSearchAll, payload: `{}`, expectedStatus: http.StatusBadRequest},
		{name: "url", command: types.CommandURL, payload: `{"archive":"wiki","query":"Zürich"}`, expectedResult: `{"url":"http://localhost:8080/content/wiki/Zürich"}`},
		{name: "url without query", command: types.CommandURL, payload: `{"archive":"wiki"}`, expectedStatus: http.StatusBadRequest},
		{name: "launch", command: types.CommandLaunch, expectedResult: `{"ok":true}`},
		{name: "stop", command: types.CommandStop, expectedResult: `{"ok":true}`},
		{name: "ping", command: types.CommandPing, expectedResult: `{"reachable":true}`},
	}

	for _, testCase := range testCases {
		testCase := testCase
		t.Run(testCase.name, func(t *testing.T) {
			t.Parallel()
			server := bridge.NewServer(bridge.Config{Commands: bridgeCommands(&fakeOperations{reachable: true})})
			var request bridge.Request
			if testCase.payload != "" {
				if err := json.Unmarshal([]byte(testCase.payload), &request); err != nil {
					t.Fatalf("decode payload: %v", err)
				}
			}
			result, err := server.Execute(context.Background(), testCase.command, request)
			if testCase.expectedStatus != 0 {
				if err == nil {
					t.Fatalf("expected an error with status %d", testCase.expectedStatus)
				}
				if status := bridge.StatusCode(err); status != testCase.expectedStatus {
					t.Fatalf("expected status %d, got %d (%v)", testCase.expectedStatus, status, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("execute %s: %v", testCase.command, err)
			}
			encoded, encodeErr := json.Marshal(result)
			if encodeErr != nil {
				t.Fatalf("encode result: %v", encodeErr)
			}
			if string(encoded) != testCase.expectedResult {
				t.Fatalf("expected %s, got %s", testCase.expectedResult, encoded)
			}
		})
	}
}

func TestBridgeSearchOpensResult(t *testing.T) {
	t.Parallel()
	operations := &fakeOperations{}
	server := bridge.NewServer(bridge.Config{Commands: bridgeCommands(operations)})
	if _, err := server.Execute(context.Background(), types.CommandSearch, bridge.Request{Archive: " wiki ", Query: "Linux"}); err != nil {
		t.Fatalf("execute search: %v", err)
	}
	if diff := cmp.Diff([]string{"wiki/Linux"}, operations.searched); diff != "" {
		t.Fatalf("unexpected searches (-want +got):\n%s", diff)
	}
}

type lockedBuffer struct {
	mutex  sync.Mutex
	buffer bytes.Buffer
}

func (buffer *lockedBuffer) Write(data []byte) (int, error) {
	buffer.mutex.Lock()
	defer buffer.mutex.Unlock()
	return buffer.buffer.Write(data)
}

func (buffer *lockedBuffer) String() string {
	buffer.mutex.Lock()
	defer buffer.mutex.Unlock()
	return buffer.buffer.String()
}

func waitForBridgeAddress(t *testing.T, buffer *lockedBuffer) string {
	t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		for _, line := range strings.Split(buffer.String(), "\n") {
			if strings.HasPrefix(line, bridgeListeningMessage) {
				return strings.TrimPrefix(line, bridgeListeningMessage)
			}
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("bridge address not reported: %s", buffer.String())
	return ""
}

func TestStartBridgeServerServesCommands(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var output lockedBuffer
	done := make(chan error, 1)
	go func() {
		done <- startBridgeServer(ctx, &fakeOperations{reachable: true}, defaultBridgeAddress, &output, nil)
	}()
	address := waitForBridgeAddress(t, &output)
	client := http.Client{Timeout: 2 * time.Second}

	capabilitiesResponse, err := client.Get("http://" + address + "/capabilities")
	if err != nil {
		t.Fatalf("get capabilities: %v", err)
	}
	var capabilitiesBody struct {
		Capabilities []bridge.Capability `json:"capabilities"`
	}
	decodeErr := json.NewDecoder(capabilitiesResponse.Body).Decode(&capabilitiesBody)
	capabilitiesResponse.Body.Close()
	if decodeErr != nil {
		t.Fatalf("decode capabilities: %v", decodeErr)
	}
	expectedCapabilities := make([]bridge.Capability, 0, len(bridgeCommands(nil)))
	for _, command := range bridgeCommands(nil) {
		expectedCapabilities = append(expectedCapabilities, bridge.Capability{Name: command.Name, Description: command.Description})
	}
	if diff := cmp.Diff(expectedCapabilities, capabilitiesBody.Capabilities); diff != "" {
		t.Fatalf("unexpected capabilities (-want +got):\n%s", diff)
	}

	pingResponse, err := client.Post("http://"+address+"/commands/ping", "application/json", strings.NewReader(`{}`))
	if err != nil {
		t.Fatalf("post ping: %v", err)
	}
	var pingBody struct {
		Result pingResult `json:"result"`
	}
	decodeErr = json.NewDecoder(pingResponse.Body).Decode(&pingBody)
	pingResponse.Body.Close()
	if decodeErr != nil {
		t.Fatalf("decode ping: %v", decodeErr)
	}
	if !pingBody.Result.Reachable {
		t.Fatalf("expected a reachable server in %+v", pingBody)
	}

	cancel()
	if err := <-done; err != nil {
		t.Fatalf("bridge shutdown error: %v", err)
	}
}
