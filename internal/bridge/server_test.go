package bridge_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/temirov/kiwixctl/internal/bridge"
	"github.com/temirov/kiwixctl/internal/types"
)

func echoCommand(name string) bridge.Command {
	return bridge.Command{
		Name:        name,
		Description: "echo " + name,
		Handle: func(_ context.Context, request bridge.Request) (any, error) {
			return request, nil
		},
	}
}

func failingCommand(name string, err error) bridge.Command {
	return bridge.Command{
		Name: name,
		Handle: func(context.Context, bridge.Request) (any, error) {
			return nil, err
		},
	}
}

func TestServerRunExposesCapabilities(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name         string
		commands     []bridge.Command
		expectedCaps []bridge.Capability
	}{
		{
			name:         "no commands",
			expectedCaps: []bridge.Capability{},
		},
		{
			name:         "registration order",
			commands:     []bridge.Command{echoCommand("suggest"), echoCommand("search")},
			expectedCaps: []bridge.Capability{{Name: "suggest", Description: "echo suggest"}, {Name: "search", Description: "echo search"}},
		},
		{
			name:         "later registration replaces handler but keeps position",
			commands:     []bridge.Command{echoCommand("list"), echoCommand("ping"), echoCommand("list")},
			expectedCaps: []bridge.Capability{{Name: "list", Description: "echo list"}, {Name: "ping", Description: "echo ping"}},
		},
	}

	for _, testCase := range testCases {
		testCase := testCase
		t.Run(testCase.name, func(t *testing.T) {
			t.Parallel()

			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()

			server := bridge.NewServer(bridge.Config{Address: "127.0.0.1:0", Commands: testCase.commands})
			addressCh := make(chan string, 1)
			errorCh := make(chan error, 1)
			go func() {
				errorCh <- server.Run(ctx, func(address string) {
					addressCh <- address
				})
			}()

			select {
			case address := <-addressCh:
				client := http.Client{Timeout: 2 * time.Second}
				response, err := client.Get("http://" + address + "/capabilities")
				if err != nil {
					t.Fatalf("perform request: %v", err)
				}
				defer response.Body.Close()
				if response.StatusCode != http.StatusOK {
					t.Fatalf("unexpected status: %d", response.StatusCode)
				}
				var body struct {
					Capabilities []bridge.Capability `json:"capabilities"`
				}
				if err := json.NewDecoder(response.Body).Decode(&body); err != nil {
					t.Fatalf("decode response: %v", err)
				}
				if diff := cmp.Diff(testCase.expectedCaps, body.Capabilities); diff != "" {
					t.Fatalf("unexpected capabilities (-want +got):\n%s", diff)
				}
			case <-time.After(2 * time.Second):
				t.Fatalf("server did not start")
			}

			cancel()
			if err := <-errorCh; err != nil {
				t.Fatalf("server error: %v", err)
			}
		})
	}
}

func TestServeCommandMapsFailures(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(bridge.NewServer(bridge.Config{Commands: []bridge.Command{
		echoCommand("ok"),
		failingCommand("invalid", fmt.Errorf("search: %w", types.ErrInvalidQuery)),
		failingCommand("unavailable", types.ErrServerUnavailable),
		failingCommand("teapot", bridge.WithStatus(http.StatusTeapot, errors.New("short and stout"))),
		failingCommand("broken", errors.New("boom")),
	}}).Handler())
	t.Cleanup(server.Close)

	testCases := []struct {
		name           string
		method         string
		path           string
		body           string
		expectedStatus int
	}{
		{name: "success", method: http.MethodPost, path: "/commands/ok", body: `{"archive":"wiki"}`, expectedStatus: http.StatusOK},
		{name: "empty body", method: http.MethodPost, path: "/commands/ok", expectedStatus: http.StatusOK},
		{name: "malformed body", method: http.MethodPost, path: "/commands/ok", body: `{"archive":`, expectedStatus: http.StatusBadRequest},
		{name: "invalid query", method: http.MethodPost, path: "/commands/invalid", expectedStatus: http.StatusBadRequest},
		{name: "server unavailable", method: http.MethodPost, path: "/commands/unavailable", expectedStatus: http.StatusServiceUnavailable},
		{name: "explicit status", method: http.MethodPost, path: "/commands/teapot", expectedStatus: http.StatusTeapot},
		{name: "unexpected failure", method: http.MethodPost, path: "/commands/broken", expectedStatus: http.StatusInternalServerError},
		{name: "unknown command", method: http.MethodPost, path: "/commands/missing", expectedStatus: http.StatusNotFound},
		{name: "wrong method", method: http.MethodGet, path: "/commands/ok", expectedStatus: http.StatusMethodNotAllowed},
	}

	for _, testCase := range testCases {
		testCase := testCase
		t.Run(testCase.name, func(t *testing.T) {
			t.Parallel()
			request, err := http.NewRequest(testCase.method, server.URL+testCase.path, strings.NewReader(testCase.body))
			if err != nil {
				t.Fatalf("new request: %v", err)
			}
			response, err := server.Client().Do(request)
			if err != nil {
				t.Fatalf("perform request: %v", err)
			}
			defer response.Body.Close()
			if response.StatusCode != testCase.expectedStatus {
				t.Fatalf("expected status %d, got %d", testCase.expectedStatus, response.StatusCode)
			}
			if testCase.method != http.MethodPost || testCase.expectedStatus == http.StatusOK {
				return
			}
			var failure struct {
				Error  string `json:"error"`
				Status int    `json:"status"`
			}
			if err := json.NewDecoder(response.Body).Decode(&failure); err != nil {
				t.Fatalf("decode failure: %v", err)
			}
			if failure.Status != testCase.expectedStatus || failure.Error == "" {
				t.Fatalf("expected an error envelope with status %d, got %+v", testCase.expectedStatus, failure)
			}
		})
	}
}

func TestServeCommandDecodesRequest(t *testing.T) {
	t.Parallel()
	server := httptest.NewServer(bridge.NewServer(bridge.Config{Commands: []bridge.Command{echoCommand("search")}}).Handler())
	defer server.Close()

	response, err := server.Client().Post(server.URL+"/commands/search", "application/json",
		strings.NewReader(`{"archive":" wiki ","query":"Linux kernel","editor":"vim"}`))
	if err != nil {
		t.Fatalf("perform request: %v", err)
	}
	defer response.Body.Close()
	var body struct {
		Result bridge.Request `json:"result"`
	}
	if err := json.NewDecoder(response.Body).Decode(&body); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	expected := bridge.Request{Archive: " wiki ", Query: "Linux kernel"}
	if body.Result != expected {
		t.Fatalf("expected %+v, got %+v", expected, body.Result)
	}
	if archive := body.Result.ArchiveID(); archive != "wiki" {
		t.Fatalf("expected trimmed archive, got %q", archive)
	}
}

func TestExecuteRunsCommandsOneAtATime(t *testing.T) {
	t.Parallel()
	var active atomic.Int32
	var overlapped atomic.Bool
	slow := bridge.Command{
		Name: "slow",
		Handle: func(context.Context, bridge.Request) (any, error) {
			if active.Add(1) > 1 {
				overlapped.Store(true)
			}
			time.Sleep(5 * time.Millisecond)
			active.Add(-1)
			return nil, nil
		},
	}
	server := bridge.NewServer(bridge.Config{Commands: []bridge.Command{slow}})

	var group sync.WaitGroup
	for worker := 0; worker < 8; worker++ {
		group.Add(1)
		go func() {
			defer group.Done()
			if _, err := server.Execute(context.Background(), "slow", bridge.Request{}); err != nil {
				t.Errorf("execute: %v", err)
			}
		}()
	}
	group.Wait()
	if overlapped.Load() {
		t.Fatalf("expected commands to run one at a time")
	}
	if _, err := server.Execute(context.Background(), "absent", bridge.Request{}); !errors.Is(err, bridge.ErrUnknownCommand) {
		t.Fatalf("expected ErrUnknownCommand, got %v", err)
	}
}
