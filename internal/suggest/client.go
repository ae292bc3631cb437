// Package suggest fetches autocomplete candidates for a partially typed term.
package suggest

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/temirov/kiwixctl/internal/types"
	"github.com/temirov/kiwixctl/internal/utils"
)

const (
	suggestPath           = "/suggest"
	contentParameter      = "content"
	termParameter         = "term"
	defaultRequestTimeout = 10 * time.Second
	maxSuggestionBytes    = 1 << 20

	suggestionFailureMessage = "suggestions unavailable"
)

var errEmptyElement = errors.New("suggestion element has no value")

type httpClient interface {
	Do(request *http.Request) (*http.Response, error)
}

// Pinger checks server reachability and records it in the session.
type Pinger interface {
	Ping(ctx context.Context, session *types.Session) bool
}

// QueryFunc is the front-end agnostic signature pickers call on every input change.
type QueryFunc func(ctx context.Context, input string) types.SuggestionList

// Client queries the server suggestion endpoint.
type Client struct {
	endpoint types.Endpoint
	pinger   Pinger
	client   httpClient
	logger   *zap.Logger
}

// NewClient returns a Client backed by the provided HTTP client or a default client when nil.
func NewClient(endpoint types.Endpoint, pinger Pinger, client httpClient, logger *zap.Logger) *Client {
	if client == nil {
		client = &http.Client{Timeout: defaultRequestTimeout}
	}
	return &Client{
		endpoint: endpoint,
		pinger:   pinger,
		client:   client,
		logger:   utils.LoggerOrNop(logger),
	}
}

// Suggest returns the candidates for input within archive.
// It never fails: an unreachable server or a bad response yields an empty list.
func (suggestClient *Client) Suggest(ctx context.Context, session *types.Session, input string, archive types.ArchiveID) types.SuggestionList {
	if strings.TrimSpace(input) == "" || archive == "" {
		return types.SuggestionList{}
	}
	if suggestClient.pinger != nil && !suggestClient.pinger.Ping(ctx, session) {
		return types.SuggestionList{}
	}

	target := RequestURL(suggestClient.endpoint, archive, input)
	suggestions, err := suggestClient.fetch(ctx, target)
	if err != nil {
		suggestClient.logger.Warn(suggestionFailureMessage, zap.String("url", target), zap.Error(err))
		return types.SuggestionList{}
	}
	return suggestions
}

// QueryFunc binds Suggest to a session and archive.
func (suggestClient *Client) QueryFunc(session *types.Session, archive types.ArchiveID) QueryFunc {
	return func(ctx context.Context, input string) types.SuggestionList {
		return suggestClient.Suggest(ctx, session, input, archive)
	}
}

// RequestURL returns the suggestion endpoint address for archive and input.
func RequestURL(endpoint types.Endpoint, archive types.ArchiveID, input string) string {
	parameters := url.Values{}
	parameters.Set(contentParameter, archive.String())
	parameters.Set(termParameter, input)
	return endpoint.URL(suggestPath) + "?" + parameters.Encode()
}

func (suggestClient *Client) fetch(ctx context.Context, target string) (types.SuggestionList, error) {
	request, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: build request: %v", types.ErrTransport, err)
	}
	request.Header.Set("Accept", "application/json")
	response, err := suggestClient.client.Do(request)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", types.ErrTransport, err)
	}
	defer response.Body.Close()
	if response.StatusCode < http.StatusOK || response.StatusCode >= http.StatusMultipleChoices {
		return nil, fmt.Errorf("%w: unexpected status %d", types.ErrTransport, response.StatusCode)
	}
	body, err := io.ReadAll(io.LimitReader(response.Body, maxSuggestionBytes))
	if err != nil {
		return nil, fmt.Errorf("%w: read body: %v", types.ErrTransport, err)
	}
	return ParseSuggestions(body)
}

// ParseSuggestions extracts the first value of every element of a JSON array.
// Elements may be objects, whose first field in document order is used, or arrays.
// Any malformed element rejects the whole payload.
func ParseSuggestions(body []byte) (types.SuggestionList, error) {
	var elements []json.RawMessage
	if err := json.Unmarshal(body, &elements); err != nil {
		return nil, fmt.Errorf("%w: decode suggestions: %v", types.ErrParse, err)
	}
	suggestions := make(types.SuggestionList, 0, len(elements))
	for index, element := range elements {
		value, err := firstValue(element)
		if err != nil {
			return nil, fmt.Errorf("%w: element %d: %v", types.ErrParse, index, err)
		}
		suggestions = append(suggestions, value)
	}
	return suggestions, nil
}

func firstValue(element json.RawMessage) (string, error) {
	decoder := json.NewDecoder(bytes.NewReader(element))
	token, err := decoder.Token()
	if err != nil {
		return "", err
	}
	switch token {
	case json.Delim('{'):
		if !decoder.More() {
			return "", errEmptyElement
		}
		if _, keyErr := decoder.Token(); keyErr != nil {
			return "", keyErr
		}
	case json.Delim('['):
		if !decoder.More() {
			return "", errEmptyElement
		}
	default:
		text, isText := token.(string)
		if !isText {
			return "", fmt.Errorf("unexpected suggestion %v", token)
		}
		return text, nil
	}
	var value string
	if err := decoder.Decode(&value); err != nil {
		return "", err
	}
	return value, nil
}
