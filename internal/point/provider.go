// Package point reads the "thing at point": the word the user is looking at in their editor.
package point

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"unicode"

	"github.com/temirov/kiwixctl/internal/services/clipboard"
	"github.com/temirov/kiwixctl/internal/types"
)

// Provider returns the current thing at point, or an empty string when there is none.
type Provider interface {
	ThingAtPoint(ctx context.Context) (string, error)
}

// Options supply the sources a Provider may read from.
type Options struct {
	Clipboard clipboard.Reader
	// Input is read one line at a time; pass the same *bufio.Reader given to the pickers
	// so the lines after the point stay available to them.
	Input     io.Reader
	Arguments []string
}

// NewProvider returns the Provider for source.
func NewProvider(source types.PointSource, options Options) Provider {
	switch source {
	case types.PointStdin:
		provider := readerProvider{}
		if options.Input != nil {
			provider.input = bufferedInput(options.Input)
		}
		return provider
	case types.PointArguments:
		return argumentProvider{arguments: options.Arguments}
	default:
		reader := options.Clipboard
		if reader == nil {
			reader = clipboard.NewService()
		}
		return clipboardProvider{clipboard: reader}
	}
}

type clipboardProvider struct {
	clipboard clipboard.Reader
}

func (provider clipboardProvider) ThingAtPoint(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	text, err := provider.clipboard.Paste()
	if err != nil {
		return "", fmt.Errorf("read clipboard: %w", err)
	}
	return FirstWord(text), nil
}

type readerProvider struct {
	input *bufio.Reader
}

func bufferedInput(input io.Reader) *bufio.Reader {
	if buffered, isBuffered := input.(*bufio.Reader); isBuffered {
		return buffered
	}
	return bufio.NewReader(input)
}

func (provider readerProvider) ThingAtPoint(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if provider.input == nil {
		return "", nil
	}
	for {
		line, err := provider.input.ReadString('\n')
		if word := FirstWord(line); word != "" {
			return word, nil
		}
		if err != nil {
			if errors.Is(err, io.EOF) {
				return "", nil
			}
			return "", fmt.Errorf("read input: %w", err)
		}
	}
}

type argumentProvider struct {
	arguments []string
}

// ThingAtPoint returns the explicit arguments joined by spaces; an explicit phrase is kept whole.
func (provider argumentProvider) ThingAtPoint(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	return strings.Join(strings.Fields(strings.Join(provider.arguments, " ")), " "), nil
}

// FirstWord returns the first run of letters, digits, hyphens, underscores or apostrophes in text.
func FirstWord(text string) string {
	start := -1
	for index, character := range text {
		if isWordRune(character) {
			if start < 0 {
				start = index
			}
			continue
		}
		if start >= 0 {
			return text[start:index]
		}
	}
	if start >= 0 {
		return text[start:]
	}
	return ""
}

func isWordRune(character rune) bool {
	return unicode.IsLetter(character) || unicode.IsDigit(character) || unicode.IsMark(character) ||
		character == '-' || character == '_' || character == '\''
}
