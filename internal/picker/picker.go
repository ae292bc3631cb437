// Package picker asks the user to select an archive or a search term.
//
// Three interchangeable front-ends exist: an interactive terminal list that
// re-queries suggestions on every keystroke, a blocking numbered prompt, and a
// plain line reader used when no terminal is attached. All of them consume the
// same suggest.QueryFunc so suggestion logic stays front-end agnostic.
package picker

import (
	"bufio"
	"context"
	"errors"
	"io"
	"os"

	"github.com/mattn/go-isatty"
	"go.uber.org/zap"

	"github.com/temirov/kiwixctl/internal/suggest"
	"github.com/temirov/kiwixctl/internal/types"
	"github.com/temirov/kiwixctl/internal/utils"
)

// ErrCancelled is returned when the user dismisses a picker without choosing.
var ErrCancelled = errors.New("selection cancelled")

// Picker selects a value from candidates or from live suggestions.
type Picker interface {
	Choose(ctx context.Context, prompt string, candidates []string) (string, error)
	Complete(ctx context.Context, prompt string, query suggest.QueryFunc) (string, error)
}

// Options configure the picker streams.
type Options struct {
	Input io.Reader
	// Lines is a buffered view of Input shared with other line consumers.
	// The prompt and fallback pickers read from it; it is created from Input when nil.
	Lines  *bufio.Reader
	Output io.Writer
	Logger *zap.Logger
}

// New returns the picker for kind. The interactive front-end degrades to the
// fallback reader when input is not a terminal.
func New(kind types.CompletionKind, options Options) Picker {
	if options.Input == nil {
		options.Input = os.Stdin
	}
	if options.Output == nil {
		options.Output = os.Stderr
	}
	if options.Lines == nil {
		options.Lines = bufferedInput(options.Input)
	}
	logger := utils.LoggerOrNop(options.Logger)

	switch kind {
	case types.CompletionPrompt:
		return NewPromptPicker(options.Lines, options.Output)
	case types.CompletionFallback:
		return NewFallbackPicker(options.Lines, options.Output)
	default:
		if !isTerminal(options.Input) {
			logger.Debug("input is not a terminal, using fallback picker")
			return NewFallbackPicker(options.Lines, options.Output)
		}
		return NewInteractivePicker(options.Input, options.Output)
	}
}

func isTerminal(input io.Reader) bool {
	file, isFile := input.(*os.File)
	if !isFile {
		return false
	}
	descriptor := file.Fd()
	return isatty.IsTerminal(descriptor) || isatty.IsCygwinTerminal(descriptor)
}
