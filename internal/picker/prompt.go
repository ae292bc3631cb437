package picker

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/temirov/kiwixctl/internal/suggest"
)

const (
	promptFormat          = "%s: "
	candidateFormat       = "%3d) %s\n"
	selectionPromptFormat = "%s [number, text, or enter for %q]: "
)

// lineReader reads trimmed lines and maps EOF to ErrCancelled.
// It consumes exactly one line per answer so other readers of the same buffer keep their place.
type lineReader struct {
	input  *bufio.Reader
	output io.Writer
}

func newLineReader(input io.Reader, output io.Writer) lineReader {
	return lineReader{input: bufferedInput(input), output: output}
}

// bufferedInput reuses input when it is already buffered.
func bufferedInput(input io.Reader) *bufio.Reader {
	if buffered, isBuffered := input.(*bufio.Reader); isBuffered {
		return buffered
	}
	return bufio.NewReader(input)
}

func (reader lineReader) ask(ctx context.Context, prompt string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	fmt.Fprint(reader.output, prompt)
	line, err := reader.input.ReadString('\n')
	if err != nil {
		if !errors.Is(err, io.EOF) {
			return "", err
		}
		if line == "" {
			return "", ErrCancelled
		}
	}
	return strings.TrimSpace(line), nil
}

// PromptPicker lists numbered choices and reads the answer from a line of input.
type PromptPicker struct {
	reader lineReader
	output io.Writer
}

// NewPromptPicker returns a PromptPicker reading from input.
func NewPromptPicker(input io.Reader, output io.Writer) *PromptPicker {
	return &PromptPicker{reader: newLineReader(input, output), output: output}
}

// Choose prints candidates and accepts a number or free text.
func (picker *PromptPicker) Choose(ctx context.Context, prompt string, candidates []string) (string, error) {
	printCandidates(picker.output, candidates)
	answer, err := picker.reader.ask(ctx, fmt.Sprintf(promptFormat, prompt))
	if err != nil {
		return "", err
	}
	if answer == "" {
		return "", ErrCancelled
	}
	return resolveAnswer(answer, candidates), nil
}

// Complete reads a term, shows its suggestions and accepts a number, free text or the term itself.
func (picker *PromptPicker) Complete(ctx context.Context, prompt string, query suggest.QueryFunc) (string, error) {
	term, err := picker.reader.ask(ctx, fmt.Sprintf(promptFormat, prompt))
	if err != nil {
		return "", err
	}
	if term == "" {
		return "", ErrCancelled
	}
	if query == nil {
		return term, nil
	}
	suggestions := query(ctx, term)
	if len(suggestions) == 0 {
		return term, nil
	}
	printCandidates(picker.output, suggestions)
	answer, err := picker.reader.ask(ctx, fmt.Sprintf(selectionPromptFormat, prompt, term))
	if err != nil {
		return "", err
	}
	if answer == "" {
		return term, nil
	}
	return resolveAnswer(answer, suggestions), nil
}

func printCandidates(output io.Writer, candidates []string) {
	for index, candidate := range candidates {
		fmt.Fprintf(output, candidateFormat, index+1, candidate)
	}
}

// resolveAnswer maps a 1-based index onto candidates and returns any other text verbatim.
func resolveAnswer(answer string, candidates []string) string {
	if position, err := strconv.Atoi(answer); err == nil && position >= 1 && position <= len(candidates) {
		return candidates[position-1]
	}
	return answer
}

// FallbackPicker reads a single line and returns it without offering suggestions.
type FallbackPicker struct {
	reader lineReader
}

// NewFallbackPicker returns a FallbackPicker reading from input.
func NewFallbackPicker(input io.Reader, output io.Writer) *FallbackPicker {
	return &FallbackPicker{reader: newLineReader(input, output)}
}

// Choose reads one line; candidates are ignored.
func (picker *FallbackPicker) Choose(ctx context.Context, prompt string, _ []string) (string, error) {
	return picker.readValue(ctx, prompt)
}

// Complete reads one line; no suggestions are requested.
func (picker *FallbackPicker) Complete(ctx context.Context, prompt string, _ suggest.QueryFunc) (string, error) {
	return picker.readValue(ctx, prompt)
}

func (picker *FallbackPicker) readValue(ctx context.Context, prompt string) (string, error) {
	value, err := picker.reader.ask(ctx, fmt.Sprintf(promptFormat, prompt))
	if err != nil {
		return "", err
	}
	if value == "" {
		return "", ErrCancelled
	}
	return value, nil
}

var (
	_ Picker = (*PromptPicker)(nil)
	_ Picker = (*FallbackPicker)(nil)
)
