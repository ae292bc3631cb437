package picker

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/google/go-cmp/cmp"

	"github.com/temirov/kiwixctl/internal/types"
)

func staticQuery(suggestions map[string]types.SuggestionList) func(context.Context, string) types.SuggestionList {
	return func(_ context.Context, input string) types.SuggestionList {
		return suggestions[input]
	}
}

func TestPromptPickerChoose(t *testing.T) {
	t.Parallel()
	candidates := []string{"wikipedia_en_all", "gutenberg_en"}
	testCases := []struct {
		name        string
		input       string
		expected    string
		expectedErr error
	}{
		{name: "number", input: "2\n", expected: "gutenberg_en"},
		{name: "free text", input: "wiktionary_en\n", expected: "wiktionary_en"},
		{name: "out of range number is text", input: "7\n", expected: "7"},
		{name: "empty line cancels", input: "\n", expectedErr: ErrCancelled},
		{name: "eof cancels", input: "", expectedErr: ErrCancelled},
	}

	for _, testCase := range testCases {
		testCase := testCase
		t.Run(testCase.name, func(t *testing.T) {
			t.Parallel()
			var output bytes.Buffer
			picker := NewPromptPicker(strings.NewReader(testCase.input), &output)
			selection, err := picker.Choose(context.Background(), "Archive", candidates)
			if !errors.Is(err, testCase.expectedErr) {
				t.Fatalf("expected error %v, got %v", testCase.expectedErr, err)
			}
			if selection != testCase.expected {
				t.Fatalf("expected %q, got %q", testCase.expected, selection)
			}
			if !strings.Contains(output.String(), "  1) wikipedia_en_all") {
				t.Fatalf("expected numbered candidates, got %q", output.String())
			}
		})
	}
}

func TestPromptPickerComplete(t *testing.T) {
	t.Parallel()
	query := staticQuery(map[string]types.SuggestionList{"lin": {"Linux", "Linux kernel"}})
	testCases := []struct {
		name     string
		input    string
		expected string
	}{
		{name: "pick suggestion", input: "lin\n2\n", expected: "Linux kernel"},
		{name: "keep typed term", input: "lin\n\n", expected: "lin"},
		{name: "no suggestions", input: "zzz\n", expected: "zzz"},
		{name: "override with text", input: "lin\nLinus\n", expected: "Linus"},
	}

	for _, testCase := range testCases {
		testCase := testCase
		t.Run(testCase.name, func(t *testing.T) {
			t.Parallel()
			picker := NewPromptPicker(strings.NewReader(testCase.input), &bytes.Buffer{})
			selection, err := picker.Complete(context.Background(), "Search", query)
			if err != nil {
				t.Fatalf("complete: %v", err)
			}
			if selection != testCase.expected {
				t.Fatalf("expected %q, got %q", testCase.expected, selection)
			}
		})
	}
}

func TestLinePickersShareBufferedInput(t *testing.T) {
	t.Parallel()
	lines := bufio.NewReader(strings.NewReader("recursion\nwikipedia_en_all"))
	if first, err := lines.ReadString('\n'); err != nil || first != "recursion\n" {
		t.Fatalf("expected the first line to be consumed elsewhere, got %q (%v)", first, err)
	}
	picker := New(types.CompletionFallback, Options{Input: strings.NewReader(""), Lines: lines, Output: &bytes.Buffer{}})
	selection, err := picker.Choose(context.Background(), "Archive", nil)
	if err != nil {
		t.Fatalf("choose: %v", err)
	}
	if selection != "wikipedia_en_all" {
		t.Fatalf("expected the unterminated last line, got %q", selection)
	}
}

func TestFallbackPickerReturnsLineVerbatim(t *testing.T) {
	t.Parallel()
	queried := false
	query := func(context.Context, string) types.SuggestionList {
		queried = true
		return nil
	}
	picker := NewFallbackPicker(strings.NewReader("  Linux kernel \n"), &bytes.Buffer{})
	selection, err := picker.Complete(context.Background(), "Search", query)
	if err != nil {
		t.Fatalf("complete: %v", err)
	}
	if selection != "Linux kernel" {
		t.Fatalf("expected trimmed line, got %q", selection)
	}
	if queried {
		t.Fatalf("expected the fallback picker not to request suggestions")
	}
	if _, err := picker.Choose(context.Background(), "Archive", []string{"wiki"}); !errors.Is(err, ErrCancelled) {
		t.Fatalf("expected cancellation at end of input, got %v", err)
	}
}

func TestNewFallsBackWithoutTerminal(t *testing.T) {
	t.Parallel()
	testCases := []struct {
		kind     types.CompletionKind
		expected Picker
	}{
		{kind: types.CompletionInteractive, expected: &FallbackPicker{}},
		{kind: types.CompletionPrompt, expected: &PromptPicker{}},
		{kind: types.CompletionFallback, expected: &FallbackPicker{}},
	}
	for _, testCase := range testCases {
		picker := New(testCase.kind, Options{Input: strings.NewReader(""), Output: &bytes.Buffer{}})
		switch testCase.expected.(type) {
		case *FallbackPicker:
			if _, isFallback := picker.(*FallbackPicker); !isFallback {
				t.Fatalf("expected fallback picker for %s, got %T", testCase.kind, picker)
			}
		case *PromptPicker:
			if _, isPrompt := picker.(*PromptPicker); !isPrompt {
				t.Fatalf("expected prompt picker for %s, got %T", testCase.kind, picker)
			}
		}
	}
}

func typeText(model selectionModel, text string) selectionModel {
	updated, _ := model.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(text)})
	return updated.(selectionModel)
}

func pressKey(model selectionModel, keyType tea.KeyType) (selectionModel, tea.Cmd) {
	updated, command := model.Update(tea.KeyMsg{Type: keyType})
	return updated.(selectionModel), command
}

func TestSelectionModelFiltersCandidates(t *testing.T) {
	t.Parallel()
	model := newSelectionModel(context.Background(), "Archive", []string{"wikipedia_en_all", "gutenberg_en", "wiktionary_en"}, nil)
	model = typeText(model, "WIK")
	if diff := cmp.Diff([]string{"wikipedia_en_all", "wiktionary_en"}, model.items); diff != "" {
		t.Fatalf("unexpected items (-want +got):\n%s", diff)
	}

	model, _ = pressKey(model, tea.KeyDown)
	model, command := pressKey(model, tea.KeyEnter)
	if model.selection != "wiktionary_en" {
		t.Fatalf("expected wiktionary_en, got %q", model.selection)
	}
	if command == nil {
		t.Fatalf("expected quit command")
	}
}

func TestSelectionModelAppliesLatestSuggestions(t *testing.T) {
	t.Parallel()
	query := staticQuery(map[string]types.SuggestionList{
		"l":  {"Lisbon"},
		"li": {"Linux", "Lithium"},
	})
	model := newSelectionModel(context.Background(), "Search", nil, query)
	model = typeText(model, "l")
	staleMessage := model.fetchSuggestions(model.sequence, "l")()
	model = typeText(model, "i")

	updated, command := model.Update(staleMessage)
	model = updated.(selectionModel)
	if len(model.items) != 0 {
		t.Fatalf("expected stale suggestions to be dropped, got %v", model.items)
	}
	if command == nil {
		t.Fatalf("expected a follow-up query for the newer input")
	}
	updated, _ = model.Update(command())
	model = updated.(selectionModel)

	if diff := cmp.Diff([]string{"Linux", "Lithium"}, model.items); diff != "" {
		t.Fatalf("unexpected items (-want +got):\n%s", diff)
	}
}

func TestSelectionModelEnterUsesTypedTextWithoutItems(t *testing.T) {
	t.Parallel()
	model := newSelectionModel(context.Background(), "Search", nil, staticQuery(nil))
	model = typeText(model, "Linux kernel")
	model, _ = pressKey(model, tea.KeyEnter)
	if model.selection != "Linux kernel" {
		t.Fatalf("expected typed text, got %q", model.selection)
	}
}

func TestSelectionModelEscapeCancels(t *testing.T) {
	t.Parallel()
	model := newSelectionModel(context.Background(), "Archive", []string{"wiki"}, nil)
	model, command := pressKey(model, tea.KeyEsc)
	if !model.cancelled || command == nil {
		t.Fatalf("expected cancellation with quit command")
	}
}
