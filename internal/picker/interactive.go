package picker

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/temirov/kiwixctl/internal/suggest"
)

const (
	maxVisibleItems = 10
	inputWidth      = 50
	helpText        = "enter: select • ↑/↓: move • esc: cancel"
	emptyListText   = "no matches"
)

var (
	comment = lipgloss.Color("#6272a4")
	cyan    = lipgloss.Color("#8be9fd")
	purple  = lipgloss.Color("#bd93f9")

	titleStyle = lipgloss.NewStyle().
			Foreground(purple).
			Bold(true)

	itemStyle = lipgloss.NewStyle().
			PaddingLeft(2)

	selectedItemStyle = lipgloss.NewStyle().
				Foreground(cyan).
				Bold(true)

	helpStyle = lipgloss.NewStyle().
			Foreground(comment)
)

// InteractivePicker renders a terminal list that updates while the user types.
type InteractivePicker struct {
	input  io.Reader
	output io.Writer
}

// NewInteractivePicker returns an InteractivePicker bound to the given terminal streams.
func NewInteractivePicker(input io.Reader, output io.Writer) *InteractivePicker {
	return &InteractivePicker{input: input, output: output}
}

// Choose filters candidates as the user types.
func (picker *InteractivePicker) Choose(ctx context.Context, prompt string, candidates []string) (string, error) {
	return picker.run(ctx, newSelectionModel(ctx, prompt, candidates, nil))
}

// Complete asks query for suggestions after every edit.
func (picker *InteractivePicker) Complete(ctx context.Context, prompt string, query suggest.QueryFunc) (string, error) {
	return picker.run(ctx, newSelectionModel(ctx, prompt, nil, query))
}

func (picker *InteractivePicker) run(ctx context.Context, model selectionModel) (string, error) {
	program := tea.NewProgram(model,
		tea.WithContext(ctx),
		tea.WithInput(picker.input),
		tea.WithOutput(picker.output),
	)
	finalModel, err := program.Run()
	if err != nil {
		if ctx.Err() != nil && errors.Is(err, tea.ErrProgramKilled) {
			return "", ctx.Err()
		}
		return "", fmt.Errorf("run picker: %w", err)
	}
	result, isSelection := finalModel.(selectionModel)
	if !isSelection || result.cancelled || result.selection == "" {
		return "", ErrCancelled
	}
	return result.selection, nil
}

type suggestionsMsg struct {
	sequence int
	items    []string
}

// selectionModel filters static candidates locally or asks query for every new input value.
// At most one query runs at a time; edits made meanwhile are fetched once it returns.
type selectionModel struct {
	ctx        context.Context
	prompt     string
	input      textinput.Model
	candidates []string
	query      suggest.QueryFunc
	items      []string
	cursor     int
	sequence   int
	inFlight   bool
	stale      bool
	selection  string
	cancelled  bool
}

func newSelectionModel(ctx context.Context, prompt string, candidates []string, query suggest.QueryFunc) selectionModel {
	input := textinput.New()
	input.Placeholder = "type to filter..."
	input.Width = inputWidth
	input.Focus()

	return selectionModel{
		ctx:        ctx,
		prompt:     prompt,
		input:      input,
		candidates: candidates,
		query:      query,
		items:      filterCandidates(candidates, ""),
	}
}

func (model selectionModel) Init() tea.Cmd {
	return textinput.Blink
}

func (model selectionModel) Update(message tea.Msg) (tea.Model, tea.Cmd) {
	switch typed := message.(type) {
	case tea.KeyMsg:
		switch typed.Type {
		case tea.KeyCtrlC, tea.KeyEsc:
			model.cancelled = true
			return model, tea.Quit
		case tea.KeyEnter:
			model.selection = model.current()
			if model.selection == "" {
				return model, nil
			}
			return model, tea.Quit
		case tea.KeyUp, tea.KeyCtrlP:
			if model.cursor > 0 {
				model.cursor--
			}
			return model, nil
		case tea.KeyDown, tea.KeyCtrlN:
			if model.cursor < len(model.items)-1 {
				model.cursor++
			}
			return model, nil
		}
	case suggestionsMsg:
		model.inFlight = false
		if model.stale {
			model.stale = false
			fetchCmd := model.startFetch()
			return model, fetchCmd
		}
		if typed.sequence == model.sequence {
			model.items = typed.items
			model.cursor = 0
		}
		return model, nil
	}

	previous := model.input.Value()
	var inputCmd tea.Cmd
	model.input, inputCmd = model.input.Update(message)
	if model.input.Value() == previous {
		return model, inputCmd
	}
	refreshCmd := model.refresh()
	return model, tea.Batch(inputCmd, refreshCmd)
}

// refresh recomputes the list for the current input value.
func (model *selectionModel) refresh() tea.Cmd {
	value := model.input.Value()
	model.cursor = 0
	if model.query == nil {
		model.items = filterCandidates(model.candidates, value)
		return nil
	}
	if model.inFlight {
		model.stale = true
		return nil
	}
	return model.startFetch()
}

// startFetch issues the only outstanding suggestion request.
func (model *selectionModel) startFetch() tea.Cmd {
	model.sequence++
	model.inFlight = true
	return model.fetchSuggestions(model.sequence, model.input.Value())
}

func (model selectionModel) fetchSuggestions(sequence int, value string) tea.Cmd {
	query := model.query
	ctx := model.ctx
	return func() tea.Msg {
		if strings.TrimSpace(value) == "" {
			return suggestionsMsg{sequence: sequence}
		}
		return suggestionsMsg{sequence: sequence, items: query(ctx, value)}
	}
}

// current returns the highlighted item, or the typed text when the list is empty.
func (model selectionModel) current() string {
	if model.cursor < len(model.items) {
		return model.items[model.cursor]
	}
	return strings.TrimSpace(model.input.Value())
}

func (model selectionModel) View() string {
	var builder strings.Builder
	builder.WriteString(titleStyle.Render(model.prompt))
	builder.WriteString("\n")
	builder.WriteString(model.input.View())
	builder.WriteString("\n\n")

	if len(model.items) == 0 {
		builder.WriteString(helpStyle.Render(emptyListText))
		builder.WriteString("\n")
	}
	start := 0
	if model.cursor >= maxVisibleItems {
		start = model.cursor - maxVisibleItems + 1
	}
	for index := start; index < len(model.items) && index < start+maxVisibleItems; index++ {
		if index == model.cursor {
			builder.WriteString(selectedItemStyle.Render("> " + model.items[index]))
		} else {
			builder.WriteString(itemStyle.Render(model.items[index]))
		}
		builder.WriteString("\n")
	}

	builder.WriteString("\n")
	builder.WriteString(helpStyle.Render(helpText))
	return builder.String()
}

func filterCandidates(candidates []string, filter string) []string {
	needle := strings.ToLower(strings.TrimSpace(filter))
	filtered := make([]string, 0, len(candidates))
	for _, candidate := range candidates {
		if needle == "" || strings.Contains(strings.ToLower(candidate), needle) {
			filtered = append(filtered, candidate)
		}
	}
	return filtered
}

var _ Picker = (*InteractivePicker)(nil)
