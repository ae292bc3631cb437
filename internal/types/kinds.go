package types

import (
	"fmt"
	"strings"
)

// BrowserKind names the strategy used to open result URLs.
type BrowserKind string

const (
	BrowserSystem    BrowserKind = "system"
	BrowserCommand   BrowserKind = "command"
	BrowserPrint     BrowserKind = "print"
	BrowserClipboard BrowserKind = "clipboard"
)

// CompletionKind names the interactive picker front-end.
type CompletionKind string

const (
	CompletionInteractive CompletionKind = "interactive"
	CompletionPrompt      CompletionKind = "prompt"
	CompletionFallback    CompletionKind = "fallback"
)

// PointSource names where the "thing at point" is read from.
type PointSource string

const (
	PointClipboard PointSource = "clipboard"
	PointStdin     PointSource = "stdin"
	PointArguments PointSource = "args"
)

// ParseBrowserKind validates a browser setting.
func ParseBrowserKind(value string) (BrowserKind, error) {
	kind := BrowserKind(normalizeKind(value))
	switch kind {
	case BrowserSystem, BrowserCommand, BrowserPrint, BrowserClipboard:
		return kind, nil
	default:
		return "", fmt.Errorf("unsupported browser %q", value)
	}
}

// ParseCompletionKind validates a completion setting.
func ParseCompletionKind(value string) (CompletionKind, error) {
	kind := CompletionKind(normalizeKind(value))
	switch kind {
	case CompletionInteractive, CompletionPrompt, CompletionFallback:
		return kind, nil
	default:
		return "", fmt.Errorf("unsupported completion front-end %q", value)
	}
}

// ParsePointSource validates a point source setting.
func ParsePointSource(value string) (PointSource, error) {
	source := PointSource(normalizeKind(value))
	switch source {
	case PointClipboard, PointStdin, PointArguments:
		return source, nil
	default:
		return "", fmt.Errorf("unsupported point source %q", value)
	}
}

func normalizeKind(value string) string {
	return strings.ToLower(strings.TrimSpace(value))
}
