package dispatch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"runtime"
	"strings"

	"github.com/temirov/kiwixctl/internal/services/clipboard"
	"github.com/temirov/kiwixctl/internal/types"
)

const (
	linuxOpenCommand   = "xdg-open"
	darwinOpenCommand  = "open"
	windowsOpenCommand = "rundll32"
	windowsOpenHandler = "url.dll,FileProtocolHandler"

	openCommandFailedFormat = "open %s with %s: %w"
)

var errMissingBrowserCommand = errors.New("browser command is empty")

// Opener shows a URL to the user.
type Opener interface {
	Open(ctx context.Context, address string) error
}

// CommandStarter starts an external program without waiting for it to finish.
type CommandStarter func(ctx context.Context, name string, arguments ...string) error

// StartDetached is the default CommandStarter.
func StartDetached(ctx context.Context, name string, arguments ...string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	// #nosec G204
	command := exec.Command(name, arguments...)
	if err := command.Start(); err != nil {
		return err
	}
	return command.Process.Release()
}

// OpenerOptions select and configure an Opener.
type OpenerOptions struct {
	Kind           types.BrowserKind
	BrowserCommand string
	Output         io.Writer
	Clipboard      clipboard.Copier
	Start          CommandStarter
}

// NewOpener returns the Opener for options.Kind.
func NewOpener(options OpenerOptions) (Opener, error) {
	start := options.Start
	if start == nil {
		start = StartDetached
	}
	switch options.Kind {
	case types.BrowserSystem:
		return SystemOpener{OperatingSystem: runtime.GOOS, Start: start}, nil
	case types.BrowserCommand:
		fields := strings.Fields(options.BrowserCommand)
		if len(fields) == 0 {
			return nil, errMissingBrowserCommand
		}
		return CommandOpener{Executable: fields[0], Arguments: fields[1:], Start: start}, nil
	case types.BrowserPrint:
		return PrintOpener{Output: options.Output}, nil
	case types.BrowserClipboard:
		copier := options.Clipboard
		if copier == nil {
			copier = clipboard.NewService()
		}
		return ClipboardOpener{Clipboard: copier}, nil
	default:
		return nil, fmt.Errorf("unsupported browser %q", options.Kind)
	}
}

// SystemOpener hands the URL to the desktop's default handler.
type SystemOpener struct {
	OperatingSystem string
	Start           CommandStarter
}

// Open launches the platform URL handler.
func (opener SystemOpener) Open(ctx context.Context, address string) error {
	name, arguments := systemOpenCommand(opener.OperatingSystem, address)
	if err := opener.Start(ctx, name, arguments...); err != nil {
		return fmt.Errorf(openCommandFailedFormat, address, name, err)
	}
	return nil
}

func systemOpenCommand(operatingSystem string, address string) (string, []string) {
	switch operatingSystem {
	case "darwin":
		return darwinOpenCommand, []string{address}
	case "windows":
		return windowsOpenCommand, []string{windowsOpenHandler, address}
	default:
		return linuxOpenCommand, []string{address}
	}
}

// CommandOpener runs a configured executable with the URL as its last argument.
type CommandOpener struct {
	Executable string
	Arguments  []string
	Start      CommandStarter
}

// Open launches the configured browser.
func (opener CommandOpener) Open(ctx context.Context, address string) error {
	arguments := append(append([]string{}, opener.Arguments...), address)
	if err := opener.Start(ctx, opener.Executable, arguments...); err != nil {
		return fmt.Errorf(openCommandFailedFormat, address, opener.Executable, err)
	}
	return nil
}

// PrintOpener writes the URL on its own line.
type PrintOpener struct {
	Output io.Writer
}

// Open prints address.
func (opener PrintOpener) Open(_ context.Context, address string) error {
	if opener.Output == nil {
		return nil
	}
	_, err := fmt.Fprintln(opener.Output, address)
	return err
}

// ClipboardOpener copies the URL so the user can paste it anywhere.
type ClipboardOpener struct {
	Clipboard clipboard.Copier
}

// Open copies address to the clipboard.
func (opener ClipboardOpener) Open(_ context.Context, address string) error {
	if err := opener.Clipboard.Copy(address); err != nil {
		return fmt.Errorf("copy %s to clipboard: %w", address, err)
	}
	return nil
}
