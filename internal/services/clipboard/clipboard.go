// Package clipboard provides access to the system clipboard.
package clipboard

import (
	"github.com/atotto/clipboard"
)

// Copier copies textual data to the system clipboard.
type Copier interface {
	Copy(text string) error
}

// Reader returns the current textual clipboard contents.
type Reader interface {
	Paste() (string, error)
}

// Service implements Copier and Reader using github.com/atotto/clipboard.
type Service struct{}

// NewService constructs a Clipboard service implementation.
func NewService() *Service {
	return &Service{}
}

// Copy writes text to the system clipboard.
func (service *Service) Copy(text string) error {
	return clipboard.WriteAll(text)
}

// Paste reads the system clipboard.
func (service *Service) Paste() (string, error) {
	return clipboard.ReadAll()
}

// Unsupported reports whether no clipboard utility is available on this system.
func Unsupported() bool {
	return clipboard.Unsupported
}

var (
	_ Copier = (*Service)(nil)
	_ Reader = (*Service)(nil)
)
