package catalog

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/temirov/kiwixctl/internal/types"
)

// listDirectory derives one entry per archive file in directory.
func listDirectory(directory string) ([]types.CatalogEntry, error) {
	if strings.TrimSpace(directory) == "" {
		return nil, fmt.Errorf("%w: no library directory configured", types.ErrDirectoryUnavailable)
	}
	directoryEntries, err := os.ReadDir(directory)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", types.ErrDirectoryUnavailable, directory, err)
	}

	entries := make([]types.CatalogEntry, 0, len(directoryEntries))
	for _, directoryEntry := range directoryEntries {
		if directoryEntry.IsDir() {
			continue
		}
		archive, deriveErr := types.DeriveArchiveID(directoryEntry.Name())
		if deriveErr != nil {
			continue
		}
		entries = append(entries, types.CatalogEntry{ID: archive, Title: archive.String()})
	}
	sort.Slice(entries, func(left, right int) bool {
		return entries[left].ID < entries[right].ID
	})
	return entries, nil
}
