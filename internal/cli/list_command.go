package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/rodaine/table"
	"github.com/spf13/cobra"

	"github.com/temirov/kiwixctl/internal/types"
)

const (
	listUse              = types.CommandList
	listAlias            = "ls"
	listShortDescription = "list the archives the server offers (" + listAlias + ")"
	listLongDescription  = `List the archives the content server offers.
Remote and v2 servers are read from the OPDS catalog, v1 servers from the library page,
and a local v1 server from the ZIM files in the library directory.
Use --format to select table or json output.`
	formatFlagName        = "format"
	formatFlagDescription = "output format: table or json"
	invalidFormatMessage  = "invalid format value '%s'"
	columnArchive         = "ARCHIVE"
	columnTitle           = "TITLE"
	columnSummary         = "SUMMARY"
	summaryDisplayLimit   = 60
	truncationSuffix      = "…"
)

func createListCommand(options *globalOptions) *cobra.Command {
	outputFormat := types.FormatTable

	listCommand := &cobra.Command{
		Use:     listUse,
		Aliases: []string{listAlias},
		Short:   listShortDescription,
		Long:    listLongDescription,
		Args:    cobra.NoArgs,
		RunE: func(command *cobra.Command, arguments []string) error {
			format := strings.ToLower(strings.TrimSpace(outputFormat))
			if format != types.FormatTable && format != types.FormatJSON {
				return fmt.Errorf(invalidFormatMessage, outputFormat)
			}
			environment, err := newRuntime(command, options, runtimeOptions{})
			if err != nil {
				return err
			}
			defer environment.close()
			return renderCatalog(command.OutOrStdout(), format, environment.application.ListCatalog(command.Context()))
		},
	}
	listCommand.Flags().StringVar(&outputFormat, formatFlagName, types.FormatTable, formatFlagDescription)
	return listCommand
}

func renderCatalog(output io.Writer, format string, entries []types.CatalogEntry) error {
	if entries == nil {
		entries = []types.CatalogEntry{}
	}
	if format == types.FormatJSON {
		encoder := json.NewEncoder(output)
		encoder.SetIndent("", "  ")
		return encoder.Encode(entries)
	}
	catalogTable := table.New(columnArchive, columnTitle, columnSummary).WithWriter(output)
	for _, entry := range entries {
		catalogTable.AddRow(entry.ID, entry.Title, truncate(entry.Summary, summaryDisplayLimit))
	}
	catalogTable.Print()
	return nil
}

func truncate(text string, limit int) string {
	runes := []rune(text)
	if len(runes) <= limit {
		return text
	}
	return strings.TrimSpace(string(runes[:limit])) + truncationSuffix
}
