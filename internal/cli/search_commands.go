package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/temirov/kiwixctl/internal/types"
)

const (
	searchUse                 = types.CommandSearch + " [archive] [query...]"
	searchAllUse              = types.CommandSearchAll + " [query...]"
	atPointUse                = types.CommandAtPoint + " [text...]"
	suggestUse                = types.CommandSuggest + " <archive> <term...>"
	urlUse                    = types.CommandURL + " <archive> <query...>"
	searchAlias               = "s"
	searchAllAlias            = "sa"
	atPointAlias              = "p"
	searchShortDescription    = "open a query within one archive (" + searchAlias + ")"
	searchAllShortDescription = "search every archive at once (" + searchAllAlias + ")"
	atPointShortDescription   = "search for the word at point, starting the server if needed (" + atPointAlias + ")"
	suggestShortDescription   = "print autocomplete suggestions for a term"
	urlShortDescription       = "print the result URL for a query without opening it"

	searchLongDescription = `Open a query within one archive.
A missing archive is chosen from the catalog and a missing query is completed from the server's suggestions.`
	searchUsageExample = `  # Open the Linux kernel article of the English Wikipedia
  kiwixctl search wikipedia_en_all_maxi Linux kernel

  # Pick the archive and complete the query interactively
  kiwixctl search`

	atPointLongDescription = `Search for the thing at point.
The word is taken from the arguments when given, otherwise from the configured point source
(the clipboard or the first line of standard input). When the server does not answer it is
launched once and probed again before the archive prompt appears.`
	atPointUsageExample = `  # Search the word currently on the clipboard
  kiwixctl at-point

  # Editors can pipe the selection
  echo "recursion" | KIWIXCTL_POINT_SOURCE=stdin kiwixctl at-point`

	urlUsageExample = `  # Copy the article address to the clipboard
  kiwixctl url wikipedia_en_all_maxi Zürich --copy`

	copyFlagName        = "copy"
	copyFlagDescription = "copy the output to the clipboard"
	outputLineFormat    = "%s\n"
	copyWarningFormat   = "copy to clipboard: %w"
)

func createSearchCommand(options *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:     searchUse,
		Aliases: []string{searchAlias},
		Short:   searchShortDescription,
		Long:    searchLongDescription,
		Example: searchUsageExample,
		Args:    cobra.ArbitraryArgs,
		RunE: func(command *cobra.Command, arguments []string) error {
			environment, err := newRuntime(command, options, runtimeOptions{})
			if err != nil {
				return err
			}
			defer environment.close()
			archive, query := splitArchiveArguments(arguments)
			searchErr := environment.application.SearchArchive(command.Context(), archive, query)
			return advisory(command.ErrOrStderr(), searchErr)
		},
	}
}

func createSearchAllCommand(options *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:     searchAllUse,
		Aliases: []string{searchAllAlias},
		Short:   searchAllShortDescription,
		Args:    cobra.ArbitraryArgs,
		RunE: func(command *cobra.Command, arguments []string) error {
			environment, err := newRuntime(command, options, runtimeOptions{})
			if err != nil {
				return err
			}
			defer environment.close()
			searchErr := environment.application.SearchFullContext(command.Context(), strings.Join(arguments, " "))
			return advisory(command.ErrOrStderr(), searchErr)
		},
	}
}

func createAtPointCommand(options *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:     atPointUse,
		Aliases: []string{atPointAlias},
		Short:   atPointShortDescription,
		Long:    atPointLongDescription,
		Example: atPointUsageExample,
		Args:    cobra.ArbitraryArgs,
		RunE: func(command *cobra.Command, arguments []string) error {
			environment, err := newRuntime(command, options, runtimeOptions{pointArguments: arguments})
			if err != nil {
				return err
			}
			defer environment.close()
			return advisory(command.ErrOrStderr(), environment.application.SearchAtPoint(command.Context()))
		},
	}
}

func createSuggestCommand(options *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   suggestUse,
		Short: suggestShortDescription,
		Args:  cobra.MinimumNArgs(2),
		RunE: func(command *cobra.Command, arguments []string) error {
			environment, err := newRuntime(command, options, runtimeOptions{})
			if err != nil {
				return err
			}
			defer environment.close()
			archive, term := splitArchiveArguments(arguments)
			for _, suggestion := range environment.application.Suggest(command.Context(), archive, term) {
				fmt.Fprintf(command.OutOrStdout(), outputLineFormat, suggestion)
			}
			return nil
		},
	}
}

func createURLCommand(options *globalOptions) *cobra.Command {
	var copyEnabled bool

	urlCommand := &cobra.Command{
		Use:     urlUse,
		Short:   urlShortDescription,
		Example: urlUsageExample,
		Args:    cobra.MinimumNArgs(2),
		RunE: func(command *cobra.Command, arguments []string) error {
			environment, err := newRuntime(command, options, runtimeOptions{})
			if err != nil {
				return err
			}
			defer environment.close()
			archive, query := splitArchiveArguments(arguments)
			address, urlErr := environment.application.QueryURL(archive, query)
			if urlErr != nil {
				return advisory(command.ErrOrStderr(), urlErr)
			}
			fmt.Fprintf(command.OutOrStdout(), outputLineFormat, address)
			if copyEnabled {
				if copyErr := environment.clipboard.Copy(address); copyErr != nil {
					return fmt.Errorf(copyWarningFormat, copyErr)
				}
			}
			return nil
		},
	}
	registerBooleanFlag(urlCommand.Flags(), &copyEnabled, copyFlagName, false, copyFlagDescription)
	return urlCommand
}

// splitArchiveArguments treats the first argument as the archive and joins the rest into a phrase.
func splitArchiveArguments(arguments []string) (types.ArchiveID, string) {
	if len(arguments) == 0 {
		return "", ""
	}
	return types.ArchiveID(strings.TrimSpace(arguments[0])), strings.Join(arguments[1:], " ")
}
