// Package cmd provides the CLI commands for the dry tool.
package cmd

import (
	"github.com/spf13/cobra"

	"github.com/dryscan/dryscan/internal/app"
)

// NewRootCmd creates the root command, wiring every subcommand onto a
// freshly-opened application root that is closed once a subcommand's run
// returns without error (cobra skips the post-run hook on failure).
func NewRootCmd() *cobra.Command {
	root := app.New(nil)

	cmd := &cobra.Command{
		Use:   "dry",
		Short: "Semantic code duplication analyzer",
		Long: `dry indexes a repository's classes, functions, and blocks, embeds
them, and reports duplicate code by weighted cosine similarity rather than
exact text matching.`,
		PersistentPostRunE: func(*cobra.Command, []string) error {
			return root.Close()
		},
	}

	cmd.AddCommand(newInitCmd(root))
	cmd.AddCommand(newUpdateCmd(root))
	cmd.AddCommand(newDupesCmd(root))
	cmd.AddCommand(newCleanCmd(root))
	cmd.AddCommand(newWatchCmd(root))

	return cmd
}

// Execute runs the root command.
func Execute() error {
	return NewRootCmd().Execute()
}

// repoPath resolves the optional positional [path] argument to "." when
// absent.
func repoPath(args []string) string {
	if len(args) > 0 {
		return args[0]
	}
	return "."
}
