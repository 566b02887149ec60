package cmd

import (
	"github.com/spf13/cobra"

	"github.com/dryscan/dryscan/internal/app"
)

func newCleanCmd(root *app.App) *cobra.Command {
	return &cobra.Command{
		Use:   "clean [path]",
		Short: "Drop excludedPairs entries no live pair in the index can still produce",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			result, err := root.CleanExclusions(repoPath(args))
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), result)
		},
	}
}
