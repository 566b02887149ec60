package cmd

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/dryscan/dryscan/internal/app"
)

func newUpdateCmd(root *app.App) *cobra.Command {
	return &cobra.Command{
		Use:   "update [path]",
		Short: "Run one incremental reindex pass over a repository",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			result, err := root.UpdateIndex(context.Background(), repoPath(args))
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), result)
		},
	}
}
