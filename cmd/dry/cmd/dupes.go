package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dryscan/dryscan/internal/app"
)

func newDupesCmd(root *app.App) *cobra.Command {
	var apply string

	cmd := &cobra.Command{
		Use:   "dupes [path]",
		Short: "Scan the index for duplicate code and print a report",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			repo := repoPath(args)

			artifact, err := root.FindDuplicates(context.Background(), repo)
			if err != nil {
				return err
			}
			if err := printJSON(cmd.OutOrStdout(), artifact); err != nil {
				return err
			}

			if apply == "" {
				return nil
			}
			exclusionString, added, err := root.ApplyExclusionFromLatestReport(repo, apply)
			if err != nil {
				return err
			}
			if added {
				fmt.Fprintf(cmd.OutOrStdout(), "applied exclusion for %s: %s\n", apply, exclusionString)
			} else {
				fmt.Fprintf(cmd.OutOrStdout(), "exclusion for %s already present: %s\n", apply, exclusionString)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&apply, "apply", "", "apply the exclusion for the given shortId from this report")
	return cmd
}
