package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/dryscan/dryscan/internal/app"
	"github.com/dryscan/dryscan/internal/update"
)

func newWatchCmd(root *app.App) *cobra.Command {
	return &cobra.Command{
		Use:   "watch [path]",
		Short: "Watch a repository and reindex incrementally on change",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			err := root.Watch(ctx, repoPath(args), func(result update.Result, err error) {
				if err != nil {
					fmt.Fprintf(cmd.ErrOrStderr(), "update failed: %v\n", err)
					return
				}
				_ = printJSON(cmd.OutOrStdout(), result)
			})
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		},
	}
}
