package cmd

import (
	"context"
	"errors"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var (
	execCmd = &cobra.Command{
		Use:   "exec <sql>...",
		Short: "Runs SQL statements verbatim against the configured database",
		Long:  "Runs each argument as one SQL statement, with no placeholder binding. Results are printed as tab-separated rows.",
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := logrus.StandardLogger()
			ctx := context.Background()

			if len(args) == 0 {
				_ = cmd.Help()
				return errors.New("no statements given")
			}

			handle, err := openTarget(ctx, logger)
			if err != nil {
				return err
			}
			defer func() {
				_ = handle.Close()
			}()

			for _, stmt := range args {
				rows, err := handle.RunDirect(ctx, stmt)
				if err != nil {
					return err
				}
				if err := printRows(cmd.OutOrStdout(), rows); err != nil {
					return err
				}
			}
			return nil
		},
	}
)

func init() {
	rootCmd.AddCommand(execCmd)
}
