package cmd

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var (
	pingCmd = &cobra.Command{
		Use:   "ping",
		Short: "Connects to the configured database and reports success",
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := logrus.StandardLogger()
			ctx := context.Background()

			handle, err := openTarget(ctx, logger)
			if err != nil {
				return err
			}
			defer func() {
				_ = handle.Close()
			}()

			fmt.Fprintf(cmd.OutOrStdout(), "database %s is reachable\n", database)
			return nil
		},
	}
)

func init() {
	rootCmd.AddCommand(pingCmd)
}
