package cmd

import (
	"context"
	"errors"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var (
	queryParams []string

	queryCmd = &cobra.Command{
		Use:   "query <sql>",
		Short: "Prepares a statement with ?-placeholders and executes it",
		Long:  "Prepares the given statement and binds each -p value positionally as text. Results are printed as tab-separated rows.",
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := logrus.StandardLogger()
			ctx := context.Background()

			if len(args) != 1 {
				_ = cmd.Help()
				return errors.New("Wrong number of arguments")
			}

			handle, err := openTarget(ctx, logger)
			if err != nil {
				return err
			}
			defer func() {
				_ = handle.Close()
			}()

			rows, err := handle.Query(ctx, args[0], queryParams...)
			if err != nil {
				return err
			}
			return printRows(cmd.OutOrStdout(), rows)
		},
	}
)

func init() {
	queryCmd.Flags().StringArrayVarP(&queryParams, "param", "p", nil, "positional parameter value, repeatable")
	rootCmd.AddCommand(queryCmd)
}
