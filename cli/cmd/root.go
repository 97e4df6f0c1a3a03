package cmd

import (
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var (
	rootCmd = &cobra.Command{
		Use:          "sqlsh",
		Short:        "sqlsh",
		SilenceUsage: true,
		Long:         `Small shell for running SQL against the databases configured in sqlsh.yaml. See README.md.`,
	}

	directory string
	database  string
	verbose   bool
)

// Execute executes the root command.
func Execute() error {
	rootCmd.PersistentFlags().StringVarP(&directory, "directory", "d", ".", "directory containing sqlsh.yaml")
	rootCmd.PersistentFlags().StringVarP(&database, "database", "D", "", "name of the database entry in sqlsh.yaml")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug-level logging")
	cobra.OnInitialize(func() {
		if verbose {
			logrus.SetLevel(logrus.DebugLevel)
		}
	})
	return rootCmd.Execute()
}
