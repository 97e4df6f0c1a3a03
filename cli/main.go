package main

import (
	"os"

	"github.com/nordsql/sqlhandle/cli/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
