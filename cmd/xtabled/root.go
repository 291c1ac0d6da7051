package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "xtabled",
	Short: "Serve a sparse marked id registry over HTTP",
	Long: `xtabled keeps an in-memory registry of entries keyed by allocated ids.
Entries can be tagged with marks and removed by mark lookup. A per-session
byte buffer endpoint is served next to it for client testing.`,
}

func execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
