package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "pgctl",
	Short: "Inspect and maintain pocketgram session data",
	Long:  "pgctl operates on local session directories: lists sessions, dumps the downloaded-asset ledger and runs the avatar and thumbnail pipelines on local files.",
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}
