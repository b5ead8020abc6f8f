package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/pocketgram/core/internal/session"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(sessionsCmd)
}

var sessionsCmd = &cobra.Command{
	Use:   "sessions",
	Short: "List known session directories",
	RunE: func(cmd *cobra.Command, args []string) error {
		root := filepath.Join(session.BaseDir(), "sessions")
		entries, err := os.ReadDir(root)
		if os.IsNotExist(err) {
			fmt.Println("no sessions")
			return nil
		}
		if err != nil {
			return err
		}
		for _, e := range entries {
			if !e.IsDir() {
				continue
			}
			marker := " "
			if _, err := os.Stat(session.CacheDBPath(e.Name())); err == nil {
				marker = "*"
			}
			fmt.Printf("%s %s\n", marker, e.Name())
		}
		return nil
	},
}
