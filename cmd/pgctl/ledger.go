package main

import (
	"fmt"

	"github.com/pocketgram/core/internal/session"
	"github.com/pocketgram/core/internal/store"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(ledgerCmd)
}

var ledgerCmd = &cobra.Command{
	Use:   "ledger <session>",
	Short: "Dump the downloaded-asset ledger of a session",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := store.Open(session.CacheDBPath(args[0]))
		if err != nil {
			return err
		}
		defer func() { _ = db.Close() }()

		if _, err := db.Migrate(); err != nil {
			return err
		}

		for _, set := range []struct {
			label string
			key   string
		}{
			{"avatars", "DownloadedAvatars"},
			{"photos", "DownloadedPhotos"},
		} {
			ids, err := db.GetIDSet(set.key)
			if err != nil {
				return fmt.Errorf("read %s ledger: %w", set.label, err)
			}
			fmt.Printf("%s (%d):\n", set.label, len(ids))
			for _, id := range ids {
				fmt.Printf("  %d\n", id)
			}
		}
		return nil
	},
}
