package main

import (
	"fmt"

	"github.com/pocketgram/core/internal/assets"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(avatarCmd, thumbnailCmd)
}

var avatarCmd = &cobra.Command{
	Use:   "avatar <input> <output.png>",
	Short: "Render a local image through the rounded-avatar pipeline",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := assets.RenderAvatar(args[0], args[1]); err != nil {
			return err
		}
		fmt.Println(args[1])
		return nil
	},
}

var thumbnailCmd = &cobra.Command{
	Use:   "thumbnail <input> <output.jpg>",
	Short: "Render a local image through the photo-thumbnail pipeline",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := assets.RenderThumbnail(args[0], args[1]); err != nil {
			return err
		}
		fmt.Println(args[1])
		return nil
	},
}
