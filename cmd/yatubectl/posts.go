package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var purgeYes bool

var postsCmd = &cobra.Command{
	Use:   "posts",
	Short: "Manage posts",
}

// postsPurgeCmd deletes every post together with its comments
var postsPurgeCmd = &cobra.Command{
	Use:   "purge",
	Short: "Delete every post and comment",
	Long: `Delete every post and its comments. Cached index pages keep showing
the old posts until they expire or the cache is cleared.

Examples:
  yatubectl posts purge --yes`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if !purgeYes {
			return fmt.Errorf("refusing to purge without --yes")
		}
		repo, _, err := openRepo()
		if err != nil {
			return err
		}
		n, err := repo.DeletePosts(cmd.Context())
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Deleted %d posts\n", n)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(postsCmd)
	postsCmd.AddCommand(postsPurgeCmd)

	postsPurgeCmd.Flags().BoolVar(&purgeYes, "yes", false, "Confirm the purge")
}
