package cmd

import (
	"fmt"

	"github.com/brk3/habitkit/internal/logger"
	"github.com/brk3/habitkit/internal/server"

	"github.com/spf13/cobra"
)

var apikeyCmd = &cobra.Command{
	Use:   "apikey",
	Short: "Manage API keys in the local store",
}

var apikeyCreateCmd = &cobra.Command{
	Use:   "create <user>",
	Short: "Issue an API key for a user",
	Long: `Issues a key directly against the configured store, so it must run where
the server's database lives. The key is printed once; only its hash is kept.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openStore(cfg)
		if err != nil {
			return err
		}
		defer func() {
			if err := store.Close(); err != nil {
				logger.Error("Failed to close store", "error", err)
			}
		}()

		key, err := server.IssueAPIKey(store, args[0])
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), key)
		return nil
	},
}

func init() {
	apikeyCmd.AddCommand(apikeyCreateCmd)
	rootCmd.AddCommand(apikeyCmd)
}
