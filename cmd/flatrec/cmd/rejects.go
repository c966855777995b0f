/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ssargent/flatrec/pkg/storage"
)

// rejectsCmd represents the rejects command
var rejectsCmd = &cobra.Command{
	Use:   "rejects",
	Short: "Inspect the lines rejected by decode and encode",
}

var rejectsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List rejected lines as JSON, oldest first",
	Long: `List rejected lines as JSON, oldest first.

Examples:
  flatrec rejects list
  flatrec rejects list --limit 20`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")

		store, err := storage.NewRejectStore(cfg.RejectDir)
		if err != nil {
			return err
		}
		defer store.Close()

		rejects, err := store.List(limit)
		if err != nil {
			return err
		}

		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetEscapeHTML(false)
		for _, r := range rejects {
			if err := enc.Encode(r); err != nil {
				return err
			}
		}
		return nil
	},
}

var rejectsPurgeCmd = &cobra.Command{
	Use:   "purge",
	Short: "Delete every rejected line",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := storage.NewRejectStore(cfg.RejectDir)
		if err != nil {
			return err
		}
		defer store.Close()

		n, err := store.Purge()
		if err != nil {
			return fmt.Errorf("failed to purge rejects: %w", err)
		}
		cmd.Printf("Purged %d rejected lines\n", n)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(rejectsCmd)
	rejectsCmd.AddCommand(rejectsListCmd, rejectsPurgeCmd)
	rejectsListCmd.Flags().Int("limit", 0, "Maximum number of rejects, 0 for all")
}
