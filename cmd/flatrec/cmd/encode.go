/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ssargent/flatrec/pkg/batch"
)

// encodeCmd represents the encode command
var encodeCmd = &cobra.Command{
	Use:   "encode <layout> [file]",
	Short: "Encode JSON lines to a flat file",
	Long: `Encode one JSON record per input line with a layout and write the flat file
in the configured charset and line ending.

Examples:
  flatrec encode payment payments.jsonl -o payments.txt
  flatrec encode payment --charset latin1 --line-ending crlf < payments.jsonl`,
	Args: cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		set, err := container.LoadLayouts(cfg.Layouts)
		if err != nil {
			return err
		}
		entry, ok := set.Get(args[0])
		if !ok {
			return fmt.Errorf("layout %q not found", args[0])
		}

		var input string
		if len(args) == 2 {
			input = args[1]
		}

		job := &batch.Job{
			Layout:  entry.Name,
			Logger:  logger,
			Metrics: container.BatchMetrics(),
			Map: func(text string, n int) (any, error) {
				line, err := entry.EncodeJSON([]byte(text))
				if err != nil {
					return nil, fmt.Errorf("line %d: %w", n, err)
				}
				return line, nil
			},
		}

		return runJob(cmd, job, input, toFlat)
	},
}

func init() {
	rootCmd.AddCommand(encodeCmd)
	addBatchFlags(encodeCmd)
	encodeCmd.Flags().String("line-ending", "", "Line ending: lf or crlf (overrides the configuration)")
}
