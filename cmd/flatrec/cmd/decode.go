/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ssargent/flatrec/pkg/batch"
)

// decodeCmd represents the decode command
var decodeCmd = &cobra.Command{
	Use:   "decode [layout] [file]",
	Short: "Decode a flat file to JSON lines",
	Long: `Decode every line of a flat file with one layout, or with --poly with the
first layout whose match pattern fits the line, and write one JSON record per line.

Examples:
  flatrec decode payment payments.txt
  flatrec decode --poly --charset IBM037 --on-error skip batch.dat -o batch.jsonl`,
	Args: cobra.RangeArgs(0, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		poly, _ := cmd.Flags().GetBool("poly")

		set, err := container.LoadLayouts(cfg.Layouts)
		if err != nil {
			return err
		}

		job := &batch.Job{Logger: logger, Metrics: container.BatchMetrics()}
		var input string
		if poly {
			if len(args) > 1 {
				return errors.New("decode --poly takes at most one file")
			}
			p, err := set.Poly()
			if err != nil {
				return err
			}
			job.Map = p.MapLine
			if len(args) == 1 {
				input = args[0]
			}
		} else {
			if len(args) == 0 {
				return errors.New("decode needs a layout name or --poly")
			}
			entry, ok := set.Get(args[0])
			if !ok {
				return fmt.Errorf("layout %q not found", args[0])
			}
			job.Layout = entry.Name
			job.Map = entry.MapLine
			if len(args) == 2 {
				input = args[1]
			}
		}

		return runJob(cmd, job, input, toJSON)
	},
}

func init() {
	rootCmd.AddCommand(decodeCmd)
	addBatchFlags(decodeCmd)
	decodeCmd.Flags().Bool("poly", false, "Select the layout of each line by match pattern")
}
