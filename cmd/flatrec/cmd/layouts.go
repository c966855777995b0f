/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

// layoutsCmd represents the layouts command
var layoutsCmd = &cobra.Command{
	Use:   "layouts",
	Short: "List the layouts of the layout document",
	Long: `List the layouts of the layout document with their widths and match patterns.

Examples:
  flatrec layouts
  flatrec layouts --columns`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		columns, _ := cmd.Flags().GetBool("columns")

		set, err := container.LoadLayouts(cfg.Layouts)
		if err != nil {
			return err
		}

		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "NAME\tWIDTH\tMATCH\tDESCRIPTION")
		for _, e := range set.Entries() {
			fmt.Fprintf(w, "%s\t%d\t%s\t%s\n", e.Name, e.Width(), e.Match, e.Description)
			if !columns {
				continue
			}
			for _, c := range e.Columns() {
				fmt.Fprintf(w, "  %s\t%d\t@%d\t\n", c.Path, c.Length, c.Offset)
			}
		}
		return w.Flush()
	},
}

func init() {
	rootCmd.AddCommand(layoutsCmd)
	layoutsCmd.Flags().Bool("columns", false, "Show the columns of each layout")
}
