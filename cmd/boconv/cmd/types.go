/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/ssargent/boconv/pkg/api"
)

// typesCmd represents the types command
var typesCmd = &cobra.Command{
	Use:   "types [type]",
	Short: "List registered record types",
	Long: `List the registered record types and their fields.

Examples:
  boconv types
  boconv types Food`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		types, err := container.Types()
		if err != nil {
			return err
		}

		infos := api.DescribeTypes(types)
		if len(args) == 0 {
			for _, info := range infos {
				cmd.Printf("%s (%d fields)\n", info.Name, len(info.Fields))
			}
			return nil
		}

		for _, info := range infos {
			if info.Name != args[0] {
				continue
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "TAG\tFIELD\tKIND\tWIDTH\tDETAIL")
			for _, f := range info.Fields {
				detail := f.Elem
				if f.Record != "" {
					detail = f.Record
				}
				if f.Required {
					detail += " required"
				}
				fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%s\n", f.Tag, f.Name, f.Kind, f.Width, detail)
			}
			return tw.Flush()
		}
		return fmt.Errorf("unknown record type %q", args[0])
	},
}

func init() {
	rootCmd.AddCommand(typesCmd)
}
