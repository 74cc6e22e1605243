/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ssargent/boconv/pkg/record"
)

// decodeCmd represents the decode command
var decodeCmd = &cobra.Command{
	Use:   "decode <type> [hex]",
	Short: "Decode a binary record",
	Long: `Decode a binary record given as hex or read from a file.

With --explain every tag/payload unit is listed with its offset, length and
decoded value. A malformed record still lists the units read before the
damage.

Examples:
  boconv decode Area 88070000004b69746368656e
  boconv decode Food -f food.bin --format json
  boconv decode Food -f food.bin --explain`,
	Args: cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		file, _ := cmd.Flags().GetString("file")
		format, _ := cmd.Flags().GetString("format")
		out, _ := cmd.Flags().GetString("out")
		explain, _ := cmd.Flags().GetBool("explain")

		data, err := readRecord(args[1:], file)
		if err != nil {
			return err
		}
		records, err := container.Records()
		if err != nil {
			return err
		}

		if explain {
			sch, ok := records.Types().Lookup(args[0])
			if !ok {
				return fmt.Errorf("unknown record type %q", args[0])
			}
			dumps, err := records.Inspect(data, sch.Type)
			printDumps(cmd, dumps, 0)
			return err
		}

		v, err := records.DecodeNamed(args[0], data)
		if err != nil {
			return err
		}
		return render(cmd.OutOrStdout(), v, format, out)
	},
}

func printDumps(cmd *cobra.Command, dumps []record.FieldDump, depth int) {
	indent := strings.Repeat("  ", depth)
	for _, d := range dumps {
		value := fmt.Sprint(d.Value)
		if d.Absent {
			value = "<absent>"
		}
		if len(d.Children) > 0 {
			value = ""
		}
		cmd.Printf("%s0x%02x %-14s %-10s @%-5d len=%-4d %s\n",
			indent, d.Tag, d.Field, d.Kind, d.Offset, d.Length, value)
		printDumps(cmd, d.Children, depth+1)
	}
}

func init() {
	rootCmd.AddCommand(decodeCmd)
	decodeCmd.Flags().StringP("file", "f", "", "Read the record from a file")
	decodeCmd.Flags().String("format", formatYAML, "Output format: yaml, json or cbor")
	decodeCmd.Flags().StringP("out", "o", "", "Write CBOR output to a file instead of printing hex")
	decodeCmd.Flags().Bool("explain", false, "List the tag/payload units instead of the object")
}
