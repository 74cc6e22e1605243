/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ssargent/boconv/pkg/models"
)

// sampleCmd represents the sample command
var sampleCmd = &cobra.Command{
	Use:   "sample <type>",
	Short: "Print a sample object",
	Long: `Print a sample object of a record type. Without --format the sample is
encoded and printed as hex; otherwise it is rendered as YAML, JSON or CBOR.
The YAML form is a ready input for "boconv encode".

Examples:
  boconv sample Food
  boconv sample Food --format yaml > food.yaml
  boconv sample Area --out area.bin`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		format, _ := cmd.Flags().GetString("format")
		out, _ := cmd.Flags().GetString("out")

		v, ok := models.Sample(args[0])
		if !ok {
			return fmt.Errorf("no sample for %q (have %s)", args[0], strings.Join(models.SampleNames(), ", "))
		}

		if format != "" {
			return render(cmd.OutOrStdout(), v, format, out)
		}

		records, err := container.Records()
		if err != nil {
			return err
		}
		data, err := records.Encode(v)
		if err != nil {
			return err
		}
		return writeBinary(cmd.OutOrStdout(), data, out)
	},
}

func init() {
	rootCmd.AddCommand(sampleCmd)
	sampleCmd.Flags().String("format", "", "Render the object as yaml, json or cbor instead of encoding it")
	sampleCmd.Flags().StringP("out", "o", "", "Write binary output to a file instead of printing hex")
}
