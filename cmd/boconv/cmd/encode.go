/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// encodeCmd represents the encode command
var encodeCmd = &cobra.Command{
	Use:   "encode <type>",
	Short: "Encode a YAML or JSON document",
	Long: `Encode a YAML or JSON document as a binary record of the given type.

Examples:
  boconv encode Food -f food.yaml
  boconv encode Area -f area.json --out area.bin
  boconv sample Area --format yaml | boconv encode Area -f -`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		file, _ := cmd.Flags().GetString("file")
		out, _ := cmd.Flags().GetString("out")

		records, err := container.Records()
		if err != nil {
			return err
		}
		v, err := records.Types().New(args[0])
		if err != nil {
			return err
		}
		if err := readDocument(file, cmd.InOrStdin(), v); err != nil {
			return err
		}

		data, err := records.Encode(v)
		if err != nil {
			return err
		}
		logger().Debug("encoded record", zap.String("type", args[0]), zap.Int("size", len(data)))
		return writeBinary(cmd.OutOrStdout(), data, out)
	},
}

func init() {
	rootCmd.AddCommand(encodeCmd)
	encodeCmd.Flags().StringP("file", "f", "", "YAML or JSON input file, - for stdin (required)")
	encodeCmd.Flags().StringP("out", "o", "", "Write the record to a file instead of printing hex")
	if err := encodeCmd.MarkFlagRequired("file"); err != nil {
		panic(err)
	}
}
