/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ssargent/boconv/pkg/config"
	"github.com/ssargent/boconv/pkg/query"
	"github.com/ssargent/boconv/pkg/store"
)

// logCmd groups the object storage commands
var logCmd = &cobra.Command{
	Use:   "log",
	Short: "Store and inspect objects",
	Long: `Store encoded objects in the data directory and read them back.

The storage engine is chosen by storage.engine in the config file or by
--engine. "log explain" needs the append-only log engine.`,
}

var logAppendCmd = &cobra.Command{
	Use:   "append <type>",
	Short: "Encode a document and store it",
	Long: `Encode a YAML or JSON document and store it as a new object.

Examples:
  boconv log append Food -f food.yaml
  boconv --engine log log append Area -f area.json`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		file, _ := cmd.Flags().GetString("file")

		objects, err := container.Objects()
		if err != nil {
			return err
		}
		v, err := objects.Records().Types().New(args[0])
		if err != nil {
			return err
		}
		if err := readDocument(file, cmd.InOrStdin(), v); err != nil {
			return err
		}

		id, err := objects.Put(v)
		if err != nil {
			return err
		}
		logger().Debug("object stored", zap.String("type", args[0]), zap.Stringer("id", id))
		cmd.Println(id.String())
		return nil
	},
}

var logGetCmd = &cobra.Command{
	Use:   "get <id>",
	Short: "Print a stored object",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		format, _ := cmd.Flags().GetString("format")
		out, _ := cmd.Flags().GetString("out")
		raw, _ := cmd.Flags().GetBool("raw")

		id, err := store.ParseID(args[0])
		if err != nil {
			return errors.Wrapf(err, "%q", args[0])
		}
		objects, err := container.Objects()
		if err != nil {
			return err
		}

		if raw {
			_, data, err := objects.Raw(id)
			if err != nil {
				return err
			}
			return writeBinary(cmd.OutOrStdout(), data, out)
		}

		_, v, err := objects.Load(id)
		if err != nil {
			return err
		}
		return render(cmd.OutOrStdout(), v, format, out)
	},
}

var logDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete a stored object",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := store.ParseID(args[0])
		if err != nil {
			return errors.Wrapf(err, "%q", args[0])
		}
		objects, err := container.Objects()
		if err != nil {
			return err
		}
		if err := objects.Delete(id); err != nil {
			return err
		}
		cmd.Printf("Deleted %s\n", id)
		return nil
	},
}

var logDumpCmd = &cobra.Command{
	Use:   "dump [type]",
	Short: "List stored objects",
	Long: `List stored objects in id order, optionally of one type. With --decode
every object is printed in full.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		decode, _ := cmd.Flags().GetBool("decode")
		format, _ := cmd.Flags().GetString("format")

		typeName := ""
		if len(args) == 1 {
			typeName = args[0]
			types, err := container.Types()
			if err != nil {
				return err
			}
			if _, ok := types.Lookup(typeName); !ok {
				return fmt.Errorf("unknown record type %q", typeName)
			}
		}

		objects, err := container.Objects()
		if err != nil {
			return err
		}
		ids, err := objects.List(typeName)
		if err != nil {
			return err
		}

		if !decode {
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tTYPE\tSIZE\tCREATED")
			for _, id := range ids {
				name, data, err := objects.Raw(id)
				if err != nil {
					return err
				}
				fmt.Fprintf(tw, "%s\t%s\t%d\t%s\n", id, name, len(data), id.Time().Format("2006-01-02 15:04:05"))
			}
			return tw.Flush()
		}

		for _, id := range ids {
			name, v, err := objects.Load(id)
			if err != nil {
				return errors.Wrapf(err, "object %s", id)
			}
			cmd.Printf("--- %s %s\n", id, name)
			if err := render(cmd.OutOrStdout(), v, format, ""); err != nil {
				return err
			}
		}
		return nil
	},
}

var logQueryCmd = &cobra.Command{
	Use:   "query <type> <field> <op> <value>",
	Short: "Find stored objects by field value",
	Long: `Find stored objects of a type whose field compares true against a value.
The field is a Go field name or a wire tag; op is one of = != > < >= <=.
Numbers compare by value whatever their encoded width.

Examples:
  boconv log query Area Name = Kitchen
  boconv log query Food 0x11 ">=" 40 --format json`,
	Args: cobra.ExactArgs(4),
	RunE: func(cmd *cobra.Command, args []string) error {
		format, _ := cmd.Flags().GetString("format")

		objects, err := container.Objects()
		if err != nil {
			return err
		}
		it, err := query.NewScanEngine(objects).ExecuteQuery(cmd.Context(), args[0], query.FieldQuery{
			Field:    args[1],
			Operator: args[2],
			Value:    args[3],
		})
		if err != nil {
			return err
		}
		results := query.Collect(it)
		logger().Debug("query finished", zap.String("type", args[0]), zap.Int("matches", len(results)))
		return render(cmd.OutOrStdout(), results, format, "")
	},
}

var logExplainCmd = &cobra.Command{
	Use:   "explain",
	Short: "Summarize the object log",
	Long: `Summarize the append-only object log: live objects, tombstones, dead space
and per-type counts.

Examples:
  boconv --engine log log explain
  boconv --engine log log explain --type Food --samples 5 --format json`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		typeName, _ := cmd.Flags().GetString("type")
		samples, _ := cmd.Flags().GetInt("samples")
		format, _ := cmd.Flags().GetString("format")

		if container.Config().Storage.Engine != config.EngineLog {
			return fmt.Errorf("explain needs the %q storage engine", config.EngineLog)
		}
		if _, err := container.Objects(); err != nil {
			return err
		}
		objectLog, ok := container.Stats().(*store.ObjectLog)
		if !ok {
			return errors.New("object log is not open")
		}

		res, err := objectLog.Explain(cmd.Context(), store.ExplainOptions{Type: typeName, WithSamples: samples})
		if err != nil {
			return err
		}
		if format != "" {
			return render(cmd.OutOrStdout(), res, format, "")
		}
		printExplain(cmd, objectLog.Path(), res)
		return nil
	},
}

func printExplain(cmd *cobra.Command, path string, res *store.ExplainResult) {
	g := res.Global
	cmd.Printf("Log:          %s\n", path)
	cmd.Printf("Live objects: %d\n", g.LiveObjects)
	cmd.Printf("Frames:       %d (%d tombstones)\n", g.Frames, g.Tombstones)
	cmd.Printf("Size:         %.3f MB total, %.3f MB live, %.1f%% dead\n", g.TotalSizeMB, g.LiveSizeMB, g.DeadPct)

	if len(res.Types) > 0 {
		tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "\nTYPE\tOBJECTS\tSIZE MB\tOLDEST\tNEWEST")
		for _, name := range res.TypeNames() {
			ts := res.Types[name]
			fmt.Fprintf(tw, "%s\t%d\t%.3f\t%s\t%s\n", name, ts.Objects, ts.SizeMB, ts.Oldest, ts.Newest)
		}
		_ = tw.Flush()
	}

	for _, s := range res.Samples {
		cmd.Printf("sample %s %s %d bytes %s\n", s.ID, s.Type, s.Size, s.Ts.Format("2006-01-02 15:04:05"))
	}
	for _, w := range res.Warnings {
		fmt.Fprintf(os.Stderr, "warning: %s\n", w)
	}
}

func init() {
	rootCmd.AddCommand(logCmd)
	logCmd.AddCommand(logAppendCmd, logGetCmd, logDeleteCmd, logDumpCmd, logQueryCmd, logExplainCmd)

	logAppendCmd.Flags().StringP("file", "f", "", "YAML or JSON input file, - for stdin (required)")
	if err := logAppendCmd.MarkFlagRequired("file"); err != nil {
		panic(err)
	}

	logGetCmd.Flags().String("format", formatYAML, "Output format: yaml, json or cbor")
	logGetCmd.Flags().StringP("out", "o", "", "Write binary output to a file instead of printing hex")
	logGetCmd.Flags().Bool("raw", false, "Print the encoded record instead of decoding it")

	logDumpCmd.Flags().Bool("decode", false, "Print every object in full")
	logDumpCmd.Flags().String("format", formatYAML, "Output format with --decode: yaml or json")

	logQueryCmd.Flags().String("format", formatYAML, "Output format: yaml or json")

	logExplainCmd.Flags().String("type", "", "Only report objects of this type")
	logExplainCmd.Flags().Int("samples", 0, "Number of sample frames to list")
	logExplainCmd.Flags().String("format", "", "Print the result as yaml or json")
}
