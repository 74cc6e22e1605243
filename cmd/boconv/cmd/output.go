/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"encoding/hex"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/fxamacker/cbor/v2"
	"gopkg.in/yaml.v3"
)

// Output formats for decoded objects
const (
	formatYAML = "yaml"
	formatJSON = "json"
	formatCBOR = "cbor"
)

// render writes v in the requested format. CBOR goes through writeBinary.
func render(w io.Writer, v any, format, out string) error {
	switch format {
	case formatYAML, "":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return err
		}
		return enc.Close()
	case formatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	case formatCBOR:
		data, err := cbor.Marshal(v)
		if err != nil {
			return err
		}
		return writeBinary(w, data, out)
	}
	return errors.Newf("unknown format %q (want yaml, json or cbor)", format)
}

// writeBinary saves data to out, or prints it as hex when out is empty
func writeBinary(w io.Writer, data []byte, out string) error {
	if out != "" {
		return os.WriteFile(out, data, 0600)
	}
	_, err := io.WriteString(w, hex.EncodeToString(data)+"\n")
	return err
}

// readRecord returns encoded record bytes from a file or a hex argument
func readRecord(args []string, file string) ([]byte, error) {
	if file != "" {
		return os.ReadFile(file)
	}
	if len(args) == 0 {
		return nil, errors.New("either a hex argument or --file is required")
	}
	data, err := hex.DecodeString(strings.Join(strings.Fields(args[0]), ""))
	if err != nil {
		return nil, errors.Wrap(err, "argument is not hex")
	}
	return data, nil
}

// readDocument parses a JSON or YAML document into v. Files ending in .json
// are JSON; everything else is YAML. "-" reads stdin as YAML.
func readDocument(file string, stdin io.Reader, v any) error {
	var (
		data []byte
		err  error
	)
	if file == "-" {
		data, err = io.ReadAll(stdin)
	} else {
		data, err = os.ReadFile(file)
	}
	if err != nil {
		return err
	}
	if strings.EqualFold(filepath.Ext(file), ".json") {
		err = json.Unmarshal(data, v)
	} else {
		err = yaml.Unmarshal(data, v)
	}
	return errors.Wrapf(err, "parse %s", file)
}
