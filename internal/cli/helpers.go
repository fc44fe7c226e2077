package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cast"
	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/caseload/pkg/types"
)

// parseAssignments turns key=value arguments into a record. Values that parse
// as JSON keep their JSON type; anything else stays a string.
func parseAssignments(args []string) (types.Record, error) {
	rec := types.Record{}
	for _, arg := range args {
		key, value, ok := strings.Cut(arg, "=")
		if !ok || key == "" {
			return nil, fmt.Errorf("invalid argument %q (expected key=value)", arg)
		}
		var parsed any
		if err := json.Unmarshal([]byte(value), &parsed); err != nil {
			parsed = value
		}
		rec[key] = parsed
	}
	return rec, nil
}

// recordInput builds a record from an optional JSON file ("-" reads stdin)
// overlaid with key=value arguments.
func recordInput(cmd *cobra.Command, file string, args []string) (types.Record, error) {
	rec := types.Record{}
	if file != "" {
		var (
			data []byte
			err  error
		)
		if file == "-" {
			data, err = io.ReadAll(cmd.InOrStdin())
		} else {
			data, err = os.ReadFile(file)
		}
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", file, err)
		}
		if rec, err = types.RecordFromJSON(data); err != nil {
			return nil, err
		}
	}
	extra, err := parseAssignments(args)
	if err != nil {
		return nil, err
	}
	for k, v := range extra {
		rec[k] = v
	}
	return rec, nil
}

func (a *app) printJSON(cmd *cobra.Command, v any) error {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal output: %w", err)
	}
	fmt.Fprintln(cmd.OutOrStdout(), string(out))
	return nil
}

// printRecords writes one "<id>\t<json>" line per record, or an indented
// JSON array in JSON mode.
func (a *app) printRecords(cmd *cobra.Command, entityType string, recs []types.Record) error {
	if a.flags.jsonMode {
		if recs == nil {
			recs = []types.Record{}
		}
		return a.printJSON(cmd, recs)
	}
	w := cmd.OutOrStdout()
	for _, r := range recs {
		line, err := json.Marshal(r)
		if err != nil {
			return fmt.Errorf("marshal record: %w", err)
		}
		id, _ := types.IdentityOf(r, entityType)
		fmt.Fprintf(w, "%s\t%s\n", cast.ToString(id), line)
	}
	return nil
}

func (a *app) printRecord(cmd *cobra.Command, rec types.Record) error {
	if a.flags.jsonMode {
		return a.printJSON(cmd, rec)
	}
	line, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshal record: %w", err)
	}
	fmt.Fprintln(cmd.OutOrStdout(), string(line))
	return nil
}
