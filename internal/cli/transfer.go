package cli

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/mesh-intelligence/caseload/internal/snapshot"
	"github.com/mesh-intelligence/caseload/pkg/types"
)

func newExportCmd(a *app) *cobra.Command {
	var force bool
	cmd := &cobra.Command{
		Use:   "export <type> <file> [key=value...]",
		Short: "Write a page of records to a JSONL file",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			params, err := parseAssignments(args[2:])
			if err != nil {
				return err
			}
			ent, err := a.entity(args[0])
			if err != nil {
				return err
			}
			res := ent.FetchAll(cmd.Context(), types.Params(params), force || len(params) > 0)
			if !res.Success {
				return fmt.Errorf("export %s: %s", args[0], res.Error)
			}
			if err := snapshot.WriteJSONL(args[1], res.Data); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "exported %d %s records to %s\n", len(res.Data), args[0], args[1])
			return nil
		},
	}
	cmd.Flags().BoolVar(&force, "force", false, "ignore the cache window")
	return cmd
}

func newImportCmd(a *app) *cobra.Command {
	var keepGoing bool
	cmd := &cobra.Command{
		Use:   "import <type> <file>",
		Short: "Create one record per line of a JSONL file",
		Long: `Import validates and creates each record of a JSONL file in order.
Lines that are not JSON objects are skipped. The first failed create stops
the import unless --keep-going is set.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			recs, err := snapshot.ReadJSONL(args[1])
			if err != nil {
				return err
			}
			ent, err := a.entity(args[0])
			if err != nil {
				return err
			}
			created := 0
			var firstErr error
			for i, rec := range recs {
				if _, err := ent.Create(cmd.Context(), rec); err != nil {
					if !keepGoing {
						return fmt.Errorf("record %d: %w", i+1, err)
					}
					a.log.Warn("import record failed", zap.Int("record", i+1), zap.Error(err))
					if firstErr == nil {
						firstErr = fmt.Errorf("record %d: %w", i+1, err)
					}
					continue
				}
				created++
			}
			fmt.Fprintf(cmd.OutOrStdout(), "imported %d of %d %s records\n", created, len(recs), args[0])
			return firstErr
		},
	}
	cmd.Flags().BoolVar(&keepGoing, "keep-going", false, "continue after a failed record")
	return cmd
}
