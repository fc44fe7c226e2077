package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/caseload/pkg/types"
)

func newDropdownCmd(a *app) *cobra.Command {
	var force bool
	cmd := &cobra.Command{
		Use:   "dropdown <type> [key=value...]",
		Short: "Load the option list of an entity type",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			params, err := parseAssignments(args[1:])
			if err != nil {
				return err
			}
			ent, err := a.entity(args[0])
			if err != nil {
				return err
			}
			res := ent.DropdownOptions(cmd.Context(), types.Params(params), force)
			if !res.Success {
				return fmt.Errorf("dropdown %s: %s", args[0], res.Error)
			}
			if a.flags.jsonMode {
				return a.printJSON(cmd, res)
			}
			return a.printRecords(cmd, args[0], res.Data)
		},
	}
	cmd.Flags().BoolVar(&force, "force", false, "reload even when options are cached")
	return cmd
}

func newStatsCmd(a *app) *cobra.Command {
	var force bool
	cmd := &cobra.Command{
		Use:   "stats <type> [key=value...]",
		Short: "Load the statistics record of an entity type",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			params, err := parseAssignments(args[1:])
			if err != nil {
				return err
			}
			ent, err := a.entity(args[0])
			if err != nil {
				return err
			}
			res := ent.LoadStatistics(cmd.Context(), types.Params(params), force)
			if !res.Success {
				return fmt.Errorf("stats %s: %s", args[0], res.Error)
			}
			if a.flags.jsonMode {
				return a.printJSON(cmd, res)
			}
			return a.printRecord(cmd, res.Data)
		},
	}
	cmd.Flags().BoolVar(&force, "force", false, "ignore the statistics cache window")
	return cmd
}
