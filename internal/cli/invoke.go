package cli

import (
	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/caseload/pkg/types"
)

func newInvokeCmd(a *app) *cobra.Command {
	var (
		id, childID string
		file        string
		params      []string
	)
	cmd := &cobra.Command{
		Use:   "invoke <type> <operation> [key=value...]",
		Short: "Run an entity-specific operation",
		Long: `Invoke runs a named extension operation of an entity type. The available
operations are listed by "caseload entities <type>".

key=value arguments and --file form the request body; --param adds query
parameters.

Example:
  caseload invoke kurikulum set_active --id 4
  caseload invoke kurikulum remove_materi --id 4 --child-id 12
  caseload invoke kurikulum assign_materi --id 4 id_materi=[1,2,3]`,
		Args: cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			body, err := recordInput(cmd, file, args[2:])
			if err != nil {
				return err
			}
			query, err := parseAssignments(params)
			if err != nil {
				return err
			}
			call := types.ExtensionCall{Params: types.Params(query)}
			if id != "" {
				call.ID = id
			}
			if childID != "" {
				call.ChildID = childID
			}
			if len(body) > 0 {
				call.Body = body
			}

			ent, err := a.entity(args[0])
			if err != nil {
				return err
			}
			out, err := ent.Invoke(cmd.Context(), args[1], call)
			if err != nil {
				return err
			}
			return a.printJSON(cmd, out)
		},
	}
	cmd.Flags().StringVar(&id, "id", "", "record id for {id}")
	cmd.Flags().StringVar(&childID, "child-id", "", "child record id for {child_id}")
	cmd.Flags().StringVarP(&file, "file", "f", "", "JSON object used as the request body")
	cmd.Flags().StringArrayVar(&params, "param", nil, "query parameter as key=value (repeatable)")
	return cmd
}
