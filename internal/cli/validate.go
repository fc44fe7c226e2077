package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/caseload/internal/validate"
	"github.com/mesh-intelligence/caseload/pkg/types"
)

func newValidateCmd(a *app) *cobra.Command {
	var (
		file    string
		partial bool
	)
	cmd := &cobra.Command{
		Use:   "validate <type> [key=value...]",
		Short: "Check a record against the entity's validation rules",
		Long: `Validate evaluates the entity's client-side rules without contacting the API.
With --partial only the given fields are checked, as for an update.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := recordInput(cmd, file, args[1:])
			if err != nil {
				return err
			}
			rules, err := a.sess.Registry().ValidationRules(args[0])
			if err != nil {
				return err
			}
			err = validate.New().Check(args[0], rules, data, partial)
			var verr *types.ValidationError
			if errors.As(err, &verr) && a.flags.jsonMode {
				if perr := a.printJSON(cmd, verr.ByField()); perr != nil {
					return perr
				}
			}
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "valid")
			return nil
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "", "JSON object with the record fields")
	cmd.Flags().BoolVar(&partial, "partial", false, "skip rules for absent fields")
	return cmd
}
