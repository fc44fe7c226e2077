package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/caseload/pkg/caseload"
)

const modulePath = "github.com/mesh-intelligence/caseload"

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the caseload version",
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Fprintf(cmd.OutOrStdout(), "caseload v%s\nmodule: %s\n", caseload.Version, modulePath)
			return nil
		},
	}
}
