package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/caseload/internal/snapshot"
	"github.com/mesh-intelligence/caseload/pkg/types"
)

func newInitCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Initialize caseload configuration and snapshot storage",
		Long: "Create the configuration directory with a default config.yaml and the data\n" +
			"directory holding the snapshot database. Running init again is harmless.",
		Args: cobra.NoArgs,
		RunE: a.runInit,
	}
}

func (a *app) runInit(cmd *cobra.Command, _ []string) error {
	// config.yaml was already written by setup.
	if err := os.MkdirAll(a.dataDir, 0o755); err != nil {
		return fmt.Errorf("create data directory: %w", err)
	}
	if a.v.GetString(cfgKeySnapshotBackend) == types.SnapshotSQLite {
		db, err := snapshot.OpenSQLite(a.dataDir)
		if err != nil {
			return fmt.Errorf("initialize snapshots: %w", err)
		}
		if err := db.Close(); err != nil {
			return fmt.Errorf("finalize snapshots: %w", err)
		}
	}

	w := cmd.OutOrStdout()
	fmt.Fprintln(w, "caseload initialized")
	fmt.Fprintf(w, "  config: %s\n", a.configDir)
	fmt.Fprintf(w, "  data:   %s\n", a.dataDir)
	return nil
}
