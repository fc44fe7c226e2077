package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

func newCacheCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Inspect or clear persisted collection states",
	}
	cmd.AddCommand(newCacheListCmd(a), newCacheClearCmd(a))
	return cmd
}

func newCacheListCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List entity types with a persisted state",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := a.session()
			if err != nil {
				return err
			}
			names, err := s.Snapshots(cmd.Context())
			if err != nil {
				return err
			}
			if a.flags.jsonMode {
				if names == nil {
					names = []string{}
				}
				return a.printJSON(cmd, names)
			}
			for _, n := range names {
				fmt.Fprintln(cmd.OutOrStdout(), n)
			}
			return nil
		},
	}
}

func newCacheClearCmd(a *app) *cobra.Command {
	var all bool
	cmd := &cobra.Command{
		Use:   "clear [type...]",
		Short: "Drop persisted states so the next load hits the API",
		RunE: func(cmd *cobra.Command, args []string) error {
			if !all && len(args) == 0 {
				return errors.New("name at least one entity type or pass --all")
			}
			s, err := a.session()
			if err != nil {
				return err
			}
			if all {
				if args, err = s.Snapshots(cmd.Context()); err != nil {
					return err
				}
			}
			for _, t := range args {
				if err := s.Forget(cmd.Context(), t); err != nil {
					return fmt.Errorf("clear %s: %w", t, err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "cleared %s\n", t)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&all, "all", false, "clear every persisted state")
	return cmd
}
