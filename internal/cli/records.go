package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/caseload/pkg/types"
)

func newListCmd(a *app) *cobra.Command {
	var (
		force  bool
		page   int
		search string
	)
	cmd := &cobra.Command{
		Use:   "list <type> [key=value...]",
		Short: "List a page of records, served from cache while fresh",
		Long: `List loads one page of records of the given entity type.

Arguments after the type are sent as query parameters. Values that parse as
JSON keep their type. Without parameters, --page or --search, the last loaded
page is served from cache within the cache window unless --force is given.

Example:
  caseload list jenjang
  caseload list anak status=aktif --page 2
  caseload list kelas --search "kelas 1" --force`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			params, err := parseAssignments(args[1:])
			if err != nil {
				return err
			}
			if page > 0 {
				params["page"] = page
			}
			ent, err := a.entity(args[0])
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("search") {
				ent.SetSearchQuery(search)
			}

			// The cached page only answers the query that loaded it.
			refresh := force || len(params) > 0 || cmd.Flags().Changed("search")
			res := ent.FetchAll(cmd.Context(), types.Params(params), refresh)
			if !res.Success {
				return fmt.Errorf("list %s: %s", args[0], res.Error)
			}
			if a.flags.jsonMode {
				return a.printJSON(cmd, res)
			}
			if err := a.printRecords(cmd, args[0], res.Data); err != nil {
				return err
			}
			st := ent.State()
			note := ""
			if res.Cached {
				note = " (cached)"
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "%d of %d, page %d/%d%s\n",
				len(res.Data), st.TotalItems, st.CurrentPage, st.TotalPages, note)
			return nil
		},
	}
	cmd.Flags().BoolVar(&force, "force", false, "ignore the cache window")
	cmd.Flags().IntVar(&page, "page", 0, "page number")
	cmd.Flags().StringVar(&search, "search", "", "search query, kept for later list calls")
	return cmd
}

func newGetCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "get <type> <id>",
		Short: "Fetch one record by id",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ent, err := a.entity(args[0])
			if err != nil {
				return err
			}
			rec, err := ent.FetchByID(cmd.Context(), args[1])
			if err != nil {
				return err
			}
			return a.printRecord(cmd, rec)
		},
	}
}

func newCreateCmd(a *app) *cobra.Command {
	var file string
	cmd := &cobra.Command{
		Use:   "create <type> [key=value...]",
		Short: "Validate and create a record",
		Long: `Create validates the record against the entity's rules and sends it.

Fields come from --file (a JSON object, "-" for stdin) overlaid with
key=value arguments.

Example:
  caseload create jenjang nama_jenjang=SMP kode_jenjang=SMP urutan=2
  caseload create anak --file anak.json`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := recordInput(cmd, file, args[1:])
			if err != nil {
				return err
			}
			ent, err := a.entity(args[0])
			if err != nil {
				return err
			}
			rec, err := ent.Create(cmd.Context(), data)
			if err != nil {
				return err
			}
			return a.printRecord(cmd, rec)
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "", "JSON object with the record fields")
	return cmd
}

func newUpdateCmd(a *app) *cobra.Command {
	var file string
	cmd := &cobra.Command{
		Use:   "update <type> <id> [key=value...]",
		Short: "Validate the given fields and update a record",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := recordInput(cmd, file, args[2:])
			if err != nil {
				return err
			}
			if len(data) == 0 {
				return errors.New("nothing to update")
			}
			ent, err := a.entity(args[0])
			if err != nil {
				return err
			}
			rec, err := ent.Update(cmd.Context(), args[1], data)
			if err != nil {
				return err
			}
			return a.printRecord(cmd, rec)
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "", "JSON object with the fields to change")
	return cmd
}

func newDeleteCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <type> <id>",
		Short: "Delete a record",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ent, err := a.entity(args[0])
			if err != nil {
				return err
			}
			if _, err := ent.Delete(cmd.Context(), args[1]); err != nil {
				return err
			}
			if a.flags.jsonMode {
				return a.printJSON(cmd, map[string]any{"deleted": args[1]})
			}
			fmt.Fprintf(cmd.OutOrStdout(), "deleted %s %s\n", args[0], args[1])
			return nil
		},
	}
}
