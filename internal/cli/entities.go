package cli

import (
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/cobra"
)

func newEntitiesCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "entities [type]",
		Short: "List registered entity types or show one descriptor",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			reg := a.sess.Registry()
			if len(args) == 0 {
				names := reg.Names()
				if a.flags.jsonMode {
					return a.printJSON(cmd, names)
				}
				fmt.Fprintln(cmd.OutOrStdout(), strings.Join(names, "\n"))
				return nil
			}

			d, err := reg.Descriptor(args[0])
			if err != nil {
				return err
			}
			if a.flags.jsonMode {
				return a.printJSON(cmd, d)
			}
			w := cmd.OutOrStdout()
			ep := d.Endpoints
			fmt.Fprintf(w, "entity:     %s\n", d.EntityType)
			fmt.Fprintf(w, "list:       %s\n", ep.List)
			fmt.Fprintf(w, "detail:     %s\n", ep.Detail)
			fmt.Fprintf(w, "create:     %s\n", ep.Create)
			fmt.Fprintf(w, "update:     %s\n", ep.Update)
			fmt.Fprintf(w, "delete:     %s\n", ep.Delete)
			if ep.Dropdown != "" {
				fmt.Fprintf(w, "dropdown:   %s\n", ep.Dropdown)
			}
			if ep.Statistics != "" {
				fmt.Fprintf(w, "statistics: %s\n", ep.Statistics)
			}
			fields := make([]string, 0, len(d.ValidationRules))
			for f := range d.ValidationRules {
				fields = append(fields, f)
			}
			sort.Strings(fields)
			for _, f := range fields {
				rules := make([]string, 0, len(d.ValidationRules[f]))
				for _, r := range d.ValidationRules[f] {
					if r.Value != nil {
						rules = append(rules, fmt.Sprintf("%s=%v", r.Rule, r.Value))
					} else {
						rules = append(rules, r.Rule)
					}
				}
				fmt.Fprintf(w, "rule:       %s: %s\n", f, strings.Join(rules, ", "))
			}
			ops := make([]string, 0, len(d.Extensions))
			for name := range d.Extensions {
				ops = append(ops, name)
			}
			sort.Strings(ops)
			for _, name := range ops {
				op := d.Extensions[name]
				fmt.Fprintf(w, "extension:  %s %s %s\n", name, op.Method, op.Path)
			}
			return nil
		},
	}
}
