package main

import (
	"fmt"
	"os"
	"sort"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/mukisa/shulefees/internal/cli"
)

func plansCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "plans",
		Short: "Manage installment plan templates",
	}
	cmd.AddCommand(plansSetCmd())
	cmd.AddCommand(plansListCmd())
	return cmd
}

func plansSetCmd() *cobra.Command {
	var (
		year int
		name string
	)

	cmd := &cobra.Command{
		Use:   "set <planID> <rows.json>",
		Short: "Create or replace a plan template from a JSON rows file",
		Long: `Rows are a JSON array of objects. Each row may carry a label, a date
window (from/to), an explicit amount, or a weight for proportional
allocation of whatever the explicit amounts leave uncovered.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			rows, err := loadRowsFile(args[1])
			if err != nil {
				return err
			}

			svc, st, err := initService(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = st.Close() }()

			if err := svc.SetPlan(ctx, year, args[0], name, rows); err != nil {
				return err
			}
			fmt.Println(cli.SuccessStyle.Render(
				fmt.Sprintf("Plan %q saved with %d rows (%d)", args[0], len(rows), year)))
			return nil
		},
	}

	cmd.Flags().IntVar(&year, "year", 0, "billing year")
	cmd.Flags().StringVar(&name, "name", "", "display name")
	_ = cmd.MarkFlagRequired("year")

	return cmd
}

func plansListCmd() *cobra.Command {
	var year int

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List plan templates for a year",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			svc, st, err := initService(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = st.Close() }()

			data, err := svc.Cache().EnsureFinanceData(ctx, year)
			if err != nil {
				return err
			}
			if len(data.Plans) == 0 {
				fmt.Println(cli.SubtleStyle.Render("No plans configured."))
				return nil
			}

			ids := make([]string, 0, len(data.Plans))
			for id := range data.Plans {
				ids = append(ids, id)
			}
			sort.Strings(ids)

			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			defer func() { _ = w.Flush() }()
			fmt.Fprintf(w, "%s\t%s\t%s\n",
				cli.HeaderStyle.Render("Plan"),
				cli.HeaderStyle.Render("Name"),
				cli.HeaderStyle.Render("Rows"))
			for _, id := range ids {
				plan := data.Plans[id]
				rows := len(plan.Ordered)
				if rows == 0 {
					rows = len(plan.Keyed)
				}
				name := plan.Name
				if name == "" {
					name = "-"
				}
				fmt.Fprintf(w, "%s\t%s\t%d\n", plan.ID, name, rows)
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&year, "year", 0, "billing year")
	_ = cmd.MarkFlagRequired("year")

	return cmd
}
