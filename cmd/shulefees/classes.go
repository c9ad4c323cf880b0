package main

import (
	"fmt"
	"os"
	"sort"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/mukisa/shulefees/internal/cli"
)

func classesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "classes",
		Short: "Manage per-class fee defaults",
	}
	cmd.AddCommand(classesSetCmd())
	cmd.AddCommand(classesListCmd())
	return cmd
}

func classesSetCmd() *cobra.Command {
	var (
		year   int
		fee    float64
		planID string
	)

	cmd := &cobra.Command{
		Use:   "set <className>",
		Short: "Set the annual fee and default plan for a class",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			svc, st, err := initService(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = st.Close() }()

			if err := svc.SetClassConfig(ctx, year, args[0], fee, planID); err != nil {
				return err
			}
			fmt.Println(cli.SuccessStyle.Render(
				fmt.Sprintf("Class %q: fee %s, plan %q (%d)", args[0], formatAmount(fee), planID, year)))
			return nil
		},
	}

	cmd.Flags().IntVar(&year, "year", 0, "billing year")
	cmd.Flags().Float64Var(&fee, "fee", 0, "annual fee")
	cmd.Flags().StringVar(&planID, "plan", "", "default plan id")
	_ = cmd.MarkFlagRequired("year")
	_ = cmd.MarkFlagRequired("fee")

	return cmd
}

func classesListCmd() *cobra.Command {
	var year int

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List class fee defaults for a year",
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
			if len(data.Classes) == 0 {
				fmt.Println(cli.SubtleStyle.Render("No classes configured."))
				return nil
			}

			names := make([]string, 0, len(data.Classes))
			for name := range data.Classes {
				names = append(names, name)
			}
			sort.Strings(names)

			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			defer func() { _ = w.Flush() }()
			fmt.Fprintf(w, "%s\t%s\t%s\n",
				cli.HeaderStyle.Render("Class"),
				cli.HeaderStyle.Render("Fee/Year"),
				cli.HeaderStyle.Render("Default Plan"))
			for _, name := range names {
				cfg := data.Classes[name]
				plan := cfg.DefaultPlanID
				if plan == "" {
					plan = "-"
				}
				fmt.Fprintf(w, "%s\t%s\t%s\n", cfg.Name, formatAmount(cfg.FeePerYear), plan)
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&year, "year", 0, "billing year")
	_ = cmd.MarkFlagRequired("year")

	return cmd
}
