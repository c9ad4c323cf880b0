package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/mukisa/shulefees/internal/cli"
	"github.com/mukisa/shulefees/internal/finance"
)

func resolveCmd() *cobra.Command {
	var (
		className   string
		anchorClass string
		year        int
	)

	cmd := &cobra.Command{
		Use:   "resolve <studentID>",
		Short: "Resolve a student's effective fee and installment schedule",
		Long: `Apply the override hierarchy (locked fee override > class fee; plan
override > class default plan; custom schedule > plan) and print the
resulting installment schedule. The row amounts always sum exactly to the
effective fee.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			studentID := args[0]

			svc, st, err := initService(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = st.Close() }()

			sched, err := svc.ResolveEffectiveInstallments(ctx, studentID, className, finance.ResolveOptions{
				Year:        year,
				AnchorClass: anchorClass,
			})
			if err != nil {
				return fmt.Errorf("failed to resolve installments: %w", err)
			}

			fmt.Printf("%s %s\n", cli.InfoStyle.Render("Student:"), studentID)
			fmt.Printf("%s %d\n", cli.InfoStyle.Render("Year:"), year)
			fmt.Printf("%s %s\n", cli.InfoStyle.Render("Fee:"), formatAmount(sched.Fee))
			planDesc := sched.PlanID
			if sched.PlanName != "" && sched.PlanName != sched.PlanID {
				planDesc = fmt.Sprintf("%s (%s)", sched.PlanName, sched.PlanID)
			}
			if planDesc == "" {
				planDesc = cli.SubtleStyle.Render("(none)")
			}
			fmt.Printf("%s %s\n", cli.InfoStyle.Render("Plan:"), planDesc)
			fmt.Printf("%s %s\n\n", cli.InfoStyle.Render("Source:"), string(sched.Source))

			if len(sched.Rows) == 0 {
				fmt.Println(cli.SubtleStyle.Render("No installments configured."))
				return nil
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			defer func() { _ = w.Flush() }()

			fmt.Fprintf(w, "%s\t%s\t%s\n",
				cli.HeaderStyle.Render("Installment"),
				cli.HeaderStyle.Render("Window"),
				cli.HeaderStyle.Render("Amount"))
			var total float64
			for _, row := range sched.Rows {
				window := row.Window
				if window == "" {
					window = "-"
				}
				fmt.Fprintf(w, "%s\t%s\t%s\n", row.Label, window, formatAmount(row.Amount))
				total += row.Amount
			}
			fmt.Fprintf(w, "%s\t\t%s\n", cli.HeaderStyle.Render("Total"), formatAmount(total))

			return nil
		},
	}

	cmd.Flags().StringVar(&className, "class", "", "student's class name")
	cmd.Flags().StringVar(&anchorClass, "anchor-class", "", "fallback class when the student's class has no config")
	cmd.Flags().IntVar(&year, "year", 0, "billing year")
	_ = cmd.MarkFlagRequired("class")
	_ = cmd.MarkFlagRequired("year")

	return cmd
}
