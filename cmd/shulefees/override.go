package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mukisa/shulefees/internal/cli"
)

func overrideCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "override",
		Short: "Manage per-student fee and plan overrides",
	}
	cmd.AddCommand(overrideFeeCmd())
	cmd.AddCommand(overridePlanCmd())
	return cmd
}

func overrideFeeCmd() *cobra.Command {
	var (
		year      int
		amount    float64
		unlocked  bool
		updatedBy string
		clear     bool
	)

	cmd := &cobra.Command{
		Use:   "fee <studentID>",
		Short: "Set or clear a student's fee override",
		Long: `A fee override replaces the class fee for one student while locked.
Passing --unlocked keeps the record but makes it inert. --clear (or a zero
amount) removes the override entirely.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			svc, st, err := initService(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = st.Close() }()

			if clear {
				amount = 0
			}
			if err := svc.SetStudentFee(ctx, year, args[0], amount, !unlocked, updatedBy); err != nil {
				return err
			}
			if amount <= 0 {
				fmt.Println(cli.SuccessStyle.Render(fmt.Sprintf("Fee override cleared for %s (%d)", args[0], year)))
			} else {
				fmt.Println(cli.SuccessStyle.Render(
					fmt.Sprintf("Fee override for %s: %s (%d)", args[0], formatAmount(amount), year)))
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&year, "year", 0, "billing year")
	cmd.Flags().Float64Var(&amount, "amount", 0, "override amount (0 clears)")
	cmd.Flags().BoolVar(&unlocked, "unlocked", false, "keep the override but make it inert")
	cmd.Flags().BoolVar(&clear, "clear", false, "remove the override")
	cmd.Flags().StringVar(&updatedBy, "by", "", "who made the change")
	_ = cmd.MarkFlagRequired("year")

	return cmd
}

func overridePlanCmd() *cobra.Command {
	var (
		year      int
		planID    string
		updatedBy string
		clear     bool
	)

	cmd := &cobra.Command{
		Use:   "plan <studentID>",
		Short: "Set or clear a student's plan override",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			svc, st, err := initService(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = st.Close() }()

			if clear {
				planID = ""
			}
			if err := svc.SetStudentPlan(ctx, year, args[0], planID, updatedBy); err != nil {
				return err
			}
			if planID == "" {
				fmt.Println(cli.SuccessStyle.Render(fmt.Sprintf("Plan override cleared for %s (%d)", args[0], year)))
			} else {
				fmt.Println(cli.SuccessStyle.Render(
					fmt.Sprintf("Plan override for %s: %q (%d)", args[0], planID, year)))
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&year, "year", 0, "billing year")
	cmd.Flags().StringVar(&planID, "plan", "", "plan id (empty clears)")
	cmd.Flags().BoolVar(&clear, "clear", false, "remove the override")
	cmd.Flags().StringVar(&updatedBy, "by", "", "who made the change")
	_ = cmd.MarkFlagRequired("year")

	return cmd
}
