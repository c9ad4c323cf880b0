package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mukisa/shulefees/internal/cli"
	"github.com/mukisa/shulefees/internal/model"
)

func scheduleCmd() *cobra.Command {
	var (
		year      int
		note      string
		updatedBy string
		clear     bool
	)

	cmd := &cobra.Command{
		Use:   "schedule <studentID> [rows.json]",
		Short: "Replace or clear a student's custom schedule",
		Long: `A custom schedule fully replaces plan-based scheduling for one
student. It is set wholesale from a JSON rows file; there are no partial
row edits. --clear removes it, restoring plan-based scheduling.`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			var rows []model.RawRow
			if !clear {
				if len(args) < 2 {
					return fmt.Errorf("rows file required unless --clear is given")
				}
				var err error
				if rows, err = loadRowsFile(args[1]); err != nil {
					return err
				}
			}

			svc, st, err := initService(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = st.Close() }()

			if err := svc.SetCustomSchedule(ctx, year, args[0], rows, note, updatedBy); err != nil {
				return err
			}
			if len(rows) == 0 {
				fmt.Println(cli.SuccessStyle.Render(fmt.Sprintf("Custom schedule cleared for %s (%d)", args[0], year)))
			} else {
				fmt.Println(cli.SuccessStyle.Render(
					fmt.Sprintf("Custom schedule for %s: %d rows (%d)", args[0], len(rows), year)))
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&year, "year", 0, "billing year")
	cmd.Flags().StringVar(&note, "note", "", "note attached to the schedule")
	cmd.Flags().BoolVar(&clear, "clear", false, "remove the custom schedule")
	cmd.Flags().StringVar(&updatedBy, "by", "", "who made the change")
	_ = cmd.MarkFlagRequired("year")

	return cmd
}
