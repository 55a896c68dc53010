package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/CentZek/newesthr-sub000/internal/dto"
)

var (
	recordsFrom      string
	recordsTo        string
	recordsEmployees []string
	includeApproved  bool
	assumeYes        bool
)

var recordsCmd = &cobra.Command{
	Use:   "records",
	Short: "Bulk maintenance of daily records",
}

var recordsDeleteCmd = &cobra.Command{
	Use:   "delete",
	Short: "Delete daily records, keeping approved ones unless --include-approved",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		filter, err := recordFilter(recordsFrom, recordsTo, recordsEmployees)
		if err != nil {
			return err
		}
		if includeApproved && !assumeYes {
			return fmt.Errorf("--include-approved deletes approved hours; pass --yes to confirm")
		}
		return withApp(cmd.Context(), true, func(ctx context.Context, a *app) error {
			res, err := a.svc.Maintenance.DeleteRecords(ctx, filter, !includeApproved, "")
			if err != nil {
				return err
			}
			printMaintenance(cmd.OutOrStdout(), res)
			return nil
		})
	},
}

var recordsResetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Remove every non-approved record and verify the holiday list survived",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		filter, err := recordFilter(recordsFrom, recordsTo, recordsEmployees)
		if err != nil {
			return err
		}
		if !assumeYes {
			return fmt.Errorf("reset removes every unapproved record in range; pass --yes to confirm")
		}
		return withApp(cmd.Context(), true, func(ctx context.Context, a *app) error {
			res, err := a.svc.Maintenance.ResetAll(ctx, filter, "")
			if res != nil {
				printMaintenance(cmd.OutOrStdout(), res)
			}
			return err
		})
	},
}

func printMaintenance(w io.Writer, res *dto.MaintenanceResult) {
	fmt.Fprintf(w, "matched:        %d\ndeleted:        %d\napproved kept:  %d\n", res.Matched, res.Deleted, res.ApprovedKept)
	if res.HolidayBackupID != "" {
		fmt.Fprintf(w, "holiday backup: %s\n", res.HolidayBackupID)
	}
	fmt.Fprintf(w, "holidays ok:    %t\n", res.HolidaysVerified)
	printFailures(w, res.Batch)
}

func init() {
	for _, c := range []*cobra.Command{recordsDeleteCmd, recordsResetCmd} {
		c.Flags().StringVar(&recordsFrom, "from", "", "first working day, YYYY-MM-DD")
		c.Flags().StringVar(&recordsTo, "to", "", "last working day, YYYY-MM-DD")
		c.Flags().StringSliceVar(&recordsEmployees, "employee", nil, "limit to these employee ids")
		c.Flags().BoolVarP(&assumeYes, "yes", "y", false, "confirm a destructive run")
	}
	recordsDeleteCmd.Flags().BoolVar(&includeApproved, "include-approved", false, "also delete approved records")
	recordsCmd.AddCommand(recordsDeleteCmd, recordsResetCmd)
}
