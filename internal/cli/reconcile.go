package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/CentZek/newesthr-sub000/internal/dto"
)

var (
	reconcileFrom      string
	reconcileTo        string
	reconcileEmployees []string
)

var reconcileCmd = &cobra.Command{
	Use:   "reconcile",
	Short: "Rebuild daily records from stored punches for a date range",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		from, to, err := parseRange(reconcileFrom, reconcileTo)
		if err != nil {
			return err
		}
		return withApp(cmd.Context(), true, func(ctx context.Context, a *app) error {
			res, err := a.svc.Reconcile.ReconcileRange(ctx, &dto.ReconcileRequest{
				From:        from.Format(dto.DateLayout),
				To:          to.Format(dto.DateLayout),
				EmployeeIDs: reconcileEmployees,
			})
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "employees: %d\ncreated:   %d\nupdated:   %d\nskipped:   %d\n",
				res.Employees, res.Created, res.Updated, res.Skipped)
			printFailures(out, res.Batch)
			return nil
		})
	},
}

func init() {
	reconcileCmd.Flags().StringVar(&reconcileFrom, "from", "", "first working day, YYYY-MM-DD (required)")
	reconcileCmd.Flags().StringVar(&reconcileTo, "to", "", "last working day, YYYY-MM-DD (required)")
	reconcileCmd.Flags().StringSliceVar(&reconcileEmployees, "employee", nil, "limit to these employee ids")
	_ = reconcileCmd.MarkFlagRequired("from")
	_ = reconcileCmd.MarkFlagRequired("to")
}
