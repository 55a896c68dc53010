package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
)

var (
	exportFrom      string
	exportTo        string
	exportEmployees []string
	exportDir       string
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Write the approved-hours workbook (.xlsx)",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		filter, err := recordFilter(exportFrom, exportTo, exportEmployees)
		if err != nil {
			return err
		}
		return withApp(cmd.Context(), true, func(ctx context.Context, a *app) error {
			buf, name, err := a.svc.Export.ApprovedHours(ctx, filter)
			if err != nil {
				return err
			}
			path := filepath.Join(exportDir, name)
			if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), path)
			return nil
		})
	},
}

func init() {
	exportCmd.Flags().StringVar(&exportFrom, "from", "", "first working day, YYYY-MM-DD")
	exportCmd.Flags().StringVar(&exportTo, "to", "", "last working day, YYYY-MM-DD")
	exportCmd.Flags().StringSliceVar(&exportEmployees, "employee", nil, "limit to these employee ids")
	exportCmd.Flags().StringVarP(&exportDir, "dir", "d", ".", "output directory")
}
