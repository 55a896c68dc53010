package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/CentZek/newesthr-sub000/internal/dto"
	"github.com/CentZek/newesthr-sub000/internal/model"
)

// holidayFile on-disk holiday backup
type holidayFile struct {
	ExportedAt time.Time               `yaml:"exported_at"`
	Holidays   []model.HolidaySnapshot `yaml:"holidays"`
}

var (
	holidayOut    string
	holidayReason string
)

var holidaysCmd = &cobra.Command{
	Use:   "holidays",
	Short: "List, back up, restore and import the double-time holiday list",
}

var holidaysListCmd = &cobra.Command{
	Use:   "list",
	Short: "Print the holiday list",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd.Context(), true, func(ctx context.Context, a *app) error {
			items, err := a.svc.Holiday.Snapshot(ctx)
			if err != nil {
				return err
			}
			for _, h := range items {
				fmt.Fprintf(cmd.OutOrStdout(), "%s  %s\n", h.Date, h.Name)
			}
			return nil
		})
	},
}

var holidaysBackupCmd = &cobra.Command{
	Use:   "backup",
	Short: "Store a backup in the database, or write one to a YAML file with --out",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd.Context(), true, func(ctx context.Context, a *app) error {
			if holidayOut == "" {
				b, err := a.svc.Holiday.Backup(ctx, holidayReason, "")
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "backup %s: %d holidays\n", b.BackupID, b.ItemCount)
				return nil
			}

			items, err := a.svc.Holiday.Snapshot(ctx)
			if err != nil {
				return err
			}
			if err := writeHolidayFile(holidayOut, items); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %d holidays to %s\n", len(items), holidayOut)
			return nil
		})
	},
}

var holidaysRestoreCmd = &cobra.Command{
	Use:   "restore [backup-id | file.yaml]",
	Short: "Replace the list with a stored backup (latest by default) or a YAML file",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var src string
		if len(args) == 1 {
			src = args[0]
		}
		return withApp(cmd.Context(), true, func(ctx context.Context, a *app) error {
			if isYAMLPath(src) {
				items, err := readHolidayFile(src)
				if err != nil {
					return err
				}
				if err := a.svc.Holiday.RestoreSnapshot(ctx, items); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "restored %d holidays from %s\n", len(items), src)
				return nil
			}
			b, err := a.svc.Holiday.Restore(ctx, src)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "restored backup %s: %d holidays\n", b.ID, b.ItemCount)
			return nil
		})
	},
}

var holidaysImportCmd = &cobra.Command{
	Use:   "import <file.ics | url>",
	Short: "Add the all-day events of an iCalendar file or feed",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		src := args[0]
		return withApp(cmd.Context(), true, func(ctx context.Context, a *app) error {
			var (
				res *dto.HolidayImportResult
				err error
			)
			if strings.Contains(src, "://") {
				res, err = a.svc.Holiday.ImportICSURL(ctx, src, "")
			} else {
				var f *os.File
				if f, err = os.Open(src); err != nil {
					return err
				}
				defer f.Close()
				res, err = a.svc.Holiday.ImportICS(ctx, f, "")
			}
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "events: %d, added: %d, already listed: %d\n", res.Events, res.Added, res.Skipped)
			return nil
		})
	},
}

func isYAMLPath(s string) bool {
	return strings.HasSuffix(s, ".yaml") || strings.HasSuffix(s, ".yml")
}

func writeHolidayFile(path string, items []model.HolidaySnapshot) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := encodeHolidays(f, items); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func encodeHolidays(w io.Writer, items []model.HolidaySnapshot) error {
	if items == nil {
		items = []model.HolidaySnapshot{}
	}
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(holidayFile{ExportedAt: time.Now().UTC(), Holidays: items}); err != nil {
		return fmt.Errorf("encode holidays: %w", err)
	}
	return enc.Close()
}

func readHolidayFile(path string) ([]model.HolidaySnapshot, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return decodeHolidays(f)
}

func decodeHolidays(r io.Reader) ([]model.HolidaySnapshot, error) {
	var doc holidayFile
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("decode holidays: %w", err)
	}
	for i, h := range doc.Holidays {
		if _, err := dto.ParseDate(h.Date); err != nil {
			return nil, fmt.Errorf("holiday %d: bad date %q", i+1, h.Date)
		}
	}
	return doc.Holidays, nil
}

func init() {
	holidaysBackupCmd.Flags().StringVarP(&holidayOut, "out", "o", "", "write a YAML file instead of a database backup")
	holidaysBackupCmd.Flags().StringVar(&holidayReason, "reason", "manual", "reason stored with a database backup")
	holidaysCmd.AddCommand(holidaysListCmd, holidaysBackupCmd, holidaysRestoreCmd, holidaysImportCmd)
}
