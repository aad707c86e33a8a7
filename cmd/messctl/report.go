package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mmynk/messmate/internal/ledger"
	"github.com/mmynk/messmate/internal/report"
	"github.com/mmynk/messmate/internal/service"
	"github.com/mmynk/messmate/internal/storage/sqlite"
)

var (
	reportMonth  string
	reportFormat string
	reportOut    string
)

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Reconcile a month and export the result",
	RunE: func(cmd *cobra.Command, args []string) error {
		if strings.TrimSpace(reportMonth) == "" {
			return fmt.Errorf("--month is required")
		}
		format, err := report.ParseFormat(reportFormat)
		if err != nil {
			return err
		}

		return withStore(func(store *sqlite.SQLiteStore) error {
			ctx := cmd.Context()
			month, err := store.GetMonth(ctx, reportMonth)
			if err != nil {
				return fmt.Errorf("month %q: %w", reportMonth, err)
			}
			result, err := service.ReconcileMonth(ctx, store, month, "")
			if err != nil {
				return err
			}

			if reportOut == "" {
				return report.Write(cmd.OutOrStdout(), result, format)
			}
			if err := writeFile(reportOut, result, format); err != nil {
				return err
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "Wrote %s report for %s to %s\n", format, month.Name, reportOut)
			return nil
		})
	},
}

func writeFile(path string, result *ledger.Result, format report.Format) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("close %s: %w", path, cerr)
		}
	}()
	return report.Write(f, result, format)
}

func init() {
	rootCmd.AddCommand(reportCmd)
	reportCmd.Flags().StringVar(&reportMonth, "month", "", "Month ID to reconcile")
	reportCmd.Flags().StringVar(&reportFormat, "format", "text", "Output format: json, csv or text")
	reportCmd.Flags().StringVar(&reportOut, "out", "", "Write to file instead of stdout")
}
