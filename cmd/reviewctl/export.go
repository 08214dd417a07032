package main

import (
	"fmt"
	"os"

	"reviewhub_backend/internal/app"
	"reviewhub_backend/internal/dto"

	"github.com/spf13/cobra"
)

var exportQuery dto.ReviewListQuery
var exportOut string

func init() {
	exportCmd.Flags().StringVar(&exportOut, "out", "reviews_export.csv", "output file, - for stdout")
	exportCmd.Flags().StringVar(&exportQuery.From, "from", "", "first day (YYYY-MM-DD, Asia/Bangkok)")
	exportCmd.Flags().StringVar(&exportQuery.To, "to", "", "last day (YYYY-MM-DD, Asia/Bangkok)")
	exportCmd.Flags().StringVar(&exportQuery.Status, "status", "", "pending, approved or rejected")
	exportCmd.Flags().StringVar(&exportQuery.CourseID, "course", "", "course id")
	exportCmd.Flags().StringVar(&exportQuery.IsActive, "active", "", "true, false or all")
	exportCmd.Flags().StringVar(&exportQuery.Q, "q", "", "search text")

	rootCmd.AddCommand(exportCmd)
}

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Write the filtered reviews as the admin CSV export",
	Long: `Write the same CSV the admin export endpoint produces.

Examples:
  reviewctl export --from 2024-01-01 --to 2024-01-31 --status approved
  reviewctl export --out - | head`,
	RunE: runExport,
}

func runExport(cmd *cobra.Command, args []string) error {
	cfg, db, err := openStore()
	if err != nil {
		return err
	}
	defer closeStore(db)

	ctx, cancel := commandContext()
	defer cancel()

	w := cmd.OutOrStdout()
	if exportOut != "-" {
		f, err := os.Create(exportOut)
		if err != nil {
			return fmt.Errorf("create %s: %w", exportOut, err)
		}
		defer f.Close()
		w = f
	}

	report := app.BuildServices(cfg, nil).ReportService
	if err := report.ExportCSV(ctx, db, &exportQuery, w); err != nil {
		return err
	}
	if exportOut != "-" {
		fmt.Fprintf(cmd.ErrOrStderr(), "wrote %s\n", exportOut)
	}
	return nil
}
