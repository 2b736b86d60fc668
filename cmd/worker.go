package cmd

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/frahmantamala/expense-reconciliation/pkg/logger"
	"github.com/spf13/cobra"
)

var workerCmd = &cobra.Command{
	Use:   "worker",
	Short: "Run background jobs",
	Long:  `Run one-off background jobs such as exporting the workbooks of paid expense sheets.`,
}

var exportWorkerCmd = &cobra.Command{
	Use:   "export",
	Short: "Export the workbooks of paid sheets for one month",
	Long:  `Write <sheet_no>.xlsx for every paid expense sheet of the given period into the export directory.`,
	Run: func(cmd *cobra.Command, args []string) {
		startExportWorker()
	},
}

var (
	exportYear  int
	exportMonth int
	exportDir   string
)

func startExportWorker() {
	cfg, err := setup()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}
	lg := logger.LoggerWrapper()

	now := time.Now()
	year := getIntFlag(exportYear, now.Year())
	month := getIntFlag(exportMonth, int(now.Month()))
	if month < 1 || month > 12 {
		fmt.Fprintf(os.Stderr, "month must be between 1 and 12, got %d\n", month)
		os.Exit(1)
	}
	cfg.Export.Dir = getStringFlag(exportDir, cfg.Export.Dir)

	deps, err := initializeDependencies(cfg, lg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize dependencies: %v\n", err)
		os.Exit(1)
	}

	lg.Info("starting period export", "year", year, "month", month, "dir", cfg.Export.Dir)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	paths, exportErr := deps.Reports.ExportPeriod(ctx, year, month)
	deps.Close(ctx)

	for _, p := range paths {
		fmt.Println(p)
	}
	if exportErr != nil {
		fmt.Fprintf(os.Stderr, "Some sheets failed to export: %v\n", exportErr)
		os.Exit(1)
	}
}

func getStringFlag(flagValue, configValue string) string {
	if flagValue != "" {
		return flagValue
	}
	return configValue
}

func getIntFlag(flagValue, configValue int) int {
	if flagValue > 0 {
		return flagValue
	}
	return configValue
}

func init() {
	exportWorkerCmd.Flags().IntVar(&exportYear, "year", 0, "Year of the period (defaults to the current year)")
	exportWorkerCmd.Flags().IntVar(&exportMonth, "month", 0, "Month of the period, 1-12 (defaults to the current month)")
	exportWorkerCmd.Flags().StringVar(&exportDir, "dir", "", "Export directory (overrides config)")

	workerCmd.AddCommand(exportWorkerCmd)
}
