// recap is a one-shot exporter: it reads a scope's transactions straight
// from the store and writes the yearly recap as a PDF statement, chart
// PNGs and, when configured, rows appended to the recap sheet.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/Jexxy1517/CashFlowReportApp/internal/charts"
	"github.com/Jexxy1517/CashFlowReportApp/internal/cli"
	"github.com/Jexxy1517/CashFlowReportApp/internal/core"
	"github.com/Jexxy1517/CashFlowReportApp/internal/log"
	"github.com/Jexxy1517/CashFlowReportApp/internal/report"
	"github.com/Jexxy1517/CashFlowReportApp/internal/scope"
)

func main() {
	year := flag.Int("year", time.Now().Year(), "recap year")
	groupID := flag.String("group", "", "savings group id (empty for the personal ledger)")
	groupName := flag.String("group-name", "", "display name for the group scope")
	withSheet := flag.Bool("sheet", false, "also append the recap to the configured Google Sheet")
	flag.Parse()

	cli.LoadEnvFile()

	logger := cli.SetupLogger(os.Getenv("LOG_LEVEL"))
	cfg := cli.LoadAndValidateConfig(logger)

	store := cli.OpenBackend(logger, cfg)
	defer store.Close()

	resolver := scope.NewResolver(cfg.UserID)
	handle := resolver.Current()
	if *groupID != "" {
		handle = resolver.Select(*groupID, *groupName)
	}

	ctx := context.Background()
	records, err := store.ListTransactions(ctx, handle.Filter())
	if err != nil {
		logger.Error("list transactions failed", log.FieldError, err)
		os.Exit(1)
	}
	core.SortByDateDesc(records)

	loc := cfg.Location()
	exporter := report.NewPDFExporter(cfg.ReportDir, loc, logger)
	pdfPath, err := exporter.Export(ctx, handle.Name, records)
	if err != nil {
		logger.Error("pdf export failed", log.FieldError, err)
		os.Exit(1)
	}
	fmt.Println(pdfPath)

	income, expense := core.ByMonth(records, *year, loc)
	if err := writeCharts(cfg.ReportDir, handle, *year, records, income, expense); err != nil {
		logger.Error("chart export failed", log.FieldError, err)
		os.Exit(1)
	}

	if *withSheet {
		if cfg.SheetsSpreadsheetID == "" {
			logger.Error("SHEETS_SPREADSHEET_ID is not configured")
			os.Exit(1)
		}
		credentials, err := cfg.SheetsCredentials()
		if err != nil {
			logger.Error("sheets credentials unreadable", log.FieldError, err)
			os.Exit(1)
		}
		sheet, err := report.NewRecapSheet(ctx, credentials, cfg.SheetsSpreadsheetID, cfg.SheetsSheetName, logger)
		if err != nil {
			logger.Error("sheets initialization failed", log.FieldError, err)
			os.Exit(1)
		}
		if err := sheet.AppendRecap(ctx, handle.Name, *year, income, expense); err != nil {
			logger.Error("sheet append failed", log.FieldError, err)
			os.Exit(1)
		}
	}

	logger.Info("recap exported",
		log.FieldYear, *year,
		log.FieldScope, handle.Name,
		log.FieldRecordCount, len(records))
}

func writeCharts(dir string, handle scope.Handle, year int, records []core.Transaction, income, expense [12]core.Money) error {
	pie, err := charts.CategoryPie(core.ByCategory(records))
	if err != nil {
		return err
	}
	if pie != nil {
		path := filepath.Join(dir, fmt.Sprintf("kategori-%d.png", year))
		if err := os.WriteFile(path, pie, 0644); err != nil {
			return err
		}
		fmt.Println(path)
	}

	recap, err := charts.MonthlyRecap(year, income, expense)
	if err != nil {
		return err
	}
	path := filepath.Join(dir, fmt.Sprintf("recap-%d.png", year))
	if err := os.WriteFile(path, recap, 0644); err != nil {
		return err
	}
	fmt.Println(path)
	return nil
}
