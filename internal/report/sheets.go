package report

import (
	"context"
	"errors"
	"fmt"
	"time"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"

	"github.com/Jexxy1517/CashFlowReportApp/internal/core"
	"github.com/Jexxy1517/CashFlowReportApp/internal/log"
)

// RecapSheet appends the yearly recap to a Google Sheet, one row per
// month: month label, income, expense, balance. The sheet is a shared
// ledger, so rows are appended rather than rewritten.
type RecapSheet struct {
	svc           *gsheet.Service
	spreadsheetID string
	sheetName     string
	logger        *log.Logger
}

var recapMonths = [12]string{"Januari", "Februari", "Maret", "April", "Mei", "Juni", "Juli", "Agustus", "September", "Oktober", "November", "Desember"}

// NewRecapSheet builds a Sheets client from service account credentials.
func NewRecapSheet(ctx context.Context, credentialsJSON []byte, spreadsheetID, sheetName string, logger *log.Logger) (*RecapSheet, error) {
	if len(credentialsJSON) == 0 {
		return nil, errors.New("missing service account credentials")
	}
	if spreadsheetID == "" {
		return nil, errors.New("missing spreadsheet id")
	}
	if sheetName == "" {
		sheetName = "Recap"
	}
	if logger == nil {
		logger = log.New(log.Config{})
	}

	svc, err := gsheet.NewService(ctx,
		goption.WithCredentialsJSON(credentialsJSON),
		goption.WithScopes(gsheet.SpreadsheetsScope))
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}

	return &RecapSheet{
		svc:           svc,
		spreadsheetID: spreadsheetID,
		sheetName:     sheetName,
		logger:        logger.WithComponent(log.ComponentReport),
	}, nil
}

// AppendRecap writes a header row followed by the twelve month rows for
// the given year. Amounts go out as decimal values so the sheet can sum
// them; USER_ENTERED lets the sheet parse them as numbers.
func (r *RecapSheet) AppendRecap(ctx context.Context, scopeName string, year int, income, expense [12]core.Money) error {
	if r.svc == nil {
		return errors.New("sheets service not initialized")
	}

	rows := make([][]any, 0, 13)
	rows = append(rows, []any{fmt.Sprintf("%s — %d", scopeName, year), "Pemasukan", "Pengeluaran", "Saldo", time.Now().Format(time.RFC3339)})
	for i := 0; i < 12; i++ {
		balance := income[i].Sub(expense[i])
		rows = append(rows, []any{
			recapMonths[i],
			income[i].Float(),
			expense[i].Float(),
			balance.Float(),
		})
	}

	rng := fmt.Sprintf("%s!A:E", r.sheetName)
	vr := &gsheet.ValueRange{Values: rows}

	_, err := r.svc.Spreadsheets.Values.Append(r.spreadsheetID, rng, vr).
		ValueInputOption("USER_ENTERED").
		InsertDataOption("INSERT_ROWS").
		Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("append recap to sheet %s: %w", r.sheetName, err)
	}

	r.logger.InfoContext(ctx, "recap appended to sheet",
		log.FieldYear, year,
		log.FieldScope, scopeName)
	return nil
}
