package report

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
	"unicode"

	"github.com/jung-kurt/gofpdf"

	"github.com/Jexxy1517/CashFlowReportApp/internal/core"
	"github.com/Jexxy1517/CashFlowReportApp/internal/log"
)

// PDFExporter writes a transaction statement with a summary footer, the
// way the account screen exports it.
type PDFExporter struct {
	dir    string
	loc    *time.Location
	logger *log.Logger
}

func NewPDFExporter(dir string, loc *time.Location, logger *log.Logger) *PDFExporter {
	if loc == nil {
		loc = time.Local
	}
	if logger == nil {
		logger = log.New(log.Config{})
	}
	return &PDFExporter{
		dir:    dir,
		loc:    loc,
		logger: logger.WithComponent(log.ComponentReport),
	}
}

func (e *PDFExporter) Export(ctx context.Context, scopeName string, records []core.Transaction) (string, error) {
	if err := os.MkdirAll(e.dir, 0755); err != nil {
		return "", fmt.Errorf("create report directory: %w", err)
	}

	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 16)
	pdf.CellFormat(0, 10, fmt.Sprintf("Laporan Keuangan - %s", scopeName), "", 1, "C", false, 0, "")
	pdf.SetFont("Helvetica", "", 9)
	pdf.CellFormat(0, 6, time.Now().In(e.loc).Format("2 January 2006 15:04"), "", 1, "C", false, 0, "")
	pdf.Ln(4)

	// Table header
	pdf.SetFont("Helvetica", "B", 10)
	pdf.SetFillColor(230, 230, 230)
	pdf.CellFormat(28, 8, "Tanggal", "1", 0, "L", true, 0, "")
	pdf.CellFormat(62, 8, "Judul", "1", 0, "L", true, 0, "")
	pdf.CellFormat(35, 8, "Kategori", "1", 0, "L", true, 0, "")
	pdf.CellFormat(30, 8, "Pemasukan", "1", 0, "R", true, 0, "")
	pdf.CellFormat(30, 8, "Pengeluaran", "1", 1, "R", true, 0, "")

	pdf.SetFont("Helvetica", "", 10)
	for _, t := range records {
		income, expense := "", ""
		if t.Type == core.Income {
			income = t.Amount.Format()
		} else {
			expense = t.Amount.Format()
		}
		category := t.Category
		if category == "" {
			category = core.UncategorizedLabel
		}
		pdf.CellFormat(28, 7, t.Date.In(e.loc).Format("02-01-2006"), "1", 0, "L", false, 0, "")
		pdf.CellFormat(62, 7, truncate(t.Title, 40), "1", 0, "L", false, 0, "")
		pdf.CellFormat(35, 7, truncate(category, 22), "1", 0, "L", false, 0, "")
		pdf.CellFormat(30, 7, income, "1", 0, "R", false, 0, "")
		pdf.CellFormat(30, 7, expense, "1", 1, "R", false, 0, "")
	}

	summary := core.Summarize(records)
	pdf.Ln(4)
	pdf.SetFont("Helvetica", "B", 11)
	pdf.CellFormat(0, 7, fmt.Sprintf("Total Pemasukan: %s", summary.Income.Format()), "", 1, "R", false, 0, "")
	pdf.CellFormat(0, 7, fmt.Sprintf("Total Pengeluaran: %s", summary.Expense.Format()), "", 1, "R", false, 0, "")
	pdf.CellFormat(0, 7, fmt.Sprintf("Saldo: %s", summary.Balance().Format()), "", 1, "R", false, 0, "")

	path := filepath.Join(e.dir, fmt.Sprintf("laporan-%s-%d.pdf", slug(scopeName), time.Now().Unix()))
	if err := pdf.OutputFileAndClose(path); err != nil {
		return "", fmt.Errorf("write pdf: %w", err)
	}

	e.logger.InfoContext(ctx, "report exported",
		log.FieldPath, path,
		log.FieldRecordCount, len(records))
	return path, nil
}

func truncate(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max-1]) + "…"
}

func slug(s string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(s) {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(r)
		case r == ' ' || r == '-' || r == '_':
			b.WriteByte('-')
		}
	}
	if b.Len() == 0 {
		return "akun"
	}
	return b.String()
}
