package report

import (
	"context"
	"os"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/Jexxy1517/CashFlowReportApp/internal/core"
)

func TestPDFExportWritesFile(t *testing.T) {
	dir := t.TempDir()
	exporter := NewPDFExporter(dir, time.UTC, nil)

	records := []core.Transaction{
		{
			Title:   "Gaji",
			Amount:  core.Money{Cents: 500_000_000},
			Type:    core.Income,
			Date:    time.Date(2026, time.March, 1, 0, 0, 0, 0, time.UTC),
			OwnerID: "user-1",
		},
		{
			Title:   "Belanja Bulanan",
			Amount:  core.Money{Cents: 150_000_00},
			Type:    core.Expense,
			Date:    time.Date(2026, time.March, 5, 0, 0, 0, 0, time.UTC),
			OwnerID: "user-1",
		},
	}

	path, err := exporter.Export(context.Background(), "Keuangan Pribadi", records)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(path, "laporan-keuangan-pribadi-") || !strings.HasSuffix(path, ".pdf") {
		t.Errorf("path = %q", path)
	}
	info, err := os.Stat(path)
	if err != nil {
		t.Fatal(err)
	}
	if info.Size() == 0 {
		t.Error("exported PDF is empty")
	}
}

func TestTruncateKeepsValidUTF8(t *testing.T) {
	tests := []struct {
		in   string
		max  int
		want string
	}{
		{"Kopi", 10, "Kopi"},
		{"Belanja Bulanan", 8, "Belanja…"},
		{"Piutang Réné di warung", 10, "Piutang R…"},
		{"ééééé", 3, "éé…"},
	}
	for _, tt := range tests {
		got := truncate(tt.in, tt.max)
		if got != tt.want {
			t.Errorf("truncate(%q, %d) = %q, want %q", tt.in, tt.max, got, tt.want)
		}
		if !utf8.ValidString(got) {
			t.Errorf("truncate(%q, %d) produced invalid UTF-8", tt.in, tt.max)
		}
	}
}

func TestSlug(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"Keuangan Pribadi", "keuangan-pribadi"},
		{"Liburan 2026!", "liburan-2026"},
		{"", "akun"},
	}
	for _, tt := range tests {
		if got := slug(tt.in); got != tt.want {
			t.Errorf("slug(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
