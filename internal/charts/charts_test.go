package charts

import (
	"bytes"
	"testing"

	"github.com/Jexxy1517/CashFlowReportApp/internal/core"
)

var pngHeader = []byte{0x89, 'P', 'N', 'G'}

func TestCategoryPieEmptyBreakdown(t *testing.T) {
	png, err := CategoryPie(nil)
	if err != nil {
		t.Fatal(err)
	}
	if png != nil {
		t.Fatal("empty breakdown should render nothing")
	}
}

func TestCategoryPieRendersPNG(t *testing.T) {
	png, err := CategoryPie(map[string]core.Money{
		"makanan":               {Cents: 50_000_00},
		"transportasi":          {Cents: 20_000_00},
		core.UncategorizedLabel: {Cents: 5_000_00},
	})
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.HasPrefix(png, pngHeader) {
		t.Fatal("output is not a PNG")
	}
}

func TestMonthlyRecapRendersPNG(t *testing.T) {
	var income, expense [12]core.Money
	income[2] = core.Money{Cents: 100_000_00}
	expense[2] = core.Money{Cents: 40_000_00}

	png, err := MonthlyRecap(2026, income, expense)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.HasPrefix(png, pngHeader) {
		t.Fatal("output is not a PNG")
	}
}
