// Package charts renders the analytics views as PNGs: the expense pie by
// category and the yearly income/expense recap.
package charts

import (
	"bytes"
	"fmt"

	"github.com/wcharczuk/go-chart/v2"

	"github.com/Jexxy1517/CashFlowReportApp/internal/core"
)

// monthLabels matches the recap axis of the app (Indonesian short months).
var monthLabels = [12]string{"Jan", "Feb", "Mar", "Apr", "Mei", "Jun", "Jul", "Agu", "Sep", "Okt", "Nov", "Des"}

// CategoryPie renders the expense breakdown by category. A breakdown with
// no expenses yields (nil, nil): there is nothing to draw.
func CategoryPie(breakdown map[string]core.Money) ([]byte, error) {
	var values []chart.Value
	for name, amount := range breakdown {
		if amount.Cents <= 0 {
			continue
		}
		values = append(values, chart.Value{
			Label: fmt.Sprintf("%s (%s)", name, amount.Format()),
			Value: amount.Float(),
		})
	}
	if len(values) == 0 {
		return nil, nil
	}

	pie := chart.PieChart{
		Width:  800,
		Height: 600,
		Values: values,
	}

	var buf bytes.Buffer
	if err := pie.Render(chart.PNG, &buf); err != nil {
		return nil, fmt.Errorf("render category pie: %w", err)
	}
	return buf.Bytes(), nil
}

// MonthlyRecap renders twelve months of income and expense as two series,
// income in green and expense in red, matching the recap screen.
func MonthlyRecap(year int, income, expense [12]core.Money) ([]byte, error) {
	xValues := make([]float64, 12)
	incomeValues := make([]float64, 12)
	expenseValues := make([]float64, 12)
	for i := 0; i < 12; i++ {
		xValues[i] = float64(i + 1)
		incomeValues[i] = income[i].Float()
		expenseValues[i] = expense[i].Float()
	}

	graph := chart.Chart{
		Title:  fmt.Sprintf("Recap %d", year),
		Width:  1000,
		Height: 500,
		Background: chart.Style{
			Padding: chart.Box{Top: 40, Left: 20, Right: 20, Bottom: 20},
		},
		XAxis: chart.XAxis{
			ValueFormatter: func(v interface{}) string {
				f, ok := v.(float64)
				if !ok {
					return ""
				}
				m := int(f)
				if m < 1 || m > 12 {
					return ""
				}
				return monthLabels[m-1]
			},
		},
		YAxis: chart.YAxis{
			ValueFormatter: func(v interface{}) string {
				f, ok := v.(float64)
				if !ok {
					return ""
				}
				return core.Money{Cents: int64(f * 100)}.Format()
			},
		},
		Series: []chart.Series{
			chart.ContinuousSeries{
				Name:    "Pemasukan",
				XValues: xValues,
				YValues: incomeValues,
				Style: chart.Style{
					StrokeColor: chart.ColorGreen,
					StrokeWidth: 2,
				},
			},
			chart.ContinuousSeries{
				Name:    "Pengeluaran",
				XValues: xValues,
				YValues: expenseValues,
				Style: chart.Style{
					StrokeColor: chart.ColorRed,
					StrokeWidth: 2,
				},
			},
		},
	}
	graph.Elements = []chart.Renderable{chart.Legend(&graph)}

	var buf bytes.Buffer
	if err := graph.Render(chart.PNG, &buf); err != nil {
		return nil, fmt.Errorf("render monthly recap: %w", err)
	}
	return buf.Bytes(), nil
}
