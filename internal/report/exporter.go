// Package report exports the aggregated transaction set: a PDF statement
// for sharing, and a monthly recap appended to a Google Sheet for people
// who keep their books there.
package report

import (
	"context"

	"github.com/Jexxy1517/CashFlowReportApp/internal/core"
)

// Exporter turns a scope's record list into a shareable file and returns
// its path.
type Exporter interface {
	Export(ctx context.Context, scopeName string, records []core.Transaction) (string, error)
}
