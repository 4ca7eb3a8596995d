package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Reading is one balance report for a prepaid account as returned by the utility.
type Reading struct {
	AccountNo               string
	MeterNo                 string
	Balance                 decimal.Decimal
	CurrentMonthConsumption decimal.Decimal
	ReadingTime             string // passed through verbatim, the API does not pin a format
}

// Snapshot is the latest reading kept for a meter between runs.
type Snapshot struct {
	Meter     string
	Reading   Reading
	CheckedAt time.Time
}
