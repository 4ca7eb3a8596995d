package service

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/milad/desconotify/internal/domain"
)

// FormatMessage renders the Telegram text for one reading: a header naming the meter
// followed by account, meter, balance, month usage and reading time, one per line.
// When lowBalance is set and the balance is under it, a warning line is appended.
func FormatMessage(name string, r domain.Reading, lowBalance *decimal.Decimal) string {
	var b strings.Builder
	fmt.Fprintf(&b, "DESCO Balance Update - %s\n", name)
	fmt.Fprintf(&b, "Account: %s\n", r.AccountNo)
	fmt.Fprintf(&b, "Meter: %s\n", r.MeterNo)
	fmt.Fprintf(&b, "Balance: %s\n", r.Balance.String())
	fmt.Fprintf(&b, "Month usage: %s\n", r.CurrentMonthConsumption.String())
	fmt.Fprintf(&b, "Reading: %s", r.ReadingTime)
	if IsLowBalance(r, lowBalance) {
		fmt.Fprintf(&b, "\nLow balance: below %s", lowBalance.String())
	}
	return b.String()
}

func IsLowBalance(r domain.Reading, threshold *decimal.Decimal) bool {
	return threshold != nil && r.Balance.LessThan(*threshold)
}
