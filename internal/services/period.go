package services

import (
	"fmt"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// Norwegian month names, indexed 1-12.
var norwegianMonths = [...]string{
	"",
	"januar", "februar", "mars", "april", "mai", "juni",
	"juli", "august", "september", "oktober", "november", "desember",
}

var validPeriodMonths = map[int]bool{1: true, 3: true, 6: true, 12: true}

// IsValidPeriodMonths reports whether a billing period length is supported.
func IsValidPeriodMonths(months int) bool {
	return validPeriodMonths[months]
}

// MonthName returns the Norwegian name of a month, or an empty string for
// values outside 1-12.
func MonthName(month int) string {
	if month < 1 || month > 12 {
		return ""
	}
	return norwegianMonths[month]
}

// FormatPeriod renders a billing period label the way invoices show it:
// a single month as "januar 2025", a full year as "2025 (helår)", and any
// other span as "januar – mars 2025". Spans that cross a year boundary use
// the end month's year.
func FormatPeriod(month, year, months int) string {
	switch months {
	case 1:
		return fmt.Sprintf("%s %d", MonthName(month), year)
	case 12:
		return fmt.Sprintf("%d (helår)", year)
	default:
		endMonth := ((month - 1 + months - 1) % 12) + 1
		endYear := year + (month-1+months-1)/12
		return fmt.Sprintf("%s – %s %d", MonthName(month), MonthName(endMonth), endYear)
	}
}

var nbPrinter = message.NewPrinter(language.MustParse("nb-NO"))

// FormatAmountNOK renders a whole-krone amount using Norwegian digit
// grouping, e.g. 3600 becomes "3 600 kr".
func FormatAmountNOK(amount int) string {
	return nbPrinter.Sprintf("%d kr", amount)
}
