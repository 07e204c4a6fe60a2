// Package format provides the locale-aware value formatting shared by every
// query adapter. Both fetch paths normalize through the same Formatter, so a
// record renders identically whether it was buffered or streamed.
package format

import (
	"time"

	"golang.org/x/text/currency"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// Formatter renders currency amounts and timestamps for one locale. It is
// pure: the same input always yields the same string.
type Formatter struct {
	printer *message.Printer
	unit    currency.Unit
}

// New builds a Formatter for the given BCP 47 locale and ISO 4217 currency
// code. Unparseable values fall back to en / USD rather than failing the
// export.
func New(locale, currencyCode string) *Formatter {
	tag, err := language.Parse(locale)
	if err != nil || locale == "" {
		tag = language.English
	}

	unit, err := currency.ParseISO(currencyCode)
	if err != nil || currencyCode == "" {
		unit = currency.USD
	}

	return &Formatter{
		printer: message.NewPrinter(tag),
		unit:    unit,
	}
}

// Money renders an amount with the locale's digit grouping and the currency
// symbol.
func (f *Formatter) Money(amount float64) string {
	return f.printer.Sprintf("%v", currency.Symbol(f.unit.Amount(amount)))
}

// Date renders a calendar date; zero time renders as "".
func (f *Formatter) Date(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format("2006-01-02")
}

// DateTime renders a timestamp to minute precision; zero time renders as "".
func (f *Formatter) DateTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format("2006-01-02 15:04")
}
