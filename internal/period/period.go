// Package period canonicalises the month tokens found in the monthly
// appointment extracts and provides the chronological ordering used by
// every derived table.
//
// Two token families appear across the source files: a short "Mon-YY"
// form ("Apr-20") used by the earlier extracts and the canonical
// "MONYYYY" form ("APR2020") used by the later ones. Normalisation is
// total over the known corpus; an unmapped token is a hard error
// because a missed mapping silently creates a spurious period bucket
// downstream.
package period

import (
	"fmt"
	"sort"
	"strings"
	"time"
)

// Period is a canonical calendar month.
type Period struct {
	Year  int        `json:"year"`
	Month time.Month `json:"month"`
}

// UnrecognizedPeriodTokenError reports a month token that matches
// neither a known short form nor the canonical MONYYYY pattern.
// This is fatal: all downstream grouping keys on the period.
type UnrecognizedPeriodTokenError struct {
	Token string
}

// Error implements the error interface.
func (e *UnrecognizedPeriodTokenError) Error() string {
	return fmt.Sprintf("unrecognized period token: %q", e.Token)
}

// monthAbbrevs maps canonical three-letter month abbreviations to
// their calendar month.
var monthAbbrevs = map[string]time.Month{
	"JAN": time.January, "FEB": time.February, "MAR": time.March,
	"APR": time.April, "MAY": time.May, "JUN": time.June,
	"JUL": time.July, "AUG": time.August, "SEP": time.September,
	"OCT": time.October, "NOV": time.November, "DEC": time.December,
}

// shortFormTokens is the explicit mapping from every short-form token
// observed in the source corpus (extracts covering January 2018 to
// December 2021) to its canonical equivalent. The table is finite on
// purpose: appending a new month to the corpus means appending its
// token here, and anything outside the table fails loudly.
var shortFormTokens = buildShortFormTable(2018, 2021)

func buildShortFormTable(fromYear, toYear int) map[string]string {
	abbrevs := []string{"Jan", "Feb", "Mar", "Apr", "May", "Jun",
		"Jul", "Aug", "Sep", "Oct", "Nov", "Dec"}
	table := make(map[string]string, (toYear-fromYear+1)*12)
	for year := fromYear; year <= toYear; year++ {
		for _, mon := range abbrevs {
			short := fmt.Sprintf("%s-%02d", mon, year%100)
			table[short] = fmt.Sprintf("%s%d", strings.ToUpper(mon), year)
		}
	}
	return table
}

// Normalize canonicalises a raw month token into a Period.
// Short-form tokens are translated via the known-token table;
// canonical MONYYYY tokens pass through. Any other token returns an
// *UnrecognizedPeriodTokenError.
func Normalize(token string) (Period, error) {
	trimmed := strings.TrimSpace(token)

	if canonical, ok := shortFormTokens[trimmed]; ok {
		trimmed = canonical
	}

	p, ok := parseCanonical(trimmed)
	if !ok {
		return Period{}, &UnrecognizedPeriodTokenError{Token: token}
	}
	return p, nil
}

// parseCanonical parses a MONYYYY token, e.g. "APR2020".
func parseCanonical(token string) (Period, bool) {
	if len(token) != 7 {
		return Period{}, false
	}
	month, ok := monthAbbrevs[token[:3]]
	if !ok {
		return Period{}, false
	}
	year := 0
	for _, r := range token[3:] {
		if r < '0' || r > '9' {
			return Period{}, false
		}
		year = year*10 + int(r-'0')
	}
	if year < 1900 || year > 2200 {
		return Period{}, false
	}
	return Period{Year: year, Month: month}, true
}

// Token renders the canonical MONYYYY form.
func (p Period) Token() string {
	return fmt.Sprintf("%s%d", strings.ToUpper(p.Month.String()[:3]), p.Year)
}

// Date returns the anchor date used for chronological ordering and
// plotting. The anchor rule is first-of-month, applied uniformly to
// every derived table.
func (p Period) Date() time.Time {
	return time.Date(p.Year, p.Month, 1, 0, 0, 0, 0, time.UTC)
}

// Before reports whether p is chronologically before other.
func (p Period) Before(other Period) bool {
	if p.Year != other.Year {
		return p.Year < other.Year
	}
	return p.Month < other.Month
}

// String implements fmt.Stringer.
func (p Period) String() string {
	return p.Token()
}

// Sort orders periods chronologically in place.
func Sort(periods []Period) {
	sort.Slice(periods, func(i, j int) bool {
		return periods[i].Before(periods[j])
	})
}
