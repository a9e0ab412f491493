package reconciliation

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"
	"unicode"

	"github.com/shopspring/decimal"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/iho/reconledger/internal/domain"
)

var (
	errEmptyValue      = errors.New("empty value")
	errUnparsable      = errors.New("cannot parse")
	errExcessPrecision = errors.New("more fractional digits than the currency allows")
)

// localPrecision is the maximum number of fractional digits accepted for
// amounts already in the instrument currency.
const localPrecision = 2

var dateLayouts = []string{
	"2006-01-02",
	time.RFC3339,
	"2006-01-02T15:04:05",
	"02/01/2006",
	"2/1/2006",
	"02-01-2006",
	"02.01.2006",
	"2006/01/02",
	"02/01/06",
}

var (
	nonAlnum   = regexp.MustCompile(`[^A-Z0-9 ]+`)
	whitespace = regexp.MustCompile(`\s+`)
	// Trailing store or location codes appended by acquirers. Country codes
	// that double as merchant words (CO, US) are kept.
	noiseSuffixes = []*regexp.Regexp{
		regexp.MustCompile(` (SUC|SUCURSAL|LOC|LOCAL|STORE|TIENDA|TDA|NRO|NO) ?[0-9]+$`),
		regexp.MustCompile(` [0-9]{4,}$`),
		regexp.MustCompile(` (CL|CHL|AR|ARG|PE|PER|COL|UY|URY|MX|MEX|USA)$`),
	}
)

// Normalizer canonicalizes raw statement rows.
type Normalizer struct {
	currency string
}

// NewNormalizer creates a Normalizer for rows of an instrument in currency.
func NewNormalizer(currency string) *Normalizer {
	return &Normalizer{currency: strings.ToUpper(strings.TrimSpace(currency))}
}

// Normalize turns a raw row into a StatementTransaction. Failures are
// *domain.MalformedRecordError values.
func (n *Normalizer) Normalize(ordinal int, row domain.RawRow) (domain.StatementTransaction, error) {
	currency := strings.ToUpper(strings.TrimSpace(row.Currency))
	if currency == "" {
		currency = n.currency
	}

	amount, err := ParseAmount(row.Amount)
	if err != nil {
		return domain.StatementTransaction{}, malformed(ordinal, "amount", row.Amount, err)
	}
	if currency == n.currency && -amount.Exponent() > localPrecision {
		return domain.StatementTransaction{}, malformed(ordinal, "amount", row.Amount, errExcessPrecision)
	}

	date, err := ParseDate(row.Date)
	if err != nil {
		return domain.StatementTransaction{}, malformed(ordinal, "date", row.Date, err)
	}

	label := strings.TrimSpace(whitespace.ReplaceAllString(row.Merchant, " "))

	var ref *string
	if r := strings.TrimSpace(row.Reference); r != "" {
		ref = &r
	}

	return domain.StatementTransaction{
		Ordinal:         ordinal,
		Label:           label,
		NormalizedLabel: NormalizeLabel(label),
		Amount:          amount,
		Currency:        currency,
		Date:            date,
		Reference:       ref,
	}, nil
}

// NormalizeAll normalizes every row, collecting malformed ones as anomalies.
func (n *Normalizer) NormalizeAll(rows []domain.RawRow) ([]domain.StatementTransaction, []domain.Anomaly) {
	out := make([]domain.StatementTransaction, 0, len(rows))
	var anomalies []domain.Anomaly

	for i, row := range rows {
		st, err := n.Normalize(i+1, row)
		if err != nil {
			var mre *domain.MalformedRecordError
			field := ""
			if errors.As(err, &mre) {
				field = mre.Field
			}
			anomalies = append(anomalies, domain.Anomaly{
				Kind:    domain.AnomalyMalformedRecord,
				Ordinal: i + 1,
				Field:   field,
				Message: err.Error(),
			})
			continue
		}
		out = append(out, st)
	}

	return out, anomalies
}

// NormalizeLabel produces the comparison form of a merchant label: uppercase,
// no diacritics, alphanumerics only, single spaces, trailing location codes removed.
func NormalizeLabel(label string) string {
	stripped, _, err := transform.String(
		transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC),
		label,
	)
	if err != nil {
		stripped = label
	}

	s := strings.ToUpper(stripped)
	s = nonAlnum.ReplaceAllString(s, " ")
	s = strings.TrimSpace(whitespace.ReplaceAllString(s, " "))

	for {
		trimmed := s
		for _, re := range noiseSuffixes {
			trimmed = re.ReplaceAllString(trimmed, "")
		}
		trimmed = strings.TrimSpace(trimmed)
		if trimmed == s || trimmed == "" {
			break
		}
		s = trimmed
	}

	return s
}

// ParseAmount parses a signed monetary amount. It accepts either "." or ","
// as decimal separator, thousands separators, currency symbols, a leading or
// trailing minus sign and accounting parentheses.
func ParseAmount(raw string) (decimal.Decimal, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return decimal.Zero, errEmptyValue
	}

	negative := false
	if strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")") {
		negative = true
		s = s[1 : len(s)-1]
	}

	var b strings.Builder
	for _, r := range s {
		switch {
		case r >= '0' && r <= '9', r == '.', r == ',':
			b.WriteRune(r)
		case r == '-' || r == '−':
			negative = !negative
		case unicode.IsSpace(r), unicode.IsLetter(r), unicode.Is(unicode.Sc, r), r == '+', r == '\'':
		default:
			return decimal.Zero, fmt.Errorf("%w: unexpected %q", errUnparsable, r)
		}
	}

	digits := canonicalSeparators(b.String())
	if digits == "" {
		return decimal.Zero, errUnparsable
	}

	d, err := decimal.NewFromString(digits)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: %v", errUnparsable, err)
	}
	if negative {
		d = d.Neg()
	}
	return d, nil
}

// canonicalSeparators rewrites a digit string with "." and "," into one that
// uses "." as the only decimal separator.
func canonicalSeparators(s string) string {
	lastDot := strings.LastIndex(s, ".")
	lastComma := strings.LastIndex(s, ",")

	switch {
	case lastDot >= 0 && lastComma >= 0:
		if lastComma > lastDot {
			s = strings.ReplaceAll(s, ".", "")
			return strings.Replace(s, ",", ".", 1)
		}
		return strings.ReplaceAll(s, ",", "")
	case lastComma >= 0:
		return resolveSingleSeparator(s, ",")
	case lastDot >= 0:
		return resolveSingleSeparator(s, ".")
	}
	return s
}

// resolveSingleSeparator decides whether sep is a thousands or a decimal separator.
// A separator repeated, or followed by exactly three digits, groups thousands.
func resolveSingleSeparator(s, sep string) string {
	count := strings.Count(s, sep)
	tail := s[strings.LastIndex(s, sep)+1:]
	if count > 1 || len(tail) == 3 {
		return strings.ReplaceAll(s, sep, "")
	}
	return strings.Replace(s, sep, ".", 1)
}

// ParseDate parses a transaction date in any of the supported layouts and
// returns it truncated to the day in UTC.
func ParseDate(raw string) (time.Time, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return time.Time{}, errEmptyValue
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return domain.DateOnly(t), nil
		}
	}
	return time.Time{}, errUnparsable
}

func malformed(ordinal int, field, value string, err error) error {
	return &domain.MalformedRecordError{Ordinal: ordinal, Field: field, Value: value, Err: err}
}
