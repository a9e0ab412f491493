// Package extraction reads statement documents exported as CSV or JSON into
// raw rows for reconciliation.
package extraction

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/iho/reconledger/internal/domain"
)

// Supported document formats.
const (
	FormatCSV  = "csv"
	FormatJSON = "json"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// Column aliases accepted in a CSV header, matched case-insensitively.
var columnAliases = map[string]string{
	"date":           "date",
	"posted":         "date",
	"booking_date":   "date",
	"value_date":     "date",
	"merchant":       "merchant",
	"label":          "merchant",
	"description":    "merchant",
	"payee":          "merchant",
	"amount":         "amount",
	"debit":          "debit",
	"credit":         "credit",
	"reference":      "reference",
	"ref":            "reference",
	"transaction_id": "reference",
	"currency":       "currency",
}

// Reader extracts statements from CSV and JSON documents.
type Reader struct{}

// NewReader creates a Reader.
func NewReader() *Reader {
	return &Reader{}
}

// Extract parses raw according to format. Every failure wraps
// domain.ErrExtractionFailed.
func (r *Reader) Extract(ctx context.Context, format string, raw []byte) (domain.StatementInput, error) {
	if err := ctx.Err(); err != nil {
		return domain.StatementInput{}, err
	}

	raw = bytes.TrimPrefix(raw, utf8BOM)
	if len(bytes.TrimSpace(raw)) == 0 {
		return domain.StatementInput{}, fmt.Errorf("%w: empty document", domain.ErrExtractionFailed)
	}

	var (
		input domain.StatementInput
		err   error
	)
	switch strings.ToLower(strings.TrimSpace(format)) {
	case FormatCSV:
		input.Rows, err = readCSV(raw)
	case FormatJSON:
		input, err = readJSON(raw)
	default:
		return domain.StatementInput{}, fmt.Errorf("%w: unsupported format %q", domain.ErrExtractionFailed, format)
	}
	if err != nil {
		return domain.StatementInput{}, fmt.Errorf("%w: %v", domain.ErrExtractionFailed, err)
	}
	if len(input.Rows) == 0 {
		return domain.StatementInput{}, fmt.Errorf("%w: document has no transaction rows", domain.ErrExtractionFailed)
	}

	input.Raw = raw
	return input, nil
}

func readCSV(raw []byte) ([]domain.RawRow, error) {
	cr := csv.NewReader(bytes.NewReader(raw))
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true
	cr.Comment = '#'
	cr.Comma = sniffDelimiter(raw)

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	columns, err := mapColumns(header)
	if err != nil {
		return nil, err
	}

	var rows []domain.RawRow
	for {
		record, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}
		if blank(record) {
			continue
		}
		rows = append(rows, columns.row(record))
	}
	return rows, nil
}

// sniffDelimiter picks ';' for exports whose header has no comma.
func sniffDelimiter(raw []byte) rune {
	line := raw
	if i := bytes.IndexByte(raw, '\n'); i >= 0 {
		line = raw[:i]
	}
	if bytes.Count(line, []byte{';'}) > bytes.Count(line, []byte{','}) {
		return ';'
	}
	return ','
}

type columnIndex map[string]int

func mapColumns(header []string) (columnIndex, error) {
	columns := make(columnIndex)
	for i, name := range header {
		key := strings.ToLower(strings.TrimSpace(name))
		key = strings.ReplaceAll(key, " ", "_")
		if field, ok := columnAliases[key]; ok {
			if _, seen := columns[field]; !seen {
				columns[field] = i
			}
		}
	}

	for _, required := range []string{"date", "merchant"} {
		if _, ok := columns[required]; !ok {
			return nil, fmt.Errorf("missing %s column", required)
		}
	}
	_, hasAmount := columns["amount"]
	_, hasDebit := columns["debit"]
	_, hasCredit := columns["credit"]
	if !hasAmount && !hasDebit && !hasCredit {
		return nil, errors.New("missing amount column")
	}
	return columns, nil
}

func (c columnIndex) get(record []string, field string) string {
	i, ok := c[field]
	if !ok || i >= len(record) {
		return ""
	}
	return strings.TrimSpace(record[i])
}

// row builds a RawRow. A debit column holds outflows as positive figures.
func (c columnIndex) row(record []string) domain.RawRow {
	amount := c.get(record, "amount")
	if amount == "" {
		if debit := strings.TrimPrefix(c.get(record, "debit"), "-"); debit != "" {
			amount = "-" + debit
		} else {
			amount = c.get(record, "credit")
		}
	}
	return domain.RawRow{
		Merchant:  c.get(record, "merchant"),
		Amount:    amount,
		Date:      c.get(record, "date"),
		Reference: c.get(record, "reference"),
		Currency:  c.get(record, "currency"),
	}
}

func blank(record []string) bool {
	for _, field := range record {
		if strings.TrimSpace(field) != "" {
			return false
		}
	}
	return true
}

type jsonDocument struct {
	Metadata domain.StatementMetadata `json:"metadata"`
	Rows     []domain.RawRow          `json:"rows"`
}

// readJSON accepts either a document object or a bare array of rows.
func readJSON(raw []byte) (domain.StatementInput, error) {
	trimmed := bytes.TrimSpace(raw)
	if trimmed[0] == '[' {
		var rows []domain.RawRow
		if err := json.Unmarshal(trimmed, &rows); err != nil {
			return domain.StatementInput{}, err
		}
		return domain.StatementInput{Rows: rows}, nil
	}

	var doc jsonDocument
	if err := json.Unmarshal(trimmed, &doc); err != nil {
		return domain.StatementInput{}, err
	}
	return domain.StatementInput{Rows: doc.Rows, Metadata: doc.Metadata}, nil
}
