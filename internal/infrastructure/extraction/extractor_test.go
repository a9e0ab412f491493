package extraction

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iho/reconledger/internal/domain"
)

func TestExtractCSV(t *testing.T) {
	raw := []byte("\xEF\xBB\xBFDate,Description,Amount,Reference\n" +
		"2025-03-02,UBER *TRIP,-52.00,\n" +
		"\n" +
		"# exported by bank\n" +
		"2025-03-03,\"ACME, Inc\",1500.00,TRX-9\n")

	input, err := NewReader().Extract(context.Background(), "CSV", raw)
	require.NoError(t, err)

	require.Len(t, input.Rows, 2)
	assert.Equal(t, domain.RawRow{Merchant: "UBER *TRIP", Amount: "-52.00", Date: "2025-03-02"}, input.Rows[0])
	assert.Equal(t, "ACME, Inc", input.Rows[1].Merchant)
	assert.Equal(t, "TRX-9", input.Rows[1].Reference)
	assert.NotEmpty(t, input.Raw)
}

func TestExtractCSVDebitCreditSemicolon(t *testing.T) {
	raw := []byte("booking date;payee;debit;credit;currency\n" +
		"02/03/2025;Boulangerie;4,20;;EUR\n" +
		"03/03/2025;Salaire;;2500,00;EUR\n")

	input, err := NewReader().Extract(context.Background(), FormatCSV, raw)
	require.NoError(t, err)

	require.Len(t, input.Rows, 2)
	assert.Equal(t, "-4,20", input.Rows[0].Amount)
	assert.Equal(t, "2500,00", input.Rows[1].Amount)
	assert.Equal(t, "EUR", input.Rows[1].Currency)
}

func TestExtractJSONDocument(t *testing.T) {
	raw := []byte(`{
		"metadata": {"currency": "EUR", "closing_balance": "1200.50"},
		"rows": [{"merchant": "Spotify", "amount": "-9.99", "date": "2025-03-05"}]
	}`)

	input, err := NewReader().Extract(context.Background(), FormatJSON, raw)
	require.NoError(t, err)

	require.Len(t, input.Rows, 1)
	assert.Equal(t, "Spotify", input.Rows[0].Merchant)
	assert.Equal(t, "EUR", input.Metadata.Currency)
	require.NotNil(t, input.Metadata.ClosingBalance)
	assert.Equal(t, "1200.5", input.Metadata.ClosingBalance.String())
}

func TestExtractJSONArray(t *testing.T) {
	raw := []byte(`[{"merchant": "Spotify", "amount": "-9.99", "date": "2025-03-05"}]`)

	input, err := NewReader().Extract(context.Background(), FormatJSON, raw)
	require.NoError(t, err)
	assert.Len(t, input.Rows, 1)
}

func TestExtractFailures(t *testing.T) {
	tests := []struct {
		name   string
		format string
		raw    string
	}{
		{name: "empty", format: FormatCSV, raw: "  \n"},
		{name: "unsupported format", format: "pdf", raw: "%PDF-1.4"},
		{name: "missing amount column", format: FormatCSV, raw: "date,label\n2025-03-02,X\n"},
		{name: "header only", format: FormatCSV, raw: "date,label,amount\n"},
		{name: "broken json", format: FormatJSON, raw: `{"rows": [`},
		{name: "no json rows", format: FormatJSON, raw: `{"rows": []}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewReader().Extract(context.Background(), tt.format, []byte(tt.raw))
			assert.ErrorIs(t, err, domain.ErrExtractionFailed)
		})
	}
}

func TestExtractHonoursCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewReader().Extract(ctx, FormatCSV, []byte("date,label,amount\n"))
	assert.ErrorIs(t, err, context.Canceled)
}
