package reconciliation

import (
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iho/reconledger/internal/domain"
)

func TestNormalizeLabel(t *testing.T) {
	tests := []struct {
		in       string
		expected string
	}{
		{"Compass Ruta 32", "COMPASS RUTA 32"},
		{"  café   Ñuñoa  ", "CAFE NUNOA"},
		{"LIDER*EXPRESS SUC 123", "LIDER EXPRESS"},
		{"Jumbo Costanera 004512", "JUMBO COSTANERA"},
		{"UBER TRIP CL", "UBER TRIP"},
		{"AMAZON MKTPLACE USA", "AMAZON MKTPLACE"},
		{"STARBUCKS CO", "STARBUCKS CO"},
		{"TOYS R US", "TOYS R US"},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.expected, NormalizeLabel(tt.in))
		})
	}
}

func TestParseAmount(t *testing.T) {
	tests := []struct {
		in          string
		expected    string
		expectError bool
	}{
		{in: "-150.00", expected: "-150"},
		{in: "-26750.00", expected: "-26750"},
		{in: "26.750", expected: "26750"},
		{in: "$ -1.234.567", expected: "-1234567"},
		{in: "-1.234,56", expected: "-1234.56"},
		{in: "1,234.56", expected: "1234.56"},
		{in: "150,5", expected: "150.5"},
		{in: "(40.00)", expected: "-40"},
		{in: "40.00-", expected: "-40"},
		{in: "CLP 12000", expected: "12000"},
		{in: "", expectError: true},
		{in: "abc", expectError: true},
		{in: "12#4", expectError: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseAmount(tt.in)
			if tt.expectError {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.True(t, got.Equal(decimal.RequireFromString(tt.expected)), "got %s", got)
		})
	}
}

func TestParseDate(t *testing.T) {
	want := time.Date(2025, 10, 3, 0, 0, 0, 0, time.UTC)
	for _, in := range []string{"2025-10-03", "03/10/2025", "3/10/2025", "03-10-2025", "03.10.2025", "2025-10-03T18:30:00Z"} {
		got, err := ParseDate(in)
		require.NoError(t, err, in)
		assert.True(t, want.Equal(got), "%s parsed as %s", in, got)
	}

	_, err := ParseDate("yesterday")
	assert.Error(t, err)
}

func TestNormalizer_MalformedRows(t *testing.T) {
	n := NewNormalizer("CLP")
	rows := []domain.RawRow{
		{Merchant: "Compass", Amount: "-150.00", Date: "2025-10-03"},
		{Merchant: "Broken", Amount: "n/a", Date: "2025-10-03"},
		{Merchant: "Bad date", Amount: "-10", Date: "32/13/2025"},
		{Merchant: "Too precise", Amount: "-10.1234", Date: "2025-10-03"},
		{Merchant: "Foreign", Amount: "-10.1234", Date: "2025-10-03", Currency: "usd"},
	}

	out, anomalies := n.NormalizeAll(rows)

	require.Len(t, out, 2)
	assert.Equal(t, 1, out[0].Ordinal)
	assert.Equal(t, "CLP", out[0].Currency)
	assert.Equal(t, "USD", out[1].Currency)

	require.Len(t, anomalies, 3)
	assert.Equal(t, 2, anomalies[0].Ordinal)
	assert.Equal(t, "amount", anomalies[0].Field)
	assert.Equal(t, "date", anomalies[1].Field)
	assert.Equal(t, domain.AnomalyMalformedRecord, anomalies[2].Kind)

	_, err := n.Normalize(7, rows[1])
	assert.True(t, errors.Is(err, domain.ErrMalformedRecord))
}

func TestSimilarity(t *testing.T) {
	assert.InDelta(t, 1.0, LevenshteinSimilarity("UBER", "UBER"), 1e-9)
	assert.InDelta(t, 0.75, LevenshteinSimilarity("UBER", "UBEX"), 1e-9)
	assert.InDelta(t, 1.0, TokenSimilarity("RUTA COMPASS", "COMPASS RUTA"), 1e-9)
	assert.InDelta(t, 0.0, TokenSimilarity("A", "B"), 1e-9)
	assert.GreaterOrEqual(t, DefaultSimilarity("STARBUCKS COFFEE", "STARBUKS COFFEE"), 0.9)
}
