package domain

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func TestInstrument_BalanceFrom(t *testing.T) {
	tests := []struct {
		name     string
		kind     InstrumentKind
		opening  decimal.Decimal
		sum      decimal.Decimal
		expected decimal.Decimal
	}{
		{
			name:     "asset adds signed amounts",
			kind:     InstrumentKindAsset,
			opening:  decimal.NewFromInt(1000),
			sum:      decimal.NewFromInt(-250),
			expected: decimal.NewFromInt(750),
		},
		{
			name:     "liability grows with charges",
			kind:     InstrumentKindLiability,
			opening:  decimal.NewFromInt(200),
			sum:      decimal.NewFromInt(-50),
			expected: decimal.NewFromInt(250),
		},
		{
			name:     "liability shrinks with payments",
			kind:     InstrumentKindLiability,
			opening:  decimal.NewFromInt(200),
			sum:      decimal.NewFromInt(200),
			expected: decimal.Zero,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			inst := &Instrument{Kind: tt.kind, OpeningBalance: tt.opening}
			if got := inst.BalanceFrom(tt.sum); !got.Equal(tt.expected) {
				t.Errorf("expected %s, got %s", tt.expected, got)
			}
		})
	}
}

func TestInstrument_IsHistorical(t *testing.T) {
	inst := &Instrument{BaselineDate: time.Date(2024, 1, 1, 15, 0, 0, 0, time.UTC)}

	if !inst.IsHistorical(time.Date(2023, 12, 31, 23, 59, 0, 0, time.UTC)) {
		t.Error("day before baseline should be historical")
	}
	if inst.IsHistorical(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)) {
		t.Error("baseline day itself is not historical")
	}
}

func TestDaysBetween(t *testing.T) {
	a := time.Date(2024, 3, 1, 23, 0, 0, 0, time.UTC)
	b := time.Date(2024, 3, 4, 1, 0, 0, 0, time.UTC)
	if got := DaysBetween(a, b); got != 3 {
		t.Errorf("expected 3, got %d", got)
	}
	if got := DaysBetween(b, a); got != 3 {
		t.Errorf("expected symmetric 3, got %d", got)
	}
}

func TestScope_Validate(t *testing.T) {
	start := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2024, 3, 31, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name        string
		scope       Scope
		expectError bool
	}{
		{name: "valid", scope: Scope{OwnerID: "o", InstrumentID: "i", PeriodStart: start, PeriodEnd: end}},
		{name: "single day", scope: Scope{OwnerID: "o", InstrumentID: "i", PeriodStart: start, PeriodEnd: start}},
		{name: "missing owner", scope: Scope{InstrumentID: "i", PeriodStart: start, PeriodEnd: end}, expectError: true},
		{name: "missing instrument", scope: Scope{OwnerID: "o", PeriodStart: start, PeriodEnd: end}, expectError: true},
		{name: "reversed period", scope: Scope{OwnerID: "o", InstrumentID: "i", PeriodStart: end, PeriodEnd: start}, expectError: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.scope.Validate()
			if tt.expectError && err == nil {
				t.Error("expected error, got nil")
			}
			if !tt.expectError && err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		})
	}
}

func TestConfidenceFor(t *testing.T) {
	cases := map[float64]Confidence{
		100:   ConfidenceHigh,
		90:    ConfidenceHigh,
		89.99: ConfidenceMedium,
		70:    ConfidenceMedium,
		69.5:  ConfidenceLow,
		50:    ConfidenceLow,
		49.99: ConfidenceNone,
		0:     ConfidenceNone,
	}
	for score, expected := range cases {
		if got := ConfidenceFor(score); got != expected {
			t.Errorf("score %.2f: expected %s, got %s", score, expected, got)
		}
	}
}
