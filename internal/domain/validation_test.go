package domain

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func TestValidateCurrency(t *testing.T) {
	tests := []struct {
		currency    string
		expectError bool
	}{
		{"CLP", false},
		{"usd", false},
		{" EUR ", false},
		{"XXX", true},
		{"", true},
	}

	for _, tt := range tests {
		t.Run(tt.currency, func(t *testing.T) {
			err := ValidateCurrency(tt.currency)
			if tt.expectError && !errors.Is(err, ErrInvalidCurrency) {
				t.Errorf("expected ErrInvalidCurrency, got %v", err)
			}
			if !tt.expectError && err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		})
	}
}

func TestValidateSignedAmount(t *testing.T) {
	tests := []struct {
		name      string
		amount    decimal.Decimal
		expectErr error
	}{
		{name: "negative charge", amount: decimal.NewFromInt(-150)},
		{name: "positive credit", amount: decimal.NewFromFloat(99.99)},
		{name: "zero", amount: decimal.Zero, expectErr: ErrZeroAmount},
		{name: "too large", amount: decimal.RequireFromString("-1000000000001"), expectErr: ErrAmountTooLarge},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateSignedAmount(tt.amount)
			if tt.expectErr == nil && err != nil {
				t.Errorf("unexpected error: %v", err)
			}
			if tt.expectErr != nil && !errors.Is(err, tt.expectErr) {
				t.Errorf("expected %v, got %v", tt.expectErr, err)
			}
		})
	}
}

func TestValidateLabel(t *testing.T) {
	if err := ValidateLabel("  "); !errors.Is(err, ErrInvalidLabel) {
		t.Errorf("expected ErrInvalidLabel for blank label, got %v", err)
	}
	if err := ValidateLabel(strings.Repeat("A", MaxLabelLength+1)); !errors.Is(err, ErrInvalidLabel) {
		t.Errorf("expected ErrInvalidLabel for long label, got %v", err)
	}
	if err := ValidateLabel("UBER TRIP"); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestValidateInstrument(t *testing.T) {
	valid := Instrument{
		OwnerID:      "owner-1",
		Name:         "Checking",
		Kind:         InstrumentKindAsset,
		Currency:     "CLP",
		BaselineDate: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
	}

	if err := ValidateInstrument(&valid); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	badKind := valid
	badKind.Kind = "equity"
	if err := ValidateInstrument(&badKind); !errors.Is(err, ErrInvalidKind) {
		t.Errorf("expected ErrInvalidKind, got %v", err)
	}

	noBaseline := valid
	noBaseline.BaselineDate = time.Time{}
	if err := ValidateInstrument(&noBaseline); err == nil {
		t.Error("expected error for missing baseline")
	}
}

func TestValidatePagination(t *testing.T) {
	limit, offset, _ := ValidatePagination(0, -5)
	if limit != 50 || offset != 0 {
		t.Errorf("expected defaults 50/0, got %d/%d", limit, offset)
	}
	limit, _, _ = ValidatePagination(5000, 0)
	if limit != 1000 {
		t.Errorf("expected capped limit 1000, got %d", limit)
	}
}
