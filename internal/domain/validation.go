package domain

import (
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Validation errors
var (
	ErrInvalidName     = errors.New("invalid name")
	ErrInvalidCurrency = errors.New("invalid currency code")
	ErrInvalidKind     = errors.New("invalid instrument kind")
	ErrInvalidLabel    = errors.New("invalid merchant label")
	ErrAmountTooLarge  = errors.New("amount exceeds maximum allowed")
	ErrZeroAmount      = errors.New("amount must not be zero")
)

// Validation constants
const (
	MaxNameLength  = 255
	MaxLabelLength = 512
	MaxAbsAmount   = "1000000000000" // 1 trillion
)

// Valid currency codes (ISO 4217)
var validCurrencies = map[string]bool{
	"USD": true, "EUR": true, "GBP": true, "JPY": true,
	"CNY": true, "AUD": true, "CAD": true, "CHF": true,
	"SEK": true, "NZD": true, "KRW": true, "SGD": true,
	"NOK": true, "MXN": true, "INR": true, "BRL": true,
	"ZAR": true, "RUB": true, "TRY": true, "HKD": true,
	"CLP": true, "ARS": true, "COP": true, "PEN": true,
	"UYU": true, "CLF": true,
}

// ValidateName validates an instrument name
func ValidateName(name string) error {
	name = strings.TrimSpace(name)

	if name == "" {
		return fmt.Errorf("%w: name cannot be empty", ErrInvalidName)
	}

	if len(name) > MaxNameLength {
		return fmt.Errorf("%w: name exceeds %d characters", ErrInvalidName, MaxNameLength)
	}

	return nil
}

// ValidateLabel validates a merchant label
func ValidateLabel(label string) error {
	label = strings.TrimSpace(label)

	if label == "" {
		return fmt.Errorf("%w: label cannot be empty", ErrInvalidLabel)
	}

	if len(label) > MaxLabelLength {
		return fmt.Errorf("%w: label exceeds %d characters", ErrInvalidLabel, MaxLabelLength)
	}

	return nil
}

// ValidateCurrency validates currency code
func ValidateCurrency(currency string) error {
	currency = strings.ToUpper(strings.TrimSpace(currency))

	if !validCurrencies[currency] {
		return fmt.Errorf("%w: %s is not a valid ISO 4217 currency code", ErrInvalidCurrency, currency)
	}

	return nil
}

// ValidateSignedAmount validates a signed transaction amount
func ValidateSignedAmount(amount decimal.Decimal) error {
	if amount.IsZero() {
		return ErrZeroAmount
	}

	maxAmount, _ := decimal.NewFromString(MaxAbsAmount)
	if amount.Abs().GreaterThan(maxAmount) {
		return fmt.Errorf("%w: maximum amount is %s", ErrAmountTooLarge, MaxAbsAmount)
	}

	return nil
}

// ValidateInstrument validates a new instrument
func ValidateInstrument(i *Instrument) error {
	if err := ValidateName(i.Name); err != nil {
		return err
	}
	if err := ValidateCurrency(i.Currency); err != nil {
		return err
	}
	if !i.Kind.IsValid() {
		return fmt.Errorf("%w: %q", ErrInvalidKind, i.Kind)
	}
	if strings.TrimSpace(i.OwnerID) == "" {
		return fmt.Errorf("%w: owner is required", ErrInvalidName)
	}
	if i.BaselineDate.IsZero() {
		return fmt.Errorf("%w: baseline date is required", ErrInvalidScope)
	}
	return nil
}

// ValidatePagination validates and limits pagination parameters
func ValidatePagination(limit, offset int) (int, int, error) {
	const MaxPageSize = 1000
	const DefaultPageSize = 50

	if limit <= 0 {
		limit = DefaultPageSize
	}

	if limit > MaxPageSize {
		limit = MaxPageSize
	}

	if offset < 0 {
		offset = 0
	}

	return limit, offset, nil
}
