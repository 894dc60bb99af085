package domain

import (
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

var (
	// ErrValidation marks rejected input: blank required fields, bad prices or
	// quantities, finalizing an empty sale.
	ErrValidation = errors.New("validation failed")
	// ErrNotFound marks a reference to an unknown entity.
	ErrNotFound = errors.New("not found")
)

// StoreError is an opaque failure surfaced by a persistence collaborator.
// Callers decide whether to retry.
type StoreError struct {
	Op  string
	Err error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("store %s: %v", e.Op, e.Err)
}

func (e *StoreError) Unwrap() error {
	return e.Err
}

// WrapStore wraps err as a StoreError unless it already carries a
// domain meaning.
func WrapStore(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrNotFound) || errors.Is(err, ErrValidation) {
		return err
	}
	var storeErr *StoreError
	if errors.As(err, &storeErr) {
		return err
	}
	return &StoreError{Op: op, Err: err}
}

func Invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}

func IsStoreError(err error) bool {
	var storeErr *StoreError
	return errors.As(err, &storeErr)
}

const (
	// MaxPriceScale is the most decimal places a price may carry.
	MaxPriceScale = 8
	// MaxPriceIntegerDigits bounds the digits left of the decimal point.
	MaxPriceIntegerDigits = 12
)

// CheckPriceRange bounds a price to MaxPriceScale places and
// MaxPriceIntegerDigits integer digits. Exponent forms such as 1e-20000000
// parse but fall outside it.
func CheckPriceRange(price decimal.Decimal) error {
	if price.Exponent() < -MaxPriceScale {
		return Invalid("price must have at most %d decimal places", MaxPriceScale)
	}
	if int64(price.NumDigits())+int64(price.Exponent()) > MaxPriceIntegerDigits {
		return Invalid("price must have at most %d integer digits", MaxPriceIntegerDigits)
	}
	return nil
}

// ParsePrice parses user-entered price text.
func ParsePrice(raw string) (decimal.Decimal, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return decimal.Zero, Invalid("price is required")
	}
	price, err := decimal.NewFromString(trimmed)
	if err != nil {
		return decimal.Zero, Invalid("price %q is not a number", raw)
	}
	if price.IsNegative() {
		return decimal.Zero, Invalid("price must not be negative")
	}
	if err := CheckPriceRange(price); err != nil {
		return decimal.Zero, err
	}
	return price, nil
}

func ValidateLineItem(item LineItem) error {
	if strings.TrimSpace(item.Name) == "" {
		return Invalid("item name is required")
	}
	if item.UnitPrice.IsNegative() {
		return Invalid("unit price must not be negative")
	}
	if err := CheckPriceRange(item.UnitPrice); err != nil {
		return err
	}
	if item.Quantity < 1 {
		return Invalid("quantity must be at least 1")
	}
	return nil
}
