// Package codec converts an ordered list of line items to and from the flat
// text blob stored next to a transaction's scalar columns.
//
// A list encodes as records of the form [name~~price~~quantity] joined by a
// single comma. Nothing is escaped, so names containing "~~", ",", "[" or "]"
// cannot be carried; Validate reports such names.
package codec

import (
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"tillpoint/internal/domain"
)

const (
	recordOpen      = "["
	recordClose     = "]"
	fieldSeparator  = "~~"
	recordSeparator = ","
)

var reservedSubstrings = []string{fieldSeparator, recordSeparator, recordOpen, recordClose}

func Encode(items []domain.LineItem) string {
	var b strings.Builder
	for i, item := range items {
		if i > 0 {
			b.WriteString(recordSeparator)
		}
		b.WriteString(recordOpen)
		b.WriteString(item.Name)
		b.WriteString(fieldSeparator)
		b.WriteString(priceText(item.UnitPrice))
		b.WriteString(fieldSeparator)
		b.WriteString(strconv.Itoa(item.Quantity))
		b.WriteString(recordClose)
	}
	return b.String()
}

// priceText keeps the scale the price was entered with, so 2.50 stays
// "2.50" rather than "2.5".
func priceText(price decimal.Decimal) string {
	if exp := price.Exponent(); exp < 0 {
		return price.StringFixed(-exp)
	}
	return price.String()
}

// Decode never fails. Fragments that are not well-formed records are
// dropped and the remaining items are returned in input order.
func Decode(raw string) []domain.LineItem {
	items := make([]domain.LineItem, 0)
	if raw == "" {
		return items
	}
	for _, fragment := range strings.Split(raw, recordSeparator) {
		item, ok := decodeRecord(fragment)
		if !ok {
			continue
		}
		items = append(items, item)
	}
	return items
}

func decodeRecord(fragment string) (domain.LineItem, bool) {
	if len(fragment) < len(recordOpen)+len(recordClose) {
		return domain.LineItem{}, false
	}
	if !strings.HasPrefix(fragment, recordOpen) || !strings.HasSuffix(fragment, recordClose) {
		return domain.LineItem{}, false
	}
	body := fragment[len(recordOpen) : len(fragment)-len(recordClose)]

	fields := strings.Split(body, fieldSeparator)
	if len(fields) != 3 {
		return domain.LineItem{}, false
	}
	price, err := decimal.NewFromString(fields[1])
	if err != nil || domain.CheckPriceRange(price) != nil {
		return domain.LineItem{}, false
	}
	qty, err := strconv.Atoi(fields[2])
	if err != nil {
		return domain.LineItem{}, false
	}
	return domain.LineItem{Name: fields[0], UnitPrice: price, Quantity: qty}, true
}

// Validate rejects names the format cannot round-trip.
func Validate(items []domain.LineItem) error {
	for _, item := range items {
		if err := ValidateName(item.Name); err != nil {
			return err
		}
	}
	return nil
}

func ValidateName(name string) error {
	for _, reserved := range reservedSubstrings {
		if strings.Contains(name, reserved) {
			return domain.Invalid("item name %q must not contain %q", name, reserved)
		}
	}
	return nil
}
