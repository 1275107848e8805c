// Package billing is the financial computation core: line totals, document
// totals with per-rate VAT buckets, and the payment ledger. All arithmetic
// uses decimals; amounts are rounded to 2 decimals (cents) at the points
// the documents display them. The package holds no state and does no I/O.
package billing

import (
	"strings"

	"github.com/shopspring/decimal"
)

var (
	one     = decimal.NewFromInt(1)
	hundred = decimal.NewFromInt(100)
)

// round2 rounds to cents, half away from zero.
func round2(d decimal.Decimal) decimal.Decimal { return d.Round(2) }

// clampPercent forces a percentage into [0,100].
func clampPercent(p decimal.Decimal) decimal.Decimal {
	if p.IsNegative() {
		return decimal.Zero
	}
	if p.GreaterThan(hundred) {
		return hundred
	}
	return p
}

// discountFactor returns (1 - p/100) for a clamped percentage.
func discountFactor(p decimal.Decimal) decimal.Decimal {
	return one.Sub(clampPercent(p).Div(hundred))
}

// LineItem is a single billable row. TotalHT is always derived from
// Quantity/UnitPrice/DiscountPercent; a stored value is only a snapshot.
type LineItem struct {
	Designation     string
	Description     string
	Quantity        decimal.Decimal
	Unit            string // free form: m², unité, jour...
	UnitPrice       decimal.Decimal
	VATRate         decimal.Decimal // percentage, e.g. 18 for 18%
	DiscountPercent decimal.Decimal // 0..100
	Position        int
}

// Validate rejects rows the computation contract does not cover.
func (l LineItem) Validate() error {
	if strings.TrimSpace(l.Designation) == "" {
		return invalid("designation", "required")
	}
	if l.Quantity.IsNegative() {
		return invalid("quantity", "must_not_be_negative")
	}
	if l.UnitPrice.IsNegative() {
		return invalid("unit_price", "must_not_be_negative")
	}
	if l.VATRate.IsNegative() {
		return invalid("vat_rate", "must_not_be_negative")
	}
	if l.DiscountPercent.IsNegative() || l.DiscountPercent.GreaterThan(hundred) {
		return invalid("discount_percent", "out_of_range")
	}
	return nil
}

// TotalHT recomputes the line total net of VAT.
func (l LineItem) TotalHT() decimal.Decimal {
	return ComputeLineTotal(l.Quantity, l.UnitPrice, l.DiscountPercent)
}

// ComputeLineTotal returns round2(quantity × unitPrice × (1 − discount/100)).
// Zero values stand in for absent inputs; the discount is clamped to [0,100]
// so the result is never negative for non-negative quantity and price.
func ComputeLineTotal(quantity, unitPrice, discountPercent decimal.Decimal) decimal.Decimal {
	return round2(quantity.Mul(unitPrice).Mul(discountFactor(discountPercent)))
}

// Section is an ordered group of line items (quotes only).
type Section struct {
	Title    string
	Position int
	Lines    []LineItem
}

// Subtotal is the printed section subtotal: sum of its lines' total HT.
func (s Section) Subtotal() decimal.Decimal {
	sum := decimal.Zero
	for _, l := range s.Lines {
		sum = sum.Add(l.TotalHT())
	}
	return sum
}

// Flatten concatenates section lines in section order.
func Flatten(sections []Section) []LineItem {
	var lines []LineItem
	for _, s := range sections {
		lines = append(lines, s.Lines...)
	}
	return lines
}
