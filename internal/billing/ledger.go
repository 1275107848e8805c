package billing

import "github.com/shopspring/decimal"

// Ledger is the running payment state of an invoice: how much of the TTC
// total has been settled. It is a value; Apply returns the next state.
type Ledger struct {
	TotalTTC   decimal.Decimal
	AmountPaid decimal.Decimal
}

// AmountDue is what remains to be paid. Apply rejects overpayment, so for
// any ledger built through Apply this is never negative.
func (l Ledger) AmountDue() decimal.Decimal { return l.TotalTTC.Sub(l.AmountPaid) }

// Settled reports whether the invoice is fully paid.
func (l Ledger) Settled() bool { return !l.AmountDue().IsPositive() }

// Apply records one payment against the ledger.
// A payment must be strictly positive and must not exceed the amount due:
// overpayment is hard-rejected, a credit is modeled as a credit-note
// invoice rather than a negative payment. On rejection the ledger is
// returned unchanged.
func (l Ledger) Apply(amount decimal.Decimal) (Ledger, error) {
	if !amount.IsPositive() {
		return l, invalid("amount", "must_be_positive")
	}
	if amount.GreaterThan(l.AmountDue()) {
		return l, invalid("amount", "exceeds_amount_due")
	}
	l.AmountPaid = l.AmountPaid.Add(amount)
	return l, nil
}
