package billing

import (
	"testing"

	"github.com/shopspring/decimal"
)

// Example scenario: TTC 1000, pay 400 then try 700.
func TestLedgerApplySequence(t *testing.T) {
	led := Ledger{TotalTTC: dec("1000"), AmountPaid: decimal.Zero}

	led, err := led.Apply(dec("400"))
	if err != nil {
		t.Fatalf("first payment: %v", err)
	}
	if !led.AmountPaid.Equal(dec("400")) || !led.AmountDue().Equal(dec("600")) {
		t.Fatalf("after 400: paid=%s due=%s", led.AmountPaid, led.AmountDue())
	}

	if _, err := led.Apply(dec("700")); err == nil {
		t.Fatal("700 > 600 due must be rejected")
	} else if !IsValidation(err) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	// rejection leaves the ledger untouched
	if !led.AmountPaid.Equal(dec("400")) || !led.AmountDue().Equal(dec("600")) {
		t.Fatalf("rejected payment mutated ledger: paid=%s due=%s", led.AmountPaid, led.AmountDue())
	}

	led, err = led.Apply(dec("600"))
	if err != nil {
		t.Fatalf("settling payment: %v", err)
	}
	if !led.Settled() {
		t.Fatalf("expected settled, due=%s", led.AmountDue())
	}
	if !led.AmountDue().IsZero() {
		t.Fatalf("amount due = %s, want 0", led.AmountDue())
	}
}

// Conservation: paid_after == paid_before + amount, due == ttc − paid.
func TestLedgerConservation(t *testing.T) {
	led := Ledger{TotalTTC: dec("1530")}
	payments := []string{"500", "30.50", "999.50"}
	paid := decimal.Zero
	for _, p := range payments {
		amount := dec(p)
		next, err := led.Apply(amount)
		if err != nil {
			t.Fatalf("apply %s: %v", p, err)
		}
		paid = paid.Add(amount)
		if !next.AmountPaid.Equal(paid) {
			t.Fatalf("paid = %s, want %s", next.AmountPaid, paid)
		}
		if !next.AmountDue().Equal(led.TotalTTC.Sub(paid)) {
			t.Fatalf("due = %s, want %s", next.AmountDue(), led.TotalTTC.Sub(paid))
		}
		led = next
	}
	if !led.Settled() {
		t.Fatalf("payments sum to the TTC total, ledger should be settled, due=%s", led.AmountDue())
	}
}

func TestLedgerRejectsNonPositive(t *testing.T) {
	led := Ledger{TotalTTC: dec("100")}
	for _, bad := range []string{"0", "-5"} {
		if _, err := led.Apply(dec(bad)); err == nil {
			t.Fatalf("amount %s must be rejected", bad)
		} else if !IsValidation(err) {
			t.Fatalf("expected ValidationError for %s, got %v", bad, err)
		}
	}
}

func TestLedgerExactSettlementAllowed(t *testing.T) {
	led := Ledger{TotalTTC: dec("240")}
	led, err := led.Apply(dec("240"))
	if err != nil {
		t.Fatalf("exact settlement rejected: %v", err)
	}
	if !led.AmountDue().IsZero() {
		t.Fatalf("due = %s, want 0", led.AmountDue())
	}
	// nothing further can be applied on a settled ledger
	if _, err := led.Apply(dec("0.01")); err == nil {
		t.Fatal("payment on settled ledger must be rejected")
	}
}
