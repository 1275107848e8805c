package services

import (
	"context"
	"sync"
	"testing"

	"github.com/kairostudio/backoffice/internal/billing"
	"github.com/kairostudio/backoffice/internal/models"
)

// sentInvoice creates a 1000 TTC invoice in sent status, ready for payments.
func sentInvoice(t *testing.T, svc *InvoiceService, companyID, clientID uint) *models.Invoice {
	t.Helper()
	inv := &models.Invoice{
		CompanyID: companyID,
		ClientID:  clientID,
		Lines: []models.InvoiceLine{
			{Designation: "Honoraires de conception", Quantity: d("1"), UnitPrice: d("1000"), Position: 0},
		},
	}
	if err := svc.Create(inv); err != nil {
		t.Fatalf("create invoice: %v", err)
	}
	if err := svc.Transition(inv, models.InvoiceStatusSent); err != nil {
		t.Fatalf("send: %v", err)
	}
	return inv
}

func TestPaymentLifecycle(t *testing.T) {
	conn := testDB(t)
	companyID, clientID := seedCompany(t, conn)
	invoices := NewInvoiceService(conn)
	payments := NewPaymentService(conn, nil)
	inv := sentInvoice(t, invoices, companyID, clientID)

	ctx := context.Background()

	// paiement partiel de 400
	if _, err := payments.Apply(ctx, companyID, inv.ID, PaymentInput{Amount: d("400"), Method: models.PaymentMethodTransfer}); err != nil {
		t.Fatalf("apply 400: %v", err)
	}
	var reloaded models.Invoice
	conn.First(&reloaded, inv.ID)
	if !reloaded.AmountPaid.Equal(d("400")) || !reloaded.AmountDue.Equal(d("600")) {
		t.Fatalf("after 400: paid=%s due=%s, want 400/600", reloaded.AmountPaid, reloaded.AmountDue)
	}
	if reloaded.Status != models.InvoiceStatusSent {
		t.Errorf("status = %q, want sent while partially paid", reloaded.Status)
	}

	// 700 dépasse le restant dû
	if _, err := payments.Apply(ctx, companyID, inv.ID, PaymentInput{Amount: d("700"), Method: models.PaymentMethodTransfer}); !billing.IsValidation(err) {
		t.Fatalf("apply 700 err = %v, want validation error", err)
	}
	conn.First(&reloaded, inv.ID)
	if !reloaded.AmountPaid.Equal(d("400")) {
		t.Fatalf("rejected payment changed the ledger: paid=%s", reloaded.AmountPaid)
	}

	// solde exact
	if _, err := payments.Apply(ctx, companyID, inv.ID, PaymentInput{Amount: d("600"), Method: models.PaymentMethodCash}); err != nil {
		t.Fatalf("apply 600: %v", err)
	}
	conn.First(&reloaded, inv.ID)
	if !reloaded.AmountDue.Equal(d("0")) {
		t.Errorf("amount due = %s, want 0", reloaded.AmountDue)
	}
	if reloaded.Status != models.InvoiceStatusPaid {
		t.Errorf("status = %q, want paid", reloaded.Status)
	}

	list, err := payments.List(companyID, inv.ID)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list) != 2 {
		t.Errorf("payments = %d, want 2 (the rejected one is not recorded)", len(list))
	}
}

func TestPaymentRejectedOnDraftAndCancelled(t *testing.T) {
	conn := testDB(t)
	companyID, clientID := seedCompany(t, conn)
	invoices := NewInvoiceService(conn)
	payments := NewPaymentService(conn, nil)
	ctx := context.Background()

	draft := &models.Invoice{
		CompanyID: companyID,
		ClientID:  clientID,
		Lines:     []models.InvoiceLine{{Designation: "Mobilier", Quantity: d("1"), UnitPrice: d("200")}},
	}
	if err := invoices.Create(draft); err != nil {
		t.Fatal(err)
	}
	if _, err := payments.Apply(ctx, companyID, draft.ID, PaymentInput{Amount: d("100")}); !billing.IsValidation(err) {
		t.Errorf("payment on draft err = %v, want validation error", err)
	}

	cancelled := sentInvoice(t, invoices, companyID, clientID)
	if err := invoices.Transition(cancelled, models.InvoiceStatusCancelled); err != nil {
		t.Fatal(err)
	}
	if _, err := payments.Apply(ctx, companyID, cancelled.ID, PaymentInput{Amount: d("100")}); !billing.IsValidation(err) {
		t.Errorf("payment on cancelled err = %v, want validation error", err)
	}
}

func TestPaymentScopedByCompany(t *testing.T) {
	conn := testDB(t)
	companyID, clientID := seedCompany(t, conn)
	otherCompanyID, _ := seedCompany(t, conn)
	invoices := NewInvoiceService(conn)
	payments := NewPaymentService(conn, nil)
	inv := sentInvoice(t, invoices, companyID, clientID)

	if _, err := payments.Apply(context.Background(), otherCompanyID, inv.ID, PaymentInput{Amount: d("100")}); err == nil {
		t.Fatal("cross-company payment accepted")
	}
}

func TestConcurrentPaymentsNeverOverpay(t *testing.T) {
	conn := testDB(t)
	companyID, clientID := seedCompany(t, conn)
	invoices := NewInvoiceService(conn)
	payments := NewPaymentService(conn, nil)
	inv := sentInvoice(t, invoices, companyID, clientID)

	// two 600 payments against a 1000 invoice: at most one may land
	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = payments.Apply(context.Background(), companyID, inv.ID, PaymentInput{Amount: d("600")})
		}(i)
	}
	wg.Wait()

	var reloaded models.Invoice
	conn.First(&reloaded, inv.ID)
	if reloaded.AmountPaid.GreaterThan(reloaded.TotalTTC) {
		t.Fatalf("overpaid: paid=%s ttc=%s (errs: %v, %v)", reloaded.AmountPaid, reloaded.TotalTTC, errs[0], errs[1])
	}
	if reloaded.AmountDue.IsNegative() {
		t.Fatalf("amount due went negative: %s", reloaded.AmountDue)
	}
}
