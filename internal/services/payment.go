package services

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/kairostudio/backoffice/internal/billing"
	"github.com/kairostudio/backoffice/internal/models"
)

// Notifier publishes a best-effort notification; failures never affect the
// payment transaction.
type Notifier interface {
	Notify(ctx context.Context, companyID uint, typ, title, message string)
}

// PaymentService applies payments against invoices. The payment insert and
// the invoice ledger update run in one transaction with a conditional
// update, so two concurrent payments can never jointly overpay an invoice.
type PaymentService struct {
	DB       *gorm.DB
	Notifier Notifier // optional
}

func NewPaymentService(db *gorm.DB, n Notifier) *PaymentService {
	return &PaymentService{DB: db, Notifier: n}
}

type PaymentInput struct {
	Amount    decimal.Decimal
	Date      time.Time
	Method    string
	Reference string
	Notes     string
}

// Apply records one payment on the invoice, updating amount_paid and
// amount_due atomically. Rejections (non-positive amount, overpayment,
// payment on a cancelled invoice) are billing.ValidationError and leave
// everything unchanged.
func (s *PaymentService) Apply(ctx context.Context, companyID, invoiceID uint, in PaymentInput) (*models.Payment, error) {
	var payment *models.Payment
	var inv models.Invoice
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("company_id = ?", companyID).First(&inv, invoiceID).Error; err != nil {
			return err
		}
		if inv.Status == models.InvoiceStatusCancelled || inv.Status == models.InvoiceStatusDraft {
			return &billing.ValidationError{Field: "status", Code: "invoice_not_payable"}
		}
		// local precondition check, gives the caller a precise error
		ledger := billing.Ledger{TotalTTC: inv.TotalTTC, AmountPaid: inv.AmountPaid}
		if _, err := ledger.Apply(in.Amount); err != nil {
			return err
		}

		date := in.Date
		if date.IsZero() {
			date = time.Now()
		}
		payment = &models.Payment{
			CompanyID: companyID,
			InvoiceID: inv.ID,
			Amount:    in.Amount,
			Date:      date,
			Method:    in.Method,
			Reference: in.Reference,
			Notes:     in.Notes,
		}
		if err := tx.Create(payment).Error; err != nil {
			return err
		}

		// conditional update: the guard re-checks the ledger against the
		// current row, closing the race between concurrent payments
		res := tx.Model(&models.Invoice{}).
			Where("id = ? AND amount_paid + ? <= total_ttc", inv.ID, in.Amount).
			Updates(map[string]any{
				"amount_paid": gorm.Expr("amount_paid + ?", in.Amount),
				"amount_due":  gorm.Expr("total_ttc - amount_paid - ?", in.Amount),
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			// a concurrent payment consumed the remaining due
			return &billing.ValidationError{Field: "amount", Code: "exceeds_amount_due"}
		}

		// settle: flip to paid when nothing remains due
		if err := tx.Model(&models.Invoice{}).
			Where("id = ? AND amount_due <= 0 AND status <> ?", inv.ID, models.InvoiceStatusPaid).
			Update("status", models.InvoiceStatusPaid).Error; err != nil {
			return err
		}
		return tx.First(&inv, inv.ID).Error
	})
	if err != nil {
		return nil, err
	}
	if s.Notifier != nil {
		s.Notifier.Notify(ctx, companyID, "payment_received", "Paiement reçu",
			"Facture "+inv.Number+" : paiement de "+in.Amount.StringFixed(2))
	}
	return payment, nil
}

// List returns the payments recorded against one invoice, oldest first.
func (s *PaymentService) List(companyID, invoiceID uint) ([]models.Payment, error) {
	var payments []models.Payment
	err := s.DB.Where("company_id = ? AND invoice_id = ?", companyID, invoiceID).
		Order("id asc").Find(&payments).Error
	return payments, err
}
