package services

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/kairostudio/backoffice/internal/billing"
	"github.com/kairostudio/backoffice/internal/models"
)

// InvoiceService owns invoice totals, numbering, conversion from accepted
// quotes and the status lifecycle. Payments are applied by PaymentService.
type InvoiceService struct{ DB *gorm.DB }

func NewInvoiceService(db *gorm.DB) *InvoiceService { return &InvoiceService{DB: db} }

// BillingLines maps stored invoice lines to the computation input.
func BillingLines(inv *models.Invoice) []billing.LineItem {
	lines := make([]billing.LineItem, 0, len(inv.Lines))
	for _, l := range inv.Lines {
		lines = append(lines, billing.LineItem{
			Designation:     l.Designation,
			Description:     l.Description,
			Quantity:        l.Quantity,
			Unit:            l.Unit,
			UnitPrice:       l.UnitPrice,
			VATRate:         l.VATRate,
			DiscountPercent: l.DiscountPercent,
			Position:        l.Position,
		})
	}
	return lines
}

// Recompute validates lines and writes totals snapshots onto the model.
// AmountDue tracks the ledger: total TTC minus what was already paid.
func (s *InvoiceService) Recompute(inv *models.Invoice) (billing.DocumentTotals, error) {
	for i := range inv.Lines {
		l := &inv.Lines[i]
		item := billing.LineItem{
			Designation:     l.Designation,
			Quantity:        l.Quantity,
			UnitPrice:       l.UnitPrice,
			VATRate:         l.VATRate,
			DiscountPercent: l.DiscountPercent,
		}
		if err := item.Validate(); err != nil {
			return billing.DocumentTotals{}, err
		}
		l.TotalHT = item.TotalHT()
	}
	totals := billing.ComputeDocumentTotals(BillingLines(inv), inv.DiscountPercent)
	inv.Subtotal = totals.Subtotal
	inv.DiscountAmount = totals.DiscountAmount
	inv.TotalHT = totals.TotalHT
	inv.TotalTTC = totals.TotalTTC
	inv.VATDetail = vatDetailJSON(totals)
	inv.AmountDue = totals.TotalTTC.Sub(inv.AmountPaid)
	return totals, nil
}

// Create persists a new draft invoice with its ledger initialised:
// amount_paid = 0, amount_due = total TTC.
func (s *InvoiceService) Create(inv *models.Invoice) error {
	inv.AmountPaid = decimal.Zero
	if _, err := s.Recompute(inv); err != nil {
		return err
	}
	if inv.Status == "" {
		inv.Status = models.InvoiceStatusDraft
	}
	if inv.Type == "" {
		inv.Type = models.InvoiceTypeFinal
	}
	if inv.IssueDate.IsZero() {
		inv.IssueDate = time.Now()
	}
	return s.DB.Transaction(func(tx *gorm.DB) error {
		if inv.Number == "" {
			number, err := nextNumber(tx, &models.Invoice{}, "FAC", inv.CompanyID, time.Now())
			if err != nil {
				return err
			}
			inv.Number = number
		}
		return tx.Create(inv).Error
	})
}

// Update replaces the invoice's lines wholesale and persists the
// recomputed snapshots. Only drafts are editable, which the callers
// enforce; drafts carry no payments so amount_paid stays zero.
func (s *InvoiceService) Update(inv *models.Invoice) error {
	if _, err := s.Recompute(inv); err != nil {
		return err
	}
	return s.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("invoice_id = ?", inv.ID).Delete(&models.InvoiceLine{}).Error; err != nil {
			return err
		}
		for i := range inv.Lines {
			inv.Lines[i].ID = 0
			inv.Lines[i].InvoiceID = inv.ID
		}
		return tx.Session(&gorm.Session{FullSaveAssociations: true}).Save(inv).Error
	})
}

// ConvertQuote builds an invoice from an accepted quote, flattening its
// sections into a single line list, and links the two documents.
func (s *InvoiceService) ConvertQuote(q *models.Quote, invoiceType string) (*models.Invoice, error) {
	if q.Status != models.QuoteStatusAccepted {
		return nil, &billing.ValidationError{Field: "status", Code: "quote_not_accepted"}
	}
	if q.ConvertedInvoiceID != 0 {
		return nil, &billing.ValidationError{Field: "quote_id", Code: "already_converted"}
	}
	inv := &models.Invoice{
		CompanyID:       q.CompanyID,
		ClientID:        q.ClientID,
		ProjectID:       q.ProjectID,
		QuoteID:         q.ID,
		Type:            invoiceType,
		DiscountPercent: q.DiscountPercent,
	}
	position := 0
	for _, section := range q.Sections {
		for _, l := range section.Lines {
			inv.Lines = append(inv.Lines, models.InvoiceLine{
				Designation:     l.Designation,
				Description:     l.Description,
				Quantity:        l.Quantity,
				Unit:            l.Unit,
				UnitPrice:       l.UnitPrice,
				VATRate:         l.VATRate,
				DiscountPercent: l.DiscountPercent,
				Position:        position,
			})
			position++
		}
	}
	if err := s.Create(inv); err != nil {
		return nil, err
	}
	if err := s.DB.Model(q).Update("converted_invoice_id", inv.ID).Error; err != nil {
		return nil, err
	}
	q.ConvertedInvoiceID = inv.ID
	return inv, nil
}

var invoiceTransitions = map[string][]string{
	models.InvoiceStatusDraft:   {models.InvoiceStatusSent, models.InvoiceStatusCancelled},
	models.InvoiceStatusSent:    {models.InvoiceStatusPaid, models.InvoiceStatusOverdue, models.InvoiceStatusCancelled},
	models.InvoiceStatusOverdue: {models.InvoiceStatusPaid, models.InvoiceStatusCancelled},
}

// Transition moves the invoice to the next status. Invoices are never
// deleted; cancellation is the terminal negative state.
func (s *InvoiceService) Transition(inv *models.Invoice, next string) error {
	for _, allowed := range invoiceTransitions[inv.Status] {
		if allowed == next {
			inv.Status = next
			return s.DB.Model(inv).Update("status", next).Error
		}
	}
	return &billing.ValidationError{Field: "status", Code: "invalid_transition"}
}

// OverdueSweep marks sent invoices past their due date as overdue.
func (s *InvoiceService) OverdueSweep(now time.Time) error {
	return s.DB.Model(&models.Invoice{}).
		Where("status = ? AND due_date IS NOT NULL AND due_date < ?", models.InvoiceStatusSent, now).
		Update("status", models.InvoiceStatusOverdue).Error
}
