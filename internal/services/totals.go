package services

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/kairostudio/backoffice/internal/billing"
	"github.com/kairostudio/backoffice/internal/models"
)

// vatDetailEntry is the persisted snapshot of one VAT bucket, stored as
// JSON on the document for display without recomputation.
type vatDetailEntry struct {
	Rate   string `json:"rate"`
	Base   string `json:"base"`
	Amount string `json:"amount"`
}

func vatDetailJSON(totals billing.DocumentTotals) string {
	entries := make([]vatDetailEntry, 0, len(totals.VATBuckets))
	for _, b := range totals.VATBuckets {
		entries = append(entries, vatDetailEntry{Rate: b.Rate.String(), Base: b.Base.String(), Amount: b.Amount.String()})
	}
	buf, err := json.Marshal(entries)
	if err != nil {
		return "[]"
	}
	return string(buf)
}

// parseVATDetail restores the persisted bucket snapshot. Unreadable
// snapshots yield no buckets; callers needing exact figures recompute.
func parseVATDetail(raw string) []billing.VATBucket {
	var entries []vatDetailEntry
	if err := json.Unmarshal([]byte(raw), &entries); err != nil {
		return nil
	}
	buckets := make([]billing.VATBucket, 0, len(entries))
	for _, e := range entries {
		rate, err1 := decimal.NewFromString(e.Rate)
		base, err2 := decimal.NewFromString(e.Base)
		amount, err3 := decimal.NewFromString(e.Amount)
		if err1 != nil || err2 != nil || err3 != nil {
			continue
		}
		buckets = append(buckets, billing.VATBucket{Rate: rate, Base: base, Amount: amount})
	}
	return buckets
}

// QuoteTotalsSnapshot rebuilds DocumentTotals from the columns persisted at
// save time, for consumers (PDF) that must not recompute business rules.
func QuoteTotalsSnapshot(q *models.Quote) billing.DocumentTotals {
	return billing.DocumentTotals{
		Subtotal:        q.Subtotal,
		DiscountPercent: q.DiscountPercent,
		DiscountAmount:  q.DiscountAmount,
		TotalHT:         q.TotalHT,
		VATBuckets:      parseVATDetail(q.VATDetail),
		TotalTTC:        q.TotalTTC,
	}
}

// InvoiceTotalsSnapshot mirrors QuoteTotalsSnapshot for invoices.
func InvoiceTotalsSnapshot(inv *models.Invoice) billing.DocumentTotals {
	return billing.DocumentTotals{
		Subtotal:        inv.Subtotal,
		DiscountPercent: inv.DiscountPercent,
		DiscountAmount:  inv.DiscountAmount,
		TotalHT:         inv.TotalHT,
		VATBuckets:      parseVATDetail(inv.VATDetail),
		TotalTTC:        inv.TotalTTC,
	}
}

// nextNumber builds a per-company yearly serial like DEV-2026-0004.
func nextNumber(tx *gorm.DB, model any, prefix string, companyID uint, now time.Time) (string, error) {
	var count int64
	yearStart := time.Date(now.Year(), 1, 1, 0, 0, 0, 0, time.UTC)
	if err := tx.Model(model).Where("company_id = ? AND created_at >= ?", companyID, yearStart).Count(&count).Error; err != nil {
		return "", err
	}
	return fmt.Sprintf("%s-%d-%04d", prefix, now.Year(), count+1), nil
}
