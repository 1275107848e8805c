package services

import (
	"time"

	"gorm.io/gorm"

	"github.com/kairostudio/backoffice/internal/billing"
	"github.com/kairostudio/backoffice/internal/models"
)

// QuoteService owns quote totals recomputation, persistence and the
// status lifecycle. Totals are always derived from the lines through the
// billing core; the stored columns are snapshots.
type QuoteService struct{ DB *gorm.DB }

func NewQuoteService(db *gorm.DB) *QuoteService { return &QuoteService{DB: db} }

// BillingSections maps the stored sections to the computation input.
func BillingSections(q *models.Quote) []billing.Section {
	sections := make([]billing.Section, 0, len(q.Sections))
	for _, s := range q.Sections {
		bs := billing.Section{Title: s.Title, Position: s.Position}
		for _, l := range s.Lines {
			bs.Lines = append(bs.Lines, billing.LineItem{
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
		sections = append(sections, bs)
	}
	return sections
}

// Recompute validates every line, recomputes the line and document totals
// and writes the snapshots onto the model. Fails fast on the first invalid
// line with a billing.ValidationError.
func (s *QuoteService) Recompute(q *models.Quote) (billing.DocumentTotals, error) {
	for si := range q.Sections {
		for li := range q.Sections[si].Lines {
			l := &q.Sections[si].Lines[li]
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
	}
	totals := billing.ComputeQuoteTotals(BillingSections(q), q.DiscountPercent)
	q.Subtotal = totals.Subtotal
	q.DiscountAmount = totals.DiscountAmount
	q.TotalHT = totals.TotalHT
	q.TotalTTC = totals.TotalTTC
	q.VATDetail = vatDetailJSON(totals)
	return totals, nil
}

// Create recomputes totals, assigns a number and persists the quote with
// its sections and lines in one transaction.
func (s *QuoteService) Create(q *models.Quote) error {
	if _, err := s.Recompute(q); err != nil {
		return err
	}
	if q.Status == "" {
		q.Status = models.QuoteStatusDraft
	}
	return s.DB.Transaction(func(tx *gorm.DB) error {
		if q.Number == "" {
			number, err := nextNumber(tx, &models.Quote{}, "DEV", q.CompanyID, time.Now())
			if err != nil {
				return err
			}
			q.Number = number
		}
		return tx.Create(q).Error
	})
}

// Update replaces the quote's sections and lines wholesale and persists the
// recomputed snapshots. Replacing avoids diffing edited rows.
func (s *QuoteService) Update(q *models.Quote) error {
	if _, err := s.Recompute(q); err != nil {
		return err
	}
	return s.DB.Transaction(func(tx *gorm.DB) error {
		var sectionIDs []uint
		if err := tx.Model(&models.QuoteSection{}).Where("quote_id = ?", q.ID).Pluck("id", &sectionIDs).Error; err != nil {
			return err
		}
		if len(sectionIDs) > 0 {
			if err := tx.Where("section_id IN ?", sectionIDs).Delete(&models.QuoteLine{}).Error; err != nil {
				return err
			}
			if err := tx.Where("quote_id = ?", q.ID).Delete(&models.QuoteSection{}).Error; err != nil {
				return err
			}
		}
		for i := range q.Sections {
			q.Sections[i].ID = 0
			q.Sections[i].QuoteID = q.ID
			for j := range q.Sections[i].Lines {
				q.Sections[i].Lines[j].ID = 0
				q.Sections[i].Lines[j].SectionID = 0
			}
		}
		return tx.Session(&gorm.Session{FullSaveAssociations: true}).Save(q).Error
	})
}

// quote status transitions
var quoteTransitions = map[string][]string{
	models.QuoteStatusDraft: {models.QuoteStatusSent},
	models.QuoteStatusSent:  {models.QuoteStatusAccepted, models.QuoteStatusRejected, models.QuoteStatusExpired},
}

// Transition moves the quote along draft → sent → accepted|rejected|expired.
func (s *QuoteService) Transition(q *models.Quote, next string) error {
	for _, allowed := range quoteTransitions[q.Status] {
		if allowed == next {
			q.Status = next
			return s.DB.Model(q).Update("status", next).Error
		}
	}
	return &billing.ValidationError{Field: "status", Code: "invalid_transition"}
}

// ExpireSweep marks sent quotes past their validity date as expired.
func (s *QuoteService) ExpireSweep(now time.Time) error {
	return s.DB.Model(&models.Quote{}).
		Where("status = ? AND valid_until IS NOT NULL AND valid_until < ?", models.QuoteStatusSent, now).
		Update("status", models.QuoteStatusExpired).Error
}
