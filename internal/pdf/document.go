package pdf

import (
	"github.com/shopspring/decimal"

	"github.com/kairostudio/backoffice/internal/billing"
	"github.com/kairostudio/backoffice/internal/models"
)

const dateLayout = "02/01/2006"

func companyBlock(c models.Company) CompanyBlock {
	return CompanyBlock{
		Party: Party{
			Name:      c.Name,
			Address:   c.Address,
			City:      c.City,
			Country:   c.Country,
			Phone:     c.Phone,
			Email:     c.Email,
			VATNumber: c.VATNumber,
		},
		Initials:    c.Initials(),
		LogoPath:    c.LogoPath,
		LegalFooter: c.LegalFooter,
	}
}

func clientParty(c models.Client) Party {
	return Party{
		Name:    c.Name,
		Address: c.Address,
		City:    c.City,
		Country: c.Country,
		Phone:   c.Phone,
		Email:   c.Email,
	}
}

func quoteLine(l models.QuoteLine) Line {
	return Line{
		Designation:     l.Designation,
		Description:     l.Description,
		Unit:            l.Unit,
		Quantity:        l.Quantity,
		UnitPrice:       l.UnitPrice,
		VATRate:         l.VATRate,
		DiscountPercent: l.DiscountPercent,
		TotalHT:         l.TotalHT,
	}
}

// QuoteDocument builds the render input for a quote: sections in position
// order with their printed subtotals, totals passed through as computed.
func QuoteDocument(q *models.Quote, company models.Company, client models.Client, totals billing.DocumentTotals) Document {
	doc := Document{
		Title:   "Devis",
		Number:  q.Number,
		Date:    q.CreatedAt.Format(dateLayout),
		Company: companyBlock(company),
		Client:  clientParty(client),
		Totals:  totals,
		Notes:   q.Notes,
	}
	if q.ValidUntil != nil {
		doc.DueLabel = "Valable jusqu'au"
		doc.DueDate = q.ValidUntil.Format(dateLayout)
	}
	for _, s := range q.Sections {
		section := Section{Title: s.Title}
		subtotal := decimal.Zero
		for _, l := range s.Lines {
			section.Lines = append(section.Lines, quoteLine(l))
			subtotal = subtotal.Add(l.TotalHT)
		}
		section.Subtotal = subtotal
		doc.Sections = append(doc.Sections, section)
	}
	return doc
}

// InvoiceDocument builds the render input for an invoice: a single
// untitled section holding the flat line list plus the ledger block.
func InvoiceDocument(inv *models.Invoice, company models.Company, client models.Client, totals billing.DocumentTotals) Document {
	doc := Document{
		Title:   "Facture",
		Number:  inv.Number,
		Date:    inv.IssueDate.Format(dateLayout),
		Company: companyBlock(company),
		Client:  clientParty(client),
		Totals:  totals,
		Notes:   inv.Notes,
	}
	if inv.DueDate != nil {
		doc.DueLabel = "Échéance"
		doc.DueDate = inv.DueDate.Format(dateLayout)
	}
	section := Section{}
	subtotal := decimal.Zero
	for _, l := range inv.Lines {
		section.Lines = append(section.Lines, Line{
			Designation:     l.Designation,
			Description:     l.Description,
			Unit:            l.Unit,
			Quantity:        l.Quantity,
			UnitPrice:       l.UnitPrice,
			VATRate:         l.VATRate,
			DiscountPercent: l.DiscountPercent,
			TotalHT:         l.TotalHT,
		})
		subtotal = subtotal.Add(l.TotalHT)
	}
	section.Subtotal = subtotal
	doc.Sections = append(doc.Sections, section)
	paid, due := inv.AmountPaid, inv.AmountDue
	doc.AmountPaid = &paid
	doc.AmountDue = &due
	return doc
}
