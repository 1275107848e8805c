// Package pdf lays out quotes and invoices as paginated PDF documents.
// It is purely presentational: it consumes already-computed totals and
// never recomputes business rules. Each table row is one maroto row, so
// rows are never split across page breaks.
package pdf

import (
	"bytes"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"os"
	"strings"

	"github.com/johnfercher/maroto/v2"
	"github.com/johnfercher/maroto/v2/pkg/components/col"
	imagecomp "github.com/johnfercher/maroto/v2/pkg/components/image"
	"github.com/johnfercher/maroto/v2/pkg/components/line"
	"github.com/johnfercher/maroto/v2/pkg/components/row"
	"github.com/johnfercher/maroto/v2/pkg/components/text"
	"github.com/johnfercher/maroto/v2/pkg/config"
	"github.com/johnfercher/maroto/v2/pkg/consts/align"
	"github.com/johnfercher/maroto/v2/pkg/consts/extension"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontstyle"
	"github.com/johnfercher/maroto/v2/pkg/core"
	"github.com/johnfercher/maroto/v2/pkg/props"
	"github.com/shopspring/decimal"

	"github.com/kairostudio/backoffice/internal/billing"
	"github.com/kairostudio/backoffice/internal/i18n"
)

// Party is an address block (the company or the client).
type Party struct {
	Name      string
	Address   string
	City      string
	Country   string
	Phone     string
	Email     string
	VATNumber string
}

// CompanyBlock adds the header identity to a Party.
type CompanyBlock struct {
	Party
	Initials    string // placeholder when the logo cannot be loaded
	LogoPath    string
	LegalFooter string
}

// Line is one printed table row.
type Line struct {
	Designation     string
	Description     string
	Unit            string
	Quantity        decimal.Decimal
	UnitPrice       decimal.Decimal
	VATRate         decimal.Decimal
	DiscountPercent decimal.Decimal
	TotalHT         decimal.Decimal
}

// Section groups lines under a title with a printed subtotal.
type Section struct {
	Title    string
	Lines    []Line
	Subtotal decimal.Decimal
}

// Document is everything the renderer needs, fully computed upstream.
type Document struct {
	Title    string // "Devis" or "Facture"
	Number   string
	Date     string
	DueLabel string // "Valable jusqu'au" / "Échéance"
	DueDate  string
	Company  CompanyBlock
	Client   Party
	Sections []Section
	Totals   billing.DocumentTotals
	// invoice ledger block, nil for quotes
	AmountPaid *decimal.Decimal
	AmountDue  *decimal.Decimal
	Notes      string
}

const (
	colDesignation = 5
	colQty         = 2
	colUnitPrice   = 2
	colVAT         = 1
	colTotal       = 2
)

// Render produces the PDF bytes.
func Render(doc Document) ([]byte, error) {
	cfg := config.NewBuilder().
		WithLeftMargin(12).
		WithTopMargin(14).
		WithRightMargin(12).
		Build()
	m := maroto.New(cfg)

	if err := m.RegisterHeader(headerRow(doc)); err != nil {
		return nil, err
	}

	m.AddRows(partiesRows(doc)...)
	m.AddRows(tableHeaderRow())
	for _, section := range doc.Sections {
		m.AddRows(sectionRows(section)...)
	}
	m.AddRows(totalsRows(doc)...)
	if doc.Notes != "" {
		m.AddRow(6)
		m.AddRow(8, text.NewCol(12, doc.Notes, props.Text{Size: 8}))
	}
	if doc.Company.LegalFooter != "" {
		m.AddRow(10)
		m.AddRow(6, text.NewCol(12, doc.Company.LegalFooter, props.Text{Size: 7, Align: align.Center}))
	}

	generated, err := m.Generate()
	if err != nil {
		return nil, err
	}
	return generated.GetBytes(), nil
}

// headerRow prints the company identity with its logo, or the initials
// placeholder when the image cannot be loaded or decoded. A broken logo
// never fails the whole document.
func headerRow(doc Document) core.Row {
	r := row.New(18)
	r.Add(logoCol(doc.Company))
	r.Add(col.New(6).Add(
		text.New(doc.Company.Name, props.Text{Size: 12, Style: fontstyle.Bold}),
		text.New(doc.Company.Address+" — "+doc.Company.City, props.Text{Top: 6, Size: 8}),
		text.New(doc.Company.Phone+"  "+doc.Company.Email, props.Text{Top: 10, Size: 8}),
	))
	r.Add(col.New(3).Add(
		text.New(doc.Title+" "+doc.Number, props.Text{Size: 11, Style: fontstyle.Bold, Align: align.Right}),
		text.New(doc.Date, props.Text{Top: 6, Size: 8, Align: align.Right}),
	))
	return r
}

func logoCol(company CompanyBlock) core.Col {
	if data, ext, ok := loadLogo(company.LogoPath); ok {
		return imagecomp.NewFromBytesCol(3, data, ext, props.Rect{Center: false, Percent: 90})
	}
	return col.New(3).Add(text.New(company.Initials, props.Text{Size: 16, Style: fontstyle.Bold}))
}

// loadLogo reads and sanity-decodes the logo. Any failure (missing file,
// unsupported format, corrupt image) selects the placeholder.
func loadLogo(path string) ([]byte, extension.Type, bool) {
	if path == "" {
		return nil, "", false
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, "", false
	}
	if _, _, err := image.Decode(bytes.NewReader(data)); err != nil {
		return nil, "", false
	}
	switch {
	case strings.HasSuffix(strings.ToLower(path), ".png"):
		return data, extension.Png, true
	case strings.HasSuffix(strings.ToLower(path), ".jpg"), strings.HasSuffix(strings.ToLower(path), ".jpeg"):
		return data, extension.Jpg, true
	}
	return nil, "", false
}

func partiesRows(doc Document) []core.Row {
	rows := []core.Row{row.New(4)}
	client := row.New(16)
	client.Add(col.New(7).Add(
		text.New("Client", props.Text{Size: 8, Style: fontstyle.Bold}),
		text.New(doc.Client.Name, props.Text{Top: 4, Size: 9}),
		text.New(doc.Client.Address+" — "+doc.Client.City, props.Text{Top: 8, Size: 8}),
		text.New(doc.Client.Email, props.Text{Top: 12, Size: 8}),
	))
	if doc.DueDate != "" {
		client.Add(col.New(5).Add(
			text.New(doc.DueLabel+" : "+doc.DueDate, props.Text{Size: 8, Align: align.Right}),
		))
	}
	rows = append(rows, client, row.New(4))
	return rows
}

func tableHeaderRow() core.Row {
	r := row.New(7)
	r.Add(
		text.NewCol(colDesignation, "Désignation", props.Text{Size: 8, Style: fontstyle.Bold}),
		text.NewCol(colQty, "Qté", props.Text{Size: 8, Style: fontstyle.Bold, Align: align.Right}),
		text.NewCol(colUnitPrice, "PU HT", props.Text{Size: 8, Style: fontstyle.Bold, Align: align.Right}),
		text.NewCol(colVAT, "TVA", props.Text{Size: 8, Style: fontstyle.Bold, Align: align.Right}),
		text.NewCol(colTotal, "Total HT", props.Text{Size: 8, Style: fontstyle.Bold, Align: align.Right}),
	)
	return r
}

func sectionRows(section Section) []core.Row {
	rows := make([]core.Row, 0, len(section.Lines)+2)
	if section.Title != "" {
		rows = append(rows, row.New(7).Add(
			text.NewCol(12, section.Title, props.Text{Size: 9, Style: fontstyle.Bold}),
		))
	}
	for _, l := range section.Lines {
		designation := l.Designation
		if l.Description != "" {
			designation += " — " + l.Description
		}
		qty := l.Quantity.String()
		if l.Unit != "" {
			qty += " " + l.Unit
		}
		r := row.New(6)
		r.Add(
			text.NewCol(colDesignation, designation, props.Text{Size: 8}),
			text.NewCol(colQty, qty, props.Text{Size: 8, Align: align.Right}),
			text.NewCol(colUnitPrice, i18n.FormatNumber(l.UnitPrice), props.Text{Size: 8, Align: align.Right}),
			text.NewCol(colVAT, i18n.FormatPercent(l.VATRate), props.Text{Size: 8, Align: align.Right}),
			text.NewCol(colTotal, i18n.FormatNumber(l.TotalHT), props.Text{Size: 8, Align: align.Right}),
		)
		rows = append(rows, r)
	}
	if section.Title != "" {
		rows = append(rows, row.New(6).Add(
			text.NewCol(10, "Sous-total "+section.Title, props.Text{Size: 8, Style: fontstyle.Italic, Align: align.Right}),
			text.NewCol(2, i18n.FormatNumber(section.Subtotal), props.Text{Size: 8, Style: fontstyle.Italic, Align: align.Right}),
		))
	}
	return rows
}

func totalsRows(doc Document) []core.Row {
	t := doc.Totals
	rows := []core.Row{line.NewRow(4)}
	add := func(label, value string, bold bool) {
		style := fontstyle.Normal
		if bold {
			style = fontstyle.Bold
		}
		rows = append(rows, row.New(5).Add(
			text.NewCol(9, label, props.Text{Size: 8, Style: style, Align: align.Right}),
			text.NewCol(3, value, props.Text{Size: 8, Style: style, Align: align.Right}),
		))
	}
	add("Total HT avant remise", i18n.FormatMoney(t.Subtotal), false)
	if t.DiscountAmount.IsPositive() {
		add("Remise ("+i18n.FormatPercent(t.DiscountPercent)+")", "-"+i18n.FormatMoney(t.DiscountAmount), false)
	}
	add("Total HT", i18n.FormatMoney(t.TotalHT), true)
	for _, b := range t.VATBuckets {
		add("TVA "+i18n.FormatPercent(b.Rate)+" (base "+i18n.FormatNumber(b.Base)+")", i18n.FormatMoney(b.Amount), false)
	}
	add("Total TTC", i18n.FormatMoney(t.TotalTTC), true)
	if doc.AmountPaid != nil && doc.AmountDue != nil {
		add("Déjà réglé", i18n.FormatMoney(*doc.AmountPaid), false)
		add("Reste à payer", i18n.FormatMoney(*doc.AmountDue), true)
	}
	return rows
}
