package pdf

import (
	"bytes"
	"os"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/kairostudio/backoffice/internal/billing"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func sampleDocument() Document {
	lines := []billing.LineItem{
		{Designation: "Conception salon", Quantity: dec("1"), UnitPrice: dec("500000"), VATRate: dec("18")},
		{Designation: "Pose parquet", Quantity: dec("35"), UnitPrice: dec("12000"), VATRate: dec("18")},
	}
	totals := billing.ComputeDocumentTotals(lines, decimal.Zero)
	return Document{
		Title:  "Devis",
		Number: "DEV-2026-0001",
		Date:   "15/02/2026",
		Company: CompanyBlock{
			Party:    Party{Name: "Atelier Teranga", Address: "12 rue des Almadies", City: "Dakar", Phone: "+221 77 000 00 00", Email: "contact@atelier.sn"},
			Initials: "AT",
		},
		Client: Party{Name: "Résidence Ngor", Address: "Route de Ngor", City: "Dakar"},
		Sections: []Section{{
			Title: "Salon",
			Lines: []Line{
				{Designation: "Conception salon", Quantity: dec("1"), Unit: "forfait", UnitPrice: dec("500000"), VATRate: dec("18"), TotalHT: dec("500000")},
				{Designation: "Pose parquet", Quantity: dec("35"), Unit: "m²", UnitPrice: dec("12000"), VATRate: dec("18"), TotalHT: dec("420000")},
			},
			Subtotal: dec("920000"),
		}},
		Totals: totals,
	}
}

func TestRenderProducesPDF(t *testing.T) {
	data, err := Render(sampleDocument())
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if len(data) == 0 {
		t.Fatal("empty document")
	}
	if !bytes.HasPrefix(data, []byte("%PDF")) {
		t.Fatalf("not a PDF, first bytes: %q", data[:8])
	}
}

// A missing or corrupt logo selects the initials placeholder and never
// fails the render.
func TestRenderMissingLogoUsesPlaceholder(t *testing.T) {
	doc := sampleDocument()
	doc.Company.LogoPath = "does/not/exist.png"
	data, err := Render(doc)
	if err != nil {
		t.Fatalf("render with missing logo: %v", err)
	}
	if len(data) == 0 {
		t.Fatal("empty document")
	}
}

func TestLoadLogoRejectsCorruptImage(t *testing.T) {
	path := t.TempDir() + "/logo.png"
	if err := os.WriteFile(path, []byte("not an image"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, _, ok := loadLogo(path); ok {
		t.Fatal("corrupt image must not load")
	}
}

func TestInvoiceDocumentCarriesLedgerBlock(t *testing.T) {
	doc := sampleDocument()
	paid, due := dec("400"), dec("600")
	doc.AmountPaid, doc.AmountDue = &paid, &due
	data, err := Render(doc)
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if len(data) == 0 {
		t.Fatal("empty document")
	}
}
