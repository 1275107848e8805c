package billing

import (
	"testing"

	"github.com/shopspring/decimal"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func line(designation string, qty, price, vat, discount string) LineItem {
	return LineItem{
		Designation:     designation,
		Quantity:        dec(qty),
		UnitPrice:       dec(price),
		VATRate:         dec(vat),
		DiscountPercent: dec(discount),
	}
}

func TestComputeLineTotal(t *testing.T) {
	tests := []struct {
		name                 string
		qty, price, discount string
		want                 string
	}{
		{"no discount", "2", "100", "0", "200"},
		{"zero quantity", "0", "100", "0", "0"},
		{"zero price", "5", "0", "0", "0"},
		{"half discount", "1", "100", "50", "50"},
		{"full discount", "3", "80", "100", "0"},
		{"discount above 100 clamped", "1", "100", "250", "0"},
		{"negative discount clamped", "1", "100", "-10", "100"},
		{"fractional quantity", "2.5", "19.99", "0", "49.98"},
		{"rounding to cents", "3", "0.333", "0", "1"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ComputeLineTotal(dec(tt.qty), dec(tt.price), dec(tt.discount))
			if !got.Equal(dec(tt.want)) {
				t.Fatalf("ComputeLineTotal(%s,%s,%s) = %s, want %s", tt.qty, tt.price, tt.discount, got, tt.want)
			}
		})
	}
}

func TestLineItemValidate(t *testing.T) {
	tests := []struct {
		name      string
		item      LineItem
		wantField string
	}{
		{"valid", line("Pose parquet", "2", "100", "18", "0"), ""},
		{"missing designation", line("  ", "1", "10", "18", "0"), "designation"},
		{"negative quantity", line("x", "-1", "10", "18", "0"), "quantity"},
		{"negative price", line("x", "1", "-10", "18", "0"), "unit_price"},
		{"negative vat", line("x", "1", "10", "-18", "0"), "vat_rate"},
		{"discount out of range", line("x", "1", "10", "18", "101"), "discount_percent"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.item.Validate()
			if tt.wantField == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			ve, ok := err.(*ValidationError)
			if !ok {
				t.Fatalf("expected ValidationError, got %v", err)
			}
			if ve.Field != tt.wantField {
				t.Fatalf("field = %q, want %q", ve.Field, tt.wantField)
			}
		})
	}
}

// Example scenario: one line {qty=2, price=100, vat=20%} without discount.
func TestDocumentTotalsSingleLine(t *testing.T) {
	totals := ComputeDocumentTotals([]LineItem{line("Conception", "2", "100", "20", "0")}, decimal.Zero)
	if !totals.Subtotal.Equal(dec("200")) {
		t.Fatalf("subtotal = %s, want 200", totals.Subtotal)
	}
	if !totals.TotalHT.Equal(dec("200")) {
		t.Fatalf("total HT = %s, want 200", totals.TotalHT)
	}
	if len(totals.VATBuckets) != 1 || !totals.VATBuckets[0].Amount.Equal(dec("40")) {
		t.Fatalf("vat buckets = %+v, want one bucket of 40", totals.VATBuckets)
	}
	if !totals.TotalTTC.Equal(dec("240")) {
		t.Fatalf("total TTC = %s, want 240", totals.TotalTTC)
	}
}

// Example scenario: two rates plus a 10% global discount. The discount
// factor is applied to each line's taxable base before VAT bucketing.
func TestDocumentTotalsGlobalDiscountTwoRates(t *testing.T) {
	lines := []LineItem{
		line("Études", "1", "1000", "10", "0"),
		line("Mobilier", "1", "500", "20", "0"),
	}
	totals := ComputeDocumentTotals(lines, dec("10"))
	if !totals.Subtotal.Equal(dec("1500")) {
		t.Fatalf("subtotal = %s, want 1500", totals.Subtotal)
	}
	if !totals.DiscountAmount.Equal(dec("150")) {
		t.Fatalf("discount = %s, want 150", totals.DiscountAmount)
	}
	if !totals.TotalHT.Equal(dec("1350")) {
		t.Fatalf("total HT = %s, want 1350", totals.TotalHT)
	}
	if len(totals.VATBuckets) != 2 {
		t.Fatalf("expected 2 buckets, got %d", len(totals.VATBuckets))
	}
	b10, b20 := totals.VATBuckets[0], totals.VATBuckets[1]
	if !b10.Rate.Equal(dec("10")) || !b10.Base.Equal(dec("900")) || !b10.Amount.Equal(dec("90")) {
		t.Fatalf("bucket 10%% = %+v, want base 900 amount 90", b10)
	}
	if !b20.Rate.Equal(dec("20")) || !b20.Base.Equal(dec("450")) || !b20.Amount.Equal(dec("90")) {
		t.Fatalf("bucket 20%% = %+v, want base 450 amount 90", b20)
	}
	if !totals.TotalTTC.Equal(dec("1530")) {
		t.Fatalf("total TTC = %s, want 1530", totals.TotalTTC)
	}
}

func TestDocumentTotalsEmpty(t *testing.T) {
	totals := ComputeDocumentTotals(nil, decimal.Zero)
	if !totals.Subtotal.IsZero() || !totals.TotalHT.IsZero() || !totals.TotalTTC.IsZero() {
		t.Fatalf("empty line list should yield zero totals, got %+v", totals)
	}
	if len(totals.VATBuckets) != 0 {
		t.Fatalf("empty line list should yield no buckets, got %d", len(totals.VATBuckets))
	}
}

func TestDocumentTotalsZeroRateBucket(t *testing.T) {
	totals := ComputeDocumentTotals([]LineItem{line("Export", "1", "100", "0", "0")}, decimal.Zero)
	if len(totals.VATBuckets) != 1 {
		t.Fatalf("a zero rate still gets its bucket, got %d", len(totals.VATBuckets))
	}
	if !totals.VATBuckets[0].Amount.IsZero() {
		t.Fatalf("zero-rate bucket amount = %s, want 0", totals.VATBuckets[0].Amount)
	}
	if !totals.TotalTTC.Equal(totals.TotalHT) {
		t.Fatalf("TTC %s should equal HT %s with no VAT", totals.TotalTTC, totals.TotalHT)
	}
}

// Subtotal additivity: partitioning lines into sections never changes totals.
func TestSectionPartitionIndependence(t *testing.T) {
	a := line("A", "2", "150", "18", "0")
	b := line("B", "1", "99.90", "18", "10")
	c := line("C", "4", "25", "10", "0")

	flat := ComputeDocumentTotals([]LineItem{a, b, c}, dec("5"))
	grouped := ComputeQuoteTotals([]Section{
		{Title: "Salon", Lines: []LineItem{a}},
		{Title: "Cuisine", Lines: []LineItem{b, c}},
	}, dec("5"))

	if !flat.Subtotal.Equal(grouped.Subtotal) || !flat.TotalHT.Equal(grouped.TotalHT) || !flat.TotalTTC.Equal(grouped.TotalTTC) {
		t.Fatalf("grouping changed totals: flat=%+v grouped=%+v", flat, grouped)
	}
}

func TestSectionSubtotal(t *testing.T) {
	s := Section{Lines: []LineItem{
		line("A", "2", "100", "18", "0"),
		line("B", "1", "50", "18", "0"),
	}}
	if !s.Subtotal().Equal(dec("250")) {
		t.Fatalf("section subtotal = %s, want 250", s.Subtotal())
	}
}

// TTC ≥ HT ≥ 0 for any non-negative inputs.
func TestTTCNeverBelowHT(t *testing.T) {
	cases := [][]LineItem{
		nil,
		{line("A", "1", "0.01", "18", "0")},
		{line("A", "7", "123.45", "18", "33"), line("B", "2", "9.99", "0", "0")},
		{line("A", "1", "1000", "20", "100")},
	}
	discounts := []string{"0", "10", "100"}
	for _, lines := range cases {
		for _, d := range discounts {
			totals := ComputeDocumentTotals(lines, dec(d))
			if totals.TotalHT.IsNegative() {
				t.Fatalf("total HT negative: %+v", totals)
			}
			if totals.TotalTTC.LessThan(totals.TotalHT) {
				t.Fatalf("TTC %s < HT %s", totals.TotalTTC, totals.TotalHT)
			}
		}
	}
}

// Idempotence: recomputing from the same lines yields identical results.
func TestRecomputationIdempotent(t *testing.T) {
	lines := []LineItem{
		line("A", "3", "333.33", "18", "5"),
		line("B", "1.5", "80", "10", "0"),
	}
	first := ComputeDocumentTotals(lines, dec("7"))
	second := ComputeDocumentTotals(lines, dec("7"))
	if !first.TotalTTC.Equal(second.TotalTTC) || !first.TotalHT.Equal(second.TotalHT) {
		t.Fatalf("recomputation drifted: %+v vs %+v", first, second)
	}
	if len(first.VATBuckets) != len(second.VATBuckets) {
		t.Fatalf("bucket count drifted")
	}
	for i := range first.VATBuckets {
		if !first.VATBuckets[i].Amount.Equal(second.VATBuckets[i].Amount) ||
			!first.VATBuckets[i].Rate.Equal(second.VATBuckets[i].Rate) {
			t.Fatalf("bucket %d drifted: %+v vs %+v", i, first.VATBuckets[i], second.VATBuckets[i])
		}
	}
}
