package billing

import (
	"sort"

	"github.com/shopspring/decimal"
)

// VATBucket is the accumulated tax for one VAT rate across all lines
// carrying that rate. Base is the discounted taxable base.
type VATBucket struct {
	Rate   decimal.Decimal
	Base   decimal.Decimal
	Amount decimal.Decimal
}

// DocumentTotals is the shared totals shape for quotes and invoices.
// VATBuckets are sorted by ascending rate so recomputation from the same
// line set yields identical output.
type DocumentTotals struct {
	Subtotal        decimal.Decimal
	DiscountPercent decimal.Decimal
	DiscountAmount  decimal.Decimal
	TotalHT         decimal.Decimal
	VATBuckets      []VATBucket
	TotalTTC        decimal.Decimal
}

// TotalVAT is the sum of all bucket amounts.
func (t DocumentTotals) TotalVAT() decimal.Decimal {
	sum := decimal.Zero
	for _, b := range t.VATBuckets {
		sum = sum.Add(b.Amount)
	}
	return sum
}

// ComputeDocumentTotals computes subtotal, global discount, net HT, per-rate
// VAT buckets and TTC from a flat list of lines.
//
// The global discount factor (1 − gd/100) is applied to each line's taxable
// base before VAT bucketing, so VAT is always charged on what is actually
// billed. The same rule is used for quotes and invoices.
func ComputeDocumentTotals(lines []LineItem, globalDiscountPercent decimal.Decimal) DocumentTotals {
	gd := clampPercent(globalDiscountPercent)
	factor := discountFactor(gd)

	subtotal := decimal.Zero
	// taxable base per distinct rate, before the global discount
	bases := map[string]decimal.Decimal{}
	rates := map[string]decimal.Decimal{}
	for _, l := range lines {
		ht := l.TotalHT()
		subtotal = subtotal.Add(ht)
		key := l.VATRate.String()
		bases[key] = bases[key].Add(ht)
		rates[key] = l.VATRate
	}

	discountAmount := round2(subtotal.Mul(gd).Div(hundred))
	totalHT := subtotal.Sub(discountAmount)

	buckets := make([]VATBucket, 0, len(bases))
	for key, base := range bases {
		rate := rates[key]
		discounted := base.Mul(factor)
		buckets = append(buckets, VATBucket{
			Rate:   rate,
			Base:   round2(discounted),
			Amount: round2(discounted.Mul(rate).Div(hundred)),
		})
	}
	sort.Slice(buckets, func(i, j int) bool { return buckets[i].Rate.LessThan(buckets[j].Rate) })

	totals := DocumentTotals{
		Subtotal:        subtotal,
		DiscountPercent: gd,
		DiscountAmount:  discountAmount,
		TotalHT:         totalHT,
		VATBuckets:      buckets,
	}
	totals.TotalTTC = totalHT.Add(totals.TotalVAT())
	return totals
}

// ComputeQuoteTotals flattens sections and computes document totals.
// Section grouping never changes the result; it only drives presentation.
func ComputeQuoteTotals(sections []Section, globalDiscountPercent decimal.Decimal) DocumentTotals {
	return ComputeDocumentTotals(Flatten(sections), globalDiscountPercent)
}
