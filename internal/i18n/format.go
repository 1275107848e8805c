package i18n

import (
	"strings"

	"github.com/shopspring/decimal"
)

// FormatMoney renders an amount as a French-locale grouped decimal with the
// FCFA suffix: 1234567.5 -> "1 234 567,50 FCFA". Internal values stay plain
// decimals; this is display only.
func FormatMoney(amount decimal.Decimal) string {
	return FormatNumber(amount) + " FCFA"
}

// FormatNumber applies French grouping and a comma decimal separator, with
// two decimals.
func FormatNumber(amount decimal.Decimal) string {
	s := amount.StringFixed(2)
	neg := strings.HasPrefix(s, "-")
	if neg {
		s = s[1:]
	}
	parts := strings.SplitN(s, ".", 2)
	intPart, fracPart := parts[0], parts[1]

	var b strings.Builder
	if neg {
		b.WriteByte('-')
	}
	lead := len(intPart) % 3
	if lead > 0 {
		b.WriteString(intPart[:lead])
		if len(intPart) > lead {
			b.WriteByte(' ')
		}
	}
	for i := lead; i < len(intPart); i += 3 {
		b.WriteString(intPart[i : i+3])
		if i+3 < len(intPart) {
			b.WriteByte(' ')
		}
	}
	b.WriteByte(',')
	b.WriteString(fracPart)
	return b.String()
}

// FormatPercent renders a percentage with a trimmed fraction: 10 -> "10 %",
// 7.5 -> "7,5 %".
func FormatPercent(p decimal.Decimal) string {
	s := p.String()
	s = strings.ReplaceAll(s, ".", ",")
	return s + " %"
}
