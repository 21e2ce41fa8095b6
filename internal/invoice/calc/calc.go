// Package calc computes document totals: line discounts, global
// discount, per-rate VAT over proportionally reduced taxable bases, and
// an optional global tax (negative rates model retentions such as IRPF).
package calc

import (
	"strconv"

	"github.com/facturapro/facturapro/internal/invoice/domain"
)

// VATLine is the aggregated base and tax for one VAT rate.
type VATLine struct {
	Base      float64 `json:"base"`
	VATAmount float64 `json:"vatAmount"`
}

type Result struct {
	GrossTotal           float64            `json:"grossTotal"`
	TotalLineDiscount    float64            `json:"totalLineDiscount"`
	Subtotal             float64            `json:"subtotal"`
	GlobalDiscountAmount float64            `json:"globalDiscountAmount"`
	TaxableBase          float64            `json:"taxableBase"`
	VATBreakdown         map[string]VATLine `json:"vatBreakdown"`
	TotalVAT             float64            `json:"totalVat"`
	GlobalTaxAmount      float64            `json:"globalTaxAmount"`
	Total                float64            `json:"total"`
}

// Totals computes the full breakdown for a set of lines. The global
// discount is spread over the lines proportionally to their discounted
// subtotals before VAT is applied per rate.
func Totals(lines []domain.Line, globalDiscount domain.Discount, globalTaxRate float64) Result {
	result := Result{VATBreakdown: map[string]VATLine{}}
	if len(lines) == 0 {
		return result
	}

	for _, line := range lines {
		lineTotal := line.Quantity * line.UnitPrice
		result.GrossTotal += lineTotal
		result.TotalLineDiscount += discountAmount(line.Discount, lineTotal)
	}
	result.Subtotal = result.GrossTotal - result.TotalLineDiscount

	result.GlobalDiscountAmount = discountAmount(globalDiscount, result.Subtotal)
	result.TaxableBase = result.Subtotal - result.GlobalDiscountAmount

	for _, line := range lines {
		lineTotal := line.Quantity * line.UnitPrice
		lineBase := lineTotal - discountAmount(line.Discount, lineTotal)

		proportional := 0.0
		if result.Subtotal > 0 {
			proportional = lineBase / result.Subtotal * result.GlobalDiscountAmount
		}
		finalBase := lineBase - proportional

		key := rateKey(line.VATRate)
		entry := result.VATBreakdown[key]
		entry.Base += finalBase
		result.VATBreakdown[key] = entry
	}

	for key, entry := range result.VATBreakdown {
		rate, _ := strconv.ParseFloat(key, 64)
		entry.VATAmount = entry.Base * rate / 100
		result.VATBreakdown[key] = entry
		result.TotalVAT += entry.VATAmount
	}

	result.GlobalTaxAmount = result.TaxableBase * globalTaxRate / 100
	result.Total = result.TaxableBase + result.TotalVAT + result.GlobalTaxAmount
	return result
}

func discountAmount(d domain.Discount, base float64) float64 {
	if d.Type == domain.DiscountPercentage {
		return base * d.Value / 100
	}
	return d.Value
}

func rateKey(rate float64) string {
	return strconv.FormatFloat(rate, 'f', -1, 64)
}
