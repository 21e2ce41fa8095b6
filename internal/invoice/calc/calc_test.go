package calc

import (
	"testing"

	"github.com/facturapro/facturapro/internal/invoice/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func line(qty, price, vat float64) domain.Line {
	return domain.Line{
		Description: "servicio",
		Quantity:    qty,
		UnitPrice:   price,
		VATRate:     vat,
		Discount:    domain.Discount{Type: domain.DiscountPercentage},
	}
}

func TestTotalsSimple(t *testing.T) {
	got := Totals([]domain.Line{line(2, 100, 21)}, domain.Discount{Type: domain.DiscountPercentage}, 0)

	assert.InDelta(t, 200, got.GrossTotal, 1e-9)
	assert.InDelta(t, 200, got.Subtotal, 1e-9)
	assert.InDelta(t, 200, got.TaxableBase, 1e-9)
	assert.InDelta(t, 42, got.TotalVAT, 1e-9)
	assert.InDelta(t, 242, got.Total, 1e-9)
}

func TestTotalsLineDiscountPercentage(t *testing.T) {
	l := line(1, 100, 21)
	l.Discount = domain.Discount{Type: domain.DiscountPercentage, Value: 10}

	got := Totals([]domain.Line{l}, domain.Discount{Type: domain.DiscountPercentage}, 0)

	assert.InDelta(t, 10, got.TotalLineDiscount, 1e-9)
	assert.InDelta(t, 90, got.TaxableBase, 1e-9)
	assert.InDelta(t, 18.9, got.TotalVAT, 1e-9)
	assert.InDelta(t, 108.9, got.Total, 1e-9)
}

func TestTotalsLineDiscountAmount(t *testing.T) {
	l := line(3, 50, 21)
	l.Discount = domain.Discount{Type: domain.DiscountAmount, Value: 25}

	got := Totals([]domain.Line{l}, domain.Discount{Type: domain.DiscountPercentage}, 0)

	assert.InDelta(t, 150, got.GrossTotal, 1e-9)
	assert.InDelta(t, 125, got.Subtotal, 1e-9)
}

func TestTotalsGlobalDiscountSpreadProportionally(t *testing.T) {
	lines := []domain.Line{line(1, 100, 21), line(1, 100, 10)}

	got := Totals(lines, domain.Discount{Type: domain.DiscountAmount, Value: 20}, 0)

	assert.InDelta(t, 20, got.GlobalDiscountAmount, 1e-9)
	assert.InDelta(t, 180, got.TaxableBase, 1e-9)

	require.Contains(t, got.VATBreakdown, "21")
	require.Contains(t, got.VATBreakdown, "10")
	assert.InDelta(t, 90, got.VATBreakdown["21"].Base, 1e-9)
	assert.InDelta(t, 18.9, got.VATBreakdown["21"].VATAmount, 1e-9)
	assert.InDelta(t, 90, got.VATBreakdown["10"].Base, 1e-9)
	assert.InDelta(t, 9, got.VATBreakdown["10"].VATAmount, 1e-9)

	assert.InDelta(t, 27.9, got.TotalVAT, 1e-9)
	assert.InDelta(t, 207.9, got.Total, 1e-9)
}

func TestTotalsGlobalDiscountPercentage(t *testing.T) {
	got := Totals([]domain.Line{line(1, 200, 21)}, domain.Discount{Type: domain.DiscountPercentage, Value: 50}, 0)

	assert.InDelta(t, 100, got.GlobalDiscountAmount, 1e-9)
	assert.InDelta(t, 100, got.TaxableBase, 1e-9)
	assert.InDelta(t, 121, got.Total, 1e-9)
}

func TestTotalsNegativeGlobalTaxRetention(t *testing.T) {
	got := Totals([]domain.Line{line(1, 1000, 21)}, domain.Discount{Type: domain.DiscountPercentage}, -15)

	assert.InDelta(t, 210, got.TotalVAT, 1e-9)
	assert.InDelta(t, -150, got.GlobalTaxAmount, 1e-9)
	assert.InDelta(t, 1060, got.Total, 1e-9)
}

func TestTotalsFractionalRateKey(t *testing.T) {
	got := Totals([]domain.Line{line(1, 100, 10.5)}, domain.Discount{Type: domain.DiscountPercentage}, 0)

	require.Contains(t, got.VATBreakdown, "10.5")
	assert.InDelta(t, 10.5, got.TotalVAT, 1e-9)
}

func TestTotalsEmptyLines(t *testing.T) {
	got := Totals(nil, domain.Discount{}, 0)

	assert.Zero(t, got.Total)
	assert.Empty(t, got.VATBreakdown)
}
