package billing_test

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/facturalo/emision-api/internal/domain"
	"github.com/facturalo/emision-api/internal/domain/billing"
	"github.com/facturalo/emision-api/internal/domain/entity"
)

// ──────────────────────────────────────────────────────────────────────────────
// Helpers de test
// ──────────────────────────────────────────────────────────────────────────────

func item(qty, price int64) entity.DocumentItem {
	q := decimal.NewFromInt(qty)
	p := decimal.NewFromInt(price)
	return entity.DocumentItem{
		Quantity:  q,
		UnitPrice: p,
		Total:     q.Mul(p),
	}
}

func ratePtr(r string) *decimal.Decimal {
	d := decimal.RequireFromString(r)
	return &d
}

// ──────────────────────────────────────────────────────────────────────────────
// CalculateTotals
// ──────────────────────────────────────────────────────────────────────────────

// Caso canónico Chile: 2 × $10.000 con IVA 19% en CLP (sin centavos).
func TestCalculateTotals_FacturaChilenaCLP(t *testing.T) {
	items := []entity.DocumentItem{item(2, 10_000)}

	totals, err := billing.CalculateTotals(items, "CL", "CLP")
	require.NoError(t, err)

	assert.True(t, totals.Subtotal.Equal(decimal.NewFromInt(20_000)),
		"subtotal debe ser 20000, fue %s", totals.Subtotal)
	assert.True(t, totals.Tax.Equal(decimal.NewFromInt(3_800)),
		"IVA 19%% de 20000 debe ser 3800, fue %s", totals.Tax)
	assert.True(t, totals.Total.Equal(decimal.NewFromInt(23_800)),
		"total debe ser 23800, fue %s", totals.Total)
}

// El redondeo se aplica una sola vez al final, nunca por línea. Con precios
// fraccionarios, redondear línea a línea acumula deriva que cambia el total.
func TestCalculateTotals_RedondeoUnicoAlFinal(t *testing.T) {
	line := func(total string) entity.DocumentItem {
		return entity.DocumentItem{Total: decimal.RequireFromString(total)}
	}
	// Tres líneas de 33.335: por línea redondearía 33.34 × 3 = 100.02;
	// al final, 100.005 → 100.01 (mitad redondea hacia arriba).
	items := []entity.DocumentItem{line("33.335"), line("33.335"), line("33.335")}

	totals, err := billing.CalculateTotals(items, "ZZ", "USD")
	require.NoError(t, err)

	assert.Equal(t, "100.01", totals.Subtotal.StringFixed(2),
		"la suma exacta 100.005 debe redondearse una vez al final")
	assert.True(t, totals.Tax.IsZero(), "país sin regla de IVA no tributa")
	assert.Equal(t, "100.01", totals.Total.StringFixed(2))
}

// Las líneas exentas suman al subtotal pero no tributan.
func TestCalculateTotals_LineaExenta(t *testing.T) {
	gravada := item(1, 10_000)
	exenta := item(1, 5_000)
	exenta.TaxExempt = true

	totals, err := billing.CalculateTotals([]entity.DocumentItem{gravada, exenta}, "CL", "CLP")
	require.NoError(t, err)

	assert.True(t, totals.Subtotal.Equal(decimal.NewFromInt(15_000)))
	assert.True(t, totals.Tax.Equal(decimal.NewFromInt(1_900)),
		"solo la línea gravada tributa: 19%% de 10000 = 1900, fue %s", totals.Tax)
}

// Una tasa explícita en la línea prevalece sobre la tasa del país, y se acepta
// tanto como porcentaje (10) como fracción (0.10).
func TestCalculateTotals_TasaExplicitaPorLinea(t *testing.T) {
	porcentaje := item(1, 1_000)
	porcentaje.TaxRate = ratePtr("10")
	fraccion := item(1, 1_000)
	fraccion.TaxRate = ratePtr("0.10")

	totals, err := billing.CalculateTotals([]entity.DocumentItem{porcentaje, fraccion}, "CL", "CLP")
	require.NoError(t, err)

	assert.True(t, totals.Tax.Equal(decimal.NewFromInt(200)),
		"ambas notaciones de 10%% deben producir 100 + 100, fue %s", totals.Tax)
}

// País desconocido usa tasa cero: es un resultado válido, no un error.
func TestCalculateTotals_PaisSinReglaNoTributa(t *testing.T) {
	totals, err := billing.CalculateTotals([]entity.DocumentItem{item(3, 50)}, "XX", "USD")
	require.NoError(t, err)

	assert.True(t, totals.Tax.IsZero())
	assert.True(t, totals.Total.Equal(totals.Subtotal))
}

// Sin líneas no hay nada que facturar.
func TestCalculateTotals_SinLineasEsError(t *testing.T) {
	_, err := billing.CalculateTotals(nil, "CL", "CLP")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

// Monedas con centavos redondean a 2 decimales; CLP a 0.
func TestCalculateTotals_PrecisionPorMoneda(t *testing.T) {
	items := []entity.DocumentItem{{Total: decimal.RequireFromString("99.999")}}

	usd, err := billing.CalculateTotals(items, "ZZ", "USD")
	require.NoError(t, err)
	assert.Equal(t, "100.00", usd.Subtotal.StringFixed(2))

	clp, err := billing.CalculateTotals(items, "ZZ", "CLP")
	require.NoError(t, err)
	assert.Equal(t, "100", clp.Subtotal.String())
}
