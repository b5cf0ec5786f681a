// Package billing contiene las reglas puras de facturación: cálculo de
// totales, resolución de tipo de documento por país y ruteo a proveedor
// emisor. Sin efectos secundarios ni dependencias de infraestructura.
package billing

import (
	"github.com/shopspring/decimal"

	"github.com/facturalo/emision-api/internal/domain"
	"github.com/facturalo/emision-api/internal/domain/entity"
)

// Totals es el objeto de valor calculado {subtotal, impuesto, total}. No se
// persiste por sí solo: queda horneado en el Document que lo origina.
type Totals struct {
	Subtotal decimal.Decimal
	Tax      decimal.Decimal
	Total    decimal.Decimal
}

// Tasas de IVA por defecto por país (en porcentaje). Un país sin regla usa
// tasa cero: el documento sale sin impuesto, no es un error.
var defaultTaxRates = map[string]decimal.Decimal{
	"CL": decimal.NewFromInt(19),
	"CO": decimal.NewFromInt(19),
	"MX": decimal.NewFromInt(16),
	"PE": decimal.NewFromInt(18),
	"AR": decimal.NewFromInt(21),
}

// Decimales de la unidad menor por moneda. El peso chileno no tiene centavos.
var currencyMinorUnits = map[string]int32{
	"CLP": 0,
	"PYG": 0,
	"JPY": 0,
}

// minorUnits devuelve la precisión de redondeo de la moneda (2 por defecto).
func minorUnits(currency string) int32 {
	if exp, ok := currencyMinorUnits[currency]; ok {
		return exp
	}
	return 2
}

// normalizeRate acepta tasas como fracción (0.19) o porcentaje (19) y devuelve
// siempre la fracción.
func normalizeRate(rate decimal.Decimal) decimal.Decimal {
	if rate.GreaterThan(decimal.NewFromInt(1)) {
		return rate.Div(decimal.NewFromInt(100))
	}
	return rate
}

// DefaultTaxRate devuelve la tasa por defecto del país como fracción.
func DefaultTaxRate(countryCode string) decimal.Decimal {
	if rate, ok := defaultTaxRates[countryCode]; ok {
		return normalizeRate(rate)
	}
	return decimal.Zero
}

// CalculateTotals calcula subtotal, impuesto y total a partir de las líneas y
// el país del receptor. Confía en el total de línea declarado por el caller
// (no re-deriva cantidad × precio). Líneas exentas no tributan; una tasa
// explícita en la línea prevalece sobre la tasa del país.
//
// El redondeo a la unidad menor de la moneda se aplica UNA sola vez al final,
// nunca por línea, para evitar deriva acumulada de redondeo.
func CalculateTotals(items []entity.DocumentItem, countryCode, currency string) (Totals, error) {
	if len(items) == 0 {
		return Totals{}, domain.ErrInvalidInput
	}

	countryRate := DefaultTaxRate(countryCode)

	var subtotal, tax decimal.Decimal
	for _, item := range items {
		subtotal = subtotal.Add(item.Total)
		if item.TaxExempt {
			continue
		}
		rate := countryRate
		if item.TaxRate != nil {
			rate = normalizeRate(*item.TaxRate)
		}
		tax = tax.Add(item.Total.Mul(rate))
	}

	exp := minorUnits(currency)
	subtotal = subtotal.Round(exp)
	tax = tax.Round(exp)

	return Totals{
		Subtotal: subtotal,
		Tax:      tax,
		Total:    subtotal.Add(tax),
	}, nil
}
