package entity

import "github.com/shopspring/decimal"

// DocumentItem representa una línea de un documento. Inmutable una vez que la
// cabecera sale de PENDING; pertenece exclusivamente a su documento.
type DocumentItem struct {
	ID          string
	DocumentID  string
	Description string
	Quantity    decimal.Decimal
	UnitPrice   decimal.Decimal
	Total       decimal.Decimal  // total de línea declarado por el caller
	TaxExempt   bool             // la línea no tributa
	TaxRate     *decimal.Decimal // tasa explícita; nil = tasa por defecto del país
	Metadata    map[string]any
}
