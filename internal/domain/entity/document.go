package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Estados del ciclo de vida de un documento tributario. Las transiciones son
// unidireccionales: PENDING → ISSUED o PENDING → FAILED. Un documento FAILED
// nunca se reintenta en sitio; un reintento crea un documento nuevo con folio
// nuevo.
const (
	DocumentStatusPending = "PENDING" // persistido con folio reservado, emisión en curso
	DocumentStatusIssued  = "ISSUED"  // aceptado por el emisor externo
	DocumentStatusFailed  = "FAILED"  // emisión fallida; el folio queda consumido
)

// Tipos de documento tributario soportados.
const (
	DocTypeFacturaElectronica = "factura_electronica" // DTE afecto (SII Chile)
	DocTypeBoletaElectronica  = "boleta_electronica"  // boleta DTE (SII Chile)
	DocTypeCommercialInvoice  = "commercial_invoice"  // invoice comercial genérica
)

// Identidad de los proveedores emisores.
const (
	ProviderSIIGateway = "sii_gateway" // pasarela certificada ante el SII
	ProviderStripe     = "stripe"      // invoicing del procesador de pagos
)

// Document es la cabecera inmutable de un documento tributario. Number es el
// folio secuencial, único y estrictamente creciente dentro de
// (empresa, tipo de documento); nunca se reutiliza, ni tras un fallo.
type Document struct {
	ID           string
	CompanyID    string
	CustomerID   string
	Number       int64
	DocumentType string
	Provider     string
	Status       string
	Subtotal     decimal.Decimal
	Tax          decimal.Decimal
	Total        decimal.Decimal
	Currency     string
	OrderID      string         // correlación con la venta de origen (opcional)
	Metadata     map[string]any // metadatos libres del caller
	ExternalID   string         // ID asignado por el proveedor al emitir
	PDFURL       string
	XMLURL       string
	// ProviderResponse es el snapshot de la respuesta del proveedor,
	// adjuntado al emitir y nunca mutado después (auditoría).
	ProviderResponse map[string]any
	ErrorMessage string // motivo del fallo, verbatim, para soporte/auditoría
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
