package billing

import (
	"context"

	"github.com/facturalo/emision-api/internal/domain"
	domainbilling "github.com/facturalo/emision-api/internal/domain/billing"
	"github.com/facturalo/emision-api/internal/domain/entity"
)

// EmitRequest es el contrato canónico que recibe todo adaptador emisor:
// documento ya numerado y persistido en PENDING, receptor, emisor, líneas y
// totales. Cada adaptador lo traduce al formato de su proveedor.
type EmitRequest struct {
	Document *entity.Document
	Company  *entity.Company
	Customer *entity.Customer
	Items    []*entity.DocumentItem
	Totals   domainbilling.Totals
	Currency string
}

// EmitResult respuesta normalizada del proveedor tras emitir.
type EmitResult struct {
	ExternalID       string         // ID del documento en el proveedor
	PDFURL           string         // representación gráfica (si el proveedor la genera)
	XMLURL           string         // XML tributario (si aplica)
	ProviderResponse map[string]any // snapshot crudo para auditoría
}

// Issuer define el puerto de salida hacia un emisor externo. Los adaptadores
// no necesitan deduplicar internamente (el diseño un-folio-una-emisión del
// orquestador evita la doble emisión), pero sí deben distinguir rechazos del
// proveedor (*domain.ProviderError) de fallos de red (*domain.NetworkError)
// para que el mensaje de fallo persistido sea accionable.
type Issuer interface {
	// Provider devuelve la identidad del proveedor (entity.Provider*).
	Provider() string
	// Emit emite el documento ante el proveedor. Respeta ctx: un deadline
	// vencido se reporta como *domain.NetworkError.
	Emit(ctx context.Context, req *EmitRequest) (*EmitResult, error)
}

// IssuerRegistry resuelve proveedor → adaptador. Se arma una vez en el wiring.
type IssuerRegistry struct {
	issuers map[string]Issuer
}

// NewIssuerRegistry construye el registro con los adaptadores dados.
func NewIssuerRegistry(issuers ...Issuer) *IssuerRegistry {
	reg := &IssuerRegistry{issuers: make(map[string]Issuer, len(issuers))}
	for _, iss := range issuers {
		reg.issuers[iss.Provider()] = iss
	}
	return reg
}

// Get devuelve el adaptador del proveedor. Un proveedor ruteado pero sin
// adaptador registrado es un bug de wiring: ConfigurationError.
func (r *IssuerRegistry) Get(provider string) (Issuer, error) {
	iss, ok := r.issuers[provider]
	if !ok {
		return nil, &domain.ConfigurationError{
			Msg: "proveedor sin adaptador registrado: " + provider,
		}
	}
	return iss, nil
}
