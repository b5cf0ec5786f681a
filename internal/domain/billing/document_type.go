package billing

import "github.com/facturalo/emision-api/internal/domain/entity"

// Tabla país → tipo de documento legal. Países sin regla explícita caen al
// invoice comercial genérico; la ausencia de regla es un resultado válido,
// no un error.
var documentTypeByCountry = map[string]string{
	"CL": entity.DocTypeFacturaElectronica,
}

// ResolveDocumentType decide qué tipo de documento legal corresponde al
// receptor. Precedencia: override explícito del request → override del tenant
// → regla del país → commercial_invoice. Nunca falla.
func ResolveDocumentType(countryCode string, company *entity.Company, override string) string {
	if override != "" {
		return override
	}
	if company != nil && company.DefaultDocumentType != "" {
		return company.DefaultDocumentType
	}
	if docType, ok := documentTypeByCountry[countryCode]; ok {
		return docType
	}
	return entity.DocTypeCommercialInvoice
}
