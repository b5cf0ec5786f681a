package billing

import (
	"github.com/facturalo/emision-api/internal/domain"
	"github.com/facturalo/emision-api/internal/domain/entity"
)

// Tabla estática tipo de documento → proveedor emisor. Centraliza la decisión
// que antes vivía como if/else disperso en los callers.
var providerByDocumentType = map[string]string{
	entity.DocTypeFacturaElectronica: entity.ProviderSIIGateway,
	entity.DocTypeBoletaElectronica:  entity.ProviderSIIGateway,
	entity.DocTypeCommercialInvoice:  entity.ProviderStripe,
}

// ResolveProvider devuelve el proveedor que respalda el tipo de documento.
// Un tipo sin proveedor registrado es un bug de configuración del despliegue,
// no una condición recuperable: falla cerrado con ConfigurationError.
func ResolveProvider(documentType string) (string, error) {
	provider, ok := providerByDocumentType[documentType]
	if !ok {
		return "", &domain.ConfigurationError{
			Msg: "tipo de documento sin proveedor registrado: " + documentType,
		}
	}
	return provider, nil
}
