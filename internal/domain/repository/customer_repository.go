package repository

import (
	"context"

	"github.com/facturalo/emision-api/internal/domain/entity"
)

// CustomerRepository define el puerto de persistencia para Customer.
type CustomerRepository interface {
	// GetOrCreate resuelve el cliente canónico por (empresa, tax_id). Si no
	// existe lo crea con attrs; si existe NO sobreescribe sus atributos (el
	// resolver es solo aditivo). Debe ser atómico frente a dos requests
	// concurrentes con el mismo tax_id nuevo: exactamente una fila creada,
	// ambas llamadas reciben el mismo cliente (constraint único + conflicto
	// que devuelve el existente, nunca check-then-insert).
	GetOrCreate(ctx context.Context, companyID, taxID string, attrs *entity.Customer) (*entity.Customer, error)

	GetByID(ctx context.Context, id string) (*entity.Customer, error)
	GetByCompanyAndTaxID(ctx context.Context, companyID, taxID string) (*entity.Customer, error)
	ListByCompany(ctx context.Context, companyID string, limit, offset int) ([]*entity.Customer, error)
	// Update corrige datos de contacto/dirección; nunca cambia tax_id ni empresa.
	Update(ctx context.Context, customer *entity.Customer) error
}
