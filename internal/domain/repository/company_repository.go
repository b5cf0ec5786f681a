package repository

import (
	"context"

	"github.com/facturalo/emision-api/internal/domain/entity"
)

// CompanyRepository define el puerto de lectura de la configuración del tenant.
type CompanyRepository interface {
	GetByID(ctx context.Context, id string) (*entity.Company, error)
}
