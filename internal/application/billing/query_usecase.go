package billing

import (
	"context"

	"github.com/samber/lo"

	"github.com/facturalo/emision-api/internal/application/dto"
	"github.com/facturalo/emision-api/internal/domain"
	"github.com/facturalo/emision-api/internal/domain/entity"
	"github.com/facturalo/emision-api/internal/domain/repository"
)

// DocumentQueryUseCase lecturas de documentos, siempre acotadas al tenant.
type DocumentQueryUseCase struct {
	documentRepo repository.DocumentRepository
	customerRepo repository.CustomerRepository
}

// NewDocumentQueryUseCase construye el caso de uso de consulta.
func NewDocumentQueryUseCase(documentRepo repository.DocumentRepository, customerRepo repository.CustomerRepository) *DocumentQueryUseCase {
	return &DocumentQueryUseCase{documentRepo: documentRepo, customerRepo: customerRepo}
}

// GetDocument obtiene un documento con líneas y cliente. ErrForbidden si
// pertenece a otra empresa.
func (uc *DocumentQueryUseCase) GetDocument(ctx context.Context, companyID, id string) (*dto.DocumentResponse, error) {
	doc, err := uc.documentRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if doc == nil {
		return nil, domain.ErrNotFound
	}
	if doc.CompanyID != companyID {
		return nil, domain.ErrForbidden
	}
	return uc.toResponse(ctx, doc)
}

// ListDocuments lista los documentos de la empresa con paginación, cada uno
// con sus líneas y su cliente.
func (uc *DocumentQueryUseCase) ListDocuments(ctx context.Context, companyID string, page dto.PageRequest) (*dto.ListDocumentsResponse, error) {
	page.DefaultPage()
	docs, err := uc.documentRepo.ListByCompany(ctx, companyID, page.Limit, page.Offset)
	if err != nil {
		return nil, err
	}
	responses := make([]*dto.DocumentResponse, 0, len(docs))
	for _, doc := range docs {
		resp, err := uc.toResponse(ctx, doc)
		if err != nil {
			return nil, err
		}
		responses = append(responses, resp)
	}
	return &dto.ListDocumentsResponse{
		Documents: responses,
		Page:      dto.PageResponse{Limit: page.Limit, Offset: page.Offset},
	}, nil
}

func (uc *DocumentQueryUseCase) toResponse(ctx context.Context, doc *entity.Document) (*dto.DocumentResponse, error) {
	items, err := uc.documentRepo.GetItemsByDocumentID(ctx, doc.ID)
	if err != nil {
		return nil, err
	}
	customer, err := uc.customerRepo.GetByID(ctx, doc.CustomerID)
	if err != nil {
		return nil, err
	}
	return dto.NewDocumentResponse(doc, items, customer), nil
}

// CustomerUseCase casos de uso de clientes (facturación).
type CustomerUseCase struct {
	repo repository.CustomerRepository
}

// NewCustomerUseCase construye el caso de uso.
func NewCustomerUseCase(repo repository.CustomerRepository) *CustomerUseCase {
	return &CustomerUseCase{repo: repo}
}

// Create registra un cliente explícitamente (fuera del flujo de emisión).
// Mismo camino atómico que el resolver: si el (empresa, tax_id) ya existe,
// devuelve ErrDuplicate sin tocar los atributos guardados.
func (uc *CustomerUseCase) Create(ctx context.Context, companyID string, in dto.CreateCustomerRequest) (*dto.CustomerResponse, error) {
	if in.TaxID == "" || in.Name == "" {
		return nil, domain.ErrInvalidInput
	}
	existing, err := uc.repo.GetByCompanyAndTaxID(ctx, companyID, in.TaxID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, domain.ErrDuplicate
	}
	customer, err := uc.repo.GetOrCreate(ctx, companyID, in.TaxID, &entity.Customer{
		CompanyID:    companyID,
		TaxID:        in.TaxID,
		Name:         in.Name,
		Email:        in.Email,
		Address:      in.Address,
		City:         in.City,
		Country:      in.Country,
		CustomerType: in.CustomerType,
		Giro:         in.Giro,
	})
	if err != nil {
		return nil, err
	}
	return dto.NewCustomerResponse(customer), nil
}

// List lista los clientes de la empresa.
func (uc *CustomerUseCase) List(ctx context.Context, companyID string, page dto.PageRequest) ([]*dto.CustomerResponse, error) {
	page.DefaultPage()
	customers, err := uc.repo.ListByCompany(ctx, companyID, page.Limit, page.Offset)
	if err != nil {
		return nil, err
	}
	return lo.Map(customers, func(c *entity.Customer, _ int) *dto.CustomerResponse {
		return dto.NewCustomerResponse(c)
	}), nil
}
