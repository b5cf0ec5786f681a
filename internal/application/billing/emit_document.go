// Package billing contiene los casos de uso del pipeline de emisión de
// documentos tributarios.
package billing

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/facturalo/emision-api/internal/application/dto"
	"github.com/facturalo/emision-api/internal/domain"
	domainbilling "github.com/facturalo/emision-api/internal/domain/billing"
	"github.com/facturalo/emision-api/internal/domain/entity"
	"github.com/facturalo/emision-api/internal/domain/repository"
	"github.com/facturalo/emision-api/pkg/logger"
)

// finalizeTimeout acota las escrituras de finalización (MarkIssued/MarkFailed).
// Van sobre un contexto propio: aunque el caller haya cancelado, el documento
// jamás queda en PENDING indefinido.
const finalizeTimeout = 5 * time.Second

// EmissionFailedError señala un fallo ocurrido después de persistir el
// documento: el registro existe en estado FAILED con su folio consumido.
// DocumentID permite al caller inspeccionar el documento y reintentar con uno
// nuevo (el reintento nunca resucita el fallido).
type EmissionFailedError struct {
	DocumentID string
	Err        error
}

func (e *EmissionFailedError) Error() string {
	return "emisión fallida (documento " + e.DocumentID + "): " + e.Err.Error()
}

func (e *EmissionFailedError) Unwrap() error { return e.Err }

// EmitDocumentUseCase orquesta el pipeline de emisión completo:
//
//	validar → tipo de documento → proveedor → cliente → totales → folio
//	→ persistir PENDING → emitir con el proveedor → ISSUED | FAILED
//
// Es el único componente que habla con la red (vía el adaptador emisor). Los
// pasos son estrictamente secuenciales; la única concurrencia real es entre
// requests simultáneos, resuelta por el folio atómico y el upsert de cliente.
type EmitDocumentUseCase struct {
	companyRepo  repository.CompanyRepository
	customerRepo repository.CustomerRepository
	documentRepo repository.DocumentRepository
	sequenceRepo repository.SequenceRepository
	issuers      *IssuerRegistry
	log          *logger.Logger
	emitTimeout  time.Duration
}

// NewEmitDocumentUseCase construye el caso de uso. emitTimeout acota la
// llamada de red al proveedor; <= 0 usa 30 s.
func NewEmitDocumentUseCase(
	companyRepo repository.CompanyRepository,
	customerRepo repository.CustomerRepository,
	documentRepo repository.DocumentRepository,
	sequenceRepo repository.SequenceRepository,
	issuers *IssuerRegistry,
	log *logger.Logger,
	emitTimeout time.Duration,
) *EmitDocumentUseCase {
	if emitTimeout <= 0 {
		emitTimeout = 30 * time.Second
	}
	return &EmitDocumentUseCase{
		companyRepo:  companyRepo,
		customerRepo: customerRepo,
		documentRepo: documentRepo,
		sequenceRepo: sequenceRepo,
		issuers:      issuers,
		log:          log,
		emitTimeout:  emitTimeout,
	}
}

// Emit ejecuta una emisión. Errores antes de reservar el folio no persisten
// nada (fail fast); a partir del folio, todo fallo deja un documento FAILED
// con su mensaje: cada folio reservado debe mapear a algo auditable.
func (uc *EmitDocumentUseCase) Emit(ctx context.Context, companyID string, in dto.EmitDocumentRequest) (*dto.DocumentResponse, error) {
	// 1) Validación de forma: bloque de cliente + líneas no vacías.
	if err := validateRequest(in); err != nil {
		return nil, err
	}
	currency := in.Currency
	if currency == "" {
		currency = "USD"
	}

	// 2) Configuración del tenant, tipo de documento y proveedor. Un error de
	// configuración aborta antes de cualquier persistencia.
	company, err := uc.companyRepo.GetByID(ctx, companyID)
	if err != nil {
		return nil, err
	}
	if company == nil {
		return nil, domain.ErrNotFound
	}
	country := in.Customer.Country
	if country == "" {
		country = company.Country
	}
	docType := domainbilling.ResolveDocumentType(country, company, in.DocumentType)
	providerName, err := domainbilling.ResolveProvider(docType)
	if err != nil {
		return nil, err
	}
	issuer, err := uc.issuers.Get(providerName)
	if err != nil {
		return nil, err
	}

	// 3) Cliente canónico (upsert atómico; los atributos existentes no se pisan).
	customer, err := uc.customerRepo.GetOrCreate(ctx, companyID, strings.TrimSpace(in.Customer.TaxID), customerFromPayload(companyID, in.Customer))
	if err != nil {
		return nil, err
	}

	// 4) Totales (puro, determinista).
	items := itemsFromPayload(in.Items)
	totals, err := domainbilling.CalculateTotals(derefItems(items), country, currency)
	if err != nil {
		return nil, err
	}

	// 5) Folio. Desde aquí el número está consumido aunque todo lo demás
	// falle: los folios no se reutilizan, un reintento recibe uno nuevo.
	number, err := uc.sequenceRepo.Next(ctx, companyID, docType)
	if err != nil {
		return nil, err
	}

	// 6) Persistir PENDING (cabecera + líneas, unidad atómica).
	now := time.Now()
	doc := &entity.Document{
		ID:           uuid.New().String(),
		CompanyID:    companyID,
		CustomerID:   customer.ID,
		Number:       number,
		DocumentType: docType,
		Provider:     providerName,
		Status:       entity.DocumentStatusPending,
		Subtotal:     totals.Subtotal,
		Tax:          totals.Tax,
		Total:        totals.Total,
		Currency:     currency,
		OrderID:      in.OrderID,
		Metadata:     in.Metadata,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	for _, item := range items {
		item.DocumentID = doc.ID
	}
	if err := uc.documentRepo.CreatePending(ctx, doc, items); err != nil {
		return nil, &domain.PersistenceError{Err: err}
	}

	uc.log.Info().
		Str("document_id", doc.ID).
		Str("company_id", companyID).
		Int64("number", number).
		Str("document_type", docType).
		Str("provider", providerName).
		Msg("documento PENDING persistido, emitiendo")

	// 7) Emisión con el proveedor, bajo timeout acotado. El adaptador nunca
	// propaga sin que aquí se finalice el documento.
	emitCtx, cancel := context.WithTimeout(ctx, uc.emitTimeout)
	defer cancel()
	result, emitErr := issuer.Emit(emitCtx, &EmitRequest{
		Document: doc,
		Company:  company,
		Customer: customer,
		Items:    items,
		Totals:   totals,
		Currency: currency,
	})
	if emitErr != nil {
		return nil, uc.fail(doc, items, customer, emitErr)
	}

	// 8) PENDING → ISSUED con ID externo y artefactos.
	if err := uc.markIssued(doc.ID, result); err != nil {
		return nil, uc.fail(doc, items, customer, &domain.PersistenceError{Err: err})
	}
	doc.Status = entity.DocumentStatusIssued
	doc.ExternalID = result.ExternalID
	doc.PDFURL = result.PDFURL
	doc.XMLURL = result.XMLURL

	uc.log.Info().
		Str("document_id", doc.ID).
		Str("external_id", result.ExternalID).
		Msg("documento emitido")

	if in.SendEmail {
		// El envío de email lo maneja el subsistema de notificaciones; aquí
		// solo queda trazado.
		uc.log.Debug().Str("document_id", doc.ID).Msg("send_email solicitado")
	}

	return dto.NewDocumentResponse(doc, items, customer), nil
}

// fail marca el documento FAILED con el mensaje verbatim del error y devuelve
// el EmissionFailedError para el caller. Usa contexto propio: la finalización
// ocurre aunque el request HTTP ya haya muerto.
func (uc *EmitDocumentUseCase) fail(doc *entity.Document, items []*entity.DocumentItem, customer *entity.Customer, cause error) error {
	ctx, cancel := context.WithTimeout(context.Background(), finalizeTimeout)
	defer cancel()

	msg := cause.Error()
	if err := uc.documentRepo.MarkFailed(ctx, doc.ID, msg); err != nil {
		uc.log.Error().Err(err).Str("document_id", doc.ID).Msg("no se pudo persistir FAILED")
	}
	doc.Status = entity.DocumentStatusFailed
	doc.ErrorMessage = msg

	uc.log.Warn().
		Str("document_id", doc.ID).
		Int64("number", doc.Number).
		Str("provider", doc.Provider).
		Str("error", msg).
		Msg("emisión fallida")

	return &EmissionFailedError{DocumentID: doc.ID, Err: cause}
}

func (uc *EmitDocumentUseCase) markIssued(id string, result *EmitResult) error {
	ctx, cancel := context.WithTimeout(context.Background(), finalizeTimeout)
	defer cancel()
	return uc.documentRepo.MarkIssued(ctx, id, result.ExternalID, result.PDFURL, result.XMLURL, result.ProviderResponse)
}

// validateRequest valida la forma del request de emisión.
func validateRequest(in dto.EmitDocumentRequest) error {
	if in.Customer == nil || len(in.Items) == 0 {
		return domain.ErrInvalidInput
	}
	if strings.TrimSpace(in.Customer.TaxID) == "" || strings.TrimSpace(in.Customer.Name) == "" {
		return domain.ErrInvalidInput
	}
	for _, item := range in.Items {
		if item.Description == "" || !item.Quantity.GreaterThan(decimal.Zero) || item.UnitPrice.LessThan(decimal.Zero) {
			return domain.ErrInvalidInput
		}
	}
	return nil
}

func customerFromPayload(companyID string, p *dto.CustomerPayload) *entity.Customer {
	customerType := p.CustomerType
	if customerType == "" {
		customerType = entity.CustomerTypeBusiness
	}
	now := time.Now()
	return &entity.Customer{
		ID:           uuid.New().String(),
		CompanyID:    companyID,
		TaxID:        strings.TrimSpace(p.TaxID),
		Name:         strings.TrimSpace(p.Name),
		Email:        p.Email,
		Address:      p.Address,
		City:         p.City,
		State:        p.State,
		PostalCode:   p.PostalCode,
		Country:      p.Country,
		CustomerType: customerType,
		Giro:         p.Giro,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

func itemsFromPayload(payload []dto.ItemPayload) []*entity.DocumentItem {
	items := make([]*entity.DocumentItem, 0, len(payload))
	for _, p := range payload {
		total := p.Total
		if total.IsZero() {
			total = p.Quantity.Mul(p.UnitPrice)
		}
		items = append(items, &entity.DocumentItem{
			ID:          uuid.New().String(),
			Description: p.Description,
			Quantity:    p.Quantity,
			UnitPrice:   p.UnitPrice,
			Total:       total,
			TaxExempt:   p.TaxExempt,
			TaxRate:     p.TaxRate,
			Metadata:    p.Metadata,
		})
	}
	return items
}

func derefItems(items []*entity.DocumentItem) []entity.DocumentItem {
	out := make([]entity.DocumentItem, 0, len(items))
	for _, item := range items {
		out = append(out, *item)
	}
	return out
}
