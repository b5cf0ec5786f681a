package repository

import (
	"context"

	"github.com/facturalo/emision-api/internal/domain/entity"
)

// DocumentRepository define el puerto de persistencia para Document y líneas.
type DocumentRepository interface {
	// CreatePending escribe la cabecera en estado PENDING y todas sus líneas
	// como unidad atómica. Si falla la inserción de una línea, la cabecera se
	// revierte junto con ella: jamás queda un PENDING huérfano sin líneas.
	CreatePending(ctx context.Context, doc *entity.Document, items []*entity.DocumentItem) error

	// MarkIssued transiciona PENDING → ISSUED adjuntando el ID externo, las
	// URLs de artefactos y el snapshot de respuesta del proveedor. Sobre un
	// documento no PENDING devuelve ErrConflict (transición unidireccional).
	MarkIssued(ctx context.Context, id, externalID, pdfURL, xmlURL string, providerResponse map[string]any) error

	// MarkFailed transiciona PENDING → FAILED con el mensaje de error
	// verbatim. Mismo guard que MarkIssued.
	MarkFailed(ctx context.Context, id, message string) error

	GetByID(ctx context.Context, id string) (*entity.Document, error)
	GetItemsByDocumentID(ctx context.Context, documentID string) ([]*entity.DocumentItem, error)
	ListByCompany(ctx context.Context, companyID string, limit, offset int) ([]*entity.Document, error)
}
