package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/facturalo/emision-api/internal/domain"
	"github.com/facturalo/emision-api/internal/domain/entity"
	"github.com/facturalo/emision-api/internal/domain/repository"
)

var _ repository.DocumentRepository = (*DocumentRepo)(nil)

// DocumentRepo implementación de DocumentRepository sobre PostgreSQL. Las
// escrituras multi-fila (cabecera + líneas) van por el TxRunner; las
// transiciones de estado son UPDATEs guardados por status = 'PENDING'.
type DocumentRepo struct {
	q  Querier
	tx *TxRunner
}

// NewDocumentRepository construye el adaptador. q es el pool (o una tx); tx
// es el runner para CreatePending.
func NewDocumentRepository(q Querier, tx *TxRunner) *DocumentRepo {
	return &DocumentRepo{q: q, tx: tx}
}

const documentColumns = `id, company_id, customer_id, number, document_type, provider,
	status, subtotal, tax, total, currency, order_id, metadata, external_id,
	pdf_url, xml_url, provider_response, error_message, created_at, updated_at`

// CreatePending escribe cabecera PENDING y líneas en una sola transacción.
// Si una línea falla a mitad de camino, el rollback revierte también la
// cabecera: no quedan PENDING colgantes sin líneas.
func (r *DocumentRepo) CreatePending(ctx context.Context, doc *entity.Document, items []*entity.DocumentItem) error {
	return r.tx.Run(ctx, func(tx pgx.Tx) error {
		const insertHeader = `
			INSERT INTO documents
				(id, company_id, customer_id, number, document_type, provider, status,
				 subtotal, tax, total, currency, order_id, metadata, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)`
		_, err := tx.Exec(ctx, insertHeader,
			doc.ID, doc.CompanyID, doc.CustomerID, doc.Number, doc.DocumentType,
			doc.Provider, entity.DocumentStatusPending,
			doc.Subtotal, doc.Tax, doc.Total, doc.Currency,
			nullIfEmpty(doc.OrderID), doc.Metadata, doc.CreatedAt, doc.UpdatedAt,
		)
		if err != nil {
			if isUniqueViolation(err) {
				return fmt.Errorf("folio %d ya existe para (%s, %s): %w",
					doc.Number, doc.CompanyID, doc.DocumentType, domain.ErrDuplicate)
			}
			return fmt.Errorf("insert document: %w", err)
		}

		const insertItem = `
			INSERT INTO document_items
				(id, document_id, description, quantity, unit_price, total, tax_exempt, tax_rate, metadata)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`
		for _, item := range items {
			_, err := tx.Exec(ctx, insertItem,
				item.ID, doc.ID, item.Description, item.Quantity, item.UnitPrice,
				item.Total, item.TaxExempt, item.TaxRate, item.Metadata,
			)
			if err != nil {
				return fmt.Errorf("insert document item: %w", err)
			}
		}
		return nil
	})
}

// MarkIssued transiciona PENDING → ISSUED. El WHERE por status hace el guard:
// cero filas afectadas significa que el documento no estaba PENDING.
func (r *DocumentRepo) MarkIssued(ctx context.Context, id, externalID, pdfURL, xmlURL string, providerResponse map[string]any) error {
	const q = `
		UPDATE documents
		SET status = $2, external_id = $3, pdf_url = $4, xml_url = $5,
		    provider_response = $6, updated_at = now()
		WHERE id = $1 AND status = $7`
	tag, err := r.q.Exec(ctx, q,
		id, entity.DocumentStatusIssued, nullIfEmpty(externalID),
		nullIfEmpty(pdfURL), nullIfEmpty(xmlURL), providerResponse,
		entity.DocumentStatusPending,
	)
	if err != nil {
		return fmt.Errorf("mark document issued: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrConflict
	}
	return nil
}

// MarkFailed transiciona PENDING → FAILED con el mensaje verbatim.
func (r *DocumentRepo) MarkFailed(ctx context.Context, id, message string) error {
	const q = `
		UPDATE documents
		SET status = $2, error_message = $3, updated_at = now()
		WHERE id = $1 AND status = $4`
	tag, err := r.q.Exec(ctx, q,
		id, entity.DocumentStatusFailed, message, entity.DocumentStatusPending,
	)
	if err != nil {
		return fmt.Errorf("mark document failed: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrConflict
	}
	return nil
}

// GetByID obtiene la cabecera de un documento.
func (r *DocumentRepo) GetByID(ctx context.Context, id string) (*entity.Document, error) {
	query := `SELECT ` + documentColumns + ` FROM documents WHERE id = $1`
	doc, err := scanDocument(r.q.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get document: %w", err)
	}
	return doc, nil
}

// GetItemsByDocumentID obtiene todas las líneas de un documento.
func (r *DocumentRepo) GetItemsByDocumentID(ctx context.Context, documentID string) ([]*entity.DocumentItem, error) {
	const q = `
		SELECT id, document_id, description, quantity, unit_price, total, tax_exempt, tax_rate, metadata
		FROM document_items WHERE document_id = $1 ORDER BY id`
	rows, err := r.q.Query(ctx, q, documentID)
	if err != nil {
		return nil, fmt.Errorf("list document items: %w", err)
	}
	defer rows.Close()
	var list []*entity.DocumentItem
	for rows.Next() {
		var item entity.DocumentItem
		if err := rows.Scan(&item.ID, &item.DocumentID, &item.Description, &item.Quantity,
			&item.UnitPrice, &item.Total, &item.TaxExempt, &item.TaxRate, &item.Metadata); err != nil {
			return nil, fmt.Errorf("scan document item: %w", err)
		}
		list = append(list, &item)
	}
	return list, rows.Err()
}

// ListByCompany lista documentos de la empresa, más recientes primero.
func (r *DocumentRepo) ListByCompany(ctx context.Context, companyID string, limit, offset int) ([]*entity.Document, error) {
	query := `SELECT ` + documentColumns + `
		FROM documents WHERE company_id = $1
		ORDER BY created_at DESC LIMIT $2 OFFSET $3`
	rows, err := r.q.Query(ctx, query, companyID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}
	defer rows.Close()
	var list []*entity.Document
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, fmt.Errorf("scan document: %w", err)
		}
		list = append(list, doc)
	}
	return list, rows.Err()
}

func scanDocument(row pgxScanner) (*entity.Document, error) {
	var doc entity.Document
	var orderID, externalID, pdfURL, xmlURL, errorMessage *string
	err := row.Scan(
		&doc.ID, &doc.CompanyID, &doc.CustomerID, &doc.Number, &doc.DocumentType,
		&doc.Provider, &doc.Status, &doc.Subtotal, &doc.Tax, &doc.Total,
		&doc.Currency, &orderID, &doc.Metadata, &externalID,
		&pdfURL, &xmlURL, &doc.ProviderResponse, &errorMessage,
		&doc.CreatedAt, &doc.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	doc.OrderID = derefStr(orderID)
	doc.ExternalID = derefStr(externalID)
	doc.PDFURL = derefStr(pdfURL)
	doc.XMLURL = derefStr(xmlURL)
	doc.ErrorMessage = derefStr(errorMessage)
	return &doc, nil
}
