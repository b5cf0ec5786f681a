package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/facturalo/emision-api/internal/domain/entity"
)

// CustomerPayload bloque de cliente dentro del request de emisión. Se usa para
// resolver (get-or-create) el cliente canónico por (empresa, tax_id).
type CustomerPayload struct {
	TaxID        string `json:"tax_id"`
	Name         string `json:"name"`
	Email        string `json:"email,omitempty"`
	Address      string `json:"address,omitempty"`
	City         string `json:"city,omitempty"`
	State        string `json:"state,omitempty"`
	PostalCode   string `json:"postal_code,omitempty"`
	Country      string `json:"country,omitempty"`
	CustomerType string `json:"customer_type,omitempty"`
	Giro         string `json:"giro,omitempty"`
}

// ItemPayload línea del documento en el request. Total es el total de línea
// declarado por el caller (quantity × unit_price); el cálculo de totales lo
// suma tal cual.
type ItemPayload struct {
	Description string           `json:"description"`
	Quantity    decimal.Decimal  `json:"quantity"`
	UnitPrice   decimal.Decimal  `json:"unit_price"`
	Total       decimal.Decimal  `json:"total"`
	TaxExempt   bool             `json:"tax_exempt,omitempty"`
	TaxRate     *decimal.Decimal `json:"tax_rate,omitempty"`
	Metadata    map[string]any   `json:"metadata,omitempty"`
}

// EmitDocumentRequest body para POST /api/documents.
type EmitDocumentRequest struct {
	Customer     *CustomerPayload `json:"customer"`
	Items        []ItemPayload    `json:"items"`
	DocumentType string           `json:"document_type,omitempty"` // override explícito
	Currency     string           `json:"currency,omitempty"`      // default "USD"
	OrderID      string           `json:"order_id,omitempty"`      // correlación con la venta
	Metadata     map[string]any   `json:"metadata,omitempty"`
	SendEmail    bool             `json:"send_email,omitempty"`
}

// DocumentItemResponse línea en respuestas.
type DocumentItemResponse struct {
	ID          string           `json:"id"`
	Description string           `json:"description"`
	Quantity    decimal.Decimal  `json:"quantity"`
	UnitPrice   decimal.Decimal  `json:"unit_price"`
	Total       decimal.Decimal  `json:"total"`
	TaxExempt   bool             `json:"tax_exempt"`
	TaxRate     *decimal.Decimal `json:"tax_rate,omitempty"`
}

// DocumentResponse documento con líneas y cliente para respuestas HTTP.
type DocumentResponse struct {
	ID           string                 `json:"id"`
	CompanyID    string                 `json:"company_id"`
	CustomerID   string                 `json:"customer_id"`
	Number       int64                  `json:"number"`
	DocumentType string                 `json:"document_type"`
	Provider     string                 `json:"provider"`
	Status       string                 `json:"status"` // PENDING|ISSUED|FAILED
	Subtotal     decimal.Decimal        `json:"subtotal"`
	Tax          decimal.Decimal        `json:"tax"`
	Total        decimal.Decimal        `json:"total"`
	Currency     string                 `json:"currency"`
	OrderID      string                 `json:"order_id,omitempty"`
	ExternalID   string                 `json:"external_id,omitempty"`
	PDFURL       string                 `json:"pdf_url,omitempty"`
	XMLURL       string                 `json:"xml_url,omitempty"`
	ErrorMessage string                 `json:"error_message,omitempty"`
	CreatedAt    time.Time              `json:"created_at"`
	Items        []DocumentItemResponse `json:"items"`
	Customer     *CustomerResponse      `json:"customer,omitempty"`
}

// EmitDocumentResponse envoltura de éxito para POST /api/documents.
type EmitDocumentResponse struct {
	Success  bool              `json:"success"`
	Document *DocumentResponse `json:"document"`
}

// ListDocumentsResponse página de documentos del tenant.
type ListDocumentsResponse struct {
	Documents []*DocumentResponse `json:"documents"`
	Page      PageResponse        `json:"page"`
}

// CreateCustomerRequest body para POST /api/customers.
type CreateCustomerRequest struct {
	TaxID        string `json:"tax_id"`
	Name         string `json:"name"`
	Email        string `json:"email,omitempty"`
	Address      string `json:"address,omitempty"`
	City         string `json:"city,omitempty"`
	Country      string `json:"country,omitempty"`
	CustomerType string `json:"customer_type,omitempty"`
	Giro         string `json:"giro,omitempty"`
}

// CustomerResponse cliente en respuestas.
type CustomerResponse struct {
	ID           string `json:"id"`
	CompanyID    string `json:"company_id"`
	TaxID        string `json:"tax_id"`
	Name         string `json:"name"`
	Email        string `json:"email,omitempty"`
	Address      string `json:"address,omitempty"`
	City         string `json:"city,omitempty"`
	Country      string `json:"country,omitempty"`
	CustomerType string `json:"customer_type,omitempty"`
	Giro         string `json:"giro,omitempty"`
}

// NewCustomerResponse mapea la entidad a su DTO.
func NewCustomerResponse(c *entity.Customer) *CustomerResponse {
	if c == nil {
		return nil
	}
	return &CustomerResponse{
		ID:           c.ID,
		CompanyID:    c.CompanyID,
		TaxID:        c.TaxID,
		Name:         c.Name,
		Email:        c.Email,
		Address:      c.Address,
		City:         c.City,
		Country:      c.Country,
		CustomerType: c.CustomerType,
		Giro:         c.Giro,
	}
}

// NewDocumentResponse mapea cabecera + líneas + cliente a su DTO.
func NewDocumentResponse(doc *entity.Document, items []*entity.DocumentItem, customer *entity.Customer) *DocumentResponse {
	resp := &DocumentResponse{
		ID:           doc.ID,
		CompanyID:    doc.CompanyID,
		CustomerID:   doc.CustomerID,
		Number:       doc.Number,
		DocumentType: doc.DocumentType,
		Provider:     doc.Provider,
		Status:       doc.Status,
		Subtotal:     doc.Subtotal,
		Tax:          doc.Tax,
		Total:        doc.Total,
		Currency:     doc.Currency,
		OrderID:      doc.OrderID,
		ExternalID:   doc.ExternalID,
		PDFURL:       doc.PDFURL,
		XMLURL:       doc.XMLURL,
		ErrorMessage: doc.ErrorMessage,
		CreatedAt:    doc.CreatedAt,
		Items:        make([]DocumentItemResponse, 0, len(items)),
		Customer:     NewCustomerResponse(customer),
	}
	for _, item := range items {
		resp.Items = append(resp.Items, DocumentItemResponse{
			ID:          item.ID,
			Description: item.Description,
			Quantity:    item.Quantity,
			UnitPrice:   item.UnitPrice,
			Total:       item.Total,
			TaxExempt:   item.TaxExempt,
			TaxRate:     item.TaxRate,
		})
	}
	return resp
}
