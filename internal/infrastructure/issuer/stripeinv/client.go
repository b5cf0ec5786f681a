// Package stripeinv implementa el adaptador emisor genérico sobre el
// invoicing de Stripe, para jurisdicciones sin documento tributario local:
// crea el invoice comercial, lo finaliza y devuelve las URLs hosted/PDF.
package stripeinv

import (
	"context"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
	stripe "github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/client"

	appbilling "github.com/facturalo/emision-api/internal/application/billing"
	"github.com/facturalo/emision-api/internal/domain"
	"github.com/facturalo/emision-api/internal/domain/entity"
)

var _ appbilling.Issuer = (*Client)(nil)

// Client implementa el puerto Issuer sobre la API de Stripe.
type Client struct {
	api *client.API
}

// NewClient construye el adaptador con la API key de la cuenta.
func NewClient(apiKey string) *Client {
	api := &client.API{}
	api.Init(apiKey, nil)
	return &Client{api: api}
}

// Provider identifica el proveedor de este adaptador.
func (c *Client) Provider() string { return entity.ProviderStripe }

// Emit crea y finaliza un invoice de Stripe con una línea por ítem (más una
// línea de impuesto si aplica). El folio del documento viaja como idempotency
// key: si Stripe ya procesó esta emisión, devuelve el mismo invoice en vez de
// duplicarlo.
func (c *Client) Emit(ctx context.Context, req *appbilling.EmitRequest) (*appbilling.EmitResult, error) {
	idemPrefix := fmt.Sprintf("doc-%s", req.Document.ID)

	customerParams := &stripe.CustomerParams{
		Params: stripe.Params{Context: ctx},
		Name:   stripe.String(req.Customer.Name),
	}
	if req.Customer.Email != "" {
		customerParams.Email = stripe.String(req.Customer.Email)
	}
	customerParams.SetIdempotencyKey(idemPrefix + "-customer")
	stripeCustomer, err := c.api.Customers.New(customerParams)
	if err != nil {
		return nil, c.wrapErr(err)
	}

	invoiceParams := &stripe.InvoiceParams{
		Params:      stripe.Params{Context: ctx},
		Customer:    stripe.String(stripeCustomer.ID),
		Currency:    stripe.String(req.Currency),
		AutoAdvance: stripe.Bool(false),
		Description: stripe.String(fmt.Sprintf("Documento N° %d", req.Document.Number)),
	}
	invoiceParams.SetIdempotencyKey(idemPrefix + "-invoice")
	invoice, err := c.api.Invoices.New(invoiceParams)
	if err != nil {
		return nil, c.wrapErr(err)
	}

	for i, item := range req.Items {
		itemParams := &stripe.InvoiceItemParams{
			Params:      stripe.Params{Context: ctx},
			Customer:    stripe.String(stripeCustomer.ID),
			Invoice:     stripe.String(invoice.ID),
			Currency:    stripe.String(req.Currency),
			Description: stripe.String(item.Description),
			Amount:      stripe.Int64(toMinorUnits(item.Total, req.Currency)),
		}
		itemParams.SetIdempotencyKey(fmt.Sprintf("%s-item-%d", idemPrefix, i))
		if _, err := c.api.InvoiceItems.New(itemParams); err != nil {
			return nil, c.wrapErr(err)
		}
	}
	if req.Totals.Tax.IsPositive() {
		taxParams := &stripe.InvoiceItemParams{
			Params:      stripe.Params{Context: ctx},
			Customer:    stripe.String(stripeCustomer.ID),
			Invoice:     stripe.String(invoice.ID),
			Currency:    stripe.String(req.Currency),
			Description: stripe.String("Impuestos"),
			Amount:      stripe.Int64(toMinorUnits(req.Totals.Tax, req.Currency)),
		}
		taxParams.SetIdempotencyKey(idemPrefix + "-tax")
		if _, err := c.api.InvoiceItems.New(taxParams); err != nil {
			return nil, c.wrapErr(err)
		}
	}

	finalizeParams := &stripe.InvoiceFinalizeInvoiceParams{
		Params:      stripe.Params{Context: ctx},
		AutoAdvance: stripe.Bool(false),
	}
	finalizeParams.SetIdempotencyKey(idemPrefix + "-finalize")
	finalized, err := c.api.Invoices.FinalizeInvoice(invoice.ID, finalizeParams)
	if err != nil {
		return nil, c.wrapErr(err)
	}

	return &appbilling.EmitResult{
		ExternalID: finalized.ID,
		PDFURL:     finalized.InvoicePDF,
		ProviderResponse: map[string]any{
			"invoice_id":         finalized.ID,
			"status":             string(finalized.Status),
			"hosted_invoice_url": finalized.HostedInvoiceURL,
		},
	}, nil
}

// wrapErr separa rechazos de la API (*stripe.Error, con código accionable)
// de fallos de transporte.
func (c *Client) wrapErr(err error) error {
	var stripeErr *stripe.Error
	if errors.As(err, &stripeErr) {
		return &domain.ProviderError{
			Provider: entity.ProviderStripe,
			Code:     string(stripeErr.Code),
			Msg:      stripeErr.Msg,
		}
	}
	return &domain.NetworkError{Provider: entity.ProviderStripe, Err: err}
}

// Monedas sin unidad menor en Stripe (zero-decimal).
var zeroDecimalCurrencies = map[string]bool{
	"CLP": true,
	"JPY": true,
	"PYG": true,
}

// toMinorUnits convierte un monto decimal a la unidad menor que espera Stripe.
func toMinorUnits(amount decimal.Decimal, currency string) int64 {
	if zeroDecimalCurrencies[currency] {
		return amount.Round(0).IntPart()
	}
	return amount.Mul(decimal.NewFromInt(100)).Round(0).IntPart()
}
