// Package sii implementa el adaptador emisor contra la pasarela certificada
// ante el SII (facturas y boletas electrónicas chilenas). La pasarela recibe
// el DTE como XML, lo timbra/firma de su lado y devuelve el track id más las
// URLs de los artefactos generados.
package sii

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/beevik/etree"

	appbilling "github.com/facturalo/emision-api/internal/application/billing"
	"github.com/facturalo/emision-api/internal/domain"
	"github.com/facturalo/emision-api/internal/domain/entity"
)

// Códigos de tipo de DTE según el SII.
const (
	dteTipoFactura = "33" // factura electrónica afecta
	dteTipoBoleta  = "39" // boleta electrónica
)

var _ appbilling.Issuer = (*Client)(nil)

// Client implementa el puerto Issuer contra la pasarela SII.
// Usa net/http de la stdlib; el timeout de la emisión lo gobierna el ctx del
// orquestador, no el http.Client.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// NewClient construye el adaptador. El timeout del transporte es generoso
// (60 s): la pasarela puede tardar varios segundos y el corte fino lo impone
// el contexto del caller.
func NewClient(baseURL, apiKey string) *Client {
	return &Client{
		baseURL:    baseURL,
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: 60 * time.Second},
	}
}

// Provider identifica el proveedor de este adaptador.
func (c *Client) Provider() string { return entity.ProviderSIIGateway }

// emissionResponse respuesta JSON de la pasarela.
type emissionResponse struct {
	TrackID string `json:"track_id"`
	Status  string `json:"status"` // ACEPTADO | RECHAZADO
	Code    string `json:"code,omitempty"`
	Detail  string `json:"detail,omitempty"`
	PDFURL  string `json:"pdf_url,omitempty"`
	XMLURL  string `json:"xml_url,omitempty"`
}

// Emit construye el XML del DTE, lo envía a la pasarela y normaliza la
// respuesta. Un rechazo de la pasarela es *domain.ProviderError (con el
// código que ella reporta); un fallo de transporte o timeout es
// *domain.NetworkError.
func (c *Client) Emit(ctx context.Context, req *appbilling.EmitRequest) (*appbilling.EmitResult, error) {
	xmlBody, err := buildDTE(req)
	if err != nil {
		return nil, &domain.ProviderError{
			Provider: entity.ProviderSIIGateway,
			Msg:      "no se pudo construir el DTE: " + err.Error(),
		}
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/dte/emitir", bytes.NewReader(xmlBody))
	if err != nil {
		return nil, &domain.NetworkError{Provider: entity.ProviderSIIGateway, Err: err}
	}
	httpReq.Header.Set("Content-Type", "application/xml")
	httpReq.Header.Set("Accept", "application/json")
	httpReq.Header.Set("X-Api-Key", c.apiKey)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		// Timeout del ctx o conexión caída: transitorio, reintentable con
		// un documento nuevo.
		return nil, &domain.NetworkError{Provider: entity.ProviderSIIGateway, Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, &domain.NetworkError{Provider: entity.ProviderSIIGateway, Err: err}
	}

	var emission emissionResponse
	if err := json.Unmarshal(body, &emission); err != nil {
		return nil, &domain.ProviderError{
			Provider: entity.ProviderSIIGateway,
			Code:     fmt.Sprintf("HTTP_%d", resp.StatusCode),
			Msg:      "respuesta no parseable de la pasarela: " + truncate(string(body), 200),
		}
	}

	if resp.StatusCode >= 500 {
		return nil, &domain.NetworkError{
			Provider: entity.ProviderSIIGateway,
			Err:      fmt.Errorf("pasarela respondió HTTP %d: %s", resp.StatusCode, emission.Detail),
		}
	}
	if resp.StatusCode != http.StatusOK || emission.Status != "ACEPTADO" {
		code := emission.Code
		if code == "" {
			code = fmt.Sprintf("HTTP_%d", resp.StatusCode)
		}
		return nil, &domain.ProviderError{
			Provider: entity.ProviderSIIGateway,
			Code:     code,
			Msg:      emission.Detail,
		}
	}

	return &appbilling.EmitResult{
		ExternalID: emission.TrackID,
		PDFURL:     emission.PDFURL,
		XMLURL:     emission.XMLURL,
		ProviderResponse: map[string]any{
			"track_id": emission.TrackID,
			"status":   emission.Status,
			"detail":   emission.Detail,
		},
	}, nil
}

// buildDTE arma el XML del documento tributario electrónico:
// Encabezado (IdDoc, Emisor, Receptor, Totales) + Detalle por línea.
func buildDTE(req *appbilling.EmitRequest) ([]byte, error) {
	doc := etree.NewDocument()
	doc.CreateProcInst("xml", `version="1.0" encoding="UTF-8"`)

	dte := doc.CreateElement("DTE")
	dte.CreateAttr("version", "1.0")
	documento := dte.CreateElement("Documento")

	encabezado := documento.CreateElement("Encabezado")

	idDoc := encabezado.CreateElement("IdDoc")
	idDoc.CreateElement("TipoDTE").SetText(tipoDTE(req.Document.DocumentType))
	idDoc.CreateElement("Folio").SetText(fmt.Sprintf("%d", req.Document.Number))
	idDoc.CreateElement("FchEmis").SetText(req.Document.CreatedAt.Format("2006-01-02"))

	emisor := encabezado.CreateElement("Emisor")
	emisor.CreateElement("RUTEmisor").SetText(req.Company.TaxID)
	emisor.CreateElement("RznSoc").SetText(req.Company.Name)

	receptor := encabezado.CreateElement("Receptor")
	receptor.CreateElement("RUTRecep").SetText(req.Customer.TaxID)
	receptor.CreateElement("RznSocRecep").SetText(req.Customer.Name)
	if req.Customer.Giro != "" {
		receptor.CreateElement("GiroRecep").SetText(req.Customer.Giro)
	}
	if req.Customer.Address != "" {
		receptor.CreateElement("DirRecep").SetText(req.Customer.Address)
	}
	if req.Customer.City != "" {
		receptor.CreateElement("CiudadRecep").SetText(req.Customer.City)
	}

	totales := encabezado.CreateElement("Totales")
	totales.CreateElement("MntNeto").SetText(req.Totals.Subtotal.String())
	totales.CreateElement("IVA").SetText(req.Totals.Tax.String())
	totales.CreateElement("MntTotal").SetText(req.Totals.Total.String())
	totales.CreateElement("Moneda").SetText(req.Currency)

	for i, item := range req.Items {
		detalle := documento.CreateElement("Detalle")
		detalle.CreateElement("NroLinDet").SetText(fmt.Sprintf("%d", i+1))
		detalle.CreateElement("NmbItem").SetText(item.Description)
		detalle.CreateElement("QtyItem").SetText(item.Quantity.String())
		detalle.CreateElement("PrcItem").SetText(item.UnitPrice.String())
		detalle.CreateElement("MontoItem").SetText(item.Total.String())
		if item.TaxExempt {
			// 1 = producto o servicio exento de IVA
			detalle.CreateElement("IndExe").SetText("1")
		}
	}

	doc.Indent(2)
	return doc.WriteToBytes()
}

func tipoDTE(documentType string) string {
	if documentType == entity.DocTypeBoletaElectronica {
		return dteTipoBoleta
	}
	return dteTipoFactura
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
