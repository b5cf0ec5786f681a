package sii_test

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/beevik/etree"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appbilling "github.com/facturalo/emision-api/internal/application/billing"
	"github.com/facturalo/emision-api/internal/domain"
	domainbilling "github.com/facturalo/emision-api/internal/domain/billing"
	"github.com/facturalo/emision-api/internal/domain/entity"
	"github.com/facturalo/emision-api/internal/infrastructure/issuer/sii"
)

// emitRequest arma un EmitRequest de factura chilena de referencia.
func emitRequest() *appbilling.EmitRequest {
	return &appbilling.EmitRequest{
		Document: &entity.Document{
			ID:           "doc-0001",
			Number:       42,
			DocumentType: entity.DocTypeFacturaElectronica,
			Currency:     "CLP",
			CreatedAt:    time.Date(2026, 3, 15, 10, 0, 0, 0, time.UTC),
		},
		Company: &entity.Company{
			TaxID: "76111222-3",
			Name:  "Comercial Andina SpA",
		},
		Customer: &entity.Customer{
			TaxID: "12345678-5",
			Name:  "Cliente de Prueba Ltda",
			Giro:  "Venta al por menor",
		},
		Items: []*entity.DocumentItem{{
			Description: "Servicio mensual",
			Quantity:    decimal.NewFromInt(2),
			UnitPrice:   decimal.NewFromInt(10_000),
			Total:       decimal.NewFromInt(20_000),
		}},
		Totals: domainbilling.Totals{
			Subtotal: decimal.NewFromInt(20_000),
			Tax:      decimal.NewFromInt(3_800),
			Total:    decimal.NewFromInt(23_800),
		},
		Currency: "CLP",
	}
}

// La pasarela acepta: el adaptador envía el DTE bien formado (tipo 33, folio,
// totales) con la API key, y normaliza el track id y las URLs de artefactos.
func TestEmit_DTEAceptado(t *testing.T) {
	var captured []byte
	var capturedKey string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/v1/dte/emitir", r.URL.Path)
		capturedKey = r.Header.Get("X-Api-Key")
		captured, _ = io.ReadAll(r.Body)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"track_id": "TRK-9988",
			"status": "ACEPTADO",
			"pdf_url": "https://cdn.pasarela.test/dte-42.pdf",
			"xml_url": "https://cdn.pasarela.test/dte-42.xml"
		}`))
	}))
	defer srv.Close()

	client := sii.NewClient(srv.URL, "clave-secreta")
	result, err := client.Emit(context.Background(), emitRequest())
	require.NoError(t, err)

	assert.Equal(t, "TRK-9988", result.ExternalID)
	assert.Equal(t, "https://cdn.pasarela.test/dte-42.pdf", result.PDFURL)
	assert.Equal(t, "https://cdn.pasarela.test/dte-42.xml", result.XMLURL)
	assert.Equal(t, "clave-secreta", capturedKey)

	// El XML enviado debe llevar el tipo de DTE, el folio y los totales.
	doc := etree.NewDocument()
	require.NoError(t, doc.ReadFromBytes(captured))
	assert.Equal(t, "33", doc.FindElement("//IdDoc/TipoDTE").Text(), "factura afecta es tipo 33")
	assert.Equal(t, "42", doc.FindElement("//IdDoc/Folio").Text())
	assert.Equal(t, "2026-03-15", doc.FindElement("//IdDoc/FchEmis").Text())
	assert.Equal(t, "76111222-3", doc.FindElement("//Emisor/RUTEmisor").Text())
	assert.Equal(t, "12345678-5", doc.FindElement("//Receptor/RUTRecep").Text())
	assert.Equal(t, "Venta al por menor", doc.FindElement("//Receptor/GiroRecep").Text())
	assert.Equal(t, "20000", doc.FindElement("//Totales/MntNeto").Text())
	assert.Equal(t, "3800", doc.FindElement("//Totales/IVA").Text())
	assert.Equal(t, "23800", doc.FindElement("//Totales/MntTotal").Text())
	assert.Equal(t, "Servicio mensual", doc.FindElement("//Detalle/NmbItem").Text())
}

// Boleta electrónica es tipo 39.
func TestEmit_BoletaEsTipo39(t *testing.T) {
	var captured []byte
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		captured, _ = io.ReadAll(r.Body)
		_, _ = w.Write([]byte(`{"track_id": "TRK-1", "status": "ACEPTADO"}`))
	}))
	defer srv.Close()

	req := emitRequest()
	req.Document.DocumentType = entity.DocTypeBoletaElectronica

	client := sii.NewClient(srv.URL, "k")
	_, err := client.Emit(context.Background(), req)
	require.NoError(t, err)

	doc := etree.NewDocument()
	require.NoError(t, doc.ReadFromBytes(captured))
	assert.Equal(t, "39", doc.FindElement("//IdDoc/TipoDTE").Text())
}

// Rechazo de la pasarela: ProviderError con el código que ella reporta.
func TestEmit_RechazoEsProviderError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		_, _ = w.Write([]byte(`{"status": "RECHAZADO", "code": "RCH-57", "detail": "RUT receptor inválido"}`))
	}))
	defer srv.Close()

	client := sii.NewClient(srv.URL, "k")
	_, err := client.Emit(context.Background(), emitRequest())
	require.Error(t, err)

	var provErr *domain.ProviderError
	require.ErrorAs(t, err, &provErr)
	assert.Equal(t, "RCH-57", provErr.Code)
	assert.Contains(t, provErr.Msg, "RUT receptor inválido")
}

// HTTP 5xx de la pasarela es transitorio: NetworkError, no rechazo.
func TestEmit_CincoXXEsNetworkError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		_, _ = w.Write([]byte(`{"detail": "upstream caído"}`))
	}))
	defer srv.Close()

	client := sii.NewClient(srv.URL, "k")
	_, err := client.Emit(context.Background(), emitRequest())

	var netErr *domain.NetworkError
	assert.ErrorAs(t, err, &netErr)
}

// Un contexto vencido corta la llamada y se reporta como NetworkError.
func TestEmit_ContextoVencidoEsNetworkError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()

	client := sii.NewClient(srv.URL, "k")
	_, err := client.Emit(ctx, emitRequest())

	var netErr *domain.NetworkError
	require.ErrorAs(t, err, &netErr)
}
