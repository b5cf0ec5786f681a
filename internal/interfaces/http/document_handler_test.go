package http_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appbilling "github.com/facturalo/emision-api/internal/application/billing"
	"github.com/facturalo/emision-api/internal/domain"
	"github.com/facturalo/emision-api/internal/domain/entity"
	apphttp "github.com/facturalo/emision-api/internal/interfaces/http"
	pkgjwt "github.com/facturalo/emision-api/pkg/jwt"
	"github.com/facturalo/emision-api/pkg/logger"
)

// ──────────────────────────────────────────────────────────────────────────────
// Helpers de test
// ──────────────────────────────────────────────────────────────────────────────

const (
	testJWTSecret = "test-secret-key-for-unit-tests"
	testUserID    = "00000000-0000-0000-0000-000000000001"
	testCompanyID = "00000000-0000-0000-0000-000000000002"
	testIssuer    = "emision-api-test"
	testExpMin    = 60
)

// Fakes mínimos de los puertos de persistencia, suficientes para ejercitar el
// contrato HTTP de punta a punta sin base de datos.

type memCompanyRepo struct{ companies map[string]*entity.Company }

func (r *memCompanyRepo) GetByID(_ context.Context, id string) (*entity.Company, error) {
	return r.companies[id], nil
}

type memCustomerRepo struct {
	mu        sync.Mutex
	customers map[string]*entity.Customer
}

func (r *memCustomerRepo) GetOrCreate(_ context.Context, companyID, taxID string, attrs *entity.Customer) (*entity.Customer, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	key := companyID + "|" + taxID
	if c, ok := r.customers[key]; ok {
		return c, nil
	}
	c := *attrs
	r.customers[key] = &c
	return &c, nil
}

func (r *memCustomerRepo) GetByID(_ context.Context, id string) (*entity.Customer, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, c := range r.customers {
		if c.ID == id {
			return c, nil
		}
	}
	return nil, nil
}

func (r *memCustomerRepo) GetByCompanyAndTaxID(_ context.Context, companyID, taxID string) (*entity.Customer, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.customers[companyID+"|"+taxID], nil
}

func (r *memCustomerRepo) ListByCompany(_ context.Context, companyID string, _, _ int) ([]*entity.Customer, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*entity.Customer
	for _, c := range r.customers {
		if c.CompanyID == companyID {
			out = append(out, c)
		}
	}
	return out, nil
}

func (r *memCustomerRepo) Update(_ context.Context, _ *entity.Customer) error { return nil }

type memDocumentRepo struct {
	mu    sync.Mutex
	docs  map[string]*entity.Document
	items map[string][]*entity.DocumentItem
}

func (r *memDocumentRepo) CreatePending(_ context.Context, doc *entity.Document, items []*entity.DocumentItem) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	copied := *doc
	r.docs[doc.ID] = &copied
	r.items[doc.ID] = items
	return nil
}

func (r *memDocumentRepo) MarkIssued(_ context.Context, id, externalID, pdfURL, xmlURL string, providerResponse map[string]any) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	doc, ok := r.docs[id]
	if !ok || doc.Status != entity.DocumentStatusPending {
		return domain.ErrConflict
	}
	doc.Status = entity.DocumentStatusIssued
	doc.ExternalID = externalID
	doc.PDFURL = pdfURL
	doc.XMLURL = xmlURL
	doc.ProviderResponse = providerResponse
	return nil
}

func (r *memDocumentRepo) MarkFailed(_ context.Context, id, message string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	doc, ok := r.docs[id]
	if !ok || doc.Status != entity.DocumentStatusPending {
		return domain.ErrConflict
	}
	doc.Status = entity.DocumentStatusFailed
	doc.ErrorMessage = message
	return nil
}

func (r *memDocumentRepo) GetByID(_ context.Context, id string) (*entity.Document, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.docs[id], nil
}

func (r *memDocumentRepo) GetItemsByDocumentID(_ context.Context, documentID string) ([]*entity.DocumentItem, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.items[documentID], nil
}

func (r *memDocumentRepo) ListByCompany(_ context.Context, companyID string, _, _ int) ([]*entity.Document, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*entity.Document
	for _, doc := range r.docs {
		if doc.CompanyID == companyID {
			out = append(out, doc)
		}
	}
	return out, nil
}

type memSequenceRepo struct {
	mu   sync.Mutex
	last map[string]int64
}

func (r *memSequenceRepo) Next(_ context.Context, companyID, documentType string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	key := companyID + "|" + documentType
	r.last[key]++
	return r.last[key], nil
}

type memIssuer struct {
	provider string
	emit     func(ctx context.Context, req *appbilling.EmitRequest) (*appbilling.EmitResult, error)
}

func (s *memIssuer) Provider() string { return s.provider }
func (s *memIssuer) Emit(ctx context.Context, req *appbilling.EmitRequest) (*appbilling.EmitResult, error) {
	return s.emit(ctx, req)
}

// buildTestApp arma la aplicación Fiber completa (router + middlewares) sobre
// fakes en memoria y el emisor indicado.
func buildTestApp(t *testing.T, issuer appbilling.Issuer) (*fiber.App, *memDocumentRepo) {
	t.Helper()
	companies := &memCompanyRepo{companies: map[string]*entity.Company{
		testCompanyID: {ID: testCompanyID, Name: "Comercial Andina SpA", TaxID: "76111222-3", Country: "CL"},
	}}
	customers := &memCustomerRepo{customers: make(map[string]*entity.Customer)}
	docs := &memDocumentRepo{
		docs:  make(map[string]*entity.Document),
		items: make(map[string][]*entity.DocumentItem),
	}
	sequences := &memSequenceRepo{last: make(map[string]int64)}

	emitUC := appbilling.NewEmitDocumentUseCase(
		companies, customers, docs, sequences,
		appbilling.NewIssuerRegistry(issuer),
		logger.Nop(), time.Second,
	)
	queryUC := appbilling.NewDocumentQueryUseCase(docs, customers)
	customerUC := appbilling.NewCustomerUseCase(customers)

	app := fiber.New()
	apphttp.Router(app, apphttp.RouterDeps{
		EmitDocument:  emitUC,
		DocumentQuery: queryUC,
		CustomerUC:    customerUC,
		JWTSecret:     testJWTSecret,
	})
	return app, docs
}

func okTestIssuer() appbilling.Issuer {
	return &memIssuer{
		provider: entity.ProviderSIIGateway,
		emit: func(_ context.Context, _ *appbilling.EmitRequest) (*appbilling.EmitResult, error) {
			return &appbilling.EmitResult{
				ExternalID: "TRK-0001",
				PDFURL:     "https://cdn.example.test/doc.pdf",
			}, nil
		},
	}
}

func authToken(t *testing.T) string {
	t.Helper()
	tok, err := pkgjwt.Generate(testJWTSecret, testUserID, testCompanyID, testIssuer, testExpMin)
	require.NoError(t, err)
	return "Bearer " + tok
}

func postDocument(t *testing.T, app *fiber.App, body string, authHeader string) *http.Response {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/api/documents", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	return resp
}

const validEmitBody = `{
	"customer": {"tax_id": "12345678-5", "name": "Cliente de Prueba Ltda", "country": "CL", "giro": "Comercio"},
	"items": [{"description": "Servicio mensual", "quantity": "2", "unit_price": "10000"}],
	"currency": "CLP"
}`

// ──────────────────────────────────────────────────────────────────────────────
// POST /api/documents
// ──────────────────────────────────────────────────────────────────────────────

// Sin Bearer Token la emisión se rechaza con 401.
func TestPostDocuments_SinTokenEs401(t *testing.T) {
	app, _ := buildTestApp(t, okTestIssuer())

	resp := postDocument(t, app, validEmitBody, "")
	defer resp.Body.Close()

	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

// Emisión correcta: 200 con success:true y el documento ISSUED.
func TestPostDocuments_EmisionExitosa(t *testing.T) {
	app, _ := buildTestApp(t, okTestIssuer())

	resp := postDocument(t, app, validEmitBody, authToken(t))
	defer resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body struct {
		Success  bool `json:"success"`
		Document struct {
			ID           string `json:"id"`
			Status       string `json:"status"`
			Number       int64  `json:"number"`
			DocumentType string `json:"document_type"`
			Total        string `json:"total"`
			ExternalID   string `json:"external_id"`
		} `json:"document"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.True(t, body.Success)
	assert.Equal(t, entity.DocumentStatusIssued, body.Document.Status)
	assert.Equal(t, entity.DocTypeFacturaElectronica, body.Document.DocumentType)
	assert.EqualValues(t, 1, body.Document.Number)
	assert.Equal(t, "23800", body.Document.Total, "2 x 10000 mas IVA 19 en CLP")
	assert.Equal(t, "TRK-0001", body.Document.ExternalID)
}

// Request sin líneas: 400 sin persistir nada.
func TestPostDocuments_SinLineasEs400(t *testing.T) {
	app, docs := buildTestApp(t, okTestIssuer())

	body := `{"customer": {"tax_id": "12345678-5", "name": "Cliente"}, "items": []}`
	resp := postDocument(t, app, body, authToken(t))
	defer resp.Body.Close()

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Empty(t, docs.docs, "una entrada inválida no debe dejar documentos")
}

// Fallo del proveedor: 500 con document_id del documento FAILED persistido.
func TestPostDocuments_FalloDeEmisionDevuelveDocumentID(t *testing.T) {
	issuer := &memIssuer{
		provider: entity.ProviderSIIGateway,
		emit: func(_ context.Context, _ *appbilling.EmitRequest) (*appbilling.EmitResult, error) {
			return nil, &domain.NetworkError{Provider: entity.ProviderSIIGateway, Err: errors.New("connection refused")}
		},
	}
	app, docs := buildTestApp(t, issuer)

	resp := postDocument(t, app, validEmitBody, authToken(t))
	defer resp.Body.Close()

	require.Equal(t, http.StatusInternalServerError, resp.StatusCode)

	var body struct {
		Error      string `json:"error"`
		DocumentID string `json:"document_id"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	require.NotEmpty(t, body.DocumentID,
		"el 500 posterior a la persistencia debe exponer el document_id")
	assert.Contains(t, body.Error, "connection refused")

	doc, err := docs.GetByID(context.Background(), body.DocumentID)
	require.NoError(t, err)
	require.NotNil(t, doc)
	assert.Equal(t, entity.DocumentStatusFailed, doc.Status,
		"el documento referenciado debe haber quedado FAILED")
}

// ──────────────────────────────────────────────────────────────────────────────
// GET /api/documents/:id
// ──────────────────────────────────────────────────────────────────────────────

func TestGetDocument_PorID(t *testing.T) {
	app, _ := buildTestApp(t, okTestIssuer())

	// Emitir primero para tener algo que consultar.
	created := postDocument(t, app, validEmitBody, authToken(t))
	defer created.Body.Close()
	require.Equal(t, http.StatusOK, created.StatusCode)
	var emitted struct {
		Document struct {
			ID string `json:"id"`
		} `json:"document"`
	}
	require.NoError(t, json.NewDecoder(created.Body).Decode(&emitted))

	req := httptest.NewRequest(http.MethodGet, "/api/documents/"+emitted.Document.ID, nil)
	req.Header.Set("Authorization", authToken(t))
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	var doc struct {
		ID     string `json:"id"`
		Status string `json:"status"`
		Items  []any  `json:"items"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&doc))
	assert.Equal(t, emitted.Document.ID, doc.ID)
	assert.Equal(t, entity.DocumentStatusIssued, doc.Status)
	assert.Len(t, doc.Items, 1, "la consulta debe incluir las líneas")
}

func TestGetDocument_InexistenteEs404(t *testing.T) {
	app, _ := buildTestApp(t, okTestIssuer())

	req := httptest.NewRequest(http.MethodGet, "/api/documents/99999999-0000-0000-0000-000000000000", nil)
	req.Header.Set("Authorization", authToken(t))
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}
