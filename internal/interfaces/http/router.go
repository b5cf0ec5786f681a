package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/facturalo/emision-api/internal/application/billing"
)

// RouterDeps dependencias para el router.
type RouterDeps struct {
	EmitDocument  *billing.EmitDocumentUseCase
	DocumentQuery *billing.DocumentQueryUseCase
	CustomerUC    *billing.CustomerUseCase
	JWTSecret     string
}

// Router registra las rutas de la API. Todas las rutas de facturación exigen
// sesión (Bearer Token) y quedan acotadas a la empresa del token.
func Router(app *fiber.App, deps RouterDeps) {
	api := app.Group("/api")
	protected := api.Group("/", AuthMiddleware(deps.JWTSecret))

	// Documents (protegido)
	documents := protected.Group("/documents")
	documentHandler := NewDocumentHandler(deps.EmitDocument, deps.DocumentQuery)
	documents.Post("/", documentHandler.Emit)
	documents.Get("/", documentHandler.List)
	documents.Get("/:id", documentHandler.GetByID)

	// Customers (protegido)
	customers := protected.Group("/customers")
	customerHandler := NewCustomerHandler(deps.CustomerUC)
	customers.Post("/", customerHandler.Create)
	customers.Get("/", customerHandler.List)
}
