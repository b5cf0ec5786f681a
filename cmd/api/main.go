package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/contrib/swagger"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/facturalo/emision-api/internal/application/billing"
	"github.com/facturalo/emision-api/internal/infrastructure/issuer/sii"
	"github.com/facturalo/emision-api/internal/infrastructure/issuer/stripeinv"
	"github.com/facturalo/emision-api/internal/infrastructure/postgres"
	httpRouter "github.com/facturalo/emision-api/internal/interfaces/http"
	"github.com/facturalo/emision-api/pkg/config"
	"github.com/facturalo/emision-api/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("cargar configuración: " + err.Error())
	}

	log := logger.New(logger.Config{
		Env:   cfg.App.Env,
		Level: "info",
	})
	log.Info().
		Str("env", cfg.App.Env).
		Str("app", cfg.App.Name).
		Msg("iniciando aplicación")

	ctx := context.Background()
	pool, err := postgres.NewPool(ctx, cfg.DB)
	if err != nil {
		log.Fatal().Err(err).Msg("conexión a PostgreSQL")
	}
	defer pool.Close()

	txRunner := postgres.NewTxRunner(pool)
	companyRepo := postgres.NewCompanyRepository(pool)
	customerRepo := postgres.NewCustomerRepository(pool)
	documentRepo := postgres.NewDocumentRepository(pool, txRunner)
	sequenceRepo := postgres.NewSequenceRepository(pool)

	// Proveedores emisores: pasarela SII (DTE Chile) y Stripe Invoicing
	// (respaldo internacional). El router de proveedores decide cuál usar
	// según el tipo de documento.
	issuers := billing.NewIssuerRegistry(
		sii.NewClient(cfg.Issuer.SIIGatewayURL, cfg.Issuer.SIIGatewayAPIKey),
		stripeinv.NewClient(cfg.Issuer.StripeAPIKey),
	)

	emitUC := billing.NewEmitDocumentUseCase(
		companyRepo, customerRepo, documentRepo, sequenceRepo,
		issuers, log,
		time.Duration(cfg.Issuer.EmitTimeoutSecs)*time.Second,
	)
	queryUC := billing.NewDocumentQueryUseCase(documentRepo, customerRepo)
	customerUC := billing.NewCustomerUseCase(customerRepo)

	app := fiber.New(fiber.Config{
		AppName:      cfg.App.Name,
		ReadTimeout:  time.Second * 10,
		WriteTimeout: time.Second * 10,
		IdleTimeout:  time.Second * 60,
	})
	app.Use(recover.New())

	// Swagger UI en local: http://localhost:<port>/docs
	app.Use(swagger.New(swagger.Config{
		BasePath: "/",
		FilePath: "./docs/swagger.json",
		Path:     "docs",
		Title:    "Facturalo Emisión API",
	}))

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok", "service": cfg.App.Name})
	})

	httpRouter.Router(app, httpRouter.RouterDeps{
		EmitDocument:  emitUC,
		DocumentQuery: queryUC,
		CustomerUC:    customerUC,
		JWTSecret:     cfg.JWT.Secret,
	})

	go func() {
		if err := app.Listen(cfg.HTTP.Addr()); err != nil {
			log.Error().Err(err).Msg("servidor HTTP finalizado")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("señal de apagado recibida, cerrando servidor...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("apagado del servidor")
	}

	log.Info().Msg("aplicación detenida")
}
