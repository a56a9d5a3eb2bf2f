package main

import (
	"context"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gofiber/contrib/swagger"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/tu-usuario/facturador-afip/internal/application/auth"
	"github.com/tu-usuario/facturador-afip/internal/application/billing"
	"github.com/tu-usuario/facturador-afip/internal/domain/entity"
	infraafip "github.com/tu-usuario/facturador-afip/internal/infrastructure/afip"
	"github.com/tu-usuario/facturador-afip/internal/infrastructure/postgres"
	httpRouter "github.com/tu-usuario/facturador-afip/internal/interfaces/http"
	"github.com/tu-usuario/facturador-afip/pkg/config"
	"github.com/tu-usuario/facturador-afip/pkg/logger"
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
		Str("afipEnv", cfg.Afip.Environment).
		Msg("iniciando aplicación")

	ctx := context.Background()
	pool, err := postgres.NewPool(ctx, cfg.DB)
	if err != nil {
		log.Fatal().Err(err).Msg("conexión a PostgreSQL")
	}
	defer pool.Close()

	userRepo := postgres.NewUserRepository(pool)
	saleRepo := postgres.NewSaleRepository(pool)
	customerRepo := postgres.NewCustomerRepository(pool)
	invoiceRepo := postgres.NewInvoiceRepository(pool)
	fiscalRepo := postgres.NewFiscalConfigRepository(pool)

	// Ciclo WSAA/WSFE: firma CMS, transporte SOAP, tickets y fachada.
	// fiscalRepo oficia de espejo durable de tickets y de fuente de
	// certificados; AFIP_CERT_PATH permite pisar esto último desde archivos.
	certSource := infraafip.CertificateSource(fiscalRepo)
	if cfg.Afip.CertPath != "" {
		certSource, err = fileCertSource(cfg.Afip)
		if err != nil {
			log.Fatal().Err(err).Msg("certificados AFIP desde archivo")
		}
		log.Info().Str("path", cfg.Afip.CertPath).Msg("usando certificados AFIP desde archivo")
	}

	soapClient := infraafip.NewSOAPClient()
	cmsSigner := infraafip.NewCMSSigner()
	tokenManager := infraafip.NewTokenManager(fiscalRepo, certSource, soapClient, cmsSigner, log.Named("wsaa"))
	gateway := infraafip.NewGateway(soapClient, tokenManager, log.Named("wsfe"))

	invoiceUC := billing.NewInvoiceUseCase(invoiceRepo, saleRepo, customerRepo, fiscalRepo, gateway, log.Named("billing"))
	fiscalUC := billing.NewFiscalConfigUseCase(fiscalRepo, gateway, log.Named("fiscal"))
	authUC := auth.NewAuthUseCase(userRepo, auth.JWTConfig{
		Secret:     cfg.JWT.Secret,
		ExpMinutes: cfg.JWT.Expiration,
		Issuer:     cfg.JWT.Issuer,
	})

	app := fiber.New(fiber.Config{
		AppName:      cfg.App.Name,
		ReadTimeout:  time.Second * 10,
		WriteTimeout: time.Second * 30,
		IdleTimeout:  time.Second * 60,
	})
	app.Use(recover.New())

	// Swagger UI en local: http://localhost:<port>/docs
	app.Use(swagger.New(swagger.Config{
		BasePath: "/",
		FilePath: "./docs/swagger.json",
		Path:     "docs",
		Title:    "Facturador AFIP API",
	}))

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok", "service": cfg.App.Name})
	})

	httpRouter.Router(app, httpRouter.RouterDeps{
		InvoiceUC: invoiceUC,
		FiscalUC:  fiscalUC,
		AuthUC:    authUC,
		JWTSecret: cfg.JWT.Secret,
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

// staticCerts entrega siempre el mismo par, sin importar el ambiente pedido.
type staticCerts struct {
	certPEM string
	keyPEM  string
}

func (s staticCerts) Credentials(entity.Environment) (string, string, error) {
	return s.certPEM, s.keyPEM, nil
}

// fileCertSource carga certificado y llave desde disco: un .p12/.pfx con
// password, o un .pem acompañado de AFIP_CERT_KEY_PATH.
func fileCertSource(cfg config.AfipConfig) (infraafip.CertificateSource, error) {
	data, err := os.ReadFile(cfg.CertPath)
	if err != nil {
		return nil, err
	}
	lower := strings.ToLower(cfg.CertPath)
	if strings.HasSuffix(lower, ".p12") || strings.HasSuffix(lower, ".pfx") {
		certPEM, keyPEM, err := infraafip.ConvertP12(data, cfg.CertPass)
		if err != nil {
			return nil, err
		}
		return staticCerts{certPEM: certPEM, keyPEM: keyPEM}, nil
	}
	keyData, err := os.ReadFile(cfg.CertKeyPath)
	if err != nil {
		return nil, err
	}
	return staticCerts{certPEM: string(data), keyPEM: string(keyData)}, nil
}
