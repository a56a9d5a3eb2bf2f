package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/tu-usuario/facturador-afip/internal/application/auth"
	"github.com/tu-usuario/facturador-afip/internal/application/billing"
	"github.com/tu-usuario/facturador-afip/internal/domain/entity"
)

// RouterDeps dependencias para el router.
type RouterDeps struct {
	InvoiceUC *billing.InvoiceUseCase
	FiscalUC  *billing.FiscalConfigUseCase
	AuthUC    *auth.AuthUseCase
	JWTSecret string
}

// Router registra las rutas de la API.
func Router(app *fiber.App, deps RouterDeps) {
	api := app.Group("/api")

	// Auth (público)
	authGroup := api.Group("/auth")
	authHandler := NewAuthHandler(deps.AuthUC)
	authGroup.Post("/register", authHandler.Register)
	authGroup.Post("/login", authHandler.Login)

	// Rutas protegidas (requieren Bearer Token)
	protected := api.Group("/", AuthMiddleware(deps.JWTSecret))

	// Invoices (protegido)
	invoices := protected.Group("/invoices")
	invoiceHandler := NewInvoiceHandler(deps.InvoiceUC)
	invoices.Post("/generate/:saleId", invoiceHandler.Generate)
	invoices.Get("/", invoiceHandler.List)
	invoices.Get("/sale/:saleId", invoiceHandler.GetBySale)
	invoices.Post("/afip/test-connection", invoiceHandler.TestConnection)
	invoices.Post("/afip/clear-token", RequireRole(entity.RoleAdmin), invoiceHandler.ClearToken)
	invoices.Get("/afip/phantom-status", invoiceHandler.PhantomStatus)
	invoices.Get("/:id", invoiceHandler.GetByID)
	invoices.Post("/:id/retry", invoiceHandler.Retry)

	// Configuración fiscal (protegido; escrituras solo admin)
	fiscal := protected.Group("/fiscal-config")
	fiscalHandler := NewFiscalHandler(deps.FiscalUC)
	fiscal.Get("/", fiscalHandler.Get)
	fiscal.Get("/readiness", fiscalHandler.Readiness)
	fiscal.Put("/", RequireRole(entity.RoleAdmin), fiscalHandler.Update)
	fiscal.Post("/certificates", RequireRole(entity.RoleAdmin), fiscalHandler.UploadCertificates)
}
