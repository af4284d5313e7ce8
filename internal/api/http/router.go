package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/sales-tracker/internal/api/http/handlers"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health    *handlers.HealthHandler
	Webhook   *handlers.WebhookHandler
	Sales     *handlers.SalesHandler
	Closers   *handlers.ClosersHandler
	Messages  *handlers.MessagesHandler
	AuditLogs *handlers.AuditLogsHandler
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)

	app.Get("/webhook/evolution", cfg.Webhook.Status)
	app.Post("/webhook/evolution", cfg.Webhook.Receive)

	app.Get("/sales", cfg.Sales.ListSales)
	app.Post("/sales/bulk-verify", cfg.Sales.BulkVerify)
	app.Get("/sales/:id", cfg.Sales.GetSale)
	app.Post("/sales/:id/verify", cfg.Sales.VerifySale)
	app.Post("/reprocess", cfg.Sales.Reprocess)

	app.Get("/closers", cfg.Closers.ListClosers)
	app.Get("/messages", cfg.Messages.ListMessages)
	app.Get("/audit-logs", cfg.AuditLogs.ListAuditLogs)
}
