package http

import (
	nethttp "net/http"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/rs/zerolog"

	"github.com/jhoicas/acrilstock-api/internal/application/cutting"
	"github.com/jhoicas/acrilstock-api/internal/application/ledger"
	"github.com/jhoicas/acrilstock-api/internal/application/movement"
)

// RoleAdmin único rol que puede sobrescribir existencias.
const RoleAdmin = "admin"

// RouterDeps dependencias para el router.
type RouterDeps struct {
	Ledger    *ledger.UseCase
	Movements *movement.UseCase
	Cutting   *cutting.UseCase
	JWTSecret string
	Service   string
	Metrics   nethttp.Handler // nil = sin /metrics
	Log       zerolog.Logger
}

// Router registra las rutas de la API.
func Router(app *fiber.App, deps RouterDeps) {
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok", "service": deps.Service})
	})
	if deps.Metrics != nil {
		app.Get("/metrics", adaptor.HTTPHandler(deps.Metrics))
	}

	v := newValidator()
	api := app.Group("/api", AuthMiddleware(deps.JWTSecret))

	// Ledger
	stock := NewStockHandler(deps.Ledger, v, deps.Log)
	inventories := api.Group("/inventories/:id/stock")
	inventories.Get("/", stock.List)
	inventories.Get("/:product_id", stock.Get)
	inventories.Post("/:product_id/delta", stock.ApplyDelta)
	inventories.Put("/:product_id", RequireRole(RoleAdmin), stock.SetQuantity)

	// Documentos de movimiento
	docs := NewDocumentHandler(deps.Movements, v, deps.Log)
	api.Post("/purchase-orders", docs.CreatePurchaseOrder)
	api.Post("/product-entries", docs.CreateProductEntry)
	api.Post("/product-removals", docs.CreateProductRemoval)
	api.Post("/transfer-shipments", docs.CreateTransferShipment)
	api.Post("/transfer-receptions", docs.CreateTransferReception)
	api.Post("/reimbursements", docs.CreateReimbursement)
	api.Post("/sales", docs.CreateSale)

	documents := api.Group("/documents")
	documents.Get("/", docs.List)
	documents.Get("/:id", docs.GetByID)
	documents.Post("/:id/confirm", docs.Confirm)
	documents.Post("/:id/cancel", docs.Cancel)

	// Cortes
	cuts := NewCuttingHandler(deps.Cutting, v, deps.Log)
	api.Post("/cuts/optimize", cuts.Optimize)
	api.Post("/cuts/scraps", cuts.ConvertScraps)
}
