package http

import (
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/jhoicas/acrilstock-api/internal/application/dto"
	"github.com/jhoicas/acrilstock-api/internal/application/ledger"
)

// StockHandler consultas y ajustes directos del ledger (protegido).
type StockHandler struct {
	uc       *ledger.UseCase
	validate *validator.Validate
	log      zerolog.Logger
}

func NewStockHandler(uc *ledger.UseCase, v *validator.Validate, log zerolog.Logger) *StockHandler {
	return &StockHandler{uc: uc, validate: v, log: log}
}

// List godoc
// @Summary      Contenido de un inventario
// @Tags         stock
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID del inventario"
// @Success      200  {object}  dto.StockListResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/inventories/{id}/stock [get]
func (h *StockHandler) List(c *fiber.Ctx) error {
	inventoryID := c.Params("id")
	items, err := h.uc.ListStock(c.UserContext(), inventoryID)
	if err != nil {
		return writeError(c, h.log, err)
	}
	out := dto.StockListResponse{InventoryID: inventoryID, Items: make([]dto.StockItemResponse, 0, len(items))}
	for _, it := range items {
		out.Items = append(out.Items, dto.NewStockItemResponse(it))
	}
	return c.JSON(out)
}

// Get godoc
// @Summary      Existencia de un producto
// @Tags         stock
// @Security     Bearer
// @Produce      json
// @Param        id          path  string  true  "ID del inventario"
// @Param        product_id  path  string  true  "ID del producto"
// @Success      200  {object}  dto.StockItemResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/inventories/{id}/stock/{product_id} [get]
func (h *StockHandler) Get(c *fiber.Ctx) error {
	inventoryID, productID := c.Params("id"), c.Params("product_id")
	qty, err := h.uc.GetQuantity(c.UserContext(), inventoryID, productID)
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(dto.StockItemResponse{InventoryID: inventoryID, ProductID: productID, Quantity: qty})
}

// ApplyDelta godoc
// @Summary      Aplicar variación de stock
// @Description  Rechaza con 409 INSUFFICIENT_STOCK si el resultado sería negativo.
// @Tags         stock
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id          path  string                 true  "ID del inventario"
// @Param        product_id  path  string                 true  "ID del producto"
// @Param        body        body  dto.ApplyDeltaRequest  true  "delta con signo"
// @Success      200  {object}  dto.StockItemResponse
// @Failure      400  {object}  dto.ErrorResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Failure      409  {object}  dto.ErrorResponse
// @Router       /api/inventories/{id}/stock/{product_id}/delta [post]
func (h *StockHandler) ApplyDelta(c *fiber.Ctx) error {
	var in dto.ApplyDeltaRequest
	if ok, err := bind(c, h.validate, &in); !ok {
		return err
	}
	inventoryID, productID := c.Params("id"), c.Params("product_id")
	qty, err := h.uc.ApplyDelta(c.UserContext(), ActorFrom(c), inventoryID, productID, in.Delta)
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(dto.StockItemResponse{InventoryID: inventoryID, ProductID: productID, Quantity: qty})
}

// SetQuantity godoc
// @Summary      Sobrescribir existencia (carga masiva)
// @Description  Sin verificación de movimientos; solo admin.
// @Tags         stock
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id          path  string                  true  "ID del inventario"
// @Param        product_id  path  string                  true  "ID del producto"
// @Param        body        body  dto.SetQuantityRequest  true  "cantidad absoluta"
// @Success      200  {object}  dto.StockItemResponse
// @Failure      400  {object}  dto.ErrorResponse
// @Failure      403  {object}  dto.ErrorResponse
// @Router       /api/inventories/{id}/stock/{product_id} [put]
func (h *StockHandler) SetQuantity(c *fiber.Ctx) error {
	var in dto.SetQuantityRequest
	if ok, err := bind(c, h.validate, &in); !ok {
		return err
	}
	inventoryID, productID := c.Params("id"), c.Params("product_id")
	qty, err := h.uc.SetQuantity(c.UserContext(), ActorFrom(c), inventoryID, productID, in.Quantity)
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(dto.StockItemResponse{InventoryID: inventoryID, ProductID: productID, Quantity: qty})
}
