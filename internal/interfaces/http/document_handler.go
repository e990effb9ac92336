package http

import (
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/jhoicas/acrilstock-api/internal/application/dto"
	"github.com/jhoicas/acrilstock-api/internal/application/movement"
	"github.com/jhoicas/acrilstock-api/internal/domain/entity"
)

// DocumentHandler creación y transiciones de documentos de movimiento (protegido).
type DocumentHandler struct {
	uc       *movement.UseCase
	validate *validator.Validate
	log      zerolog.Logger
}

func NewDocumentHandler(uc *movement.UseCase, v *validator.Validate, log zerolog.Logger) *DocumentHandler {
	return &DocumentHandler{uc: uc, validate: v, log: log}
}

func (h *DocumentHandler) created(c *fiber.Ctx, doc *entity.Document, err error) error {
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.Status(fiber.StatusCreated).JSON(dto.NewDocumentResponse(doc))
}

func lineInputs(in []dto.LineRequest) []movement.LineInput {
	out := make([]movement.LineInput, len(in))
	for i, l := range in {
		out[i] = movement.LineInput{ProductID: l.ProductID, Quantity: l.Quantity}
	}
	return out
}

// CreatePurchaseOrder godoc
// @Summary      Crear orden de compra
// @Tags         documents
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.CreatePurchaseOrderRequest  true  "proveedor y renglones"
// @Success      201  {object}  dto.DocumentResponse
// @Failure      400  {object}  dto.ErrorResponse
// @Router       /api/purchase-orders [post]
func (h *DocumentHandler) CreatePurchaseOrder(c *fiber.Ctx) error {
	var in dto.CreatePurchaseOrderRequest
	if ok, err := bind(c, h.validate, &in); !ok {
		return err
	}
	doc, err := h.uc.CreatePurchaseOrder(c.UserContext(), ActorFrom(c), movement.CreatePurchaseOrderInput{
		ProviderID: in.ProviderID,
		Lines:      lineInputs(in.Lines),
	})
	return h.created(c, doc, err)
}

// CreateProductEntry godoc
// @Summary      Crear ingreso de producto contra una orden de compra
// @Tags         documents
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.CreateProductEntryRequest  true  "orden y renglones"
// @Success      201  {object}  dto.DocumentResponse
// @Failure      400  {object}  dto.ErrorResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/product-entries [post]
func (h *DocumentHandler) CreateProductEntry(c *fiber.Ctx) error {
	var in dto.CreateProductEntryRequest
	if ok, err := bind(c, h.validate, &in); !ok {
		return err
	}
	doc, err := h.uc.CreateProductEntry(c.UserContext(), ActorFrom(c), movement.CreateProductEntryInput{
		PurchaseOrderID: in.PurchaseOrderID,
		Lines:           lineInputs(in.Lines),
	})
	return h.created(c, doc, err)
}

// CreateProductRemoval godoc
// @Summary      Crear baja de producto
// @Tags         documents
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.CreateProductRemovalRequest  true  "causa, referencia y renglones"
// @Success      201  {object}  dto.DocumentResponse
// @Failure      400  {object}  dto.ErrorResponse
// @Router       /api/product-removals [post]
func (h *DocumentHandler) CreateProductRemoval(c *fiber.Ctx) error {
	var in dto.CreateProductRemovalRequest
	if ok, err := bind(c, h.validate, &in); !ok {
		return err
	}
	doc, err := h.uc.CreateProductRemoval(c.UserContext(), ActorFrom(c), movement.CreateProductRemovalInput{
		Cause:       entity.RemovalCause(in.Cause),
		ProviderID:  in.ProviderID,
		ReceptionID: in.ReceptionID,
		Lines:       lineInputs(in.Lines),
	})
	return h.created(c, doc, err)
}

// CreateTransferShipment godoc
// @Summary      Crear envío de transferencia
// @Tags         documents
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.CreateTransferShipmentRequest  true  "sucursal destino y renglones"
// @Success      201  {object}  dto.DocumentResponse
// @Failure      400  {object}  dto.ErrorResponse
// @Router       /api/transfer-shipments [post]
func (h *DocumentHandler) CreateTransferShipment(c *fiber.Ctx) error {
	var in dto.CreateTransferShipmentRequest
	if ok, err := bind(c, h.validate, &in); !ok {
		return err
	}
	doc, err := h.uc.CreateTransferShipment(c.UserContext(), ActorFrom(c), movement.CreateTransferShipmentInput{
		TargetBranchID: in.TargetBranchID,
		Lines:          lineInputs(in.Lines),
	})
	return h.created(c, doc, err)
}

// CreateTransferReception godoc
// @Summary      Crear recepción de transferencia
// @Tags         documents
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.CreateTransferReceptionRequest  true  "envío y cantidades recibidas/aceptadas"
// @Success      201  {object}  dto.DocumentResponse
// @Failure      400  {object}  dto.ErrorResponse
// @Router       /api/transfer-receptions [post]
func (h *DocumentHandler) CreateTransferReception(c *fiber.Ctx) error {
	var in dto.CreateTransferReceptionRequest
	if ok, err := bind(c, h.validate, &in); !ok {
		return err
	}
	lines := make([]movement.ReceptionLineInput, len(in.Lines))
	for i, l := range in.Lines {
		lines[i] = movement.ReceptionLineInput{
			ProductID:        l.ProductID,
			ReceivedQuantity: l.ReceivedQuantity,
			AcceptedQuantity: l.AcceptedQuantity,
			RejectionReason:  l.RejectionReason,
		}
	}
	doc, err := h.uc.CreateTransferReception(c.UserContext(), ActorFrom(c), movement.CreateTransferReceptionInput{
		ShipmentID: in.ShipmentID,
		Lines:      lines,
	})
	return h.created(c, doc, err)
}

// CreateReimbursement godoc
// @Summary      Crear reembolso o cambio
// @Tags         documents
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.CreateReimbursementRequest  true  "devueltos y entregados a cambio"
// @Success      201  {object}  dto.DocumentResponse
// @Failure      400  {object}  dto.ErrorResponse
// @Router       /api/reimbursements [post]
func (h *DocumentHandler) CreateReimbursement(c *fiber.Ctx) error {
	var in dto.CreateReimbursementRequest
	if ok, err := bind(c, h.validate, &in); !ok {
		return err
	}
	doc, err := h.uc.CreateReimbursement(c.UserContext(), ActorFrom(c), movement.CreateReimbursementInput{
		SaleID:    in.SaleID,
		Returned:  lineInputs(in.Returned),
		Exchanged: lineInputs(in.Exchanged),
	})
	return h.created(c, doc, err)
}

// CreateSale godoc
// @Summary      Registrar venta
// @Description  Descuenta existencias al crearla; queda ACTIVE.
// @Tags         documents
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.CreateSaleRequest  true  "factura opcional y renglones"
// @Success      201  {object}  dto.DocumentResponse
// @Failure      400  {object}  dto.ErrorResponse
// @Failure      409  {object}  dto.ErrorResponse
// @Router       /api/sales [post]
func (h *DocumentHandler) CreateSale(c *fiber.Ctx) error {
	var in dto.CreateSaleRequest
	if ok, err := bind(c, h.validate, &in); !ok {
		return err
	}
	doc, err := h.uc.CreateSale(c.UserContext(), ActorFrom(c), movement.CreateSaleInput{
		InvoiceID: in.InvoiceID,
		Lines:     lineInputs(in.Lines),
	})
	return h.created(c, doc, err)
}

// GetByID godoc
// @Summary      Obtener documento
// @Tags         documents
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID del documento"
// @Success      200  {object}  dto.DocumentResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/documents/{id} [get]
func (h *DocumentHandler) GetByID(c *fiber.Ctx) error {
	doc, err := h.uc.Get(c.UserContext(), c.Params("id"))
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(dto.NewDocumentResponse(doc))
}

// List godoc
// @Summary      Listar documentos
// @Tags         documents
// @Security     Bearer
// @Produce      json
// @Param        kind          query  string  false  "PURCHASE_ORDER, PRODUCT_ENTRY, ..."
// @Param        status        query  string  false  "PENDING, CONFIRMED, CANCELLED, REJECTED"
// @Param        inventory_id  query  string  false  "Inventario afectado"
// @Param        limit         query  int     false  "Límite"  default(50)
// @Param        offset        query  int     false  "Offset"  default(0)
// @Success      200  {object}  dto.DocumentListResponse
// @Failure      400  {object}  dto.ErrorResponse
// @Router       /api/documents [get]
func (h *DocumentHandler) List(c *fiber.Ctx) error {
	var q dto.DocumentListRequest
	if err := c.QueryParser(&q); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_QUERY", Message: "parámetros inválidos"})
	}
	if err := h.validate.Struct(&q); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(validationResponse(err))
	}
	docs, err := h.uc.List(c.UserContext(), entity.DocumentFilter{
		Kind:        entity.DocumentKind(q.Kind),
		Status:      entity.DocumentStatus(q.Status),
		InventoryID: q.InventoryID,
		Limit:       q.Limit,
		Offset:      q.Offset,
	})
	if err != nil {
		return writeError(c, h.log, err)
	}
	out := dto.DocumentListResponse{
		Items: make([]dto.DocumentResponse, 0, len(docs)),
		Page:  dto.PageResponse{Limit: movement.EffectiveLimit(q.Limit), Offset: q.Offset, Count: len(docs)},
	}
	for _, d := range docs {
		out.Items = append(out.Items, dto.NewDocumentResponse(d))
	}
	return c.JSON(out)
}

// Confirm godoc
// @Summary      Confirmar documento
// @Description  PENDING → CONFIRMED aplicando sus movimientos de stock en una sola transacción.
// @Tags         documents
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID del documento"
// @Success      200  {object}  dto.DocumentResponse
// @Failure      400  {object}  dto.ErrorResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Failure      409  {object}  dto.ErrorResponse
// @Router       /api/documents/{id}/confirm [post]
func (h *DocumentHandler) Confirm(c *fiber.Ctx) error {
	doc, err := h.uc.Confirm(c.UserContext(), ActorFrom(c), c.Params("id"))
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(dto.NewDocumentResponse(doc))
}

// Cancel godoc
// @Summary      Cancelar documento
// @Description  PENDING → CANCELLED (REJECTED en envíos); una venta ACTIVE repone su stock.
// @Tags         documents
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID del documento"
// @Success      200  {object}  dto.DocumentResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Failure      409  {object}  dto.ErrorResponse
// @Router       /api/documents/{id}/cancel [post]
func (h *DocumentHandler) Cancel(c *fiber.Ctx) error {
	doc, err := h.uc.Cancel(c.UserContext(), ActorFrom(c), c.Params("id"))
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(dto.NewDocumentResponse(doc))
}
