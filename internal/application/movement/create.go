package movement

import (
	"context"
	"strconv"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/jhoicas/acrilstock-api/internal/domain"
	"github.com/jhoicas/acrilstock-api/internal/domain/entity"
	"github.com/jhoicas/acrilstock-api/internal/domain/repository"
)

// LineInput renglón (producto, cantidad) de un documento.
type LineInput struct {
	ProductID string
	Quantity  int64
}

// ReceptionLineInput renglón de una recepción de transferencia.
type ReceptionLineInput struct {
	ProductID        string
	ReceivedQuantity int64
	AcceptedQuantity int64
	RejectionReason  *string
}

// CreatePurchaseOrderInput orden de compra a un proveedor.
type CreatePurchaseOrderInput struct {
	ProviderID string
	Lines      []LineInput
}

// CreateProductEntryInput ingreso contra una orden de compra confirmada.
type CreateProductEntryInput struct {
	PurchaseOrderID string
	Lines           []LineInput
}

// CreateProductRemovalInput baja de producto. ProviderID o ReceptionID según la causa.
type CreateProductRemovalInput struct {
	Cause       entity.RemovalCause
	ProviderID  string
	ReceptionID string
	Lines       []LineInput
}

// CreateTransferShipmentInput envío desde la sucursal del actor hacia TargetBranchID.
type CreateTransferShipmentInput struct {
	TargetBranchID string
	Lines          []LineInput
}

// CreateTransferReceptionInput recepción de un envío en la sucursal del actor.
type CreateTransferReceptionInput struct {
	ShipmentID string
	Lines      []ReceptionLineInput
}

// CreateReimbursementInput devolución (Returned) con cambio opcional (Exchanged).
type CreateReimbursementInput struct {
	SaleID    string
	Returned  []LineInput
	Exchanged []LineInput
}

// CreateSaleInput venta; se descuenta del inventario al crearla.
type CreateSaleInput struct {
	InvoiceID string
	Lines     []LineInput
}

// CreatePurchaseOrder registra una orden de compra PENDING. No afecta existencias.
func (uc *UseCase) CreatePurchaseOrder(ctx context.Context, actor entity.Actor, in CreatePurchaseOrderInput) (*entity.Document, error) {
	return uc.create(ctx, actor, entity.KindPurchaseOrder, func(ctx context.Context, repos repository.Repositories, doc *entity.Document, _ time.Time) error {
		if strings.TrimSpace(in.ProviderID) == "" {
			return domain.Invalid("provider_id", "requerido")
		}
		lines, err := toLines(in.Lines, entity.LineRoleItem, "lines")
		if err != nil {
			return err
		}
		doc.ProviderID = in.ProviderID
		doc.Lines = lines
		return nil
	})
}

// CreateProductEntry registra un ingreso PENDING en el inventario del actor.
func (uc *UseCase) CreateProductEntry(ctx context.Context, actor entity.Actor, in CreateProductEntryInput) (*entity.Document, error) {
	return uc.create(ctx, actor, entity.KindProductEntry, func(ctx context.Context, repos repository.Repositories, doc *entity.Document, _ time.Time) error {
		if in.PurchaseOrderID == "" {
			return domain.Invalid("purchase_order_id", "requerido")
		}
		lines, err := toLines(in.Lines, entity.LineRoleItem, "lines")
		if err != nil {
			return err
		}
		inv, err := repos.Inventories.GetByBranch(ctx, actor.BranchID)
		if err != nil {
			return err
		}
		doc.InventoryID = inv.ID
		doc.PurchaseOrderID = in.PurchaseOrderID
		doc.Lines = lines
		return checkEntry(ctx, repos, doc)
	})
}

// CreateProductRemoval registra una baja PENDING; verifica la causa y la existencia actual.
func (uc *UseCase) CreateProductRemoval(ctx context.Context, actor entity.Actor, in CreateProductRemovalInput) (*entity.Document, error) {
	return uc.create(ctx, actor, entity.KindProductRemoval, func(ctx context.Context, repos repository.Repositories, doc *entity.Document, _ time.Time) error {
		lines, err := toLines(in.Lines, entity.LineRoleItem, "lines")
		if err != nil {
			return err
		}
		inv, err := repos.Inventories.GetByBranch(ctx, actor.BranchID)
		if err != nil {
			return err
		}
		doc.InventoryID = inv.ID
		doc.Cause = in.Cause
		doc.ProviderID = in.ProviderID
		doc.ReceptionID = in.ReceptionID
		doc.Lines = lines
		if err := checkRemovalCause(ctx, repos, doc); err != nil {
			return err
		}
		return checkAvailable(ctx, repos, inv.ID, lines)
	})
}

// CreateTransferShipment registra un envío PENDING desde la sucursal del actor.
func (uc *UseCase) CreateTransferShipment(ctx context.Context, actor entity.Actor, in CreateTransferShipmentInput) (*entity.Document, error) {
	return uc.create(ctx, actor, entity.KindTransferShipment, func(ctx context.Context, repos repository.Repositories, doc *entity.Document, _ time.Time) error {
		if in.TargetBranchID == "" {
			return domain.Invalid("target_branch_id", "requerido")
		}
		if in.TargetBranchID == actor.BranchID {
			return domain.Invalid("target_branch_id", "la sucursal destino debe ser distinta a la de origen")
		}
		lines, err := toLines(in.Lines, entity.LineRoleItem, "lines")
		if err != nil {
			return err
		}
		source, err := repos.Inventories.GetByBranch(ctx, actor.BranchID)
		if err != nil {
			return err
		}
		if _, err := repos.Inventories.GetByBranch(ctx, in.TargetBranchID); err != nil {
			return err
		}
		doc.InventoryID = source.ID
		doc.SourceBranchID = actor.BranchID
		doc.TargetBranchID = in.TargetBranchID
		doc.Lines = lines
		return checkAvailable(ctx, repos, source.ID, lines)
	})
}

// CreateTransferReception registra la recepción PENDING de un envío confirmado.
func (uc *UseCase) CreateTransferReception(ctx context.Context, actor entity.Actor, in CreateTransferReceptionInput) (*entity.Document, error) {
	return uc.create(ctx, actor, entity.KindTransferReception, func(ctx context.Context, repos repository.Repositories, doc *entity.Document, _ time.Time) error {
		if in.ShipmentID == "" {
			return domain.Invalid("shipment_id", "requerido")
		}
		if len(in.Lines) == 0 {
			return domain.Invalid("lines", "se requiere al menos un renglón")
		}
		lines := make([]entity.LineItem, 0, len(in.Lines))
		for i, l := range in.Lines {
			if l.ProductID == "" {
				return domain.Invalid(lineField(i, "product_id"), "requerido")
			}
			lines = append(lines, entity.LineItem{
				ProductID:        l.ProductID,
				Quantity:         l.ReceivedQuantity,
				AcceptedQuantity: l.AcceptedQuantity,
				RejectionReason:  normalizeReason(l.RejectionReason),
			})
		}
		if err := checkReceptionLines(lines); err != nil {
			return err
		}
		doc.ShipmentID = in.ShipmentID
		doc.Lines = lines
		shipment, err := checkReception(ctx, repos, doc)
		if err != nil {
			return err
		}
		target, err := repos.Inventories.GetByBranch(ctx, shipment.TargetBranchID)
		if err != nil {
			return err
		}
		doc.InventoryID = target.ID
		return nil
	})
}

// CreateReimbursement registra un reembolso PENDING y calcula su diferencia monetaria.
func (uc *UseCase) CreateReimbursement(ctx context.Context, actor entity.Actor, in CreateReimbursementInput) (*entity.Document, error) {
	return uc.create(ctx, actor, entity.KindReimbursement, func(ctx context.Context, repos repository.Repositories, doc *entity.Document, now time.Time) error {
		returned, err := toLines(in.Returned, entity.LineRoleReturned, "returned")
		if err != nil {
			return err
		}
		var exchanged []entity.LineItem
		if len(in.Exchanged) > 0 {
			if exchanged, err = toLines(in.Exchanged, entity.LineRoleExchanged, "exchanged"); err != nil {
				return err
			}
		}
		if in.SaleID != "" {
			sale, err := repos.Documents.GetByID(ctx, in.SaleID)
			if err != nil {
				return err
			}
			if sale.Kind != entity.KindSale {
				return domain.Invalid("sale_id", "%s no es una venta", sale.ID)
			}
		}
		inv, err := repos.Inventories.GetByBranch(ctx, actor.BranchID)
		if err != nil {
			return err
		}
		doc.InventoryID = inv.ID
		doc.SaleID = in.SaleID
		doc.Lines = append(returned, exchanged...)
		return priceReimbursement(ctx, repos, doc, now)
	})
}

// CreateSale registra una venta ya confirmada (ACTIVE): descuenta las existencias en la misma
// transacción en que se crea. Si falta stock no se crea nada.
func (uc *UseCase) CreateSale(ctx context.Context, actor entity.Actor, in CreateSaleInput) (*entity.Document, error) {
	return uc.create(ctx, actor, entity.KindSale, func(ctx context.Context, repos repository.Repositories, doc *entity.Document, now time.Time) error {
		lines, err := toLines(in.Lines, entity.LineRoleItem, "lines")
		if err != nil {
			return err
		}
		if in.InvoiceID != "" {
			invoice, err := repos.Invoices.GetForUpdate(ctx, in.InvoiceID)
			if err != nil {
				return err
			}
			if invoice.Status != entity.InvoiceStatusActive {
				return domain.Invalid("invoice_id", "la factura %s está cancelada", invoice.ID)
			}
		}
		inv, err := repos.Inventories.GetByBranch(ctx, actor.BranchID)
		if err != nil {
			return err
		}
		doc.InventoryID = inv.ID
		doc.InvoiceID = in.InvoiceID
		doc.Lines = lines
		if err := checkProducts(ctx, repos, lines); err != nil {
			return err
		}
		if err := applyDeltas(ctx, repos, actor, lineDeltas(inv.ID, lines, entity.LineRoleItem, -1), now); err != nil {
			return err
		}
		doc.Status = entity.StatusConfirmed
		doc.ConfirmedBy = actor.UserID
		doc.ConfirmedAt = &now
		return nil
	})
}

type buildFunc func(ctx context.Context, repos repository.Repositories, doc *entity.Document, now time.Time) error

func (uc *UseCase) create(ctx context.Context, actor entity.Actor, kind entity.DocumentKind, build buildFunc) (*entity.Document, error) {
	ctx, span := tracer.Start(ctx, "movement.create")
	defer span.End()
	span.SetAttributes(attribute.String("document.kind", string(kind)), attribute.String("actor.user_id", actor.UserID))

	var out *entity.Document
	err := func() error {
		if err := checkActor(actor); err != nil {
			return err
		}
		return uc.tx.Run(ctx, func(repos repository.Repositories) error {
			now := uc.now()
			doc := &entity.Document{
				ID:        uc.newID(),
				Kind:      kind,
				Status:    entity.StatusPending,
				BranchID:  actor.BranchID,
				CreatedBy: actor.UserID,
				CreatedAt: now,
			}
			if err := build(ctx, repos, doc, now); err != nil {
				return err
			}
			if err := checkProducts(ctx, repos, doc.Lines); err != nil {
				return err
			}
			for i := range doc.Lines {
				doc.Lines[i].ID = uc.newID()
			}
			if err := repos.Documents.Create(ctx, doc); err != nil {
				return err
			}
			out = doc
			return nil
		})
	}()

	id := ""
	deltas := 0
	if out != nil {
		id = out.ID
		if out.Kind == entity.KindSale {
			deltas = len(out.Lines)
		}
	}
	uc.observe(err, string(kind), transitionCreate, id, actor, deltas)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	return out, nil
}

func toLines(in []LineInput, role entity.LineRole, field string) ([]entity.LineItem, error) {
	if len(in) == 0 {
		return nil, domain.Invalid(field, "se requiere al menos un renglón")
	}
	out := make([]entity.LineItem, 0, len(in))
	for i, l := range in {
		if l.ProductID == "" {
			return nil, domain.Invalid(field+"["+strconv.Itoa(i)+"].product_id", "requerido")
		}
		if l.Quantity < 1 {
			return nil, domain.Invalid(field+"["+strconv.Itoa(i)+"].quantity", "debe ser mayor a 0")
		}
		out = append(out, entity.LineItem{ProductID: l.ProductID, Quantity: l.Quantity, Role: role})
	}
	return out, nil
}

// checkProducts todos los productos referenciados existen.
func checkProducts(ctx context.Context, repos repository.Repositories, lines []entity.LineItem) error {
	ids := make([]string, 0, len(lines))
	for _, l := range lines {
		ids = append(ids, l.ProductID)
	}
	found, err := repos.Products.GetMany(ctx, ids)
	if err != nil {
		return err
	}
	for _, id := range ids {
		if _, ok := found[id]; !ok {
			return domain.NotFound("producto", id)
		}
	}
	return nil
}

// checkAvailable aviso temprano al crear envíos y bajas: la existencia actual alcanza.
// La verificación definitiva ocurre al confirmar, con la fila bloqueada.
func checkAvailable(ctx context.Context, repos repository.Repositories, inventoryID string, lines []entity.LineItem) error {
	need := make(map[string]int64, len(lines))
	for _, l := range lines {
		need[l.ProductID] += l.Quantity
	}
	for i, l := range lines {
		qty, ok := need[l.ProductID]
		if !ok {
			continue
		}
		delete(need, l.ProductID)
		item, err := repos.Stock.Get(ctx, inventoryID, l.ProductID)
		if err != nil {
			return err
		}
		if item.Quantity < qty {
			return domain.Invalid(lineField(i, "quantity"),
				"el inventario %s solo cuenta con %d unidades de %s", inventoryID, item.Quantity, l.ProductID)
		}
	}
	return nil
}

func normalizeReason(r *string) *string {
	if r == nil {
		return nil
	}
	s := strings.TrimSpace(*r)
	if s == "" {
		return nil
	}
	return &s
}
