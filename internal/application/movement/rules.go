package movement

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/acrilstock-api/internal/application/ledger"
	"github.com/jhoicas/acrilstock-api/internal/domain"
	"github.com/jhoicas/acrilstock-api/internal/domain/entity"
	"github.com/jhoicas/acrilstock-api/internal/domain/repository"
)

// confirmDeltas revalida las precondiciones de la variante y devuelve los deltas a aplicar.
func (uc *UseCase) confirmDeltas(ctx context.Context, repos repository.Repositories, doc *entity.Document, now time.Time) ([]entity.StockDelta, error) {
	switch doc.Kind {
	case entity.KindPurchaseOrder:
		return nil, nil

	case entity.KindProductEntry:
		if err := checkEntry(ctx, repos, doc); err != nil {
			return nil, err
		}
		return lineDeltas(doc.InventoryID, doc.Lines, entity.LineRoleItem, 1), nil

	case entity.KindProductRemoval:
		if err := checkRemovalCause(ctx, repos, doc); err != nil {
			return nil, err
		}
		return lineDeltas(doc.InventoryID, doc.Lines, entity.LineRoleItem, -1), nil

	case entity.KindTransferShipment:
		return lineDeltas(doc.InventoryID, doc.Lines, entity.LineRoleItem, -1), nil

	case entity.KindTransferReception:
		if err := checkReceptionLines(doc.Lines); err != nil {
			return nil, err
		}
		if _, err := checkReception(ctx, repos, doc); err != nil {
			return nil, err
		}
		deltas := make([]entity.StockDelta, 0, len(doc.Lines))
		for _, l := range doc.Lines {
			deltas = append(deltas, entity.StockDelta{InventoryID: doc.InventoryID, ProductID: l.ProductID, Delta: l.AcceptedQuantity})
		}
		return deltas, nil

	case entity.KindReimbursement:
		if err := priceReimbursement(ctx, repos, doc, now); err != nil {
			return nil, err
		}
		return append(
			lineDeltas(doc.InventoryID, doc.Lines, entity.LineRoleReturned, 1),
			lineDeltas(doc.InventoryID, doc.Lines, entity.LineRoleExchanged, -1)...,
		), nil
	}
	return nil, domain.Invalid("kind", "variante desconocida %q", doc.Kind)
}

// reverseSale devuelve al inventario lo que la venta descontó y cancela la factura
// cuando ninguna otra venta activa la referencia.
func (uc *UseCase) reverseSale(ctx context.Context, repos repository.Repositories, actor entity.Actor, doc *entity.Document, now time.Time) (int, error) {
	deltas := lineDeltas(doc.InventoryID, doc.Lines, entity.LineRoleItem, 1)
	if err := applyDeltas(ctx, repos, actor, deltas, now); err != nil {
		return 0, err
	}
	if doc.InvoiceID == "" {
		return len(deltas), nil
	}

	invoice, err := repos.Invoices.GetForUpdate(ctx, doc.InvoiceID)
	if err != nil {
		return 0, err
	}
	sales, err := repos.Documents.ListByParent(ctx, entity.KindSale, doc.InvoiceID)
	if err != nil {
		return 0, err
	}
	for _, s := range sales {
		if s.ID != doc.ID && s.SaleState() == entity.SaleStateActive {
			return len(deltas), nil
		}
	}
	if invoice.Status != entity.InvoiceStatusCancelled {
		if err := repos.Invoices.Cancel(ctx, invoice.ID, now); err != nil {
			return 0, err
		}
		uc.log.Info().Str("invoice_id", invoice.ID).Str("sale_id", doc.ID).Msg("factura cancelada en cascada")
	}
	return len(deltas), nil
}

func applyDeltas(ctx context.Context, repos repository.Repositories, actor entity.Actor, deltas []entity.StockDelta, now time.Time) error {
	if len(deltas) == 0 {
		return nil
	}
	_, err := ledger.Apply(ctx, repos, actor.UserID, deltas, now)
	return err
}

func lineDeltas(inventoryID string, lines []entity.LineItem, role entity.LineRole, sign int64) []entity.StockDelta {
	out := make([]entity.StockDelta, 0, len(lines))
	for _, l := range lines {
		if l.Role != role {
			continue
		}
		out = append(out, entity.StockDelta{InventoryID: inventoryID, ProductID: l.ProductID, Delta: sign * l.Quantity})
	}
	return out
}

// ──────────────────────────────────────────────────────────────────────────────
// Precondiciones por variante (se evalúan al crear y de nuevo al confirmar)
// ──────────────────────────────────────────────────────────────────────────────

// checkEntry la orden debe estar confirmada y pertenecer a la sucursal del ingreso, cada producto
// debe venir en ella y los otros ingresos pendientes o confirmados no deben cubrir ya toda la
// cantidad comprada.
func checkEntry(ctx context.Context, repos repository.Repositories, doc *entity.Document) error {
	po, err := repos.Documents.GetForUpdate(ctx, doc.PurchaseOrderID)
	if err != nil {
		return err
	}
	if po.Kind != entity.KindPurchaseOrder {
		return domain.Invalid("purchase_order_id", "%s no es una orden de compra", po.ID)
	}
	if po.Status != entity.StatusConfirmed {
		return domain.Invalid("purchase_order_id", "la orden de compra %s está en estado %s", po.ID, po.Status)
	}
	if po.BranchID != doc.BranchID {
		return domain.Invalid("purchase_order_id", "la orden de compra %s pertenece a la sucursal %s", po.ID, po.BranchID)
	}

	ordered := po.QuantityByProduct(entity.LineRoleItem)
	for i, l := range doc.Lines {
		if _, ok := ordered[l.ProductID]; !ok {
			return domain.Invalid(lineField(i, "product_id"), "el producto %s no está en la orden de compra", l.ProductID)
		}
	}

	entries, err := repos.Documents.ListByParent(ctx, entity.KindProductEntry, po.ID)
	if err != nil {
		return err
	}
	var covered int64
	for _, e := range entries {
		if e.ID == doc.ID {
			continue
		}
		if e.Status == entity.StatusPending || e.Status == entity.StatusConfirmed {
			covered += e.TotalQuantity()
		}
	}
	if total := po.TotalQuantity(); covered >= total {
		return domain.Invalid("purchase_order_id",
			"entre ingresos confirmados y pendientes ya se recibieron los %d productos de la orden", total)
	}
	return nil
}

// checkRemovalCause PROVIDER exige proveedor; TRANSFER exige una recepción existente.
func checkRemovalCause(ctx context.Context, repos repository.Repositories, doc *entity.Document) error {
	switch doc.Cause {
	case entity.CauseInternal:
		return nil
	case entity.CauseProvider:
		if doc.ProviderID == "" {
			return domain.Invalid("provider_id", "se requiere especificar un proveedor")
		}
		return nil
	case entity.CauseTransfer:
		if doc.ReceptionID == "" {
			return domain.Invalid("reception_id", "se requiere especificar una recepción de transferencia")
		}
		rec, err := repos.Documents.GetByID(ctx, doc.ReceptionID)
		if err != nil {
			return err
		}
		if rec.Kind != entity.KindTransferReception {
			return domain.Invalid("reception_id", "%s no es una recepción de transferencia", rec.ID)
		}
		return nil
	}
	return domain.Invalid("cause", "causa desconocida %q", doc.Cause)
}

// checkReceptionLines aceptado ≤ recibido; motivo de rechazo si y solo si aceptado < recibido.
func checkReceptionLines(lines []entity.LineItem) error {
	for i, l := range lines {
		if l.Quantity < 1 {
			return domain.Invalid(lineField(i, "received_quantity"), "debe ser mayor a 0")
		}
		if l.AcceptedQuantity < 0 {
			return domain.Invalid(lineField(i, "accepted_quantity"), "no puede ser negativa")
		}
		if l.AcceptedQuantity > l.Quantity {
			return domain.Invalid(lineField(i, "accepted_quantity"), "la cantidad aceptada no puede ser mayor a la recibida")
		}
		hasReason := l.RejectionReason != nil && strings.TrimSpace(*l.RejectionReason) != ""
		if l.AcceptedQuantity < l.Quantity && !hasReason {
			return domain.Invalid(lineField(i, "rejection_reason"), "debe indicar un motivo para el rechazo")
		}
		if l.AcceptedQuantity == l.Quantity && hasReason {
			return domain.Invalid(lineField(i, "rejection_reason"), "no se puede indicar motivo de rechazo si se aceptó todo lo recibido")
		}
	}
	return nil
}

// checkReception el envío debe estar confirmado y dirigido a la sucursal que recibe; por producto,
// lo aceptado en recepciones confirmadas más lo recibido en pendientes (incluida esta)
// no puede superar lo enviado.
func checkReception(ctx context.Context, repos repository.Repositories, doc *entity.Document) (*entity.Document, error) {
	shipment, err := repos.Documents.GetForUpdate(ctx, doc.ShipmentID)
	if err != nil {
		return nil, err
	}
	if shipment.Kind != entity.KindTransferShipment {
		return nil, domain.Invalid("shipment_id", "%s no es un envío de transferencia", shipment.ID)
	}
	if shipment.Status != entity.StatusConfirmed {
		return nil, domain.Invalid("shipment_id", "el envío %s está en estado %s", shipment.ID, shipment.Status)
	}
	if shipment.TargetBranchID != doc.BranchID {
		return nil, domain.Invalid("shipment_id", "el envío %s no está dirigido a la sucursal %s", shipment.ID, doc.BranchID)
	}

	shipped := shipment.QuantityByProduct(entity.LineRoleItem)
	booked := make(map[string]int64, len(shipped))
	for i, l := range doc.Lines {
		if _, ok := shipped[l.ProductID]; !ok {
			return nil, domain.Invalid(lineField(i, "product_id"), "el producto %s no viene en el envío", l.ProductID)
		}
		booked[l.ProductID] += l.Quantity
	}

	receptions, err := repos.Documents.ListByParent(ctx, entity.KindTransferReception, shipment.ID)
	if err != nil {
		return nil, err
	}
	for _, r := range receptions {
		if r.ID == doc.ID {
			continue
		}
		for _, l := range r.Lines {
			switch r.Status {
			case entity.StatusConfirmed:
				booked[l.ProductID] += l.AcceptedQuantity
			case entity.StatusPending:
				booked[l.ProductID] += l.Quantity
			}
		}
	}
	for i, l := range doc.Lines {
		if booked[l.ProductID] > shipped[l.ProductID] {
			return nil, domain.Invalid(lineField(i, "received_quantity"),
				"las recepciones del producto %s suman %d y el envío solo trae %d",
				l.ProductID, booked[l.ProductID], shipped[l.ProductID])
		}
	}
	return shipment, nil
}

// priceReimbursement recalcula la diferencia monetaria con la lista de precios vigente:
// Σ precio actual × cantidad devuelta. Falla si algún producto devuelto no tiene precio.
func priceReimbursement(ctx context.Context, repos repository.Repositories, doc *entity.Document, now time.Time) error {
	returned := doc.QuantityByProduct(entity.LineRoleReturned)
	ids := make([]string, 0, len(returned))
	for id := range returned {
		ids = append(ids, id)
	}
	prices, err := repos.Prices.CurrentPrices(ctx, ids, now)
	if err != nil {
		return err
	}

	total := decimal.Zero
	for i := range doc.Lines {
		l := &doc.Lines[i]
		if l.Role != entity.LineRoleReturned {
			continue
		}
		price, ok := prices[l.ProductID]
		if !ok {
			return domain.Invalid(lineField(i, "product_id"), "el producto %s no tiene precio vigente", l.ProductID)
		}
		p := price
		l.UnitPrice = &p
		total = total.Add(price.Mul(decimal.NewFromInt(l.Quantity)))
	}
	doc.MonetaryDifference = &total
	return nil
}

func lineField(i int, name string) string {
	return "lines[" + strconv.Itoa(i) + "]." + name
}
