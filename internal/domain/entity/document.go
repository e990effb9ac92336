package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// DocumentKind etiqueta de la variante de documento de movimiento.
type DocumentKind string

// Variantes de documento de movimiento.
const (
	KindPurchaseOrder     DocumentKind = "PURCHASE_ORDER"     // orden de compra
	KindProductEntry      DocumentKind = "PRODUCT_ENTRY"      // ingreso de producto
	KindProductRemoval    DocumentKind = "PRODUCT_REMOVAL"    // baja de producto
	KindTransferShipment  DocumentKind = "TRANSFER_SHIPMENT"  // envío de transferencia
	KindTransferReception DocumentKind = "TRANSFER_RECEPTION" // recepción de transferencia
	KindReimbursement     DocumentKind = "REIMBURSEMENT"      // reembolso / cambio
	KindSale              DocumentKind = "SALE"               // venta
)

// Valid indica si la etiqueta es una variante conocida.
func (k DocumentKind) Valid() bool {
	switch k {
	case KindPurchaseOrder, KindProductEntry, KindProductRemoval, KindTransferShipment,
		KindTransferReception, KindReimbursement, KindSale:
		return true
	}
	return false
}

// DocumentStatus estado de la máquina de estados.
type DocumentStatus string

const (
	StatusPending   DocumentStatus = "PENDING"
	StatusConfirmed DocumentStatus = "CONFIRMED"
	StatusCancelled DocumentStatus = "CANCELLED"
	StatusRejected  DocumentStatus = "REJECTED" // cancelación de un envío de transferencia
)

// Estados de venta tal como los ve el usuario.
const (
	SaleStateActive    = "ACTIVE"
	SaleStateCancelled = "CANCELLED"
)

// RemovalCause causa de una baja de producto.
type RemovalCause string

const (
	CauseInternal RemovalCause = "INTERNAL" // merma, daño, uso interno
	CauseProvider RemovalCause = "PROVIDER" // devolución a proveedor
	CauseTransfer RemovalCause = "TRANSFER" // rechazo de una transferencia recibida
)

// LineRole distingue los renglones de un reembolso.
type LineRole string

const (
	LineRoleItem      LineRole = ""
	LineRoleReturned  LineRole = "RETURNED"  // producto devuelto por el cliente (entra)
	LineRoleExchanged LineRole = "EXCHANGED" // producto entregado a cambio (sale)
)

// Actor usuario que ejecuta una transición y la sucursal desde la que opera.
// Se pasa explícito en cada llamada; no existe un "usuario actual" global.
type Actor struct {
	UserID   string
	BranchID string
	Role     string
}

// LineItem renglón de un documento. Inmutable una vez que el documento deja PENDING.
// En recepciones Quantity es la cantidad recibida y AcceptedQuantity la aceptada.
type LineItem struct {
	ID               string
	ProductID        string
	Quantity         int64
	AcceptedQuantity int64
	RejectionReason  *string
	Role             LineRole
	UnitPrice        *decimal.Decimal // precio capturado al calcular la diferencia monetaria
}

// Document documento de movimiento (variante etiquetada por Kind).
// Los campos de variante solo tienen valor para el Kind que los usa.
type Document struct {
	ID          string
	Kind        DocumentKind
	Status      DocumentStatus
	InventoryID string // inventario afectado (origen en envíos, destino en recepciones)
	BranchID    string // sucursal que creó el documento

	ProviderID      string       // PurchaseOrder, ProductRemoval(PROVIDER)
	PurchaseOrderID string       // ProductEntry
	Cause           RemovalCause // ProductRemoval
	ReceptionID     string       // ProductRemoval(TRANSFER)
	SourceBranchID  string       // TransferShipment
	TargetBranchID  string       // TransferShipment
	ShipmentID      string       // TransferReception
	SaleID          string       // Reimbursement (opcional)
	InvoiceID       string       // Sale (opcional)

	MonetaryDifference *decimal.Decimal // Reimbursement, derivado

	Lines []LineItem

	CreatedBy   string
	CreatedAt   time.Time
	ConfirmedBy string
	ConfirmedAt *time.Time
	CancelledBy string
	CancelledAt *time.Time
}

// CancelledStatus estado terminal de cancelación para la variante.
func (d *Document) CancelledStatus() DocumentStatus {
	if d.Kind == KindTransferShipment {
		return StatusRejected
	}
	return StatusCancelled
}

// IsCancelled indica si el documento terminó cancelado o rechazado.
func (d *Document) IsCancelled() bool {
	return d.Status == StatusCancelled || d.Status == StatusRejected
}

// SaleState estado de venta (ACTIVE / CANCELLED). Vacío para otras variantes.
func (d *Document) SaleState() string {
	if d.Kind != KindSale {
		return ""
	}
	switch d.Status {
	case StatusConfirmed:
		return SaleStateActive
	case StatusCancelled:
		return SaleStateCancelled
	}
	return string(d.Status)
}

// QuantityByProduct suma Quantity por producto (para renglones con el rol dado).
func (d *Document) QuantityByProduct(role LineRole) map[string]int64 {
	out := make(map[string]int64, len(d.Lines))
	for _, l := range d.Lines {
		if l.Role == role {
			out[l.ProductID] += l.Quantity
		}
	}
	return out
}

// TotalQuantity suma de Quantity de todos los renglones.
func (d *Document) TotalQuantity() int64 {
	var total int64
	for _, l := range d.Lines {
		total += l.Quantity
	}
	return total
}

// Clone copia profunda (renglones y punteros) para repositorios en memoria.
func (d *Document) Clone() *Document {
	c := *d
	c.Lines = make([]LineItem, len(d.Lines))
	for i, l := range d.Lines {
		if l.RejectionReason != nil {
			r := *l.RejectionReason
			l.RejectionReason = &r
		}
		if l.UnitPrice != nil {
			p := *l.UnitPrice
			l.UnitPrice = &p
		}
		c.Lines[i] = l
	}
	if d.MonetaryDifference != nil {
		m := *d.MonetaryDifference
		c.MonetaryDifference = &m
	}
	if d.ConfirmedAt != nil {
		t := *d.ConfirmedAt
		c.ConfirmedAt = &t
	}
	if d.CancelledAt != nil {
		t := *d.CancelledAt
		c.CancelledAt = &t
	}
	return &c
}

// DocumentFilter criterios de listado.
type DocumentFilter struct {
	Kind        DocumentKind
	Status      DocumentStatus
	InventoryID string
	Limit       int
	Offset      int
}

// ParentID referencia que agrupa al documento bajo otro: orden de compra de un ingreso,
// envío de una recepción, factura de una venta, venta de un reembolso, recepción de una baja.
func (d *Document) ParentID() string {
	switch d.Kind {
	case KindProductEntry:
		return d.PurchaseOrderID
	case KindTransferReception:
		return d.ShipmentID
	case KindSale:
		return d.InvoiceID
	case KindReimbursement:
		return d.SaleID
	case KindProductRemoval:
		return d.ReceptionID
	}
	return ""
}
