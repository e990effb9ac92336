package entity

import "time"

// Estados de la factura en lo que toca al inventario.
const (
	InvoiceStatusActive    = "ACTIVE"
	InvoiceStatusCancelled = "CANCELLED"
)

// Invoice cabecera de factura. Solo se modela lo que afecta al stock: su cancelación en cascada.
type Invoice struct {
	ID          string
	Folio       string
	Status      string
	CancelledAt *time.Time
	CreatedAt   time.Time
}
