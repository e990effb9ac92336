package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Product definición de un producto fabricado o revendido (lámina, pieza cortada, pedacería).
// Width/Length/Thickness en la unidad comercial de la línea (metros para láminas).
type Product struct {
	ID                string
	SKU               string // único
	Name              string
	Description       string
	SearchDescription string // texto normalizado para autocompletado
	Line              string // línea de producto (ACR, POL, ...)
	Engraving         string
	Color             string
	Width             decimal.Decimal
	Length            decimal.Decimal
	Thickness         decimal.Decimal
	IsComposite       bool
	IsScrap           bool // derivado de un corte previo; se consume primero
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// ProductPrice precio de lista vigente desde ValidFrom.
type ProductPrice struct {
	ProductID string
	Price     decimal.Decimal
	ValidFrom time.Time
}
