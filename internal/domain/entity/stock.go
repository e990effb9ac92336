package entity

import "time"

// StockItem cantidad de un producto en un inventario. Única por (InventoryID, ProductID).
// Quantity nunca es negativa en un estado confirmado.
type StockItem struct {
	InventoryID string
	ProductID   string
	Quantity    int64
	UpdatedAt   time.Time
}

// StockDelta variación a aplicar sobre un StockItem.
type StockDelta struct {
	InventoryID string
	ProductID   string
	Delta       int64
}

// Key identifica el renglón (inventario, producto) del delta.
func (d StockDelta) Key() string { return d.InventoryID + "/" + d.ProductID }

// CutCandidate renglón de stock junto con la definición del producto, para el optimizador de cortes.
type CutCandidate struct {
	Item    StockItem
	Product Product
}
