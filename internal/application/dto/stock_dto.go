package dto

import (
	"time"

	"github.com/jhoicas/acrilstock-api/internal/domain/entity"
)

// ApplyDeltaRequest variación con signo sobre un renglón de stock.
type ApplyDeltaRequest struct {
	Delta int64 `json:"delta"`
}

// SetQuantityRequest sobrescritura directa (solo admin).
type SetQuantityRequest struct {
	Quantity int64 `json:"quantity" validate:"min=0"`
}

// StockItemResponse existencia de un producto en un inventario.
type StockItemResponse struct {
	InventoryID string     `json:"inventory_id"`
	ProductID   string     `json:"product_id"`
	Quantity    int64      `json:"quantity"`
	UpdatedAt   *time.Time `json:"updated_at,omitempty"`
}

// StockListResponse contenido de un inventario.
type StockListResponse struct {
	InventoryID string              `json:"inventory_id"`
	Items       []StockItemResponse `json:"items"`
}

func NewStockItemResponse(s *entity.StockItem) StockItemResponse {
	out := StockItemResponse{InventoryID: s.InventoryID, ProductID: s.ProductID, Quantity: s.Quantity}
	if !s.UpdatedAt.IsZero() {
		t := s.UpdatedAt
		out.UpdatedAt = &t
	}
	return out
}
