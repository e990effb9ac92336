package repository

import (
	"context"

	"github.com/jhoicas/acrilstock-api/internal/domain/entity"
)

// StockRepository puerto para consultar/actualizar StockItem por (inventario, producto).
// Get y GetForUpdate devuelven un renglón en cero si la pareja aún no existe (auto-vivificación).
type StockRepository interface {
	Get(ctx context.Context, inventoryID, productID string) (*entity.StockItem, error)
	// GetForUpdate bloquea la fila hasta el fin de la transacción (SELECT ... FOR UPDATE).
	GetForUpdate(ctx context.Context, inventoryID, productID string) (*entity.StockItem, error)
	Upsert(ctx context.Context, item *entity.StockItem) error
	ListByInventory(ctx context.Context, inventoryID string) ([]*entity.StockItem, error)
	// ListCutCandidates renglones con existencia ≥ 1 de las líneas dadas, con su producto,
	// ordenados por SKU.
	ListCutCandidates(ctx context.Context, inventoryID string, lines []string) ([]entity.CutCandidate, error)
}
