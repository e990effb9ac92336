package repository

import (
	"context"
	"time"

	"github.com/jhoicas/acrilstock-api/internal/domain/entity"
)

// InventoryRepository puerto de persistencia para inventarios (uno por sucursal).
type InventoryRepository interface {
	GetByID(ctx context.Context, id string) (*entity.Inventory, error)
	GetByBranch(ctx context.Context, branchID string) (*entity.Inventory, error)
	// Touch registra última actualización y quién la hizo.
	Touch(ctx context.Context, inventoryID, userID string, at time.Time) error
}
