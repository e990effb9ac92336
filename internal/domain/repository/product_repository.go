package repository

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/acrilstock-api/internal/domain/entity"
)

// ProductRepository puerto de persistencia para definiciones de producto.
type ProductRepository interface {
	Create(ctx context.Context, product *entity.Product) error
	GetByID(ctx context.Context, id string) (*entity.Product, error)
	GetBySKU(ctx context.Context, sku string) (*entity.Product, error)
	// GetMany devuelve solo los que existen, indexados por ID.
	GetMany(ctx context.Context, ids []string) (map[string]*entity.Product, error)
}

// PriceRepository lista de precios vigente.
type PriceRepository interface {
	// CurrentPrices precio más reciente con ValidFrom ≤ at; los productos sin precio no aparecen.
	CurrentPrices(ctx context.Context, productIDs []string, at time.Time) (map[string]decimal.Decimal, error)
}
