package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/acrilstock-api/internal/domain/entity"
	"github.com/jhoicas/acrilstock-api/internal/domain/repository"
)

var _ repository.StockRepository = (*StockRepo)(nil)

// StockRepo implementación de StockRepository sobre PostgreSQL (usable con pool o tx).
type StockRepo struct {
	q Querier
}

// NewStockRepository construye el adaptador de stock. Pasar pool o tx (Querier).
func NewStockRepository(q Querier) *StockRepo {
	return &StockRepo{q: q}
}

const selectStock = `
	SELECT inventory_id, product_id, quantity, updated_at
	FROM stock_items WHERE inventory_id = $1 AND product_id = $2`

func (r *StockRepo) Get(ctx context.Context, inventoryID, productID string) (*entity.StockItem, error) {
	return r.get(ctx, selectStock, inventoryID, productID)
}

// GetForUpdate bloquea la fila. Un SELECT ... FOR UPDATE sobre una fila inexistente no bloquea nada,
// así que primero se crea en cero; si la transacción revierte, la fila desaparece con ella.
func (r *StockRepo) GetForUpdate(ctx context.Context, inventoryID, productID string) (*entity.StockItem, error) {
	ensure := `
		INSERT INTO stock_items (inventory_id, product_id, quantity, updated_at)
		VALUES ($1, $2, 0, now())
		ON CONFLICT (inventory_id, product_id) DO NOTHING`
	if _, err := r.q.Exec(ctx, ensure, inventoryID, productID); err != nil {
		return nil, fmt.Errorf("ensure stock row: %w", err)
	}
	return r.get(ctx, selectStock+" FOR UPDATE", inventoryID, productID)
}

func (r *StockRepo) get(ctx context.Context, query, inventoryID, productID string) (*entity.StockItem, error) {
	var s entity.StockItem
	err := r.q.QueryRow(ctx, query, inventoryID, productID).Scan(
		&s.InventoryID, &s.ProductID, &s.Quantity, &s.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return &entity.StockItem{InventoryID: inventoryID, ProductID: productID}, nil
		}
		return nil, fmt.Errorf("get stock: %w", err)
	}
	return &s, nil
}

// Upsert inserta o actualiza la cantidad (por inventario y producto).
func (r *StockRepo) Upsert(ctx context.Context, item *entity.StockItem) error {
	query := `
		INSERT INTO stock_items (inventory_id, product_id, quantity, updated_at)
		VALUES ($1, $2, $3, now())
		ON CONFLICT (inventory_id, product_id)
		DO UPDATE SET quantity = EXCLUDED.quantity, updated_at = now()
		RETURNING updated_at`
	if err := r.q.QueryRow(ctx, query, item.InventoryID, item.ProductID, item.Quantity).Scan(&item.UpdatedAt); err != nil {
		return fmt.Errorf("upsert stock: %w", err)
	}
	return nil
}

func (r *StockRepo) ListByInventory(ctx context.Context, inventoryID string) ([]*entity.StockItem, error) {
	query := `
		SELECT inventory_id, product_id, quantity, updated_at
		FROM stock_items WHERE inventory_id = $1
		ORDER BY product_id`
	rows, err := r.q.Query(ctx, query, inventoryID)
	if err != nil {
		return nil, fmt.Errorf("list stock: %w", err)
	}
	defer rows.Close()

	var out []*entity.StockItem
	for rows.Next() {
		var s entity.StockItem
		if err := rows.Scan(&s.InventoryID, &s.ProductID, &s.Quantity, &s.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan stock: %w", err)
		}
		out = append(out, &s)
	}
	return out, rows.Err()
}

func (r *StockRepo) ListCutCandidates(ctx context.Context, inventoryID string, lines []string) ([]entity.CutCandidate, error) {
	query := `
		SELECT s.inventory_id, s.product_id, s.quantity, s.updated_at, ` + productColumns("p") + `
		FROM stock_items s
		JOIN products p ON p.id = s.product_id
		WHERE s.inventory_id = $1 AND s.quantity >= 1 AND p.line = ANY($2)
		ORDER BY p.sku`
	rows, err := r.q.Query(ctx, query, inventoryID, lines)
	if err != nil {
		return nil, fmt.Errorf("list cut candidates: %w", err)
	}
	defer rows.Close()

	var out []entity.CutCandidate
	for rows.Next() {
		var c entity.CutCandidate
		dest := append([]any{&c.Item.InventoryID, &c.Item.ProductID, &c.Item.Quantity, &c.Item.UpdatedAt},
			productDest(&c.Product)...)
		if err := rows.Scan(dest...); err != nil {
			return nil, fmt.Errorf("scan cut candidate: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}
