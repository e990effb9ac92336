package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/acrilstock-api/internal/domain"
	"github.com/jhoicas/acrilstock-api/internal/domain/entity"
	"github.com/jhoicas/acrilstock-api/internal/domain/repository"
)

var (
	_ repository.ProductRepository = (*ProductRepo)(nil)
	_ repository.PriceRepository   = (*PriceRepo)(nil)
)

// ProductRepo adaptador de persistencia para productos. Pasar pool o tx (Querier).
type ProductRepo struct {
	q Querier
}

func NewProductRepository(q Querier) *ProductRepo {
	return &ProductRepo{q: q}
}

var productFields = []string{
	"id", "sku", "name", "description", "search_description", "line", "engraving", "color",
	"width", "length", "thickness", "is_composite", "is_scrap", "created_at", "updated_at",
}

// productColumns lista de columnas de products con el alias dado.
func productColumns(alias string) string {
	cols := make([]string, len(productFields))
	for i, f := range productFields {
		if alias != "" {
			f = alias + "." + f
		}
		cols[i] = f
	}
	return strings.Join(cols, ", ")
}

// productDest destinos de Scan en el orden de productFields.
func productDest(p *entity.Product) []any {
	return []any{
		&p.ID, &p.SKU, &p.Name, &p.Description, &p.SearchDescription, &p.Line, &p.Engraving, &p.Color,
		&p.Width, &p.Length, &p.Thickness, &p.IsComposite, &p.IsScrap, &p.CreatedAt, &p.UpdatedAt,
	}
}

func (r *ProductRepo) Create(ctx context.Context, p *entity.Product) error {
	now := time.Now().UTC()
	if p.CreatedAt.IsZero() {
		p.CreatedAt = now
	}
	p.UpdatedAt = now
	query := `INSERT INTO products (` + productColumns("") + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)`
	_, err := r.q.Exec(ctx, query,
		p.ID, p.SKU, p.Name, p.Description, p.SearchDescription, p.Line, p.Engraving, p.Color,
		p.Width, p.Length, p.Thickness, p.IsComposite, p.IsScrap, p.CreatedAt, p.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("sku %s: %w", p.SKU, domain.ErrDuplicate)
		}
		return fmt.Errorf("insert product: %w", err)
	}
	return nil
}

func (r *ProductRepo) GetByID(ctx context.Context, id string) (*entity.Product, error) {
	return r.getOne(ctx, "id", id)
}

func (r *ProductRepo) GetBySKU(ctx context.Context, sku string) (*entity.Product, error) {
	return r.getOne(ctx, "sku", sku)
}

func (r *ProductRepo) getOne(ctx context.Context, column, value string) (*entity.Product, error) {
	query := `SELECT ` + productColumns("") + ` FROM products WHERE ` + column + ` = $1`
	var p entity.Product
	if err := r.q.QueryRow(ctx, query, value).Scan(productDest(&p)...); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.NotFound("producto", value)
		}
		return nil, fmt.Errorf("get product: %w", err)
	}
	return &p, nil
}

func (r *ProductRepo) GetMany(ctx context.Context, ids []string) (map[string]*entity.Product, error) {
	out := make(map[string]*entity.Product, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	query := `SELECT ` + productColumns("") + ` FROM products WHERE id = ANY($1)`
	rows, err := r.q.Query(ctx, query, ids)
	if err != nil {
		return nil, fmt.Errorf("get products: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var p entity.Product
		if err := rows.Scan(productDest(&p)...); err != nil {
			return nil, fmt.Errorf("scan product: %w", err)
		}
		out[p.ID] = &p
	}
	return out, rows.Err()
}

// PriceRepo lista de precios con vigencia.
type PriceRepo struct {
	q Querier
}

func NewPriceRepository(q Querier) *PriceRepo {
	return &PriceRepo{q: q}
}

func (r *PriceRepo) CurrentPrices(ctx context.Context, productIDs []string, at time.Time) (map[string]decimal.Decimal, error) {
	out := make(map[string]decimal.Decimal, len(productIDs))
	if len(productIDs) == 0 {
		return out, nil
	}
	query := `
		SELECT DISTINCT ON (product_id) product_id, price
		FROM product_prices
		WHERE product_id = ANY($1) AND valid_from <= $2
		ORDER BY product_id, valid_from DESC`
	rows, err := r.q.Query(ctx, query, productIDs, at)
	if err != nil {
		return nil, fmt.Errorf("current prices: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var id string
		var price decimal.Decimal
		if err := rows.Scan(&id, &price); err != nil {
			return nil, fmt.Errorf("scan price: %w", err)
		}
		out[id] = price
	}
	return out, rows.Err()
}
