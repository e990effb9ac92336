package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/acrilstock-api/internal/domain"
	"github.com/jhoicas/acrilstock-api/internal/domain/entity"
	"github.com/jhoicas/acrilstock-api/internal/domain/repository"
)

var (
	_ repository.InventoryRepository = (*InventoryRepo)(nil)
	_ repository.InvoiceRepository   = (*InvoiceRepo)(nil)
)

// InventoryRepo inventarios por sucursal.
type InventoryRepo struct {
	q Querier
}

func NewInventoryRepository(q Querier) *InventoryRepo {
	return &InventoryRepo{q: q}
}

func (r *InventoryRepo) GetByID(ctx context.Context, id string) (*entity.Inventory, error) {
	return r.getOne(ctx, "id", id, "inventario")
}

func (r *InventoryRepo) GetByBranch(ctx context.Context, branchID string) (*entity.Inventory, error) {
	return r.getOne(ctx, "branch_id", branchID, "inventario de sucursal")
}

func (r *InventoryRepo) getOne(ctx context.Context, column, value, resource string) (*entity.Inventory, error) {
	query := `
		SELECT id, name, branch_id, supervisor_id, last_update, last_updater
		FROM inventories WHERE ` + column + ` = $1`
	var (
		inv         entity.Inventory
		supervisor  *string
		lastUpdate  *time.Time
		lastUpdater *string
	)
	err := r.q.QueryRow(ctx, query, value).Scan(&inv.ID, &inv.Name, &inv.BranchID, &supervisor, &lastUpdate, &lastUpdater)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.NotFound(resource, value)
		}
		return nil, fmt.Errorf("get inventory: %w", err)
	}
	inv.SupervisorID = deref(supervisor)
	inv.LastUpdater = deref(lastUpdater)
	if lastUpdate != nil {
		inv.LastUpdate = *lastUpdate
	}
	return &inv, nil
}

func (r *InventoryRepo) Touch(ctx context.Context, inventoryID, userID string, at time.Time) error {
	tag, err := r.q.Exec(ctx,
		`UPDATE inventories SET last_update = $2, last_updater = $3 WHERE id = $1`,
		inventoryID, at, nullIfEmpty(userID))
	if err != nil {
		return fmt.Errorf("touch inventory: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.NotFound("inventario", inventoryID)
	}
	return nil
}

// InvoiceRepo solo cabecera y cancelación.
type InvoiceRepo struct {
	q Querier
}

func NewInvoiceRepository(q Querier) *InvoiceRepo {
	return &InvoiceRepo{q: q}
}

func (r *InvoiceRepo) GetForUpdate(ctx context.Context, id string) (*entity.Invoice, error) {
	query := `
		SELECT id, folio, status, cancelled_at, created_at
		FROM invoices WHERE id = $1
		FOR UPDATE`
	var inv entity.Invoice
	err := r.q.QueryRow(ctx, query, id).Scan(&inv.ID, &inv.Folio, &inv.Status, &inv.CancelledAt, &inv.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.NotFound("factura", id)
		}
		return nil, fmt.Errorf("get invoice: %w", err)
	}
	return &inv, nil
}

func (r *InvoiceRepo) Cancel(ctx context.Context, id string, at time.Time) error {
	tag, err := r.q.Exec(ctx,
		`UPDATE invoices SET status = $2, cancelled_at = $3 WHERE id = $1`,
		id, entity.InvoiceStatusCancelled, at)
	if err != nil {
		return fmt.Errorf("cancel invoice: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.NotFound("factura", id)
	}
	return nil
}
