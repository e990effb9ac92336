// Package ledger expone el StockLedger: existencias por (inventario, producto) y su única vía
// de mutación controlada, ApplyDelta. SetQuantity es la ruta sin verificación para cargas masivas.
package ledger

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/jhoicas/acrilstock-api/internal/application/ports"
	"github.com/jhoicas/acrilstock-api/internal/domain"
	"github.com/jhoicas/acrilstock-api/internal/domain/entity"
	"github.com/jhoicas/acrilstock-api/internal/domain/repository"
)

var tracer = otel.Tracer("acrilstock-api/ledger")

// UseCase casos de uso del ledger de stock.
type UseCase struct {
	repos   repository.Repositories
	tx      repository.TxRunner
	metrics ports.Metrics
	log     zerolog.Logger
	now     func() time.Time
}

// NewUseCase construye el caso de uso. repos son los repositorios fuera de transacción (lecturas).
func NewUseCase(repos repository.Repositories, tx repository.TxRunner, metrics ports.Metrics, log zerolog.Logger) *UseCase {
	if metrics == nil {
		metrics = ports.NopMetrics{}
	}
	return &UseCase{repos: repos, tx: tx, metrics: metrics, log: log, now: time.Now}
}

// GetQuantity existencia actual; un renglón nunca referenciado vale 0.
func (uc *UseCase) GetQuantity(ctx context.Context, inventoryID, productID string) (int64, error) {
	if err := checkRefs(ctx, uc.repos, inventoryID, productID); err != nil {
		return 0, err
	}
	item, err := uc.repos.Stock.Get(ctx, inventoryID, productID)
	if err != nil {
		return 0, err
	}
	return item.Quantity, nil
}

// ListStock contenido completo de un inventario.
func (uc *UseCase) ListStock(ctx context.Context, inventoryID string) ([]*entity.StockItem, error) {
	if inventoryID == "" {
		return nil, domain.Invalid("inventory_id", "requerido")
	}
	if _, err := uc.repos.Inventories.GetByID(ctx, inventoryID); err != nil {
		return nil, err
	}
	return uc.repos.Stock.ListByInventory(ctx, inventoryID)
}

// ApplyDelta suma delta a la existencia en su propia transacción y devuelve la cantidad nueva.
// Si el resultado fuera negativo devuelve InsufficientStockError y la cantidad queda intacta.
func (uc *UseCase) ApplyDelta(ctx context.Context, actor entity.Actor, inventoryID, productID string, delta int64) (int64, error) {
	ctx, span := tracer.Start(ctx, "ledger.ApplyDelta")
	defer span.End()
	span.SetAttributes(
		attribute.String("inventory.id", inventoryID),
		attribute.String("product.id", productID),
		attribute.Int64("delta", delta),
	)

	var quantity int64
	err := uc.tx.Run(ctx, func(repos repository.Repositories) error {
		if err := checkRefs(ctx, repos, inventoryID, productID); err != nil {
			return err
		}
		if delta == 0 {
			item, err := repos.Stock.Get(ctx, inventoryID, productID)
			if err != nil {
				return err
			}
			quantity = item.Quantity
			return nil
		}
		items, err := Apply(ctx, repos, actor.UserID, []entity.StockDelta{
			{InventoryID: inventoryID, ProductID: productID, Delta: delta},
		}, uc.now())
		if err != nil {
			return err
		}
		quantity = items[0].Quantity
		return nil
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		if errors.Is(err, domain.ErrInsufficientStock) {
			uc.metrics.LedgerRejected(inventoryID)
		}
		uc.log.Warn().Err(err).
			Str("inventory_id", inventoryID).
			Str("product_id", productID).
			Int64("delta", delta).
			Msg("delta rechazado")
		return 0, err
	}

	uc.log.Info().
		Str("inventory_id", inventoryID).
		Str("product_id", productID).
		Int64("delta", delta).
		Int64("quantity", quantity).
		Str("user_id", actor.UserID).
		Msg("delta aplicado")
	return quantity, nil
}

// SetQuantity sobrescribe la existencia sin verificar movimientos previos (carga masiva).
// Solo rechaza cantidades negativas.
func (uc *UseCase) SetQuantity(ctx context.Context, actor entity.Actor, inventoryID, productID string, quantity int64) (int64, error) {
	if quantity < 0 {
		return 0, domain.Invalid("quantity", "no puede ser negativa")
	}
	err := uc.tx.Run(ctx, func(repos repository.Repositories) error {
		if err := checkRefs(ctx, repos, inventoryID, productID); err != nil {
			return err
		}
		item, err := repos.Stock.GetForUpdate(ctx, inventoryID, productID)
		if err != nil {
			return err
		}
		now := uc.now()
		item.Quantity = quantity
		item.UpdatedAt = now
		if err := repos.Stock.Upsert(ctx, item); err != nil {
			return err
		}
		return repos.Inventories.Touch(ctx, inventoryID, actor.UserID, now)
	})
	if err != nil {
		return 0, err
	}
	uc.log.Warn().
		Str("inventory_id", inventoryID).
		Str("product_id", productID).
		Int64("quantity", quantity).
		Str("user_id", actor.UserID).
		Msg("existencia sobrescrita sin verificación")
	return quantity, nil
}

func checkRefs(ctx context.Context, repos repository.Repositories, inventoryID, productID string) error {
	if inventoryID == "" {
		return domain.Invalid("inventory_id", "requerido")
	}
	if productID == "" {
		return domain.Invalid("product_id", "requerido")
	}
	if _, err := repos.Inventories.GetByID(ctx, inventoryID); err != nil {
		return err
	}
	if _, err := repos.Products.GetByID(ctx, productID); err != nil {
		return err
	}
	return nil
}
