package ledger

import (
	"context"
	"time"

	"github.com/jhoicas/acrilstock-api/internal/domain/entity"
	"github.com/jhoicas/acrilstock-api/internal/domain/inventory"
	"github.com/jhoicas/acrilstock-api/internal/domain/repository"
)

// Apply aplica un grupo de deltas dentro de la transacción del llamador.
// Agrupa por (inventario, producto), bloquea cada fila en orden de llave (GetForUpdate)
// y falla completo en el primer renglón que quedaría negativo; el rollback lo hace TxRunner.
// Un renglón inexistente se crea en cero solo cuando el delta es positivo.
// Devuelve los renglones resultantes en el mismo orden en que se aplicaron.
func Apply(ctx context.Context, repos repository.Repositories, userID string, deltas []entity.StockDelta, now time.Time) ([]entity.StockItem, error) {
	grouped := inventory.AggregateDeltas(deltas)
	out := make([]entity.StockItem, 0, len(grouped))
	touched := make(map[string]struct{})

	for _, d := range grouped {
		item, err := repos.Stock.GetForUpdate(ctx, d.InventoryID, d.ProductID)
		if err != nil {
			return nil, err
		}
		next, err := inventory.NextQuantity(d.InventoryID, d.ProductID, item.Quantity, d.Delta)
		if err != nil {
			return nil, err
		}
		item.Quantity = next
		item.UpdatedAt = now
		if err := repos.Stock.Upsert(ctx, item); err != nil {
			return nil, err
		}
		out = append(out, *item)
		touched[d.InventoryID] = struct{}{}
	}

	for invID := range touched {
		if err := repos.Inventories.Touch(ctx, invID, userID, now); err != nil {
			return nil, err
		}
	}
	return out, nil
}
