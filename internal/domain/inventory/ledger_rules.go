// Package inventory contiene las reglas puras del ledger de stock (sin persistencia).
package inventory

import (
	"sort"

	"github.com/jhoicas/acrilstock-api/internal/domain"
	"github.com/jhoicas/acrilstock-api/internal/domain/entity"
)

// NextQuantity aplica delta a current. Falla con InsufficientStockError si el resultado es negativo.
func NextQuantity(inventoryID, productID string, current, delta int64) (int64, error) {
	next := current + delta
	if next < 0 {
		return current, &domain.InsufficientStockError{
			InventoryID: inventoryID,
			ProductID:   productID,
			Available:   current,
			Requested:   -delta,
		}
	}
	return next, nil
}

// AggregateDeltas agrupa los deltas por (inventario, producto), descarta los netos en cero
// y devuelve el resultado ordenado por llave. Bloquear filas siempre en este orden evita
// interbloqueos entre transiciones concurrentes.
func AggregateDeltas(deltas []entity.StockDelta) []entity.StockDelta {
	byKey := make(map[string]*entity.StockDelta, len(deltas))
	for _, d := range deltas {
		if agg, ok := byKey[d.Key()]; ok {
			agg.Delta += d.Delta
			continue
		}
		cp := d
		byKey[d.Key()] = &cp
	}
	out := make([]entity.StockDelta, 0, len(byKey))
	for _, d := range byKey {
		if d.Delta != 0 {
			out = append(out, *d)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].InventoryID != out[j].InventoryID {
			return out[i].InventoryID < out[j].InventoryID
		}
		return out[i].ProductID < out[j].ProductID
	})
	return out
}

// Negate invierte el signo de cada delta (compensación de una venta cancelada).
func Negate(deltas []entity.StockDelta) []entity.StockDelta {
	out := make([]entity.StockDelta, len(deltas))
	for i, d := range deltas {
		d.Delta = -d.Delta
		out[i] = d
	}
	return out
}
