package movement_test

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/acrilstock-api/internal/application/movement"
	"github.com/jhoicas/acrilstock-api/internal/domain/entity"
	"github.com/jhoicas/acrilstock-api/internal/infrastructure/memory"
)

var (
	matriz   = entity.Actor{UserID: "u-matriz", BranchID: "b1", Role: "supervisor"}
	sucursal = entity.Actor{UserID: "u-sucursal", BranchID: "b2", Role: "supervisor"}
)

type fixture struct {
	uc    *movement.UseCase
	store *memory.Store
	ctx   context.Context
}

func newFixture(t *testing.T, opts ...func(*memory.Store)) *fixture {
	t.Helper()
	s := memory.NewStore()
	s.SeedBranch(entity.Branch{ID: "b1", Name: "Matriz"}, entity.Inventory{ID: "I1"})
	s.SeedBranch(entity.Branch{ID: "b2", Name: "Sucursal"}, entity.Inventory{ID: "I2"})
	s.SeedProduct(entity.Product{ID: "P1", SKU: "ACR-1"})
	s.SeedProduct(entity.Product{ID: "P2", SKU: "ACR-2"})
	s.SeedPrice("P1", decimal.NewFromInt(100), time.Now().Add(-time.Hour))
	for _, o := range opts {
		o(s)
	}
	return &fixture{
		uc:    movement.NewUseCase(s.Repositories(), s, nil, nil, zerolog.Nop()),
		store: s,
		ctx:   context.Background(),
	}
}

func (f *fixture) qty(t *testing.T, inventoryID, productID string) int64 {
	t.Helper()
	item, err := f.store.Repositories().Stock.Get(f.ctx, inventoryID, productID)
	require.NoError(t, err)
	return item.Quantity
}

func (f *fixture) doc(t *testing.T, id string) *entity.Document {
	t.Helper()
	d, err := f.uc.Get(f.ctx, id)
	require.NoError(t, err)
	return d
}

func (f *fixture) invoiceStatus(t *testing.T, id string) string {
	t.Helper()
	inv, err := f.store.Repositories().Invoices.GetForUpdate(f.ctx, id)
	require.NoError(t, err)
	return inv.Status
}

// confirmedPO orden de compra confirmada de la matriz.
func (f *fixture) confirmedPO(t *testing.T, lines ...movement.LineInput) *entity.Document {
	t.Helper()
	po, err := f.uc.CreatePurchaseOrder(f.ctx, matriz, movement.CreatePurchaseOrderInput{ProviderID: "prov-1", Lines: lines})
	require.NoError(t, err)
	po, err = f.uc.Confirm(f.ctx, matriz, po.ID)
	require.NoError(t, err)
	return po
}

// confirmedShipment envío confirmado de la matriz a la sucursal.
func (f *fixture) confirmedShipment(t *testing.T, lines ...movement.LineInput) *entity.Document {
	t.Helper()
	sh, err := f.uc.CreateTransferShipment(f.ctx, matriz, movement.CreateTransferShipmentInput{TargetBranchID: "b2", Lines: lines})
	require.NoError(t, err)
	sh, err = f.uc.Confirm(f.ctx, matriz, sh.ID)
	require.NoError(t, err)
	return sh
}

func line(productID string, qty int64) movement.LineInput {
	return movement.LineInput{ProductID: productID, Quantity: qty}
}

func reason(s string) *string { return &s }
