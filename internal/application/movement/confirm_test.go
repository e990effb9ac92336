package movement_test

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/acrilstock-api/internal/application/movement"
	"github.com/jhoicas/acrilstock-api/internal/application/ports"
	"github.com/jhoicas/acrilstock-api/internal/domain"
	"github.com/jhoicas/acrilstock-api/internal/domain/entity"
	"github.com/jhoicas/acrilstock-api/internal/infrastructure/memory"
)

// ──────────────────────────────────────────────────────────────────────────────
// Orden de compra e ingreso
// ──────────────────────────────────────────────────────────────────────────────

func TestProductEntry_ConfirmaIncrementa(t *testing.T) {
	f := newFixture(t)
	po := f.confirmedPO(t, line("P1", 10))
	assert.Zero(t, f.qty(t, "I1", "P1"), "la orden de compra no toca el ledger")

	entry, err := f.uc.CreateProductEntry(f.ctx, matriz, movement.CreateProductEntryInput{PurchaseOrderID: po.ID, Lines: []movement.LineInput{line("P1", 6)}})
	require.NoError(t, err)
	assert.Equal(t, entity.StatusPending, entry.Status)
	assert.Equal(t, "I1", entry.InventoryID)

	entry, err = f.uc.Confirm(f.ctx, matriz, entry.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.StatusConfirmed, entry.Status)
	assert.Equal(t, "u-matriz", entry.ConfirmedBy)
	require.NotNil(t, entry.ConfirmedAt)
	assert.Equal(t, int64(6), f.qty(t, "I1", "P1"))
}

func TestProductEntry_OrdenNoConfirmada(t *testing.T) {
	f := newFixture(t)
	po, err := f.uc.CreatePurchaseOrder(f.ctx, matriz, movement.CreatePurchaseOrderInput{ProviderID: "prov-1", Lines: []movement.LineInput{line("P1", 10)}})
	require.NoError(t, err)

	_, err = f.uc.CreateProductEntry(f.ctx, matriz, movement.CreateProductEntryInput{PurchaseOrderID: po.ID, Lines: []movement.LineInput{line("P1", 1)}})
	assert.True(t, errors.Is(err, domain.ErrValidation))
}

func TestProductEntry_ProductoFueraDeLaOrden(t *testing.T) {
	f := newFixture(t)
	po := f.confirmedPO(t, line("P1", 10))

	_, err := f.uc.CreateProductEntry(f.ctx, matriz, movement.CreateProductEntryInput{PurchaseOrderID: po.ID, Lines: []movement.LineInput{line("P2", 1)}})
	var verr *domain.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "lines[0].product_id", verr.Field)
}

// Una sucursal no puede ingresar en su inventario la orden de compra de otra.
func TestProductEntry_OrdenDeOtraSucursal(t *testing.T) {
	f := newFixture(t)
	po := f.confirmedPO(t, line("P1", 10))

	_, err := f.uc.CreateProductEntry(f.ctx, sucursal, movement.CreateProductEntryInput{PurchaseOrderID: po.ID, Lines: []movement.LineInput{line("P1", 2)}})
	var verr *domain.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "purchase_order_id", verr.Field)
	assert.Zero(t, f.qty(t, "I2", "P1"))
}

func TestProductEntry_CreacionRechazadaConOrdenCubierta(t *testing.T) {
	f := newFixture(t)
	po := f.confirmedPO(t, line("P1", 10))

	_, err := f.uc.CreateProductEntry(f.ctx, matriz, movement.CreateProductEntryInput{PurchaseOrderID: po.ID, Lines: []movement.LineInput{line("P1", 10)}})
	require.NoError(t, err)

	_, err = f.uc.CreateProductEntry(f.ctx, matriz, movement.CreateProductEntryInput{PurchaseOrderID: po.ID, Lines: []movement.LineInput{line("P1", 1)}})
	assert.True(t, errors.Is(err, domain.ErrValidation))
}

// Confirmar un ingreso cuando los otros ingresos pendientes y confirmados ya cubren el 100%
// de la orden se rechaza antes de tocar el ledger.
func TestProductEntry_ConfirmRechazadoConOrdenCubierta(t *testing.T) {
	f := newFixture(t)
	po := f.confirmedPO(t, line("P1", 10))

	first, err := f.uc.CreateProductEntry(f.ctx, matriz, movement.CreateProductEntryInput{PurchaseOrderID: po.ID, Lines: []movement.LineInput{line("P1", 5)}})
	require.NoError(t, err)
	_, err = f.uc.CreateProductEntry(f.ctx, matriz, movement.CreateProductEntryInput{PurchaseOrderID: po.ID, Lines: []movement.LineInput{line("P1", 10)}})
	require.NoError(t, err)

	_, err = f.uc.Confirm(f.ctx, matriz, first.ID)
	assert.True(t, errors.Is(err, domain.ErrValidation))
	assert.Zero(t, f.qty(t, "I1", "P1"))
	assert.Equal(t, entity.StatusPending, f.doc(t, first.ID).Status)
}

func TestProductEntry_IngresoCanceladoLiberaCupo(t *testing.T) {
	f := newFixture(t)
	po := f.confirmedPO(t, line("P1", 10))

	full, err := f.uc.CreateProductEntry(f.ctx, matriz, movement.CreateProductEntryInput{PurchaseOrderID: po.ID, Lines: []movement.LineInput{line("P1", 10)}})
	require.NoError(t, err)
	_, err = f.uc.Cancel(f.ctx, matriz, full.ID)
	require.NoError(t, err)

	_, err = f.uc.CreateProductEntry(f.ctx, matriz, movement.CreateProductEntryInput{PurchaseOrderID: po.ID, Lines: []movement.LineInput{line("P1", 3)}})
	assert.NoError(t, err)
}

// ──────────────────────────────────────────────────────────────────────────────
// Propiedades comunes de las transiciones
// ──────────────────────────────────────────────────────────────────────────────

func TestConfirm_DosVecesEsConflictoSinDeltaExtra(t *testing.T) {
	f := newFixture(t)
	po := f.confirmedPO(t, line("P1", 10))
	entry, err := f.uc.CreateProductEntry(f.ctx, matriz, movement.CreateProductEntryInput{PurchaseOrderID: po.ID, Lines: []movement.LineInput{line("P1", 4)}})
	require.NoError(t, err)

	_, err = f.uc.Confirm(f.ctx, matriz, entry.ID)
	require.NoError(t, err)
	_, err = f.uc.Confirm(f.ctx, matriz, entry.ID)
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrStateConflict))

	var sc *domain.StateConflictError
	require.ErrorAs(t, err, &sc)
	assert.Equal(t, string(entity.StatusConfirmed), sc.Status)
	assert.Equal(t, int64(4), f.qty(t, "I1", "P1"))
}

func TestCancel_PendienteNoTocaLedger(t *testing.T) {
	f := newFixture(t)
	f.store.SeedStock("I1", "P1", 8)
	po := f.confirmedPO(t, line("P1", 10))

	entry, err := f.uc.CreateProductEntry(f.ctx, matriz, movement.CreateProductEntryInput{PurchaseOrderID: po.ID, Lines: []movement.LineInput{line("P1", 4)}})
	require.NoError(t, err)
	removal, err := f.uc.CreateProductRemoval(f.ctx, matriz, movement.CreateProductRemovalInput{Cause: entity.CauseInternal, Lines: []movement.LineInput{line("P1", 3)}})
	require.NoError(t, err)
	shipment, err := f.uc.CreateTransferShipment(f.ctx, matriz, movement.CreateTransferShipmentInput{TargetBranchID: "b2", Lines: []movement.LineInput{line("P1", 2)}})
	require.NoError(t, err)

	for _, id := range []string{entry.ID, removal.ID, shipment.ID} {
		_, err := f.uc.Cancel(f.ctx, matriz, id)
		require.NoError(t, err)
	}

	assert.Equal(t, int64(8), f.qty(t, "I1", "P1"))
	assert.Zero(t, f.qty(t, "I2", "P1"))
	assert.Equal(t, entity.StatusCancelled, f.doc(t, entry.ID).Status)
	assert.Equal(t, entity.StatusCancelled, f.doc(t, removal.ID).Status)
	assert.Equal(t, entity.StatusRejected, f.doc(t, shipment.ID).Status)
	assert.Equal(t, "u-matriz", f.doc(t, removal.ID).CancelledBy)
}

func TestCancel_ConfirmadoNoVentaEsConflicto(t *testing.T) {
	f := newFixture(t)
	f.store.SeedStock("I1", "P1", 8)
	removal, err := f.uc.CreateProductRemoval(f.ctx, matriz, movement.CreateProductRemovalInput{Cause: entity.CauseInternal, Lines: []movement.LineInput{line("P1", 3)}})
	require.NoError(t, err)
	_, err = f.uc.Confirm(f.ctx, matriz, removal.ID)
	require.NoError(t, err)

	_, err = f.uc.Cancel(f.ctx, matriz, removal.ID)
	assert.True(t, errors.Is(err, domain.ErrStateConflict))
	assert.Equal(t, int64(5), f.qty(t, "I1", "P1"))
}

func TestCancel_CanceladoEsConflicto(t *testing.T) {
	f := newFixture(t)
	po, err := f.uc.CreatePurchaseOrder(f.ctx, matriz, movement.CreatePurchaseOrderInput{ProviderID: "prov", Lines: []movement.LineInput{line("P1", 1)}})
	require.NoError(t, err)
	_, err = f.uc.Cancel(f.ctx, matriz, po.ID)
	require.NoError(t, err)

	_, err = f.uc.Cancel(f.ctx, matriz, po.ID)
	assert.True(t, errors.Is(err, domain.ErrStateConflict))
	_, err = f.uc.Confirm(f.ctx, matriz, po.ID)
	assert.True(t, errors.Is(err, domain.ErrStateConflict))
}

// Si un renglón quedaría negativo no se aplica ninguno y el documento sigue PENDING.
func TestConfirm_TodoONada(t *testing.T) {
	f := newFixture(t)
	f.store.SeedStock("I1", "P1", 5)
	f.store.SeedStock("I1", "P2", 5)
	removal, err := f.uc.CreateProductRemoval(f.ctx, matriz, movement.CreateProductRemovalInput{
		Cause: entity.CauseInternal,
		Lines: []movement.LineInput{line("P1", 2), line("P2", 2)},
	})
	require.NoError(t, err)

	f.store.SeedStock("I1", "P2", 1) // otra transacción consumió stock entre creación y confirmación

	_, err = f.uc.Confirm(f.ctx, matriz, removal.ID)
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrInsufficientStock))

	assert.Equal(t, int64(5), f.qty(t, "I1", "P1"))
	assert.Equal(t, int64(1), f.qty(t, "I1", "P2"))
	assert.Equal(t, entity.StatusPending, f.doc(t, removal.ID).Status)
}

// La existencia acumulada es la suma de los deltas aplicados y nunca negativa.
func TestConfirm_SecuenciaSumaDeltas(t *testing.T) {
	f := newFixture(t)
	po := f.confirmedPO(t, line("P1", 100))

	var expected int64
	for _, n := range []int64{10, 5, 20} {
		e, err := f.uc.CreateProductEntry(f.ctx, matriz, movement.CreateProductEntryInput{PurchaseOrderID: po.ID, Lines: []movement.LineInput{line("P1", n)}})
		require.NoError(t, err)
		_, err = f.uc.Confirm(f.ctx, matriz, e.ID)
		require.NoError(t, err)
		expected += n
	}
	for _, n := range []int64{7, 4} {
		r, err := f.uc.CreateProductRemoval(f.ctx, matriz, movement.CreateProductRemovalInput{Cause: entity.CauseInternal, Lines: []movement.LineInput{line("P1", n)}})
		require.NoError(t, err)
		_, err = f.uc.Confirm(f.ctx, matriz, r.ID)
		require.NoError(t, err)
		expected -= n
	}
	s, err := f.uc.CreateSale(f.ctx, matriz, movement.CreateSaleInput{Lines: []movement.LineInput{line("P1", 3)}})
	require.NoError(t, err)
	expected -= 3
	_, err = f.uc.Cancel(f.ctx, matriz, s.ID)
	require.NoError(t, err)
	expected += 3

	got := f.qty(t, "I1", "P1")
	assert.Equal(t, expected, got)
	assert.GreaterOrEqual(t, got, int64(0))
}

type heldLocker struct{}

func (heldLocker) Lock(context.Context, string) (func(context.Context) error, error) {
	return nil, ports.ErrLockHeld
}

func TestConfirm_BloqueoTomadoEsConflicto(t *testing.T) {
	s := memory.NewStore()
	s.SeedBranch(entity.Branch{ID: "b1"}, entity.Inventory{ID: "I1"})
	s.SeedProduct(entity.Product{ID: "P1", SKU: "ACR-1"})
	free := movement.NewUseCase(s.Repositories(), s, nil, nil, zerolog.Nop())
	po, err := free.CreatePurchaseOrder(context.Background(), matriz, movement.CreatePurchaseOrderInput{ProviderID: "prov", Lines: []movement.LineInput{line("P1", 1)}})
	require.NoError(t, err)

	locked := movement.NewUseCase(s.Repositories(), s, heldLocker{}, nil, zerolog.Nop())
	_, err = locked.Confirm(context.Background(), matriz, po.ID)
	assert.True(t, errors.Is(err, domain.ErrStateConflict))

	got, err := free.Get(context.Background(), po.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.StatusPending, got.Status)
}

func TestTransiciones_ActorYDocumentoRequeridos(t *testing.T) {
	f := newFixture(t)

	_, err := f.uc.Confirm(f.ctx, entity.Actor{BranchID: "b1"}, "x")
	assert.True(t, errors.Is(err, domain.ErrValidation))

	_, err = f.uc.Cancel(f.ctx, matriz, "no-existe")
	assert.True(t, errors.Is(err, domain.ErrNotFound))

	_, err = f.uc.CreatePurchaseOrder(f.ctx, entity.Actor{UserID: "u"}, movement.CreatePurchaseOrderInput{ProviderID: "p", Lines: []movement.LineInput{line("P1", 1)}})
	assert.True(t, errors.Is(err, domain.ErrValidation))
}

func TestCreate_RenglonesInvalidos(t *testing.T) {
	f := newFixture(t)

	_, err := f.uc.CreatePurchaseOrder(f.ctx, matriz, movement.CreatePurchaseOrderInput{ProviderID: "p"})
	assert.True(t, errors.Is(err, domain.ErrValidation))

	_, err = f.uc.CreatePurchaseOrder(f.ctx, matriz, movement.CreatePurchaseOrderInput{ProviderID: "p", Lines: []movement.LineInput{line("P1", 0)}})
	assert.True(t, errors.Is(err, domain.ErrValidation))

	_, err = f.uc.CreatePurchaseOrder(f.ctx, matriz, movement.CreatePurchaseOrderInput{ProviderID: "p", Lines: []movement.LineInput{line("NADA", 1)}})
	assert.True(t, errors.Is(err, domain.ErrNotFound))
}

func TestList_FiltrosYPaginacion(t *testing.T) {
	f := newFixture(t)
	for i := 0; i < 3; i++ {
		_, err := f.uc.CreatePurchaseOrder(f.ctx, matriz, movement.CreatePurchaseOrderInput{ProviderID: "p", Lines: []movement.LineInput{line("P1", 1)}})
		require.NoError(t, err)
	}
	f.store.SeedStock("I1", "P1", 5)
	_, err := f.uc.CreateSale(f.ctx, matriz, movement.CreateSaleInput{Lines: []movement.LineInput{line("P1", 1)}})
	require.NoError(t, err)

	all, err := f.uc.List(f.ctx, entity.DocumentFilter{})
	require.NoError(t, err)
	assert.Len(t, all, 4)

	pos, err := f.uc.List(f.ctx, entity.DocumentFilter{Kind: entity.KindPurchaseOrder, Limit: 2})
	require.NoError(t, err)
	assert.Len(t, pos, 2)

	sales, err := f.uc.List(f.ctx, entity.DocumentFilter{Status: entity.StatusConfirmed})
	require.NoError(t, err)
	require.Len(t, sales, 1)
	assert.Equal(t, entity.KindSale, sales[0].Kind)

	_, err = f.uc.List(f.ctx, entity.DocumentFilter{Kind: "OTRO"})
	assert.True(t, errors.Is(err, domain.ErrValidation))
}
