package movement_test

import (
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/acrilstock-api/internal/application/movement"
	"github.com/jhoicas/acrilstock-api/internal/domain"
	"github.com/jhoicas/acrilstock-api/internal/domain/entity"
	"github.com/jhoicas/acrilstock-api/internal/infrastructure/memory"
)

// ──────────────────────────────────────────────────────────────────────────────
// Baja de producto
// ──────────────────────────────────────────────────────────────────────────────

func TestProductRemoval_ReferenciasSegunCausa(t *testing.T) {
	f := newFixture(t)
	f.store.SeedStock("I1", "P1", 5)
	lines := []movement.LineInput{line("P1", 1)}

	_, err := f.uc.CreateProductRemoval(f.ctx, matriz, movement.CreateProductRemovalInput{Cause: entity.CauseProvider, Lines: lines})
	var verr *domain.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "provider_id", verr.Field)

	_, err = f.uc.CreateProductRemoval(f.ctx, matriz, movement.CreateProductRemovalInput{Cause: entity.CauseTransfer, Lines: lines})
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "reception_id", verr.Field)

	_, err = f.uc.CreateProductRemoval(f.ctx, matriz, movement.CreateProductRemovalInput{Cause: "OTRA", Lines: lines})
	assert.True(t, errors.Is(err, domain.ErrValidation))

	r, err := f.uc.CreateProductRemoval(f.ctx, matriz, movement.CreateProductRemovalInput{Cause: entity.CauseProvider, ProviderID: "prov-1", Lines: lines})
	require.NoError(t, err)
	_, err = f.uc.Confirm(f.ctx, matriz, r.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(4), f.qty(t, "I1", "P1"))
}

func TestProductRemoval_ExistenciaInsuficienteAlCrear(t *testing.T) {
	f := newFixture(t)
	f.store.SeedStock("I1", "P1", 2)

	_, err := f.uc.CreateProductRemoval(f.ctx, matriz, movement.CreateProductRemovalInput{Cause: entity.CauseInternal, Lines: []movement.LineInput{line("P1", 1), line("P1", 2)}})
	assert.True(t, errors.Is(err, domain.ErrValidation))
}

// ──────────────────────────────────────────────────────────────────────────────
// Transferencias
// ──────────────────────────────────────────────────────────────────────────────

func TestTransferShipment_ConfirmaDescuentaOrigen(t *testing.T) {
	f := newFixture(t)
	f.store.SeedStock("I1", "P1", 10)

	sh := f.confirmedShipment(t, line("P1", 10))
	assert.Equal(t, "I1", sh.InventoryID)
	assert.Equal(t, "b1", sh.SourceBranchID)
	assert.Equal(t, "b2", sh.TargetBranchID)
	assert.Zero(t, f.qty(t, "I1", "P1"))
	assert.Zero(t, f.qty(t, "I2", "P1"), "el destino recibe solo al confirmar la recepción")
}

func TestTransferShipment_MismaSucursal(t *testing.T) {
	f := newFixture(t)
	f.store.SeedStock("I1", "P1", 10)
	_, err := f.uc.CreateTransferShipment(f.ctx, matriz, movement.CreateTransferShipmentInput{TargetBranchID: "b1", Lines: []movement.LineInput{line("P1", 1)}})
	assert.True(t, errors.Is(err, domain.ErrValidation))

	_, err = f.uc.CreateTransferShipment(f.ctx, matriz, movement.CreateTransferShipmentInput{TargetBranchID: "b9", Lines: []movement.LineInput{line("P1", 1)}})
	assert.True(t, errors.Is(err, domain.ErrNotFound))
}

// received=10, accepted=10 con motivo: ValidationError; accepted=7 sin motivo: ValidationError.
func TestTransferReception_MotivoDeRechazo(t *testing.T) {
	f := newFixture(t)
	f.store.SeedStock("I1", "P1", 10)
	sh := f.confirmedShipment(t, line("P1", 10))

	_, err := f.uc.CreateTransferReception(f.ctx, sucursal, movement.CreateTransferReceptionInput{
		ShipmentID: sh.ID,
		Lines:      []movement.ReceptionLineInput{{ProductID: "P1", ReceivedQuantity: 10, AcceptedQuantity: 10, RejectionReason: reason("rayado")}},
	})
	var verr *domain.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "lines[0].rejection_reason", verr.Field)

	_, err = f.uc.CreateTransferReception(f.ctx, sucursal, movement.CreateTransferReceptionInput{
		ShipmentID: sh.ID,
		Lines:      []movement.ReceptionLineInput{{ProductID: "P1", ReceivedQuantity: 10, AcceptedQuantity: 7}},
	})
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "lines[0].rejection_reason", verr.Field)

	_, err = f.uc.CreateTransferReception(f.ctx, sucursal, movement.CreateTransferReceptionInput{
		ShipmentID: sh.ID,
		Lines:      []movement.ReceptionLineInput{{ProductID: "P1", ReceivedQuantity: 10, AcceptedQuantity: 7, RejectionReason: reason("   ")}},
	})
	assert.True(t, errors.Is(err, domain.ErrValidation), "un motivo en blanco no cuenta")

	_, err = f.uc.CreateTransferReception(f.ctx, sucursal, movement.CreateTransferReceptionInput{
		ShipmentID: sh.ID,
		Lines:      []movement.ReceptionLineInput{{ProductID: "P1", ReceivedQuantity: 5, AcceptedQuantity: 6}},
	})
	assert.True(t, errors.Is(err, domain.ErrValidation))

	assert.Zero(t, f.qty(t, "I2", "P1"))
}

func TestTransferReception_ConfirmaAceptadoEnDestino(t *testing.T) {
	f := newFixture(t)
	f.store.SeedStock("I1", "P1", 10)
	sh := f.confirmedShipment(t, line("P1", 10))

	rec, err := f.uc.CreateTransferReception(f.ctx, sucursal, movement.CreateTransferReceptionInput{
		ShipmentID: sh.ID,
		Lines:      []movement.ReceptionLineInput{{ProductID: "P1", ReceivedQuantity: 10, AcceptedQuantity: 7, RejectionReason: reason("3 piezas rotas")}},
	})
	require.NoError(t, err)
	assert.Equal(t, "I2", rec.InventoryID)

	_, err = f.uc.Confirm(f.ctx, sucursal, rec.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(7), f.qty(t, "I2", "P1"))
	assert.Zero(t, f.qty(t, "I1", "P1"))

	// la baja por transferencia referencia la recepción
	removal, err := f.uc.CreateProductRemoval(f.ctx, sucursal, movement.CreateProductRemovalInput{
		Cause: entity.CauseTransfer, ReceptionID: rec.ID, Lines: []movement.LineInput{line("P1", 1)},
	})
	require.NoError(t, err)
	assert.Equal(t, rec.ID, removal.ReceptionID)
}

func TestTransferReception_AcumuladoNoSuperaLoEnviado(t *testing.T) {
	f := newFixture(t)
	f.store.SeedStock("I1", "P1", 10)
	sh := f.confirmedShipment(t, line("P1", 10))

	first, err := f.uc.CreateTransferReception(f.ctx, sucursal, movement.CreateTransferReceptionInput{
		ShipmentID: sh.ID,
		Lines:      []movement.ReceptionLineInput{{ProductID: "P1", ReceivedQuantity: 6, AcceptedQuantity: 4, RejectionReason: reason("dañado")}},
	})
	require.NoError(t, err)

	// pendiente cuenta lo recibido (6): 6 + 5 > 10
	_, err = f.uc.CreateTransferReception(f.ctx, sucursal, movement.CreateTransferReceptionInput{
		ShipmentID: sh.ID,
		Lines:      []movement.ReceptionLineInput{{ProductID: "P1", ReceivedQuantity: 5, AcceptedQuantity: 5}},
	})
	assert.True(t, errors.Is(err, domain.ErrValidation))

	// confirmada cuenta lo aceptado (4): 4 + 5 ≤ 10
	_, err = f.uc.Confirm(f.ctx, sucursal, first.ID)
	require.NoError(t, err)
	_, err = f.uc.CreateTransferReception(f.ctx, sucursal, movement.CreateTransferReceptionInput{
		ShipmentID: sh.ID,
		Lines:      []movement.ReceptionLineInput{{ProductID: "P1", ReceivedQuantity: 5, AcceptedQuantity: 5}},
	})
	assert.NoError(t, err)
}

func TestTransferReception_EnvioYSucursal(t *testing.T) {
	f := newFixture(t)
	f.store.SeedStock("I1", "P1", 10)
	pending, err := f.uc.CreateTransferShipment(f.ctx, matriz, movement.CreateTransferShipmentInput{TargetBranchID: "b2", Lines: []movement.LineInput{line("P1", 2)}})
	require.NoError(t, err)
	full := []movement.ReceptionLineInput{{ProductID: "P1", ReceivedQuantity: 2, AcceptedQuantity: 2}}

	_, err = f.uc.CreateTransferReception(f.ctx, sucursal, movement.CreateTransferReceptionInput{ShipmentID: pending.ID, Lines: full})
	assert.True(t, errors.Is(err, domain.ErrValidation), "envío no confirmado")

	sh := f.confirmedShipment(t, line("P1", 2))
	_, err = f.uc.CreateTransferReception(f.ctx, matriz, movement.CreateTransferReceptionInput{ShipmentID: sh.ID, Lines: full})
	assert.True(t, errors.Is(err, domain.ErrValidation), "la sucursal que recibe no es el destino")

	_, err = f.uc.CreateTransferReception(f.ctx, sucursal, movement.CreateTransferReceptionInput{
		ShipmentID: sh.ID,
		Lines:      []movement.ReceptionLineInput{{ProductID: "P2", ReceivedQuantity: 1, AcceptedQuantity: 1}},
	})
	assert.True(t, errors.Is(err, domain.ErrValidation), "producto fuera del envío")
}

// ──────────────────────────────────────────────────────────────────────────────
// Reembolso
// ──────────────────────────────────────────────────────────────────────────────

func TestReimbursement_DiferenciaMonetariaYDeltas(t *testing.T) {
	f := newFixture(t)
	f.store.SeedStock("I1", "P2", 3)

	r, err := f.uc.CreateReimbursement(f.ctx, matriz, movement.CreateReimbursementInput{
		Returned:  []movement.LineInput{line("P1", 2)},
		Exchanged: []movement.LineInput{line("P2", 1)},
	})
	require.NoError(t, err)
	require.NotNil(t, r.MonetaryDifference)
	assert.True(t, r.MonetaryDifference.Equal(decimal.NewFromInt(200)), "obtenido %s", r.MonetaryDifference)

	// el precio cambia antes de confirmar: la diferencia se recalcula
	f.store.SeedPrice("P1", decimal.NewFromInt(120), time.Now().Add(-time.Minute))
	r, err = f.uc.Confirm(f.ctx, matriz, r.ID)
	require.NoError(t, err)
	assert.True(t, r.MonetaryDifference.Equal(decimal.NewFromInt(240)))
	require.NotNil(t, r.Lines[0].UnitPrice)
	assert.True(t, r.Lines[0].UnitPrice.Equal(decimal.NewFromInt(120)))

	assert.Equal(t, int64(2), f.qty(t, "I1", "P1"))
	assert.Equal(t, int64(2), f.qty(t, "I1", "P2"))
	assert.True(t, f.doc(t, r.ID).MonetaryDifference.Equal(decimal.NewFromInt(240)))
}

func TestReimbursement_SinPrecioVigente(t *testing.T) {
	f := newFixture(t)
	_, err := f.uc.CreateReimbursement(f.ctx, matriz, movement.CreateReimbursementInput{Returned: []movement.LineInput{line("P2", 1)}})
	assert.True(t, errors.Is(err, domain.ErrValidation))
}

func TestReimbursement_VentaReferenciada(t *testing.T) {
	f := newFixture(t)
	f.store.SeedStock("I1", "P1", 5)
	sale, err := f.uc.CreateSale(f.ctx, matriz, movement.CreateSaleInput{Lines: []movement.LineInput{line("P1", 2)}})
	require.NoError(t, err)

	r, err := f.uc.CreateReimbursement(f.ctx, matriz, movement.CreateReimbursementInput{SaleID: sale.ID, Returned: []movement.LineInput{line("P1", 1)}})
	require.NoError(t, err)
	assert.Equal(t, sale.ID, r.SaleID)

	po := f.confirmedPO(t, line("P1", 1))
	_, err = f.uc.CreateReimbursement(f.ctx, matriz, movement.CreateReimbursementInput{SaleID: po.ID, Returned: []movement.LineInput{line("P1", 1)}})
	assert.True(t, errors.Is(err, domain.ErrValidation))
}

// ──────────────────────────────────────────────────────────────────────────────
// Venta
// ──────────────────────────────────────────────────────────────────────────────

func withInvoice(id string) func(*memory.Store) {
	return func(s *memory.Store) { s.SeedInvoice(entity.Invoice{ID: id, Folio: "F-" + id}) }
}

func TestSale_CreacionDescuentaYQuedaActiva(t *testing.T) {
	f := newFixture(t, withInvoice("inv-a"))
	f.store.SeedStock("I1", "P1", 5)

	sale, err := f.uc.CreateSale(f.ctx, matriz, movement.CreateSaleInput{InvoiceID: "inv-a", Lines: []movement.LineInput{line("P1", 3)}})
	require.NoError(t, err)
	assert.Equal(t, entity.StatusConfirmed, sale.Status)
	assert.Equal(t, entity.SaleStateActive, sale.SaleState())
	assert.Equal(t, int64(2), f.qty(t, "I1", "P1"))

	_, err = f.uc.Confirm(f.ctx, matriz, sale.ID)
	assert.True(t, errors.Is(err, domain.ErrStateConflict))
	assert.Equal(t, int64(2), f.qty(t, "I1", "P1"))
}

func TestSale_SinExistenciaNoSeCrea(t *testing.T) {
	f := newFixture(t)
	f.store.SeedStock("I1", "P1", 1)
	f.store.SeedStock("I1", "P2", 5)

	_, err := f.uc.CreateSale(f.ctx, matriz, movement.CreateSaleInput{Lines: []movement.LineInput{line("P2", 2), line("P1", 2)}})
	assert.True(t, errors.Is(err, domain.ErrInsufficientStock))
	assert.Equal(t, int64(5), f.qty(t, "I1", "P2"))

	docs, err := f.uc.List(f.ctx, entity.DocumentFilter{Kind: entity.KindSale})
	require.NoError(t, err)
	assert.Empty(t, docs)
}

func TestSale_CancelarRestauraYCancelaFacturaUnica(t *testing.T) {
	f := newFixture(t, withInvoice("inv-a"))
	f.store.SeedStock("I1", "P1", 5)
	f.store.SeedStock("I1", "P2", 5)

	sale, err := f.uc.CreateSale(f.ctx, matriz, movement.CreateSaleInput{InvoiceID: "inv-a", Lines: []movement.LineInput{line("P1", 3), line("P2", 1), line("P1", 1)}})
	require.NoError(t, err)

	sale, err = f.uc.Cancel(f.ctx, matriz, sale.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.SaleStateCancelled, sale.SaleState())
	assert.Equal(t, int64(5), f.qty(t, "I1", "P1"))
	assert.Equal(t, int64(5), f.qty(t, "I1", "P2"))
	assert.Equal(t, entity.InvoiceStatusCancelled, f.invoiceStatus(t, "inv-a"))

	_, err = f.uc.Cancel(f.ctx, matriz, sale.ID)
	assert.True(t, errors.Is(err, domain.ErrStateConflict))
	assert.Equal(t, int64(5), f.qty(t, "I1", "P1"))
}

func TestSale_FacturaConOtraVentaActivaNoSeCancela(t *testing.T) {
	f := newFixture(t, withInvoice("inv-a"))
	f.store.SeedStock("I1", "P1", 10)

	first, err := f.uc.CreateSale(f.ctx, matriz, movement.CreateSaleInput{InvoiceID: "inv-a", Lines: []movement.LineInput{line("P1", 2)}})
	require.NoError(t, err)
	second, err := f.uc.CreateSale(f.ctx, matriz, movement.CreateSaleInput{InvoiceID: "inv-a", Lines: []movement.LineInput{line("P1", 3)}})
	require.NoError(t, err)

	_, err = f.uc.Cancel(f.ctx, matriz, first.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.InvoiceStatusActive, f.invoiceStatus(t, "inv-a"))
	assert.Equal(t, int64(7), f.qty(t, "I1", "P1"))

	_, err = f.uc.Cancel(f.ctx, matriz, second.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.InvoiceStatusCancelled, f.invoiceStatus(t, "inv-a"))
	assert.Equal(t, int64(10), f.qty(t, "I1", "P1"))

	_, err = f.uc.CreateSale(f.ctx, matriz, movement.CreateSaleInput{InvoiceID: "inv-a", Lines: []movement.LineInput{line("P1", 1)}})
	assert.True(t, errors.Is(err, domain.ErrValidation), "factura cancelada")
}
