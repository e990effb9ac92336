package cutting_test

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/acrilstock-api/internal/domain/cutting"
	"github.com/jhoicas/acrilstock-api/internal/domain/entity"
)

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func stockOf(id, line string, width, length string, qty int64, scrap bool) entity.CutCandidate {
	return entity.CutCandidate{
		Item: entity.StockItem{InventoryID: "inv-1", ProductID: id, Quantity: qty},
		Product: entity.Product{
			ID: id, SKU: id, Line: line,
			Width: d(width), Length: d(length), Thickness: d("0.3"),
			IsScrap: scrap,
		},
	}
}

func totalTaken(plan cutting.Plan) int64 {
	var n int64
	for _, c := range plan.Candidates {
		n += c.QuantityTaken
	}
	return n
}

// ──────────────────────────────────────────────────────────────────────────────
// Surface / estándares
// ──────────────────────────────────────────────────────────────────────────────

func TestClosestStandard_ResiduoIgualAEstandar(t *testing.T) {
	match, ok := cutting.NewSurface(0.6, 1).ClosestStandard(cutting.DefaultStandards())
	require.True(t, ok)
	assert.True(t, match.Distance.IsZero(), "residuo igual a un estándar debe dar distancia 0")
	assert.True(t, match.Standard.Width.Equal(d("0.6")))
}

func TestClosestStandard_SoloEstandaresQueCaben(t *testing.T) {
	// 1x12 no cabe en 0.9x20; 0.6x1 sí: (0.3 + 19) = 19.3 frente a 0x0 = 20.9
	match, ok := cutting.Surface{Width: d("0.9"), Length: d("20")}.ClosestStandard(cutting.DefaultStandards())
	require.True(t, ok)
	assert.True(t, match.Distance.Equal(d("19.3")), "distancia obtenida %s", match.Distance)
}

func TestClosestStandard_SinEstandarQueQuepa(t *testing.T) {
	_, ok := cutting.NewSurface(0.5, 0.5).ClosestStandard([]cutting.Surface{cutting.NewSurface(1, 12)})
	assert.False(t, ok)
}

func TestParseStandards(t *testing.T) {
	list, err := cutting.ParseStandards("0x0; 1x12;0.6X1")
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.True(t, list[2].Width.Equal(d("0.6")))

	list, err = cutting.ParseStandards("")
	require.NoError(t, err)
	assert.Len(t, list, len(cutting.DefaultStandards()))

	_, err = cutting.ParseStandards("1x2x3")
	assert.Error(t, err)
}

// ──────────────────────────────────────────────────────────────────────────────
// Optimizer
// ──────────────────────────────────────────────────────────────────────────────

// Escenario de referencia: Q (pedacería, residuo menor) se agota primero y P completa.
func TestOptimize_PedaceriaPrimeroYCompleta(t *testing.T) {
	opt := cutting.NewOptimizer(nil)
	stock := []entity.CutCandidate{
		stockOf("P", "ACR", "1.5", "13", 5, false),
		stockOf("Q", "ACR", "1.2", "12.5", 3, true),
	}

	plan := opt.Optimize(cutting.NewSurface(1.0, 12), 4, []string{"ACR"}, stock)

	require.Len(t, plan.Candidates, 2)
	assert.Equal(t, int64(0), plan.Unsatisfied)

	assert.Equal(t, "Q", plan.Candidates[0].Product.ID)
	assert.Equal(t, int64(3), plan.Candidates[0].QuantityTaken)
	assert.Equal(t, int64(0), plan.Candidates[0].QuantityRemaining)

	assert.Equal(t, "P", plan.Candidates[1].Product.ID)
	assert.Equal(t, int64(1), plan.Candidates[1].QuantityTaken)
	assert.Equal(t, int64(4), plan.Candidates[1].QuantityRemaining)
	assert.Equal(t, cutting.Vertical, plan.Candidates[1].Orientation)
}

func TestOptimize_SinCandidatos(t *testing.T) {
	opt := cutting.NewOptimizer(nil)
	plan := opt.Optimize(cutting.NewSurface(1, 1), 7, []string{"ACR"}, nil)
	assert.Empty(t, plan.Candidates)
	assert.Equal(t, int64(7), plan.Unsatisfied)
}

func TestOptimize_FiltraLineaExistenciaYTamano(t *testing.T) {
	opt := cutting.NewOptimizer(nil)
	stock := []entity.CutCandidate{
		stockOf("otra-linea", "POL", "2", "2", 5, false),
		stockOf("sin-stock", "ACR", "2", "2", 0, false),
		stockOf("chica", "ACR", "0.5", "0.5", 5, false),
		stockOf("ok", "ACR", "2", "2", 5, false),
	}
	plan := opt.Optimize(cutting.NewSurface(1, 1), 2, []string{"ACR"}, stock)
	require.Len(t, plan.Candidates, 1)
	assert.Equal(t, "ok", plan.Candidates[0].Product.ID)
}

// Pieza guardada "acostada": solo la orientación horizontal es factible.
func TestOptimize_OrientacionHorizontal(t *testing.T) {
	opt := cutting.NewOptimizer(nil)
	stock := []entity.CutCandidate{stockOf("rot", "ACR", "12.5", "1.2", 1, false)}

	plan := opt.Optimize(cutting.NewSurface(1, 12), 1, []string{"ACR"}, stock)

	require.Len(t, plan.Candidates, 1)
	c := plan.Candidates[0]
	assert.Equal(t, cutting.Horizontal, c.Orientation)
	assert.True(t, c.Residual.Width.Equal(d("0.2")))
	assert.True(t, c.Residual.Length.Equal(d("0.5")))
}

// La orientación vertical deja un residuo 0.6x1 (estándar exacto); la horizontal no.
func TestOptimize_PrefiereOrientacionMasCercana(t *testing.T) {
	opt := cutting.NewOptimizer(nil)
	stock := []entity.CutCandidate{stockOf("x", "ACR", "1.2", "2", 1, false)}

	plan := opt.Optimize(cutting.NewSurface(0.6, 1), 1, []string{"ACR"}, stock)

	require.Len(t, plan.Candidates, 1)
	c := plan.Candidates[0]
	assert.Equal(t, cutting.Vertical, c.Orientation)
	assert.True(t, c.Distance.IsZero())
	assert.True(t, c.ClosestStandard.Length.Equal(d("1")))
}

// Pieza cuadrada: ambas orientaciones empatan y gana Vertical.
func TestOptimize_EmpateEsVertical(t *testing.T) {
	opt := cutting.NewOptimizer(nil)
	stock := []entity.CutCandidate{stockOf("sq", "ACR", "3", "3", 1, false)}
	plan := opt.Optimize(cutting.NewSurface(1, 1), 1, []string{"ACR"}, stock)
	require.Len(t, plan.Candidates, 1)
	assert.Equal(t, cutting.Vertical, plan.Candidates[0].Orientation)
}

func TestOptimize_ParcialDevuelveFaltante(t *testing.T) {
	opt := cutting.NewOptimizer(nil)
	stock := []entity.CutCandidate{
		stockOf("a", "ACR", "2", "2", 2, false),
		stockOf("b", "ACR", "3", "3", 1, false),
	}
	plan := opt.Optimize(cutting.NewSurface(1, 1), 10, []string{"ACR"}, stock)

	assert.Equal(t, int64(3), totalTaken(plan))
	assert.Equal(t, int64(7), plan.Unsatisfied)
	assert.Equal(t, int64(10), totalTaken(plan)+plan.Unsatisfied)
}

// Ningún candidato devuelto es más chico que el corte en la orientación elegida.
func TestOptimize_NuncaDevuelvePiezaMasChica(t *testing.T) {
	opt := cutting.NewOptimizer(nil)
	req := cutting.NewSurface(1.1, 2.5)
	stock := []entity.CutCandidate{
		stockOf("a", "ACR", "1", "3", 4, false),
		stockOf("b", "ACR", "3", "1", 4, false),
		stockOf("c", "ACR", "2.6", "1.2", 4, true),
		stockOf("e", "ACR", "1.1", "2.5", 4, false),
		stockOf("f", "ACR", "8", "14", 4, false),
	}
	plan := opt.Optimize(req, 100, []string{"ACR"}, stock)
	require.NotEmpty(t, plan.Candidates)
	for _, c := range plan.Candidates {
		piece := cutting.Surface{Width: c.Product.Width, Length: c.Product.Length}
		if c.Orientation == cutting.Horizontal {
			piece = piece.Swapped()
		}
		assert.True(t, piece.Contains(req), "%s (%s) no contiene %s", c.Product.ID, c.Orientation, req)
		assert.True(t, c.Residual.NonNegative())
	}
	assert.Equal(t, int64(100), totalTaken(plan)+plan.Unsatisfied)
}

// Tabla sin 0x0: un residuo que no admite ningún estándar queda fuera.
func TestOptimize_TablaPersonalizadaExcluyeSinEstandar(t *testing.T) {
	opt := cutting.NewOptimizer([]cutting.Surface{cutting.NewSurface(1, 12)})
	stock := []entity.CutCandidate{
		stockOf("chico", "ACR", "1.5", "2", 3, false),
		stockOf("grande", "ACR", "3", "25", 3, false),
	}
	plan := opt.Optimize(cutting.NewSurface(1, 1), 2, []string{"ACR"}, stock)
	require.Len(t, plan.Candidates, 1)
	assert.Equal(t, "grande", plan.Candidates[0].Product.ID)
}
