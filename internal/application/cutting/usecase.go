// Package cutting orquesta el optimizador de cortes sobre una foto del ledger y el convertidor
// de pedacería, con persistencia opcional de las definiciones derivadas.
package cutting

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/jhoicas/acrilstock-api/internal/application/ports"
	"github.com/jhoicas/acrilstock-api/internal/domain"
	"github.com/jhoicas/acrilstock-api/internal/domain/cutting"
	"github.com/jhoicas/acrilstock-api/internal/domain/entity"
	"github.com/jhoicas/acrilstock-api/internal/domain/repository"
)

var tracer = otel.Tracer("acrilstock-api/cutting")

// UseCase casos de uso de corte.
type UseCase struct {
	repos     repository.Repositories
	tx        repository.TxRunner
	optimizer *cutting.Optimizer
	metrics   ports.Metrics
	log       zerolog.Logger
	now       func() time.Time
	newID     func() string
}

// NewUseCase construye el caso de uso. optimizer nil usa la tabla de estándares por defecto.
func NewUseCase(repos repository.Repositories, tx repository.TxRunner, optimizer *cutting.Optimizer, metrics ports.Metrics, log zerolog.Logger) *UseCase {
	if optimizer == nil {
		optimizer = cutting.NewOptimizer(nil)
	}
	if metrics == nil {
		metrics = ports.NopMetrics{}
	}
	return &UseCase{
		repos:     repos,
		tx:        tx,
		optimizer: optimizer,
		metrics:   metrics,
		log:       log,
		now:       time.Now,
		newID:     func() string { return uuid.New().String() },
	}
}

// OptimizeInput solicitud de corte.
type OptimizeInput struct {
	InventoryID string
	Width       decimal.Decimal
	Length      decimal.Decimal
	Quantity    int64
	Lines       []string
}

// OptimizeCut ordena las piezas del inventario que pueden surtir el corte. No reserva nada:
// quien consuma un candidato debe hacerlo con ApplyDelta y manejar InsufficientStock.
func (uc *UseCase) OptimizeCut(ctx context.Context, in OptimizeInput) (cutting.Plan, error) {
	ctx, span := tracer.Start(ctx, "cutting.OptimizeCut")
	defer span.End()

	if in.InventoryID == "" {
		return cutting.Plan{}, domain.Invalid("inventory_id", "requerido")
	}
	req := cutting.Surface{Width: in.Width, Length: in.Length}
	if !req.Positive() {
		return cutting.Plan{}, domain.Invalid("surface", "ancho y largo deben ser mayores a cero")
	}
	if in.Quantity < 1 {
		return cutting.Plan{}, domain.Invalid("quantity", "debe ser mayor a 0")
	}
	lines := cleanLines(in.Lines)
	if len(lines) == 0 {
		return cutting.Plan{}, domain.Invalid("lines", "se requiere al menos una línea de producto")
	}
	if _, err := uc.repos.Inventories.GetByID(ctx, in.InventoryID); err != nil {
		return cutting.Plan{}, err
	}

	stock, err := uc.repos.Stock.ListCutCandidates(ctx, in.InventoryID, lines)
	if err != nil {
		return cutting.Plan{}, err
	}

	start := time.Now()
	plan := uc.optimizer.Optimize(req, in.Quantity, lines, stock)
	elapsed := time.Since(start)

	uc.metrics.OptimizerObserved(elapsed, len(plan.Candidates), plan.Unsatisfied)
	span.SetAttributes(
		attribute.String("inventory.id", in.InventoryID),
		attribute.String("surface", req.String()),
		attribute.Int64("quantity", in.Quantity),
		attribute.Int("candidates", len(plan.Candidates)),
		attribute.Int64("unsatisfied", plan.Unsatisfied),
	)
	uc.log.Debug().
		Str("inventory_id", in.InventoryID).
		Str("surface", req.String()).
		Int64("quantity", in.Quantity).
		Int("evaluated", len(stock)).
		Int("candidates", len(plan.Candidates)).
		Int64("unsatisfied", plan.Unsatisfied).
		Dur("elapsed", elapsed).
		Msg("corte optimizado")
	return plan, nil
}

// ConvertInput producto de origen y medidas del subproducto cortado.
type ConvertInput struct {
	ProductID string
	Width     decimal.Decimal
	Length    decimal.Decimal
	Thickness decimal.Decimal
	Persist   bool
}

// ConvertScraps deriva las definiciones de pedacería. Con Persist las registra en el catálogo;
// una definición cuyo SKU ya existe se reutiliza tal cual.
func (uc *UseCase) ConvertScraps(ctx context.Context, in ConvertInput) ([]entity.Product, error) {
	if in.ProductID == "" {
		return nil, domain.Invalid("product_id", "requerido")
	}
	parent, err := uc.repos.Products.GetByID(ctx, in.ProductID)
	if err != nil {
		return nil, err
	}
	derived, err := cutting.ConvertScraps(*parent, cutting.CutDimensions{Width: in.Width, Length: in.Length, Thickness: in.Thickness})
	if err != nil {
		return nil, err
	}
	if !in.Persist || len(derived) == 0 {
		return derived, nil
	}

	var out []entity.Product
	// TxRunner puede reintentar fn; el resultado se publica solo desde el intento que confirma.
	err = uc.tx.Run(ctx, func(repos repository.Repositories) error {
		now := uc.now()
		persisted := make([]entity.Product, 0, len(derived))
		for _, p := range derived {
			existing, err := repos.Products.GetBySKU(ctx, p.SKU)
			if err == nil {
				persisted = append(persisted, *existing)
				continue
			}
			if !errors.Is(err, domain.ErrNotFound) {
				return err
			}
			p.ID = uc.newID()
			p.CreatedAt = now
			p.UpdatedAt = now
			if err := repos.Products.Create(ctx, &p); err != nil {
				return err
			}
			persisted = append(persisted, p)
		}
		out = persisted
		return nil
	})
	if err != nil {
		return nil, err
	}
	uc.log.Info().Str("parent_id", parent.ID).Int("scraps", len(out)).Msg("pedacería registrada")
	return out, nil
}

func cleanLines(in []string) []string {
	out := make([]string, 0, len(in))
	for _, l := range in {
		if l = strings.TrimSpace(l); l != "" {
			out = append(out, l)
		}
	}
	return out
}
