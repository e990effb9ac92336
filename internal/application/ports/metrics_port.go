package ports

import (
	"errors"
	"time"

	"github.com/jhoicas/acrilstock-api/internal/domain"
)

// Metrics puerto de salida para métricas operativas (Prometheus en producción).
type Metrics interface {
	// TransitionObserved kind = variante de documento, transition = create|confirm|cancel,
	// outcome según Outcome(err).
	TransitionObserved(kind, transition, outcome string)
	// LedgerRejected un delta fue rechazado por dejar existencia negativa.
	LedgerRejected(inventoryID string)
	// OptimizerObserved duración y resultado de una corrida del optimizador de cortes.
	OptimizerObserved(d time.Duration, candidates int, unsatisfied int64)
}

// Outcome etiqueta corta del resultado de una operación para usar como label.
func Outcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, domain.ErrValidation):
		return "validation"
	case errors.Is(err, domain.ErrInsufficientStock):
		return "insufficient_stock"
	case errors.Is(err, domain.ErrStateConflict):
		return "state_conflict"
	case errors.Is(err, domain.ErrNotFound):
		return "not_found"
	case errors.Is(err, domain.ErrForbidden):
		return "forbidden"
	default:
		return "error"
	}
}

// NopMetrics descarta todas las observaciones.
type NopMetrics struct{}

func (NopMetrics) TransitionObserved(string, string, string) {}
func (NopMetrics) LedgerRejected(string) {}
func (NopMetrics) OptimizerObserved(time.Duration, int, int64) {}
