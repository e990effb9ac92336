// Package movement implementa la máquina de estados de los documentos de movimiento.
// Cada transición corre en una sola transacción: bloquea el documento, revalida precondiciones,
// aplica los deltas al ledger y sella estado y actor. Un error en cualquier paso revierte todo.
package movement

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/jhoicas/acrilstock-api/internal/application/ports"
	"github.com/jhoicas/acrilstock-api/internal/domain"
	"github.com/jhoicas/acrilstock-api/internal/domain/entity"
	"github.com/jhoicas/acrilstock-api/internal/domain/repository"
)

const (
	transitionCreate  = "create"
	transitionConfirm = "confirm"
	transitionCancel  = "cancel"

	defaultListLimit = 50
	maxListLimit     = 200
)

var tracer = otel.Tracer("acrilstock-api/movement")

// UseCase creación, consulta y transiciones de documentos de movimiento.
type UseCase struct {
	repos   repository.Repositories
	tx      repository.TxRunner
	locker  ports.DocumentLocker
	metrics ports.Metrics
	log     zerolog.Logger
	now     func() time.Time
	newID   func() string
}

// NewUseCase construye el caso de uso. locker y metrics pueden ser nil.
func NewUseCase(
	repos repository.Repositories,
	tx repository.TxRunner,
	locker ports.DocumentLocker,
	metrics ports.Metrics,
	log zerolog.Logger,
) *UseCase {
	if locker == nil {
		locker = ports.NopLocker{}
	}
	if metrics == nil {
		metrics = ports.NopMetrics{}
	}
	return &UseCase{
		repos:   repos,
		tx:      tx,
		locker:  locker,
		metrics: metrics,
		log:     log,
		now:     time.Now,
		newID:   func() string { return uuid.New().String() },
	}
}

// Get documento con sus renglones.
func (uc *UseCase) Get(ctx context.Context, id string) (*entity.Document, error) {
	if id == "" {
		return nil, domain.Invalid("id", "requerido")
	}
	return uc.repos.Documents.GetByID(ctx, id)
}

// List documentos filtrados, más recientes primero.
func (uc *UseCase) List(ctx context.Context, f entity.DocumentFilter) ([]*entity.Document, error) {
	if f.Kind != "" && !f.Kind.Valid() {
		return nil, domain.Invalid("kind", "variante desconocida %q", f.Kind)
	}
	switch f.Status {
	case "", entity.StatusPending, entity.StatusConfirmed, entity.StatusCancelled, entity.StatusRejected:
	default:
		return nil, domain.Invalid("status", "estado desconocido %q", f.Status)
	}
	if f.Offset < 0 {
		return nil, domain.Invalid("offset", "no puede ser negativo")
	}
	f.Limit = EffectiveLimit(f.Limit)
	return uc.repos.Documents.List(ctx, f)
}

// EffectiveLimit tamaño de página que aplica List: 50 por defecto, máximo 200.
func EffectiveLimit(limit int) int {
	if limit <= 0 {
		return defaultListLimit
	}
	if limit > maxListLimit {
		return maxListLimit
	}
	return limit
}

// Confirm PENDING → CONFIRMED aplicando los deltas de la variante de forma atómica.
// Confirmar dos veces es StateConflict y no aplica nada.
func (uc *UseCase) Confirm(ctx context.Context, actor entity.Actor, id string) (*entity.Document, error) {
	return uc.transition(ctx, actor, id, transitionConfirm, func(ctx context.Context, repos repository.Repositories, doc *entity.Document, now time.Time) (int, error) {
		if doc.Kind == entity.KindSale || doc.Status != entity.StatusPending {
			return 0, conflict(doc, transitionConfirm)
		}
		deltas, err := uc.confirmDeltas(ctx, repos, doc, now)
		if err != nil {
			return 0, err
		}
		if err := applyDeltas(ctx, repos, actor, deltas, now); err != nil {
			return 0, err
		}
		doc.Status = entity.StatusConfirmed
		doc.ConfirmedBy = actor.UserID
		doc.ConfirmedAt = &now
		return len(deltas), repos.Documents.Update(ctx, doc)
	})
}

// Cancel PENDING → CANCELLED (REJECTED en envíos) sin efecto en el ledger.
// Una venta confirmada se cancela revirtiendo sus renglones y, si era la única venta
// activa de su factura, cancelando la factura en la misma transacción.
func (uc *UseCase) Cancel(ctx context.Context, actor entity.Actor, id string) (*entity.Document, error) {
	return uc.transition(ctx, actor, id, transitionCancel, func(ctx context.Context, repos repository.Repositories, doc *entity.Document, now time.Time) (int, error) {
		var n int
		switch {
		case doc.Status == entity.StatusPending:
		case doc.Status == entity.StatusConfirmed && doc.Kind == entity.KindSale:
			var err error
			if n, err = uc.reverseSale(ctx, repos, actor, doc, now); err != nil {
				return 0, err
			}
		default:
			return 0, conflict(doc, transitionCancel)
		}
		doc.Status = doc.CancelledStatus()
		doc.CancelledBy = actor.UserID
		doc.CancelledAt = &now
		return n, repos.Documents.Update(ctx, doc)
	})
}

type transitionFunc func(ctx context.Context, repos repository.Repositories, doc *entity.Document, now time.Time) (deltas int, err error)

// transition toma el bloqueo del documento, abre la transacción, carga el documento con
// bloqueo de fila y ejecuta fn. Registra span, métrica y log con el resultado.
func (uc *UseCase) transition(ctx context.Context, actor entity.Actor, id, name string, fn transitionFunc) (*entity.Document, error) {
	ctx, span := tracer.Start(ctx, "movement."+name)
	defer span.End()
	span.SetAttributes(attribute.String("document.id", id), attribute.String("actor.user_id", actor.UserID))

	var (
		out    *entity.Document
		kind   entity.DocumentKind
		deltas int
	)
	err := func() error {
		if err := checkActor(actor); err != nil {
			return err
		}
		if id == "" {
			return domain.Invalid("id", "requerido")
		}
		release, err := uc.locker.Lock(ctx, id)
		if err != nil {
			if errors.Is(err, ports.ErrLockHeld) {
				return &domain.StateConflictError{DocumentID: id, Status: "LOCKED", Transition: name}
			}
			return err
		}
		defer func() {
			if rerr := release(context.WithoutCancel(ctx)); rerr != nil {
				uc.log.Warn().Err(rerr).Str("document_id", id).Msg("no se pudo liberar el bloqueo")
			}
		}()

		return uc.tx.Run(ctx, func(repos repository.Repositories) error {
			doc, err := repos.Documents.GetForUpdate(ctx, id)
			if err != nil {
				return err
			}
			kind = doc.Kind
			n, err := fn(ctx, repos, doc, uc.now())
			if err != nil {
				return err
			}
			deltas = n
			out = doc
			return nil
		})
	}()

	span.SetAttributes(attribute.String("document.kind", string(kind)))
	uc.observe(err, string(kind), name, id, actor, deltas)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	return out, nil
}

func (uc *UseCase) observe(err error, kind, transition, id string, actor entity.Actor, deltas int) {
	outcome := ports.Outcome(err)
	uc.metrics.TransitionObserved(kind, transition, outcome)

	var ev *zerolog.Event
	switch outcome {
	case "ok":
		ev = uc.log.Info()
	case "error":
		ev = uc.log.Error().Err(err)
	default:
		ev = uc.log.Warn().Err(err).Str("outcome", outcome)
	}
	ev.Str("document_id", id).
		Str("kind", kind).
		Str("transition", transition).
		Str("user_id", actor.UserID).
		Str("branch_id", actor.BranchID).
		Int("deltas", deltas).
		Msg("transición de documento")
}

func checkActor(actor entity.Actor) error {
	if actor.UserID == "" {
		return domain.Invalid("actor.user_id", "requerido")
	}
	if actor.BranchID == "" {
		return domain.Invalid("actor.branch_id", "requerido")
	}
	return nil
}

func conflict(doc *entity.Document, transition string) error {
	return &domain.StateConflictError{DocumentID: doc.ID, Status: string(doc.Status), Transition: transition}
}
