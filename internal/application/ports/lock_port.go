package ports

import (
	"context"
	"errors"
)

// ErrLockHeld otra transición ya tiene tomado el documento.
var ErrLockHeld = errors.New("documento bloqueado por otra transición")

// DocumentLocker puerto de salida para el bloqueo distribuido por documento.
// El adaptador Redis lo implementa con bsm/redislock; NopLocker cuando no hay Redis.
// Complementa el SELECT ... FOR UPDATE: evita que dos réplicas compitan por la misma fila
// hasta que una de ellas aborte por timeout de la BD.
type DocumentLocker interface {
	// Lock devuelve una función para liberar el bloqueo, o ErrLockHeld si ya está tomado.
	Lock(ctx context.Context, documentID string) (release func(context.Context) error, err error)
}

// NopLocker no bloquea nada.
type NopLocker struct{}

// Lock siempre concede.
func (NopLocker) Lock(context.Context, string) (func(context.Context) error, error) {
	return func(context.Context) error { return nil }, nil
}
