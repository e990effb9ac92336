package domain

import (
	"errors"
	"fmt"
)

// Errores de dominio (sin dependencias externas).
// Cada tipo estructurado envuelve uno de estos sentinelas, así que errors.Is funciona siempre.
var (
	ErrNotFound          = errors.New("recurso no encontrado")
	ErrValidation        = errors.New("validación fallida")
	ErrInsufficientStock = errors.New("stock insuficiente")
	ErrStateConflict     = errors.New("transición no permitida en el estado actual")
	ErrDuplicate         = errors.New("recurso duplicado")
	ErrUnauthorized      = errors.New("no autorizado")
	ErrForbidden         = errors.New("acceso denegado")
)

// ValidationError entrada mal formada o precondición de documento violada. Nunca toca el ledger.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

// Invalid construye un ValidationError con mensaje formateado.
func Invalid(field, format string, args ...any) error {
	return &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)}
}

// InsufficientStockError un delta dejaría la cantidad en negativo.
type InsufficientStockError struct {
	InventoryID string
	ProductID   string
	Available   int64
	Requested   int64
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("stock insuficiente de %s en %s: disponible %d, solicitado %d",
		e.ProductID, e.InventoryID, e.Available, e.Requested)
}

func (e *InsufficientStockError) Unwrap() error { return ErrInsufficientStock }

// StateConflictError transición pedida desde un estado que no la admite.
type StateConflictError struct {
	DocumentID string
	Status     string
	Transition string
}

func (e *StateConflictError) Error() string {
	return fmt.Sprintf("documento %s en estado %s no admite %s", e.DocumentID, e.Status, e.Transition)
}

func (e *StateConflictError) Unwrap() error { return ErrStateConflict }

// NotFoundError documento, producto o inventario inexistente.
type NotFoundError struct {
	Resource string
	ID       string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %s no encontrado", e.Resource, e.ID)
}

func (e *NotFoundError) Unwrap() error { return ErrNotFound }

// NotFound atajo para NotFoundError.
func NotFound(resource, id string) error {
	return &NotFoundError{Resource: resource, ID: id}
}
