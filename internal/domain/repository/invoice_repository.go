package repository

import (
	"context"
	"time"

	"github.com/jhoicas/acrilstock-api/internal/domain/entity"
)

// InvoiceRepository solo lo necesario para la cancelación en cascada desde ventas.
type InvoiceRepository interface {
	GetForUpdate(ctx context.Context, id string) (*entity.Invoice, error)
	Cancel(ctx context.Context, id string, at time.Time) error
}
