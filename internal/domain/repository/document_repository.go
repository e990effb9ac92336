package repository

import (
	"context"

	"github.com/jhoicas/acrilstock-api/internal/domain/entity"
)

// DocumentRepository puerto de persistencia para documentos de movimiento y sus renglones.
type DocumentRepository interface {
	Create(ctx context.Context, doc *entity.Document) error
	GetByID(ctx context.Context, id string) (*entity.Document, error)
	// GetForUpdate bloquea la cabecera para serializar transiciones sobre el mismo documento.
	GetForUpdate(ctx context.Context, id string) (*entity.Document, error)
	// Update persiste estado, sellos de auditoría, diferencia monetaria y precios de renglón.
	// Los renglones en sí no cambian.
	Update(ctx context.Context, doc *entity.Document) error
	List(ctx context.Context, filter entity.DocumentFilter) ([]*entity.Document, error)
	// ListByParent documentos de kind que referencian parentID: ingresos por orden de compra,
	// recepciones por envío, ventas por factura.
	ListByParent(ctx context.Context, kind entity.DocumentKind, parentID string) ([]*entity.Document, error)
}
