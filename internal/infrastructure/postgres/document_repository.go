package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/acrilstock-api/internal/domain"
	"github.com/jhoicas/acrilstock-api/internal/domain/entity"
	"github.com/jhoicas/acrilstock-api/internal/domain/repository"
)

var _ repository.DocumentRepository = (*DocumentRepo)(nil)

// DocumentRepo una tabla para todas las variantes (columnas de variante nulas si no aplica)
// y document_lines para los renglones.
type DocumentRepo struct {
	q Querier
}

// NewDocumentRepository construye el adaptador. Pasar pool o tx (Querier).
func NewDocumentRepository(q Querier) *DocumentRepo {
	return &DocumentRepo{q: q}
}

// parentColumns columna de referencia que agrupa cada variante bajo su padre.
var parentColumns = map[entity.DocumentKind]string{
	entity.KindProductEntry:      "purchase_order_id",
	entity.KindTransferReception: "shipment_id",
	entity.KindSale:              "invoice_id",
	entity.KindReimbursement:     "sale_id",
	entity.KindProductRemoval:    "reception_id",
}

const documentColumns = `id, kind, status, inventory_id, branch_id, provider_id, purchase_order_id, cause,
	reception_id, source_branch_id, target_branch_id, shipment_id, sale_id, invoice_id,
	monetary_difference, created_by, created_at, confirmed_by, confirmed_at, cancelled_by, cancelled_at`

func (r *DocumentRepo) Create(ctx context.Context, doc *entity.Document) error {
	if doc.ID == "" {
		doc.ID = uuid.New().String()
	}
	query := `INSERT INTO documents (` + documentColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $21)`
	_, err := r.q.Exec(ctx, query,
		doc.ID, doc.Kind, doc.Status, nullIfEmpty(doc.InventoryID), doc.BranchID,
		nullIfEmpty(doc.ProviderID), nullIfEmpty(doc.PurchaseOrderID), nullIfEmpty(string(doc.Cause)),
		nullIfEmpty(doc.ReceptionID), nullIfEmpty(doc.SourceBranchID), nullIfEmpty(doc.TargetBranchID),
		nullIfEmpty(doc.ShipmentID), nullIfEmpty(doc.SaleID), nullIfEmpty(doc.InvoiceID),
		nullDecimal(doc.MonetaryDifference), doc.CreatedBy, doc.CreatedAt,
		nullIfEmpty(doc.ConfirmedBy), doc.ConfirmedAt, nullIfEmpty(doc.CancelledBy), doc.CancelledAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("documento %s: %w", doc.ID, domain.ErrDuplicate)
		}
		return fmt.Errorf("insert document: %w", err)
	}

	lineQuery := `
		INSERT INTO document_lines (id, document_id, position, product_id, quantity, accepted_quantity, rejection_reason, role, unit_price)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`
	for i := range doc.Lines {
		l := &doc.Lines[i]
		if l.ID == "" {
			l.ID = uuid.New().String()
		}
		if _, err := r.q.Exec(ctx, lineQuery,
			l.ID, doc.ID, i, l.ProductID, l.Quantity, l.AcceptedQuantity,
			l.RejectionReason, string(l.Role), nullDecimal(l.UnitPrice),
		); err != nil {
			return fmt.Errorf("insert document line: %w", err)
		}
	}
	return nil
}

func (r *DocumentRepo) GetByID(ctx context.Context, id string) (*entity.Document, error) {
	return r.getOne(ctx, id, "")
}

func (r *DocumentRepo) GetForUpdate(ctx context.Context, id string) (*entity.Document, error) {
	return r.getOne(ctx, id, " FOR UPDATE")
}

func (r *DocumentRepo) getOne(ctx context.Context, id, suffix string) (*entity.Document, error) {
	query := `SELECT ` + documentColumns + ` FROM documents WHERE id = $1` + suffix
	doc, err := scanDocument(r.q.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.NotFound("documento", id)
		}
		return nil, fmt.Errorf("get document: %w", err)
	}
	if err := r.loadLines(ctx, []*entity.Document{doc}); err != nil {
		return nil, err
	}
	return doc, nil
}

// Update solo estado, sellos, diferencia monetaria y precio de renglón.
func (r *DocumentRepo) Update(ctx context.Context, doc *entity.Document) error {
	query := `
		UPDATE documents SET status = $2, monetary_difference = $3,
			confirmed_by = $4, confirmed_at = $5, cancelled_by = $6, cancelled_at = $7
		WHERE id = $1`
	tag, err := r.q.Exec(ctx, query,
		doc.ID, doc.Status, nullDecimal(doc.MonetaryDifference),
		nullIfEmpty(doc.ConfirmedBy), doc.ConfirmedAt, nullIfEmpty(doc.CancelledBy), doc.CancelledAt,
	)
	if err != nil {
		return fmt.Errorf("update document: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.NotFound("documento", doc.ID)
	}
	for _, l := range doc.Lines {
		if l.UnitPrice == nil || l.ID == "" {
			continue
		}
		if _, err := r.q.Exec(ctx,
			`UPDATE document_lines SET unit_price = $2 WHERE id = $1`, l.ID, *l.UnitPrice,
		); err != nil {
			return fmt.Errorf("update document line: %w", err)
		}
	}
	return nil
}

func (r *DocumentRepo) List(ctx context.Context, f entity.DocumentFilter) ([]*entity.Document, error) {
	var (
		where []string
		args  []any
	)
	add := func(cond string, v any) {
		args = append(args, v)
		where = append(where, fmt.Sprintf(cond, len(args)))
	}
	if f.Kind != "" {
		add("kind = $%d", f.Kind)
	}
	if f.Status != "" {
		add("status = $%d", f.Status)
	}
	if f.InventoryID != "" {
		add("inventory_id = $%d", f.InventoryID)
	}

	query := `SELECT ` + documentColumns + ` FROM documents`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY created_at DESC, id"
	if f.Limit > 0 {
		args = append(args, f.Limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
	}
	if f.Offset > 0 {
		args = append(args, f.Offset)
		query += fmt.Sprintf(" OFFSET $%d", len(args))
	}
	return r.queryDocuments(ctx, query, args...)
}

func (r *DocumentRepo) ListByParent(ctx context.Context, kind entity.DocumentKind, parentID string) ([]*entity.Document, error) {
	column, ok := parentColumns[kind]
	if !ok || parentID == "" {
		return nil, nil
	}
	query := `SELECT ` + documentColumns + ` FROM documents
		WHERE kind = $1 AND ` + column + ` = $2
		ORDER BY created_at DESC, id`
	return r.queryDocuments(ctx, query, kind, parentID)
}

func (r *DocumentRepo) queryDocuments(ctx context.Context, query string, args ...any) ([]*entity.Document, error) {
	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}
	defer rows.Close()

	var out []*entity.Document
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, fmt.Errorf("scan document: %w", err)
		}
		out = append(out, doc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}
	if err := r.loadLines(ctx, out); err != nil {
		return nil, err
	}
	return out, nil
}

// loadLines carga los renglones de varios documentos en una sola consulta.
func (r *DocumentRepo) loadLines(ctx context.Context, docs []*entity.Document) error {
	if len(docs) == 0 {
		return nil
	}
	byID := make(map[string]*entity.Document, len(docs))
	ids := make([]string, 0, len(docs))
	for _, d := range docs {
		byID[d.ID] = d
		ids = append(ids, d.ID)
	}
	query := `
		SELECT document_id, id, product_id, quantity, accepted_quantity, rejection_reason, role, unit_price
		FROM document_lines WHERE document_id = ANY($1)
		ORDER BY document_id, position`
	rows, err := r.q.Query(ctx, query, ids)
	if err != nil {
		return fmt.Errorf("list document lines: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var (
			docID string
			l     entity.LineItem
			role  string
			price decimal.NullDecimal
		)
		if err := rows.Scan(&docID, &l.ID, &l.ProductID, &l.Quantity, &l.AcceptedQuantity,
			&l.RejectionReason, &role, &price); err != nil {
			return fmt.Errorf("scan document line: %w", err)
		}
		l.Role = entity.LineRole(role)
		l.UnitPrice = fromNullDecimal(price)
		if d, ok := byID[docID]; ok {
			d.Lines = append(d.Lines, l)
		}
	}
	return rows.Err()
}

func scanDocument(row pgx.Row) (*entity.Document, error) {
	var (
		d                                                       entity.Document
		inventoryID, providerID, purchaseOrderID, cause         *string
		receptionID, sourceBranchID, targetBranchID             *string
		shipmentID, saleID, invoiceID, confirmedBy, cancelledBy *string
		diff                                                    decimal.NullDecimal
		confirmedAt, cancelledAt                                *time.Time
	)
	err := row.Scan(
		&d.ID, &d.Kind, &d.Status, &inventoryID, &d.BranchID, &providerID, &purchaseOrderID, &cause,
		&receptionID, &sourceBranchID, &targetBranchID, &shipmentID, &saleID, &invoiceID,
		&diff, &d.CreatedBy, &d.CreatedAt, &confirmedBy, &confirmedAt, &cancelledBy, &cancelledAt,
	)
	if err != nil {
		return nil, err
	}
	d.InventoryID = deref(inventoryID)
	d.ProviderID = deref(providerID)
	d.PurchaseOrderID = deref(purchaseOrderID)
	d.Cause = entity.RemovalCause(deref(cause))
	d.ReceptionID = deref(receptionID)
	d.SourceBranchID = deref(sourceBranchID)
	d.TargetBranchID = deref(targetBranchID)
	d.ShipmentID = deref(shipmentID)
	d.SaleID = deref(saleID)
	d.InvoiceID = deref(invoiceID)
	d.ConfirmedBy = deref(confirmedBy)
	d.CancelledBy = deref(cancelledBy)
	d.MonetaryDifference = fromNullDecimal(diff)
	d.ConfirmedAt = confirmedAt
	d.CancelledAt = cancelledAt
	return &d, nil
}

func nullDecimal(v *decimal.Decimal) decimal.NullDecimal {
	if v == nil {
		return decimal.NullDecimal{}
	}
	return decimal.NullDecimal{Decimal: *v, Valid: true}
}

func fromNullDecimal(v decimal.NullDecimal) *decimal.Decimal {
	if !v.Valid {
		return nil
	}
	d := v.Decimal
	return &d
}
