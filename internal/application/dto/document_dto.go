package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/acrilstock-api/internal/domain/entity"
)

// LineRequest renglón producto/cantidad.
type LineRequest struct {
	ProductID string `json:"product_id" validate:"required"`
	Quantity  int64  `json:"quantity" validate:"min=1"`
}

// ReceptionLineRequest renglón de recepción de transferencia.
type ReceptionLineRequest struct {
	ProductID        string  `json:"product_id" validate:"required"`
	ReceivedQuantity int64   `json:"received_quantity" validate:"min=1"`
	AcceptedQuantity int64   `json:"accepted_quantity" validate:"min=0"`
	RejectionReason  *string `json:"rejection_reason,omitempty"`
}

type CreatePurchaseOrderRequest struct {
	ProviderID string        `json:"provider_id" validate:"required"`
	Lines      []LineRequest `json:"lines" validate:"required,min=1,dive"`
}

type CreateProductEntryRequest struct {
	PurchaseOrderID string        `json:"purchase_order_id" validate:"required"`
	Lines           []LineRequest `json:"lines" validate:"required,min=1,dive"`
}

type CreateProductRemovalRequest struct {
	Cause       string        `json:"cause" validate:"required,oneof=INTERNAL PROVIDER TRANSFER"`
	ProviderID  string        `json:"provider_id,omitempty"`
	ReceptionID string        `json:"reception_id,omitempty"`
	Lines       []LineRequest `json:"lines" validate:"required,min=1,dive"`
}

type CreateTransferShipmentRequest struct {
	TargetBranchID string        `json:"target_branch_id" validate:"required"`
	Lines          []LineRequest `json:"lines" validate:"required,min=1,dive"`
}

type CreateTransferReceptionRequest struct {
	ShipmentID string                 `json:"shipment_id" validate:"required"`
	Lines      []ReceptionLineRequest `json:"lines" validate:"required,min=1,dive"`
}

type CreateReimbursementRequest struct {
	SaleID    string        `json:"sale_id,omitempty"`
	Returned  []LineRequest `json:"returned" validate:"required,min=1,dive"`
	Exchanged []LineRequest `json:"exchanged,omitempty" validate:"omitempty,dive"`
}

type CreateSaleRequest struct {
	InvoiceID string        `json:"invoice_id,omitempty"`
	Lines     []LineRequest `json:"lines" validate:"required,min=1,dive"`
}

// DocumentListRequest filtros de GET /api/documents.
type DocumentListRequest struct {
	Kind        string `query:"kind"`
	Status      string `query:"status"`
	InventoryID string `query:"inventory_id"`
	PageRequest
}

// LineResponse renglón tal como quedó persistido.
type LineResponse struct {
	ID               string           `json:"id"`
	ProductID        string           `json:"product_id"`
	Quantity         int64            `json:"quantity"`
	AcceptedQuantity *int64           `json:"accepted_quantity,omitempty"`
	RejectionReason  *string          `json:"rejection_reason,omitempty"`
	Role             string           `json:"role,omitempty"`
	UnitPrice        *decimal.Decimal `json:"unit_price,omitempty"`
}

// DocumentResponse documento de movimiento; los campos de variante vacíos se omiten.
type DocumentResponse struct {
	ID                 string           `json:"id"`
	Kind               string           `json:"kind"`
	Status             string           `json:"status"`
	SaleState          string           `json:"sale_state,omitempty"`
	InventoryID        string           `json:"inventory_id,omitempty"`
	BranchID           string           `json:"branch_id"`
	ProviderID         string           `json:"provider_id,omitempty"`
	PurchaseOrderID    string           `json:"purchase_order_id,omitempty"`
	Cause              string           `json:"cause,omitempty"`
	ReceptionID        string           `json:"reception_id,omitempty"`
	SourceBranchID     string           `json:"source_branch_id,omitempty"`
	TargetBranchID     string           `json:"target_branch_id,omitempty"`
	ShipmentID         string           `json:"shipment_id,omitempty"`
	SaleID             string           `json:"sale_id,omitempty"`
	InvoiceID          string           `json:"invoice_id,omitempty"`
	MonetaryDifference *decimal.Decimal `json:"monetary_difference,omitempty"`
	Lines              []LineResponse   `json:"lines"`
	CreatedBy          string           `json:"created_by"`
	CreatedAt          time.Time        `json:"created_at"`
	ConfirmedBy        string           `json:"confirmed_by,omitempty"`
	ConfirmedAt        *time.Time       `json:"confirmed_at,omitempty"`
	CancelledBy        string           `json:"cancelled_by,omitempty"`
	CancelledAt        *time.Time       `json:"cancelled_at,omitempty"`
}

type DocumentListResponse struct {
	Items []DocumentResponse `json:"items"`
	Page  PageResponse       `json:"page"`
}

func NewDocumentResponse(d *entity.Document) DocumentResponse {
	out := DocumentResponse{
		ID:                 d.ID,
		Kind:               string(d.Kind),
		Status:             string(d.Status),
		SaleState:          d.SaleState(),
		InventoryID:        d.InventoryID,
		BranchID:           d.BranchID,
		ProviderID:         d.ProviderID,
		PurchaseOrderID:    d.PurchaseOrderID,
		Cause:              string(d.Cause),
		ReceptionID:        d.ReceptionID,
		SourceBranchID:     d.SourceBranchID,
		TargetBranchID:     d.TargetBranchID,
		ShipmentID:         d.ShipmentID,
		SaleID:             d.SaleID,
		InvoiceID:          d.InvoiceID,
		MonetaryDifference: d.MonetaryDifference,
		Lines:              make([]LineResponse, 0, len(d.Lines)),
		CreatedBy:          d.CreatedBy,
		CreatedAt:          d.CreatedAt,
		ConfirmedBy:        d.ConfirmedBy,
		ConfirmedAt:        d.ConfirmedAt,
		CancelledBy:        d.CancelledBy,
		CancelledAt:        d.CancelledAt,
	}
	for _, l := range d.Lines {
		lr := LineResponse{
			ID:              l.ID,
			ProductID:       l.ProductID,
			Quantity:        l.Quantity,
			RejectionReason: l.RejectionReason,
			Role:            string(l.Role),
			UnitPrice:       l.UnitPrice,
		}
		if d.Kind == entity.KindTransferReception {
			accepted := l.AcceptedQuantity
			lr.AcceptedQuantity = &accepted
		}
		out.Lines = append(out.Lines, lr)
	}
	return out
}
