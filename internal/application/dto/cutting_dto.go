package dto

import (
	"github.com/shopspring/decimal"

	"github.com/jhoicas/acrilstock-api/internal/domain/cutting"
	"github.com/jhoicas/acrilstock-api/internal/domain/entity"
)

// OptimizeCutRequest corte solicitado sobre un inventario.
type OptimizeCutRequest struct {
	InventoryID string          `json:"inventory_id" validate:"required"`
	Width       decimal.Decimal `json:"width"`
	Length      decimal.Decimal `json:"length"`
	Quantity    int64           `json:"quantity" validate:"min=1"`
	Lines       []string        `json:"lines" validate:"required,min=1,dive,required"`
}

// ConvertScrapsRequest medidas del corte hecho sobre product_id.
type ConvertScrapsRequest struct {
	ProductID string          `json:"product_id" validate:"required"`
	Width     decimal.Decimal `json:"width"`
	Length    decimal.Decimal `json:"length"`
	Thickness decimal.Decimal `json:"thickness"`
	Persist   bool            `json:"persist"`
}

type SurfaceResponse struct {
	Width  decimal.Decimal `json:"width"`
	Length decimal.Decimal `json:"length"`
}

type CutCandidateResponse struct {
	ProductID         string          `json:"product_id"`
	SKU               string          `json:"sku"`
	IsScrap           bool            `json:"is_scrap"`
	Width             decimal.Decimal `json:"width"`
	Length            decimal.Decimal `json:"length"`
	Orientation       string          `json:"orientation"`
	Residual          SurfaceResponse `json:"residual"`
	ClosestStandard   SurfaceResponse `json:"closest_standard"`
	Distance          decimal.Decimal `json:"distance"`
	QuantityTaken     int64           `json:"quantity_taken"`
	QuantityRemaining int64           `json:"quantity_remaining"`
}

type CutPlanResponse struct {
	Candidates          []CutCandidateResponse `json:"candidates"`
	UnsatisfiedQuantity int64                  `json:"unsatisfied_quantity"`
}

type ProductResponse struct {
	ID                string          `json:"id,omitempty"`
	SKU               string          `json:"sku"`
	Name              string          `json:"name"`
	Description       string          `json:"description"`
	SearchDescription string          `json:"search_description"`
	Line              string          `json:"line"`
	Engraving         string          `json:"engraving,omitempty"`
	Color             string          `json:"color,omitempty"`
	Width             decimal.Decimal `json:"width"`
	Length            decimal.Decimal `json:"length"`
	Thickness         decimal.Decimal `json:"thickness"`
	IsComposite       bool            `json:"is_composite"`
	IsScrap           bool            `json:"is_scrap"`
}

func surface(s cutting.Surface) SurfaceResponse {
	return SurfaceResponse{Width: s.Width, Length: s.Length}
}

func NewCutPlanResponse(p cutting.Plan) CutPlanResponse {
	out := CutPlanResponse{
		Candidates:          make([]CutCandidateResponse, 0, len(p.Candidates)),
		UnsatisfiedQuantity: p.Unsatisfied,
	}
	for _, c := range p.Candidates {
		out.Candidates = append(out.Candidates, CutCandidateResponse{
			ProductID:         c.Product.ID,
			SKU:               c.Product.SKU,
			IsScrap:           c.Product.IsScrap,
			Width:             c.Product.Width,
			Length:            c.Product.Length,
			Orientation:       string(c.Orientation),
			Residual:          surface(c.Residual),
			ClosestStandard:   surface(c.ClosestStandard),
			Distance:          c.Distance,
			QuantityTaken:     c.QuantityTaken,
			QuantityRemaining: c.QuantityRemaining,
		})
	}
	return out
}

func NewProductResponse(p entity.Product) ProductResponse {
	return ProductResponse{
		ID: p.ID, SKU: p.SKU, Name: p.Name, Description: p.Description,
		SearchDescription: p.SearchDescription, Line: p.Line, Engraving: p.Engraving, Color: p.Color,
		Width: p.Width, Length: p.Length, Thickness: p.Thickness,
		IsComposite: p.IsComposite, IsScrap: p.IsScrap,
	}
}
