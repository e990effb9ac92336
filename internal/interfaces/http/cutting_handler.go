package http

import (
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/jhoicas/acrilstock-api/internal/application/cutting"
	"github.com/jhoicas/acrilstock-api/internal/application/dto"
)

// CuttingHandler optimizador de cortes y conversión de pedacería (protegido).
type CuttingHandler struct {
	uc       *cutting.UseCase
	validate *validator.Validate
	log      zerolog.Logger
}

func NewCuttingHandler(uc *cutting.UseCase, v *validator.Validate, log zerolog.Logger) *CuttingHandler {
	return &CuttingHandler{uc: uc, validate: v, log: log}
}

// Optimize godoc
// @Summary      Sugerir piezas para un corte
// @Description  No reserva ni descuenta stock.
// @Tags         cuts
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.OptimizeCutRequest  true  "inventario, medidas, cantidad y líneas"
// @Success      200  {object}  dto.CutPlanResponse
// @Failure      400  {object}  dto.ErrorResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/cuts/optimize [post]
func (h *CuttingHandler) Optimize(c *fiber.Ctx) error {
	var in dto.OptimizeCutRequest
	if ok, err := bind(c, h.validate, &in); !ok {
		return err
	}
	plan, err := h.uc.OptimizeCut(c.UserContext(), cutting.OptimizeInput{
		InventoryID: in.InventoryID,
		Width:       in.Width,
		Length:      in.Length,
		Quantity:    in.Quantity,
		Lines:       in.Lines,
	})
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(dto.NewCutPlanResponse(plan))
}

// ConvertScraps godoc
// @Summary      Derivar pedacería de un corte
// @Tags         cuts
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.ConvertScrapsRequest  true  "producto de origen y medidas del corte"
// @Success      200  {array}   dto.ProductResponse
// @Failure      400  {object}  dto.ErrorResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/cuts/scraps [post]
func (h *CuttingHandler) ConvertScraps(c *fiber.Ctx) error {
	var in dto.ConvertScrapsRequest
	if ok, err := bind(c, h.validate, &in); !ok {
		return err
	}
	products, err := h.uc.ConvertScraps(c.UserContext(), cutting.ConvertInput{
		ProductID: in.ProductID,
		Width:     in.Width,
		Length:    in.Length,
		Thickness: in.Thickness,
		Persist:   in.Persist,
	})
	if err != nil {
		return writeError(c, h.log, err)
	}
	out := make([]dto.ProductResponse, 0, len(products))
	for _, p := range products {
		out = append(out, dto.NewProductResponse(p))
	}
	return c.JSON(out)
}
