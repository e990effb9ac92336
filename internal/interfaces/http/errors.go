package http

import (
	"errors"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/jhoicas/acrilstock-api/internal/application/dto"
	"github.com/jhoicas/acrilstock-api/internal/domain"
)

// writeError traduce los errores de dominio a HTTP. Lo no clasificado es 500 y se registra.
func writeError(c *fiber.Ctx, log zerolog.Logger, err error) error {
	var (
		verr     *domain.ValidationError
		stockErr *domain.InsufficientStockError
		stateErr *domain.StateConflictError
		nfErr    *domain.NotFoundError
	)
	switch {
	case errors.As(err, &verr):
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: verr.Message, Field: verr.Field})
	case errors.Is(err, domain.ErrValidation):
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: err.Error()})
	case errors.As(err, &stockErr):
		return c.Status(fiber.StatusConflict).JSON(dto.ErrorResponse{
			Code:    "INSUFFICIENT_STOCK",
			Message: stockErr.Error(),
			Details: map[string]string{
				"inventory_id": stockErr.InventoryID,
				"product_id":   stockErr.ProductID,
				"available":    strconv.FormatInt(stockErr.Available, 10),
				"requested":    strconv.FormatInt(stockErr.Requested, 10),
			},
		})
	case errors.As(err, &stateErr):
		return c.Status(fiber.StatusConflict).JSON(dto.ErrorResponse{
			Code:    "STATE_CONFLICT",
			Message: stateErr.Error(),
			Details: map[string]string{"status": stateErr.Status, "transition": stateErr.Transition},
		})
	case errors.As(err, &nfErr):
		return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{Code: "NOT_FOUND", Message: nfErr.Error()})
	case errors.Is(err, domain.ErrNotFound):
		return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{Code: "NOT_FOUND", Message: err.Error()})
	case errors.Is(err, domain.ErrDuplicate):
		return c.Status(fiber.StatusConflict).JSON(dto.ErrorResponse{Code: "DUPLICATE", Message: err.Error()})
	case errors.Is(err, domain.ErrForbidden):
		return c.Status(fiber.StatusForbidden).JSON(dto.ErrorResponse{Code: "FORBIDDEN", Message: "acceso denegado al recurso"})
	case errors.Is(err, domain.ErrUnauthorized):
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "UNAUTHORIZED", Message: "token inválido"})
	}
	log.Error().Err(err).Str("path", c.Path()).Str("method", c.Method()).Msg("error interno")
	return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Code: "INTERNAL", Message: "error interno"})
}

// bind parsea el cuerpo y corre las reglas validate; responde 400 si algo falla.
// ok=false indica que la respuesta ya se escribió.
func bind(c *fiber.Ctx, v *validator.Validate, out any) (bool, error) {
	if err := c.BodyParser(out); err != nil {
		return false, c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	if err := v.Struct(out); err != nil {
		return false, c.Status(fiber.StatusBadRequest).JSON(validationResponse(err))
	}
	return true, nil
}

// validationResponse campo → regla incumplida.
func validationResponse(err error) dto.ErrorResponse {
	resp := dto.ErrorResponse{Code: "VALIDATION", Message: "datos inválidos"}
	var ves validator.ValidationErrors
	if !errors.As(err, &ves) {
		resp.Message = err.Error()
		return resp
	}
	resp.Details = make(map[string]string, len(ves))
	for _, fe := range ves {
		resp.Details[fieldPath(fe)] = fe.Tag()
	}
	if len(ves) == 1 {
		resp.Field = fieldPath(ves[0])
	}
	return resp
}

// fieldPath quita el nombre del struct raíz: "lines[0].quantity".
func fieldPath(fe validator.FieldError) string {
	ns := fe.Namespace()
	if i := strings.IndexByte(ns, '.'); i >= 0 {
		return ns[i+1:]
	}
	return ns
}
