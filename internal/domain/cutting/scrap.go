package cutting

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/shopspring/decimal"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/jhoicas/acrilstock-api/internal/domain"
	"github.com/jhoicas/acrilstock-api/internal/domain/entity"
)

const scrapSuffix = " [PEDACERÍA]"

// CutDimensions medidas del subproducto cortado de una pieza.
// Thickness en cero hereda el espesor de la pieza original.
type CutDimensions struct {
	Width     decimal.Decimal
	Length    decimal.Decimal
	Thickness decimal.Decimal
}

// ConvertScraps deriva hasta dos definiciones de pedacería a partir del sobrante de un corte:
// la tira de ancho sobrante (W−w > 0) y la tira de largo sobrante (L−l > 0).
// No asigna IDs ni persiste nada.
func ConvertScraps(parent entity.Product, cut CutDimensions) ([]entity.Product, error) {
	if !cut.Width.IsPositive() || !cut.Length.IsPositive() {
		return nil, domain.Invalid("cut", "las medidas del corte deben ser mayores a cero")
	}
	if cut.Width.GreaterThan(parent.Width) || cut.Length.GreaterThan(parent.Length) {
		return nil, domain.Invalid("cut", "el corte %s no cabe en %s (%s)",
			Surface{Width: cut.Width, Length: cut.Length}, parent.SKU,
			Surface{Width: parent.Width, Length: parent.Length})
	}
	thickness := cut.Thickness
	if !thickness.IsPositive() {
		thickness = parent.Thickness
	}

	remainingWidth := parent.Width.Sub(cut.Width)
	remainingLength := parent.Length.Sub(cut.Length)

	var strips []Surface
	if remainingWidth.IsPositive() {
		strips = append(strips, Surface{
			Width:  decimal.Min(remainingWidth, parent.Length),
			Length: decimal.Max(remainingWidth, parent.Length),
		})
	}
	if remainingLength.IsPositive() {
		strips = append(strips, Surface{
			Width:  decimal.Min(cut.Width, remainingLength),
			Length: decimal.Max(cut.Width, remainingLength),
		})
	}

	out := make([]entity.Product, 0, len(strips))
	for _, s := range strips {
		measures := fmt.Sprintf("%s*%s*%s", s.Width.StringFixed(2), s.Length.StringFixed(2), thickness.StringFixed(2))
		description := strings.TrimSpace(fmt.Sprintf("%s %s", parent.Description, s)) + scrapSuffix
		out = append(out, entity.Product{
			SKU:               parent.SKU + "_" + measures + "PED",
			Name:              parent.Name,
			Description:       description,
			SearchDescription: foldAccents(description),
			Line:              parent.Line,
			Engraving:         parent.Engraving,
			Color:             parent.Color,
			Width:             s.Width,
			Length:            s.Length,
			Thickness:         thickness,
			IsComposite:       parent.IsComposite,
			IsScrap:           true,
		})
	}
	return out, nil
}

// foldAccents quita diacríticos para la búsqueda ("PEDACERÍA" → "pedaceria").
func foldAccents(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(t, s)
	if err != nil {
		return strings.ToLower(s)
	}
	return strings.ToLower(folded)
}
