// Package cutting contiene el optimizador de cortes y el convertidor de pedacería.
// Ambos son cálculos puros: no leen ni escriben stock.
package cutting

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Surface rectángulo ancho × largo. Sirve para cortes solicitados, dimensiones de
// productos en stock y medidas estándar de referencia.
type Surface struct {
	Width  decimal.Decimal
	Length decimal.Decimal
}

// NewSurface construye una superficie desde flotantes (tablas estándar, tests).
func NewSurface(width, length float64) Surface {
	return Surface{Width: decimal.NewFromFloat(width), Length: decimal.NewFromFloat(length)}
}

// Area ancho por largo.
func (s Surface) Area() decimal.Decimal {
	return s.Width.Mul(s.Length)
}

func (s Surface) String() string {
	return fmt.Sprintf("%s X %s", s.Width.StringFixed(2), s.Length.StringFixed(2))
}

// Sub resta eje por eje.
func (s Surface) Sub(o Surface) Surface {
	return Surface{Width: s.Width.Sub(o.Width), Length: s.Length.Sub(o.Length)}
}

// Swapped intercambia ancho y largo.
func (s Surface) Swapped() Surface {
	return Surface{Width: s.Length, Length: s.Width}
}

// NonNegative ambos ejes ≥ 0.
func (s Surface) NonNegative() bool {
	return !s.Width.IsNegative() && !s.Length.IsNegative()
}

// Positive ambos ejes > 0.
func (s Surface) Positive() bool {
	return s.Width.IsPositive() && s.Length.IsPositive()
}

// Contains indica si o cabe dentro de s sin rotar o.
func (s Surface) Contains(o Surface) bool {
	return s.Width.GreaterThanOrEqual(o.Width) && s.Length.GreaterThanOrEqual(o.Length)
}

// StandardMatch estándar más cercano a un residuo y la suma de diferencias por eje.
type StandardMatch struct {
	Standard Surface
	Distance decimal.Decimal
}

// DefaultStandards tabla de medidas de referencia para pedacería.
// 0×0 representa el corte exacto: un residuo sin estándar mayor se califica por su desperdicio bruto.
func DefaultStandards() []Surface {
	return []Surface{
		NewSurface(0, 0),
		NewSurface(1, 12),
		NewSurface(0.6, 1),
		NewSurface(8, 13),
	}
}

// ClosestStandard elige, entre los estándares que caben en el residuo (sin rotarlos),
// el que minimiza (residuo.ancho − std.ancho) + (residuo.largo − std.largo).
// ok=false si ningún estándar cabe.
func (s Surface) ClosestStandard(standards []Surface) (StandardMatch, bool) {
	var best StandardMatch
	found := false
	for _, std := range standards {
		if !s.Contains(std) {
			continue
		}
		rest := s.Sub(std)
		d := rest.Width.Add(rest.Length)
		if !found || d.LessThan(best.Distance) {
			best = StandardMatch{Standard: std, Distance: d}
			found = true
		}
	}
	return best, found
}

// ParseStandards interpreta "1x12;0.6x1;8x13". Cadena vacía devuelve DefaultStandards.
func ParseStandards(raw string) ([]Surface, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return DefaultStandards(), nil
	}
	parts := strings.Split(raw, ";")
	out := make([]Surface, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		dims := strings.Split(strings.ToLower(p), "x")
		if len(dims) != 2 {
			return nil, fmt.Errorf("estándar %q: formato esperado ANCHOxLARGO", p)
		}
		w, err := decimal.NewFromString(strings.TrimSpace(dims[0]))
		if err != nil {
			return nil, fmt.Errorf("estándar %q: ancho: %w", p, err)
		}
		l, err := decimal.NewFromString(strings.TrimSpace(dims[1]))
		if err != nil {
			return nil, fmt.Errorf("estándar %q: largo: %w", p, err)
		}
		if w.IsNegative() || l.IsNegative() {
			return nil, fmt.Errorf("estándar %q: medidas negativas", p)
		}
		out = append(out, Surface{Width: w, Length: l})
	}
	if len(out) == 0 {
		return DefaultStandards(), nil
	}
	return out, nil
}
