package cutting

import (
	"sort"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/acrilstock-api/internal/domain/entity"
)

// Orientation forma en que el corte se acomoda sobre la pieza en stock.
type Orientation string

const (
	Vertical   Orientation = "Vertical"   // ancho con ancho, largo con largo
	Horizontal Orientation = "Horizontal" // medidas de la pieza intercambiadas
)

// Candidate pieza en stock elegida para surtir el corte.
type Candidate struct {
	Item              entity.StockItem
	Product           entity.Product
	Orientation       Orientation
	Residual          Surface
	ClosestStandard   Surface
	Distance          decimal.Decimal
	QuantityTaken     int64
	QuantityRemaining int64 // existencia que queda en el renglón después de tomar
}

// Plan resultado de una optimización. Σ QuantityTaken + Unsatisfied = cantidad pedida.
type Plan struct {
	Candidates  []Candidate
	Unsatisfied int64
}

// Optimizer heurística de mejor ajuste para un solo inventario y una sola solicitud.
type Optimizer struct {
	standards []Surface
}

// NewOptimizer construye el optimizador con la tabla de estándares dada (vacía = DefaultStandards).
func NewOptimizer(standards []Surface) *Optimizer {
	if len(standards) == 0 {
		standards = DefaultStandards()
	}
	return &Optimizer{standards: standards}
}

// Standards tabla en uso.
func (o *Optimizer) Standards() []Surface {
	return o.standards
}

// Optimize ordena las piezas disponibles por cercanía del residuo a un estándar y las consume
// de forma voraz hasta cubrir quantity. La pedacería se antepone en el resultado final.
// stock es una foto del inventario; el llamador revalida existencias al consumir.
func (o *Optimizer) Optimize(req Surface, quantity int64, lines []string, stock []entity.CutCandidate) Plan {
	allowed := make(map[string]struct{}, len(lines))
	for _, l := range lines {
		allowed[l] = struct{}{}
	}

	ranked := make([]Candidate, 0, len(stock))
	for _, sc := range stock {
		if _, ok := allowed[sc.Product.Line]; !ok {
			continue
		}
		if sc.Item.Quantity < 1 {
			continue
		}
		if c, ok := o.evaluate(req, sc); ok {
			ranked = append(ranked, c)
		}
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Distance.LessThan(ranked[j].Distance)
	})

	remaining := quantity
	chosen := make([]Candidate, 0, len(ranked))
	for _, c := range ranked {
		if remaining <= 0 {
			break
		}
		take := c.Item.Quantity
		if take > remaining {
			take = remaining
		}
		c.QuantityTaken = take
		c.QuantityRemaining = c.Item.Quantity - take
		remaining -= take
		chosen = append(chosen, c)
	}

	sort.SliceStable(chosen, func(i, j int) bool {
		return chosen[i].Product.IsScrap && !chosen[j].Product.IsScrap
	})

	return Plan{Candidates: chosen, Unsatisfied: remaining}
}

// evaluate calcula el residuo y el estándar más cercano en cada orientación factible y se queda
// con la de menor distancia; empate o única opción vertical = Vertical.
func (o *Optimizer) evaluate(req Surface, sc entity.CutCandidate) (Candidate, bool) {
	piece := Surface{Width: sc.Product.Width, Length: sc.Product.Length}

	var best Candidate
	found := false
	for _, conf := range []struct {
		orientation Orientation
		piece       Surface
	}{
		{Vertical, piece},
		{Horizontal, piece.Swapped()},
	} {
		residual := conf.piece.Sub(req)
		if !residual.NonNegative() {
			continue
		}
		match, ok := residual.ClosestStandard(o.standards)
		if !ok {
			continue
		}
		if found && !match.Distance.LessThan(best.Distance) {
			continue
		}
		best = Candidate{
			Item:            sc.Item,
			Product:         sc.Product,
			Orientation:     conf.orientation,
			Residual:        residual,
			ClosestStandard: match.Standard,
			Distance:        match.Distance,
		}
		found = true
	}
	return best, found
}
