// Package memory implementa los puertos de repositorio en memoria. Cada transacción trabaja sobre
// una copia del estado y la publica completa al confirmar, así que un error a mitad de camino
// no deja rastro. Las transacciones se serializan con un único mutex.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/acrilstock-api/internal/domain"
	"github.com/jhoicas/acrilstock-api/internal/domain/entity"
	"github.com/jhoicas/acrilstock-api/internal/domain/repository"
)

type state struct {
	branches    map[string]entity.Branch
	inventories map[string]entity.Inventory
	products    map[string]entity.Product
	prices      map[string][]entity.ProductPrice
	stock       map[string]entity.StockItem
	documents   map[string]*entity.Document
	invoices    map[string]entity.Invoice
}

func newState() *state {
	return &state{
		branches:    make(map[string]entity.Branch),
		inventories: make(map[string]entity.Inventory),
		products:    make(map[string]entity.Product),
		prices:      make(map[string][]entity.ProductPrice),
		stock:       make(map[string]entity.StockItem),
		documents:   make(map[string]*entity.Document),
		invoices:    make(map[string]entity.Invoice),
	}
}

func (s *state) clone() *state {
	c := newState()
	for k, v := range s.branches {
		c.branches[k] = v
	}
	for k, v := range s.inventories {
		c.inventories[k] = v
	}
	for k, v := range s.products {
		c.products[k] = v
	}
	for k, v := range s.prices {
		c.prices[k] = append([]entity.ProductPrice(nil), v...)
	}
	for k, v := range s.stock {
		c.stock[k] = v
	}
	for k, v := range s.documents {
		c.documents[k] = v.Clone()
	}
	for k, v := range s.invoices {
		c.invoices[k] = v
	}
	return c
}

// Store almacén en memoria.
type Store struct {
	mu sync.RWMutex
	st *state
}

// NewStore almacén vacío.
func NewStore() *Store {
	return &Store{st: newState()}
}

// Repositories puertos fuera de transacción; cada llamada toma el mutex por su cuenta.
func (s *Store) Repositories() repository.Repositories {
	return s.bind(&view{store: s})
}

// Run ejecuta fn sobre una copia del estado; la copia reemplaza al estado solo si fn devuelve nil.
func (s *Store) Run(ctx context.Context, fn func(repos repository.Repositories) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	work := s.st.clone()
	if err := fn(s.bind(&view{tx: work})); err != nil {
		return err
	}
	s.st = work
	return nil
}

var _ repository.TxRunner = (*Store)(nil)

func (s *Store) bind(v *view) repository.Repositories {
	return repository.Repositories{
		Stock:       stockRepo{v},
		Products:    productRepo{v},
		Prices:      priceRepo{v},
		Inventories: inventoryRepo{v},
		Documents:   documentRepo{v},
		Invoices:    invoiceRepo{v},
	}
}

// view resuelve el estado a usar: el de la transacción en curso o el publicado (con mutex).
type view struct {
	store *Store
	tx    *state
}

func (v *view) read(fn func(st *state) error) error {
	if v.tx != nil {
		return fn(v.tx)
	}
	v.store.mu.RLock()
	defer v.store.mu.RUnlock()
	return fn(v.store.st)
}

func (v *view) write(fn func(st *state) error) error {
	if v.tx != nil {
		return fn(v.tx)
	}
	v.store.mu.Lock()
	defer v.store.mu.Unlock()
	return fn(v.store.st)
}

// ──────────────────────────────────────────────────────────────────────────────
// Carga inicial (tests y STORE_DRIVER=memory)
// ──────────────────────────────────────────────────────────────────────────────

// SeedBranch registra una sucursal con su inventario.
func (s *Store) SeedBranch(branch entity.Branch, inv entity.Inventory) {
	s.mu.Lock()
	defer s.mu.Unlock()
	inv.BranchID = branch.ID
	s.st.branches[branch.ID] = branch
	s.st.inventories[inv.ID] = inv
}

// SeedProduct registra una definición de producto.
func (s *Store) SeedProduct(p entity.Product) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.st.products[p.ID] = p
}

// SeedPrice agrega un precio a la lista.
func (s *Store) SeedPrice(productID string, price decimal.Decimal, validFrom time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.st.prices[productID] = append(s.st.prices[productID], entity.ProductPrice{
		ProductID: productID, Price: price, ValidFrom: validFrom,
	})
}

// SeedStock fija la existencia de un renglón.
func (s *Store) SeedStock(inventoryID, productID string, quantity int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := entity.StockDelta{InventoryID: inventoryID, ProductID: productID}.Key()
	s.st.stock[key] = entity.StockItem{InventoryID: inventoryID, ProductID: productID, Quantity: quantity, UpdatedAt: time.Now()}
}

// SeedInvoice registra una factura.
func (s *Store) SeedInvoice(inv entity.Invoice) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if inv.Status == "" {
		inv.Status = entity.InvoiceStatusActive
	}
	s.st.invoices[inv.ID] = inv
}

// ──────────────────────────────────────────────────────────────────────────────
// Stock
// ──────────────────────────────────────────────────────────────────────────────

type stockRepo struct{ v *view }

func (r stockRepo) Get(_ context.Context, inventoryID, productID string) (*entity.StockItem, error) {
	var out entity.StockItem
	err := r.v.read(func(st *state) error {
		key := entity.StockDelta{InventoryID: inventoryID, ProductID: productID}.Key()
		item, ok := st.stock[key]
		if !ok {
			item = entity.StockItem{InventoryID: inventoryID, ProductID: productID}
		}
		out = item
		return nil
	})
	return &out, err
}

// GetForUpdate en memoria la transacción ya es exclusiva.
func (r stockRepo) GetForUpdate(ctx context.Context, inventoryID, productID string) (*entity.StockItem, error) {
	return r.Get(ctx, inventoryID, productID)
}

func (r stockRepo) Upsert(_ context.Context, item *entity.StockItem) error {
	return r.v.write(func(st *state) error {
		st.stock[entity.StockDelta{InventoryID: item.InventoryID, ProductID: item.ProductID}.Key()] = *item
		return nil
	})
}

func (r stockRepo) ListByInventory(_ context.Context, inventoryID string) ([]*entity.StockItem, error) {
	var out []*entity.StockItem
	err := r.v.read(func(st *state) error {
		for _, item := range st.stock {
			if item.InventoryID == inventoryID {
				it := item
				out = append(out, &it)
			}
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool { return out[i].ProductID < out[j].ProductID })
	return out, err
}

func (r stockRepo) ListCutCandidates(_ context.Context, inventoryID string, lines []string) ([]entity.CutCandidate, error) {
	allowed := make(map[string]struct{}, len(lines))
	for _, l := range lines {
		allowed[l] = struct{}{}
	}
	var out []entity.CutCandidate
	err := r.v.read(func(st *state) error {
		for _, item := range st.stock {
			if item.InventoryID != inventoryID || item.Quantity < 1 {
				continue
			}
			p, ok := st.products[item.ProductID]
			if !ok {
				continue
			}
			if _, ok := allowed[p.Line]; !ok {
				continue
			}
			out = append(out, entity.CutCandidate{Item: item, Product: p})
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool { return out[i].Product.SKU < out[j].Product.SKU })
	return out, err
}

// ──────────────────────────────────────────────────────────────────────────────
// Productos y precios
// ──────────────────────────────────────────────────────────────────────────────

type productRepo struct{ v *view }

func (r productRepo) Create(_ context.Context, p *entity.Product) error {
	return r.v.write(func(st *state) error {
		for _, existing := range st.products {
			if existing.SKU == p.SKU {
				return domain.ErrDuplicate
			}
		}
		st.products[p.ID] = *p
		return nil
	})
}

func (r productRepo) GetByID(_ context.Context, id string) (*entity.Product, error) {
	var out *entity.Product
	err := r.v.read(func(st *state) error {
		p, ok := st.products[id]
		if !ok {
			return domain.NotFound("producto", id)
		}
		out = &p
		return nil
	})
	return out, err
}

func (r productRepo) GetBySKU(_ context.Context, sku string) (*entity.Product, error) {
	var out *entity.Product
	err := r.v.read(func(st *state) error {
		for _, p := range st.products {
			if p.SKU == sku {
				p := p
				out = &p
				return nil
			}
		}
		return domain.NotFound("producto", sku)
	})
	return out, err
}

func (r productRepo) GetMany(_ context.Context, ids []string) (map[string]*entity.Product, error) {
	out := make(map[string]*entity.Product, len(ids))
	err := r.v.read(func(st *state) error {
		for _, id := range ids {
			if p, ok := st.products[id]; ok {
				p := p
				out[id] = &p
			}
		}
		return nil
	})
	return out, err
}

type priceRepo struct{ v *view }

func (r priceRepo) CurrentPrices(_ context.Context, productIDs []string, at time.Time) (map[string]decimal.Decimal, error) {
	out := make(map[string]decimal.Decimal, len(productIDs))
	err := r.v.read(func(st *state) error {
		for _, id := range productIDs {
			var best *entity.ProductPrice
			for i := range st.prices[id] {
				pp := st.prices[id][i]
				if pp.ValidFrom.After(at) {
					continue
				}
				if best == nil || pp.ValidFrom.After(best.ValidFrom) {
					best = &pp
				}
			}
			if best != nil {
				out[id] = best.Price
			}
		}
		return nil
	})
	return out, err
}

// ──────────────────────────────────────────────────────────────────────────────
// Inventarios y facturas
// ──────────────────────────────────────────────────────────────────────────────

type inventoryRepo struct{ v *view }

func (r inventoryRepo) GetByID(_ context.Context, id string) (*entity.Inventory, error) {
	var out *entity.Inventory
	err := r.v.read(func(st *state) error {
		inv, ok := st.inventories[id]
		if !ok {
			return domain.NotFound("inventario", id)
		}
		out = &inv
		return nil
	})
	return out, err
}

func (r inventoryRepo) GetByBranch(_ context.Context, branchID string) (*entity.Inventory, error) {
	var out *entity.Inventory
	err := r.v.read(func(st *state) error {
		for _, inv := range st.inventories {
			if inv.BranchID == branchID {
				inv := inv
				out = &inv
				return nil
			}
		}
		return domain.NotFound("inventario de sucursal", branchID)
	})
	return out, err
}

func (r inventoryRepo) Touch(_ context.Context, inventoryID, userID string, at time.Time) error {
	return r.v.write(func(st *state) error {
		inv, ok := st.inventories[inventoryID]
		if !ok {
			return domain.NotFound("inventario", inventoryID)
		}
		inv.LastUpdate = at
		inv.LastUpdater = userID
		st.inventories[inventoryID] = inv
		return nil
	})
}

type invoiceRepo struct{ v *view }

func (r invoiceRepo) GetForUpdate(_ context.Context, id string) (*entity.Invoice, error) {
	var out *entity.Invoice
	err := r.v.read(func(st *state) error {
		inv, ok := st.invoices[id]
		if !ok {
			return domain.NotFound("factura", id)
		}
		out = &inv
		return nil
	})
	return out, err
}

func (r invoiceRepo) Cancel(_ context.Context, id string, at time.Time) error {
	return r.v.write(func(st *state) error {
		inv, ok := st.invoices[id]
		if !ok {
			return domain.NotFound("factura", id)
		}
		inv.Status = entity.InvoiceStatusCancelled
		inv.CancelledAt = &at
		st.invoices[id] = inv
		return nil
	})
}

// ──────────────────────────────────────────────────────────────────────────────
// Documentos
// ──────────────────────────────────────────────────────────────────────────────

type documentRepo struct{ v *view }

func (r documentRepo) Create(_ context.Context, doc *entity.Document) error {
	return r.v.write(func(st *state) error {
		if _, ok := st.documents[doc.ID]; ok {
			return domain.ErrDuplicate
		}
		st.documents[doc.ID] = doc.Clone()
		return nil
	})
}

func (r documentRepo) GetByID(_ context.Context, id string) (*entity.Document, error) {
	var out *entity.Document
	err := r.v.read(func(st *state) error {
		doc, ok := st.documents[id]
		if !ok {
			return domain.NotFound("documento", id)
		}
		out = doc.Clone()
		return nil
	})
	return out, err
}

func (r documentRepo) GetForUpdate(ctx context.Context, id string) (*entity.Document, error) {
	return r.GetByID(ctx, id)
}

func (r documentRepo) Update(_ context.Context, doc *entity.Document) error {
	return r.v.write(func(st *state) error {
		current, ok := st.documents[doc.ID]
		if !ok {
			return domain.NotFound("documento", doc.ID)
		}
		next := doc.Clone()
		// los renglones no cambian salvo el precio capturado
		lines := current.Clone().Lines
		for i := range lines {
			if i < len(next.Lines) {
				lines[i].UnitPrice = next.Lines[i].UnitPrice
			}
		}
		next.Lines = lines
		st.documents[doc.ID] = next
		return nil
	})
}

func (r documentRepo) List(_ context.Context, f entity.DocumentFilter) ([]*entity.Document, error) {
	var out []*entity.Document
	err := r.v.read(func(st *state) error {
		for _, doc := range st.documents {
			if f.Kind != "" && doc.Kind != f.Kind {
				continue
			}
			if f.Status != "" && doc.Status != f.Status {
				continue
			}
			if f.InventoryID != "" && doc.InventoryID != f.InventoryID {
				continue
			}
			out = append(out, doc.Clone())
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sortDocuments(out)
	return paginate(out, f.Limit, f.Offset), nil
}

func (r documentRepo) ListByParent(_ context.Context, kind entity.DocumentKind, parentID string) ([]*entity.Document, error) {
	var out []*entity.Document
	err := r.v.read(func(st *state) error {
		for _, doc := range st.documents {
			if doc.Kind == kind && parentID != "" && doc.ParentID() == parentID {
				out = append(out, doc.Clone())
			}
		}
		return nil
	})
	sortDocuments(out)
	return out, err
}

// sortDocuments más recientes primero; ID como desempate.
func sortDocuments(docs []*entity.Document) {
	sort.Slice(docs, func(i, j int) bool {
		if !docs[i].CreatedAt.Equal(docs[j].CreatedAt) {
			return docs[i].CreatedAt.After(docs[j].CreatedAt)
		}
		return docs[i].ID < docs[j].ID
	})
}

func paginate(docs []*entity.Document, limit, offset int) []*entity.Document {
	if offset > len(docs) {
		return nil
	}
	docs = docs[offset:]
	if limit > 0 && limit < len(docs) {
		docs = docs[:limit]
	}
	return docs
}
