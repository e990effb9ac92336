package repository

import "context"

// Repositories agrupa los puertos atados a una misma conexión o transacción.
type Repositories struct {
	Stock       StockRepository
	Products    ProductRepository
	Prices      PriceRepository
	Inventories InventoryRepository
	Documents   DocumentRepository
	Invoices    InvoiceRepository
}

// TxRunner ejecuta fn dentro de una transacción con repositorios atados a ella.
// Commit si fn devuelve nil; Rollback completo ante cualquier error.
type TxRunner interface {
	Run(ctx context.Context, fn func(repos Repositories) error) error
}
