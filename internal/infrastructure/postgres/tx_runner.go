package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	"github.com/jhoicas/acrilstock-api/internal/domain/repository"
)

var _ repository.TxRunner = (*TxRunner)(nil)

// maxAttempts intentos ante fallas de serialización o deadlock.
const maxAttempts = 3

// TxRunner ejecuta callbacks dentro de una transacción PostgreSQL.
type TxRunner struct {
	pool *pgxpool.Pool
	opts pgx.TxOptions
	log  zerolog.Logger
}

// NewTxRunner construye el runner con el pool y el nivel de aislamiento configurado.
func NewTxRunner(pool *pgxpool.Pool, isolation string, log zerolog.Logger) (*TxRunner, error) {
	level, err := IsoLevel(isolation)
	if err != nil {
		return nil, err
	}
	return &TxRunner{pool: pool, opts: pgx.TxOptions{IsoLevel: level}, log: log}, nil
}

// IsoLevel traduce el valor de LEDGER_ISOLATION.
func IsoLevel(isolation string) (pgx.TxIsoLevel, error) {
	switch isolation {
	case "", "read_committed":
		return pgx.ReadCommitted, nil
	case "repeatable_read":
		return pgx.RepeatableRead, nil
	case "serializable":
		return pgx.Serializable, nil
	}
	return "", fmt.Errorf("nivel de aislamiento desconocido %q", isolation)
}

// Run inicia una transacción, ejecuta fn con repos atados a la tx y hace Commit o Rollback.
// Una falla de serialización reintenta fn completa; fn no debe tener efectos fuera de la tx.
func (r *TxRunner) Run(ctx context.Context, fn func(repository.Repositories) error) error {
	var err error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		err = r.runOnce(ctx, fn)
		if err == nil || !isSerializationFailure(err) {
			return err
		}
		r.log.Warn().Err(err).Int("attempt", attempt).Msg("tx: conflicto de serialización, reintentando")
	}
	return err
}

func (r *TxRunner) runOnce(ctx context.Context, fn func(repository.Repositories) error) error {
	tx, err := r.pool.BeginTx(ctx, r.opts)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := fn(NewRepositories(tx)); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		if errors.Is(err, pgx.ErrTxCommitRollback) {
			return fmt.Errorf("commit transaction: rollback: %w", err)
		}
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// NewRepositories arma el juego de repos sobre pool (lecturas sueltas) o tx.
func NewRepositories(q Querier) repository.Repositories {
	return repository.Repositories{
		Stock:       NewStockRepository(q),
		Products:    NewProductRepository(q),
		Prices:      NewPriceRepository(q),
		Inventories: NewInventoryRepository(q),
		Documents:   NewDocumentRepository(q),
		Invoices:    NewInvoiceRepository(q),
	}
}
