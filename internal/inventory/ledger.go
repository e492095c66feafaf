package inventory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/angelmondragon/shopfront/pkg/db"
	"github.com/angelmondragon/shopfront/pkg/db/models"
	pkgerrors "github.com/angelmondragon/shopfront/pkg/errors"
	"github.com/angelmondragon/shopfront/pkg/logger"
	"gorm.io/gorm"
)

const (
	// MaxStock caps the units a single product may hold.
	MaxStock = 1000
	// MaxRestock caps a single restock request.
	MaxRestock = 1000
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type recorder interface {
	IncLedger(op, result string)
}

type nopRecorder struct{}

func (nopRecorder) IncLedger(string, string) {}

// Line is a single reservation request.
type Line struct {
	ProductID uint
	Quantity  int
}

// Ledger is the only writer of product stock. Every write holds the ledger
// mutex for the full read-modify-write, and decrements are additionally
// conditional on the stored stock so the store itself refuses to go negative.
type Ledger struct {
	mu      sync.Mutex
	tx      txRunner
	metrics recorder
	logg    *logger.Logger
}

// LedgerParams wires the ledger dependencies.
type LedgerParams struct {
	TxRunner txRunner
	Metrics  recorder
	Logger   *logger.Logger
}

// NewLedger builds a stock ledger.
func NewLedger(params LedgerParams) (*Ledger, error) {
	if params.TxRunner == nil {
		return nil, fmt.Errorf("tx runner required")
	}
	if params.Metrics == nil {
		params.Metrics = nopRecorder{}
	}
	if params.Logger == nil {
		params.Logger = logger.Nop()
	}
	return &Ledger{
		tx:      params.TxRunner,
		metrics: params.Metrics,
		logg:    params.Logger,
	}, nil
}

// TryReduce removes qty units from the product when enough stock remains.
// On failure the stock is untouched.
func (l *Ledger) TryReduce(ctx context.Context, productID uint, qty int) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	err := l.tx.WithTx(ctx, func(tx *gorm.DB) error {
		return reduce(ctx, tx, productID, qty)
	})
	l.metrics.IncLedger("reduce", resultLabel(err))
	return err
}

// Increase adds qty units to the product and returns the updated row.
func (l *Ledger) Increase(ctx context.Context, productID uint, qty int) (*models.Product, error) {
	if qty <= 0 || qty > MaxRestock {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("restock quantity must be between 1 and %d", MaxRestock))
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	var updated models.Product
	err := l.tx.WithTx(ctx, func(tx *gorm.DB) error {
		product, err := load(ctx, tx, productID)
		if err != nil {
			return err
		}
		next := product.Stock + qty
		if next > MaxStock {
			return pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("stock cannot exceed %d", MaxStock)).
				WithDetails(map[string]any{"product_id": productID, "current": product.Stock, "requested": qty})
		}
		if err := writeStock(ctx, tx, productID, next); err != nil {
			return err
		}
		product.Stock = next
		updated = *product
		return nil
	})
	l.metrics.IncLedger("increase", resultLabel(err))
	if err != nil {
		return nil, err
	}
	return &updated, nil
}

// SetStock overwrites the product stock. Used by administrative edits.
func (l *Ledger) SetStock(ctx context.Context, productID uint, stock int) (*models.Product, error) {
	return l.SetStockWith(ctx, productID, stock, nil)
}

// SetStockWith overwrites the product stock and runs commit in the same
// transaction, so a failure in either write rolls back both. It returns the
// row as left by both writes.
func (l *Ledger) SetStockWith(ctx context.Context, productID uint, stock int, commit func(tx *gorm.DB) error) (*models.Product, error) {
	if stock < 0 || stock > MaxStock {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("stock must be between 0 and %d", MaxStock))
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	var updated *models.Product
	err := l.tx.WithTx(ctx, func(tx *gorm.DB) error {
		if _, err := load(ctx, tx, productID); err != nil {
			return err
		}
		if err := writeStock(ctx, tx, productID, stock); err != nil {
			return err
		}
		if commit != nil {
			if err := commit(tx); err != nil {
				return err
			}
		}
		product, err := load(ctx, tx, productID)
		if err != nil {
			return err
		}
		updated = product
		return nil
	})
	l.metrics.IncLedger("set", resultLabel(err))
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// Reserve reduces every line in order inside one transaction and then runs
// commit in that same transaction. Any failure rolls back every reduction made
// so far together with whatever commit wrote. A failed line is reported as
// CONCURRENCY_CONFLICT carrying the line's stock details.
func (l *Ledger) Reserve(ctx context.Context, lines []Line, commit func(tx *gorm.DB) error) error {
	if len(lines) == 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "no lines to reserve")
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	err := l.tx.WithTx(ctx, func(tx *gorm.DB) error {
		for _, line := range lines {
			if err := reduce(ctx, tx, line.ProductID, line.Quantity); err != nil {
				return conflict(line, err)
			}
		}
		if commit == nil {
			return nil
		}
		return commit(tx)
	})
	l.metrics.IncLedger("reserve", resultLabel(err))
	if err != nil && pkgerrors.HasCode(err, pkgerrors.CodeConcurrencyConflict) {
		l.logg.Warn(l.logg.WithField(ctx, "lines", len(lines)), "stock reservation rolled back")
	}
	return err
}

func reduce(ctx context.Context, tx *gorm.DB, productID uint, qty int) error {
	if qty <= 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "quantity must be positive")
	}

	res := tx.WithContext(ctx).
		Model(&models.Product{}).
		Where("id = ? AND stock >= ?", productID, qty).
		Updates(map[string]any{
			"stock":      gorm.Expr("stock - ?", qty),
			"updated_at": time.Now().UTC(),
		})
	if res.Error != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, res.Error, "reduce stock")
	}
	if res.RowsAffected == 1 {
		return nil
	}

	product, err := load(ctx, tx, productID)
	if err != nil {
		return err
	}
	return pkgerrors.InsufficientStock(productID, qty, product.Stock)
}

func load(ctx context.Context, tx *gorm.DB, productID uint) (*models.Product, error) {
	var product models.Product
	if err := tx.WithContext(ctx).First(&product, "id = ?", productID).Error; err != nil {
		if db.IsNotFound(err) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found").
				WithDetails(map[string]any{"product_id": productID})
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load product")
	}
	return &product, nil
}

func writeStock(ctx context.Context, tx *gorm.DB, productID uint, stock int) error {
	err := tx.WithContext(ctx).
		Model(&models.Product{}).
		Where("id = ?", productID).
		Updates(map[string]any{
			"stock":      stock,
			"updated_at": time.Now().UTC(),
		}).Error
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "write stock")
	}
	return nil
}

func conflict(line Line, cause error) error {
	details := map[string]any{"product_id": line.ProductID, "requested": line.Quantity}
	if typed := pkgerrors.As(cause); typed != nil {
		if d, ok := typed.Details().(map[string]any); ok {
			for k, v := range d {
				details[k] = v
			}
		}
		if typed.Code() == pkgerrors.CodeInternal {
			return cause
		}
	}
	return pkgerrors.Wrap(pkgerrors.CodeConcurrencyConflict, cause, "stock changed during checkout").WithDetails(details)
}

func resultLabel(err error) string {
	if err == nil {
		return "ok"
	}
	if typed := pkgerrors.As(err); typed != nil {
		switch typed.Code() {
		case pkgerrors.CodeInsufficientStock, pkgerrors.CodeConcurrencyConflict:
			return "insufficient_stock"
		case pkgerrors.CodeNotFound:
			return "not_found"
		case pkgerrors.CodeValidation:
			return "invalid"
		}
	}
	return "error"
}
