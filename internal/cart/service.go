package cart

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/angelmondragon/shopfront/pkg/db"
	"github.com/angelmondragon/shopfront/pkg/db/models"
	pkgerrors "github.com/angelmondragon/shopfront/pkg/errors"
	"github.com/angelmondragon/shopfront/pkg/logger"
	"github.com/shopspring/decimal"
)

// Service manages session carts and prices them against the live catalog.
type Service interface {
	Lines(ctx context.Context, sessionID string) ([]Line, error)
	AddLine(ctx context.Context, sessionID string, productID uint, qty int) (*View, error)
	SetLineQuantity(ctx context.Context, sessionID string, productID uint, qty int) (*View, error)
	RemoveLine(ctx context.Context, sessionID string, productID uint) (*View, error)
	Enrich(ctx context.Context, sessionID string) (*View, error)
	EnrichLines(ctx context.Context, lines []Line) (*View, error)
	Clear(ctx context.Context, sessionID string) error
	Subtract(ctx context.Context, sessionID string, ordered []Line) error
}

type productReader interface {
	FindByID(ctx context.Context, id uint) (*models.Product, error)
	FindByIDs(ctx context.Context, ids []uint) (map[uint]models.Product, error)
}

type service struct {
	// mu serializes load-modify-save cycles on session carts.
	mu       sync.Mutex
	store    SessionStore
	products productReader
	logg     *logger.Logger
}

// NewService builds the cart service.
func NewService(store SessionStore, products productReader, logg *logger.Logger) (Service, error) {
	if store == nil {
		return nil, fmt.Errorf("session store required")
	}
	if products == nil {
		return nil, fmt.Errorf("product reader required")
	}
	if logg == nil {
		logg = logger.Nop()
	}
	return &service{store: store, products: products, logg: logg}, nil
}

func (s *service) Lines(ctx context.Context, sessionID string) ([]Line, error) {
	if err := requireSession(sessionID); err != nil {
		return nil, err
	}
	return s.load(ctx, sessionID)
}

// AddLine merges qty into the session cart. The resulting quantity may not
// exceed the product's current stock; on failure the cart is unchanged.
func (s *service) AddLine(ctx context.Context, sessionID string, productID uint, qty int) (*View, error) {
	if err := requireSession(sessionID); err != nil {
		return nil, err
	}
	if qty <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be positive")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	product, err := s.product(ctx, productID)
	if err != nil {
		return nil, err
	}
	lines, err := s.load(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	idx := indexOf(lines, productID)
	prospective := qty
	if idx >= 0 {
		prospective += lines[idx].Quantity
	}
	if prospective > product.Stock {
		return nil, pkgerrors.InsufficientStock(productID, prospective, product.Stock)
	}

	if idx >= 0 {
		lines[idx].Quantity = prospective
	} else {
		lines = append(lines, Line{ProductID: productID, Quantity: qty})
	}
	return s.save(ctx, sessionID, lines)
}

// SetLineQuantity overwrites a line's quantity, inserting it when absent.
// A non-positive quantity removes the line.
func (s *service) SetLineQuantity(ctx context.Context, sessionID string, productID uint, qty int) (*View, error) {
	if err := requireSession(sessionID); err != nil {
		return nil, err
	}
	if qty <= 0 {
		return s.RemoveLine(ctx, sessionID, productID)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	product, err := s.product(ctx, productID)
	if err != nil {
		return nil, err
	}
	if qty > product.Stock {
		return nil, pkgerrors.InsufficientStock(productID, qty, product.Stock)
	}
	lines, err := s.load(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if idx := indexOf(lines, productID); idx >= 0 {
		lines[idx].Quantity = qty
	} else {
		lines = append(lines, Line{ProductID: productID, Quantity: qty})
	}
	return s.save(ctx, sessionID, lines)
}

// RemoveLine drops the product from the cart. Removing an absent line is a no-op.
func (s *service) RemoveLine(ctx context.Context, sessionID string, productID uint) (*View, error) {
	if err := requireSession(sessionID); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	lines, err := s.load(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	idx := indexOf(lines, productID)
	if idx < 0 {
		return s.EnrichLines(ctx, lines)
	}
	lines = append(lines[:idx], lines[idx+1:]...)
	return s.save(ctx, sessionID, lines)
}

func (s *service) Enrich(ctx context.Context, sessionID string) (*View, error) {
	if err := requireSession(sessionID); err != nil {
		return nil, err
	}
	lines, err := s.load(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	return s.EnrichLines(ctx, lines)
}

// EnrichLines prices lines against the current catalog, keeping cart order.
// Lines whose product no longer exists are left out of the view; the stored
// cart itself keeps them.
func (s *service) EnrichLines(ctx context.Context, lines []Line) (*View, error) {
	ids := make([]uint, 0, len(lines))
	for _, line := range lines {
		ids = append(ids, line.ProductID)
	}
	products, err := s.products.FindByIDs(ctx, ids)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load cart products")
	}

	view := &View{Lines: make([]EnrichedLine, 0, len(lines)), Total: decimal.Zero, AllInStock: true}
	for _, line := range lines {
		product, ok := products[line.ProductID]
		if !ok {
			s.logg.Debug(s.logg.WithField(ctx, "product_id", line.ProductID), "cart line references missing product")
			continue
		}
		lineTotal := product.Price.Mul(decimal.NewFromInt(int64(line.Quantity)))
		inStock := line.Quantity <= product.Stock
		view.Lines = append(view.Lines, EnrichedLine{
			ProductID:      product.ID,
			Name:           product.Name,
			ImageURL:       product.ImageURL,
			UnitPrice:      product.Price,
			Quantity:       line.Quantity,
			AvailableStock: product.Stock,
			InStock:        inStock,
			LineTotal:      lineTotal,
		})
		view.Total = view.Total.Add(lineTotal)
		view.ItemCount += line.Quantity
		view.AllInStock = view.AllInStock && inStock
	}
	return view, nil
}

func (s *service) Clear(ctx context.Context, sessionID string) error {
	if err := requireSession(sessionID); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.store.Clear(ctx, sessionID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "clear cart")
	}
	return nil
}

// Subtract takes ordered quantities out of the session cart. Lines added or
// raised after the order was priced keep the remainder; lines that reach zero
// are dropped and an emptied cart is cleared.
func (s *service) Subtract(ctx context.Context, sessionID string, ordered []Line) error {
	if err := requireSession(sessionID); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	lines, err := s.load(ctx, sessionID)
	if err != nil {
		return err
	}
	taken := make(map[uint]int, len(ordered))
	for _, line := range ordered {
		taken[line.ProductID] += line.Quantity
	}
	remaining := make([]Line, 0, len(lines))
	for _, line := range lines {
		line.Quantity -= taken[line.ProductID]
		if line.Quantity > 0 {
			remaining = append(remaining, line)
		}
	}

	if len(remaining) == 0 {
		if err := s.store.Clear(ctx, sessionID); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "clear cart")
		}
		return nil
	}
	if err := s.store.Save(ctx, sessionID, remaining); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "save cart")
	}
	return nil
}

func (s *service) product(ctx context.Context, productID uint) (*models.Product, error) {
	product, err := s.products.FindByID(ctx, productID)
	if err != nil {
		if db.IsNotFound(err) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found").
				WithDetails(map[string]any{"product_id": productID})
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load product")
	}
	return product, nil
}

func (s *service) load(ctx context.Context, sessionID string) ([]Line, error) {
	lines, err := s.store.Load(ctx, sessionID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart")
	}
	return lines, nil
}

func (s *service) save(ctx context.Context, sessionID string, lines []Line) (*View, error) {
	if err := s.store.Save(ctx, sessionID, lines); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "save cart")
	}
	return s.EnrichLines(ctx, lines)
}

func requireSession(sessionID string) error {
	if strings.TrimSpace(sessionID) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "session id required")
	}
	return nil
}
