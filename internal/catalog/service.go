package catalog

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/angelmondragon/shopfront/internal/inventory"
	"github.com/angelmondragon/shopfront/pkg/db"
	"github.com/angelmondragon/shopfront/pkg/db/models"
	pkgerrors "github.com/angelmondragon/shopfront/pkg/errors"
	"github.com/angelmondragon/shopfront/pkg/logger"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

const maxNameLength = 100

var (
	minPrice = decimal.RequireFromString("0.01")
	maxPrice = decimal.NewFromInt(10000)
)

// Service exposes catalog reads and administrative product management.
type Service interface {
	List(ctx context.Context, search string) ([]ProductDTO, error)
	Get(ctx context.Context, id uint) (*ProductDTO, error)
	Create(ctx context.Context, input ProductInput) (*ProductDTO, error)
	Update(ctx context.Context, id uint, input UpdateProductInput) (*ProductDTO, error)
	Delete(ctx context.Context, id uint) error
	Restock(ctx context.Context, id uint, qty int) (*ProductDTO, error)
	PreviewRestock(ctx context.Context, id uint, qty int) (*RestockPreview, error)
	SeedDefaults(ctx context.Context) (int, error)
}

type stockWriter interface {
	Increase(ctx context.Context, productID uint, qty int) (*models.Product, error)
	SetStockWith(ctx context.Context, productID uint, stock int, commit func(tx *gorm.DB) error) (*models.Product, error)
}

type service struct {
	repo   *Repository
	ledger stockWriter
	logg   *logger.Logger
}

// NewService constructs the catalog service.
func NewService(repo *Repository, ledger stockWriter, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("catalog repository required")
	}
	if ledger == nil {
		return nil, fmt.Errorf("stock ledger required")
	}
	if logg == nil {
		logg = logger.Nop()
	}
	return &service{repo: repo, ledger: ledger, logg: logg}, nil
}

func (s *service) List(ctx context.Context, search string) ([]ProductDTO, error) {
	rows, err := s.repo.List(ctx, search)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list products")
	}
	return toDTOs(rows), nil
}

func (s *service) Get(ctx context.Context, id uint) (*ProductDTO, error) {
	product, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	dto := toDTO(*product)
	return &dto, nil
}

func (s *service) Create(ctx context.Context, input ProductInput) (*ProductDTO, error) {
	name, err := validateDetails(input.Name, input.Price)
	if err != nil {
		return nil, err
	}
	if err := validateStock(input.Stock); err != nil {
		return nil, err
	}

	product := &models.Product{
		Name:        name,
		Description: strings.TrimSpace(input.Description),
		Price:       input.Price,
		Stock:       input.Stock,
		ImageURL:    imageOrDefault(input.ImageURL),
	}
	created, err := s.repo.Create(ctx, product)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "insert product")
	}
	s.logg.Info(s.logg.WithField(ctx, "product_id", created.ID), "product created")
	dto := toDTO(*created)
	return &dto, nil
}

func (s *service) Update(ctx context.Context, id uint, input UpdateProductInput) (*ProductDTO, error) {
	name, err := validateDetails(input.Name, input.Price)
	if err != nil {
		return nil, err
	}
	if input.Stock != nil {
		if err := validateStock(*input.Stock); err != nil {
			return nil, err
		}
	}

	product := &models.Product{
		ID:          id,
		Name:        name,
		Description: strings.TrimSpace(input.Description),
		Price:       input.Price,
		ImageURL:    imageOrDefault(input.ImageURL),
	}
	if input.Stock == nil {
		if err := detailsError(s.repo.UpdateDetails(ctx, product)); err != nil {
			return nil, err
		}
		return s.Get(ctx, id)
	}

	_, err = s.ledger.SetStockWith(ctx, id, *input.Stock, func(tx *gorm.DB) error {
		return detailsError(s.repo.WithTx(tx).UpdateDetails(ctx, product))
	})
	if err != nil {
		return nil, err
	}
	return s.Get(ctx, id)
}

func detailsError(err error) error {
	if err == nil {
		return nil
	}
	if db.IsNotFound(err) {
		return pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
	}
	return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update product")
}

func (s *service) Delete(ctx context.Context, id uint) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		if db.IsNotFound(err) {
			return pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "delete product")
	}
	s.logg.Info(s.logg.WithField(ctx, "product_id", id), "product deleted")
	return nil
}

func (s *service) Restock(ctx context.Context, id uint, qty int) (*ProductDTO, error) {
	product, err := s.ledger.Increase(ctx, id, qty)
	if err != nil {
		return nil, err
	}
	s.logg.Info(s.logg.WithFields(ctx, map[string]any{
		"product_id": id,
		"quantity":   qty,
		"stock":      product.Stock,
	}), "product restocked")
	dto := toDTO(*product)
	return &dto, nil
}

func (s *service) PreviewRestock(ctx context.Context, id uint, qty int) (*RestockPreview, error) {
	if qty <= 0 || qty > inventory.MaxRestock {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("restock quantity must be between 1 and %d", inventory.MaxRestock))
	}
	product, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	return &RestockPreview{
		ProductID:    product.ID,
		ProductName:  product.Name,
		CurrentStock: product.Stock,
		Quantity:     qty,
		NewStock:     product.Stock + qty,
	}, nil
}

func (s *service) load(ctx context.Context, id uint) (*models.Product, error) {
	product, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if db.IsNotFound(err) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load product")
	}
	return product, nil
}

func validateDetails(name string, price decimal.Decimal) (string, error) {
	trimmed := strings.TrimSpace(name)
	if trimmed == "" || utf8.RuneCountInString(trimmed) > maxNameLength {
		return "", pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("name must be between 1 and %d characters", maxNameLength))
	}
	if price.LessThan(minPrice) || price.GreaterThan(maxPrice) {
		return "", pkgerrors.New(pkgerrors.CodeValidation, "price must be between 0.01 and 10000")
	}
	if !price.Equal(price.Round(2)) {
		return "", pkgerrors.New(pkgerrors.CodeValidation, "price must have at most two decimal places")
	}
	return trimmed, nil
}

func validateStock(stock int) error {
	if stock < 0 || stock > inventory.MaxStock {
		return pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("stock must be between 0 and %d", inventory.MaxStock))
	}
	return nil
}

func imageOrDefault(url string) string {
	if trimmed := strings.TrimSpace(url); trimmed != "" {
		return trimmed
	}
	return models.DefaultProductImage
}
