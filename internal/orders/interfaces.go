package orders

import (
	"context"

	"github.com/angelmondragon/shopfront/pkg/db/models"
	"github.com/angelmondragon/shopfront/pkg/pagination"
	"gorm.io/gorm"
)

// Repository defines persistence operations for orders and their items.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, order *models.Order) (*models.Order, error)
	FindByID(ctx context.Context, id uint) (*models.Order, error)
	ListByUser(ctx context.Context, userID uint, cursor *pagination.Cursor, limit int) ([]models.Order, error)
	ListSummaries(ctx context.Context) ([]OrderSummary, error)
	TopProducts(ctx context.Context, limit int) ([]ProductSales, error)
}
