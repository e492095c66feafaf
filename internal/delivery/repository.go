package delivery

import (
	"context"
	"time"

	"github.com/angelmondragon/shopfront/pkg/db/models"
	"github.com/angelmondragon/shopfront/pkg/enums"
	"github.com/angelmondragon/shopfront/pkg/pagination"
	"gorm.io/gorm"
)

// Repository persists delivery methods, addresses and deliveries.
type Repository struct {
	db *gorm.DB
}

// NewRepository builds a repository tied to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithTx returns a repository bound to the provided transaction.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	return &Repository{db: tx}
}

func (r *Repository) ListMethods(ctx context.Context, activeOnly bool) ([]models.DeliveryMethod, error) {
	query := r.db.WithContext(ctx).Model(&models.DeliveryMethod{})
	if activeOnly {
		query = query.Where("active = ?", true)
	}
	var rows []models.DeliveryMethod
	if err := query.Order("id ASC").Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *Repository) FindMethod(ctx context.Context, id uint) (*models.DeliveryMethod, error) {
	var method models.DeliveryMethod
	if err := r.db.WithContext(ctx).First(&method, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &method, nil
}

func (r *Repository) CountMethods(ctx context.Context) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.DeliveryMethod{}).Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

func (r *Repository) CreateMethod(ctx context.Context, method *models.DeliveryMethod) error {
	return r.db.WithContext(ctx).Create(method).Error
}

// FindAddress loads an address owned by userID. Another user's address is
// reported as not found.
func (r *Repository) FindAddress(ctx context.Context, id, userID uint) (*models.DeliveryAddress, error) {
	var address models.DeliveryAddress
	if err := r.db.WithContext(ctx).First(&address, "id = ? AND user_id = ?", id, userID).Error; err != nil {
		return nil, err
	}
	return &address, nil
}

func (r *Repository) CreateAddress(ctx context.Context, address *models.DeliveryAddress) error {
	return r.db.WithContext(ctx).Create(address).Error
}

func (r *Repository) Create(ctx context.Context, delivery *models.Delivery) error {
	return r.db.WithContext(ctx).Omit("DeliveryAddress").Create(delivery).Error
}

func (r *Repository) FindByID(ctx context.Context, id uint) (*models.Delivery, error) {
	var delivery models.Delivery
	if err := r.db.WithContext(ctx).Preload("DeliveryAddress").First(&delivery, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &delivery, nil
}

func (r *Repository) ExistsForOrder(ctx context.Context, orderID uint) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.Delivery{}).Where("order_id = ?", orderID).Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// List returns deliveries newest first, starting below cursor.
func (r *Repository) List(ctx context.Context, cursor *pagination.Cursor, limit int) ([]models.Delivery, error) {
	query := r.db.WithContext(ctx).Preload("DeliveryAddress")
	if cursor != nil {
		query = query.Where("id < ?", cursor.ID)
	}
	var rows []models.Delivery
	if err := query.Order("id DESC").Limit(limit).Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *Repository) ListByOrder(ctx context.Context, orderID uint) ([]models.Delivery, error) {
	var rows []models.Delivery
	err := r.db.WithContext(ctx).
		Preload("DeliveryAddress").
		Where("order_id = ?", orderID).
		Order("id DESC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// Update writes the given columns and reports gorm.ErrRecordNotFound when no
// delivery matched.
func (r *Repository) Update(ctx context.Context, id uint, updates map[string]any) error {
	updates["updated_at"] = time.Now().UTC()
	res := r.db.WithContext(ctx).Model(&models.Delivery{}).Where("id = ?", id).Updates(updates)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func statusUpdate(status enums.DeliveryStatus) map[string]any {
	return map[string]any{"status": status}
}
