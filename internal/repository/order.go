package repository

import (
	"context"
	"errors"

	"atelier/internal/models"

	"gorm.io/gorm"
)

// OrderCounts summarizes a user's orders for dashboards and user details.
type OrderCounts struct {
	Total     int64 `json:"total"`
	Pending   int64 `json:"pending"`
	Active    int64 `json:"active"`
	Delivered int64 `json:"delivered"`
}

// OrderRepository defines persistence operations for orders.
type OrderRepository interface {
	Create(ctx context.Context, order *models.Order) error
	GetByID(ctx context.Context, id uint) (*models.Order, error)
	Update(ctx context.Context, order *models.Order) error
	ListByUser(ctx context.Context, userID uint, limit, offset int) ([]models.Order, error)
	ListAll(ctx context.Context, limit, offset int) ([]models.Order, error)
	ListPendingRevisions(ctx context.Context) ([]models.Order, error)
	ReplaceDeliveryFiles(ctx context.Context, orderID uint, files []models.DeliveryFile) error
	DeleteByUsers(ctx context.Context, userIDs []uint) error
	CountAll(ctx context.Context) (int64, error)
	CountPendingRevisions(ctx context.Context) (int64, error)
	CountsByUser(ctx context.Context, userID uint) (OrderCounts, error)
}

type orderRepository struct {
	db *gorm.DB
}

// NewOrderRepository returns a new OrderRepository implementation.
func NewOrderRepository(db *gorm.DB) OrderRepository {
	return &orderRepository{db: db}
}

func (r *orderRepository) Create(ctx context.Context, order *models.Order) error {
	if err := r.db.WithContext(ctx).Create(order).Error; err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

func (r *orderRepository) GetByID(ctx context.Context, id uint) (*models.Order, error) {
	var order models.Order
	if err := r.db.WithContext(ctx).
		Preload("User").
		Preload("Files").
		Preload("DeliveryFiles").
		First(&order, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NewNotFoundError("Order", id)
		}
		return nil, models.NewInternalError(err)
	}
	return &order, nil
}

func (r *orderRepository) Update(ctx context.Context, order *models.Order) error {
	// Save touches updated_at, which is the store-level invariant every
	// mutating lifecycle operation relies on.
	if err := r.db.WithContext(ctx).Save(order).Error; err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

func (r *orderRepository) ListByUser(ctx context.Context, userID uint, limit, offset int) ([]models.Order, error) {
	var orders []models.Order
	if err := r.db.WithContext(ctx).
		Preload("Files").
		Preload("DeliveryFiles").
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Limit(limit).Offset(offset).
		Find(&orders).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return orders, nil
}

func (r *orderRepository) ListAll(ctx context.Context, limit, offset int) ([]models.Order, error) {
	var orders []models.Order
	if err := r.db.WithContext(ctx).
		Preload("User").
		Order("created_at DESC").
		Limit(limit).Offset(offset).
		Find(&orders).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return orders, nil
}

func (r *orderRepository) ListPendingRevisions(ctx context.Context) ([]models.Order, error) {
	var orders []models.Order
	if err := r.db.WithContext(ctx).
		Preload("User").
		Where("revision_requested = ?", true).
		Order("revision_requested_at DESC").
		Find(&orders).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return orders, nil
}

// ReplaceDeliveryFiles swaps the order's delivery file set for the given
// one. Delivery replaces, never appends.
func (r *orderRepository) ReplaceDeliveryFiles(ctx context.Context, orderID uint, files []models.DeliveryFile) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("order_id = ?", orderID).Delete(&models.DeliveryFile{}).Error; err != nil {
			return err
		}
		for i := range files {
			files[i].OrderID = orderID
		}
		if len(files) == 0 {
			return nil
		}
		return tx.Create(&files).Error
	})
	if err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

func (r *orderRepository) DeleteByUsers(ctx context.Context, userIDs []uint) error {
	if len(userIDs) == 0 {
		return nil
	}
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var orderIDs []uint
		if err := tx.Model(&models.Order{}).
			Where("user_id IN ?", userIDs).
			Pluck("id", &orderIDs).Error; err != nil {
			return err
		}
		if len(orderIDs) > 0 {
			if err := tx.Where("order_id IN ?", orderIDs).Delete(&models.OrderFile{}).Error; err != nil {
				return err
			}
			if err := tx.Where("order_id IN ?", orderIDs).Delete(&models.DeliveryFile{}).Error; err != nil {
				return err
			}
		}
		return tx.Where("user_id IN ?", userIDs).Delete(&models.Order{}).Error
	})
	if err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

func (r *orderRepository) CountAll(ctx context.Context) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.Order{}).Count(&count).Error; err != nil {
		return 0, models.NewInternalError(err)
	}
	return count, nil
}

func (r *orderRepository) CountPendingRevisions(ctx context.Context) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.Order{}).
		Where("revision_requested = ? AND revision_status = ?", true, models.RevisionPending).
		Count(&count).Error; err != nil {
		return 0, models.NewInternalError(err)
	}
	return count, nil
}

func (r *orderRepository) CountsByUser(ctx context.Context, userID uint) (OrderCounts, error) {
	var counts OrderCounts
	base := r.db.WithContext(ctx).Model(&models.Order{}).Where("user_id = ?", userID)

	if err := base.Session(&gorm.Session{}).Count(&counts.Total).Error; err != nil {
		return counts, models.NewInternalError(err)
	}
	if err := base.Session(&gorm.Session{}).
		Where("status = ?", models.StatusPending).
		Count(&counts.Pending).Error; err != nil {
		return counts, models.NewInternalError(err)
	}
	if err := base.Session(&gorm.Session{}).
		Where("status IN ?", []models.OrderStatus{models.StatusInProgress, models.StatusRevision}).
		Count(&counts.Active).Error; err != nil {
		return counts, models.NewInternalError(err)
	}
	if err := base.Session(&gorm.Session{}).
		Where("status = ?", models.StatusDelivered).
		Count(&counts.Delivered).Error; err != nil {
		return counts, models.NewInternalError(err)
	}
	return counts, nil
}
