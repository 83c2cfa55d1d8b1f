package repository

import (
	"context"
	"errors"

	"orderitems/internal/domain/model"
	repo "orderitems/internal/repository"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type OrderItemGormRepository struct {
	db *gorm.DB
}

func NewOrderItemGormRepository(db *gorm.DB) *OrderItemGormRepository {
	return &OrderItemGormRepository{db: db}
}

// OrderとProductは明細ごとではなくまとめて読む（IN句で1回ずつ）
func withRelations(q *gorm.DB) *gorm.DB {
	return q.Preload("Order").Preload("Product")
}

func (r *OrderItemGormRepository) FindByID(ctx context.Context, id int64, relations bool) (model.OrderItem, error) {
	var it model.OrderItem
	q := r.db.WithContext(ctx)
	if relations {
		q = withRelations(q)
	}
	err := q.First(&it, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return model.OrderItem{}, repo.ErrNotFound
	}
	if err != nil {
		return model.OrderItem{}, err
	}
	return it, nil
}

func (r *OrderItemGormRepository) List(ctx context.Context) ([]model.OrderItem, error) {
	items := make([]model.OrderItem, 0)
	err := withRelations(r.db.WithContext(ctx)).Order("id asc").Find(&items).Error
	if err != nil {
		return []model.OrderItem{}, err
	}
	return items, nil
}

func (r *OrderItemGormRepository) Create(ctx context.Context, item *model.OrderItem) error {
	//関連（Order/Product）は書かない。参照先は別の持ち主
	if err := r.db.WithContext(ctx).Omit(clause.Associations).Create(item).Error; err != nil {
		return storageError("insert order item", err)
	}
	return nil
}

func (r *OrderItemGormRepository) UpdateFields(ctx context.Context, id int64, changes model.OrderItemChanges) error {
	values := map[string]interface{}{}
	if changes.OrderID != nil {
		values["order_id"] = *changes.OrderID
	}
	if changes.ProductID != nil {
		values["product_id"] = *changes.ProductID
	}
	if changes.Quantity != nil {
		values["quantity"] = *changes.Quantity
	}
	if len(values) == 0 {
		return nil
	}

	res := r.db.WithContext(ctx).Model(&model.OrderItem{}).Where("id = ?", id).Updates(values)
	if res.Error != nil {
		return storageError("update order item", res.Error)
	}
	if res.RowsAffected == 0 {
		return repo.ErrNotFound
	}
	return nil
}

func (r *OrderItemGormRepository) Delete(ctx context.Context, id int64) error {
	res := r.db.WithContext(ctx).Delete(&model.OrderItem{}, id)
	if res.Error != nil {
		return storageError("delete order item", res.Error)
	}
	if res.RowsAffected == 0 {
		return repo.ErrNotFound
	}
	return nil
}
