package repository

import (
	"context"

	"orderitems/internal/domain/model"
)

// 注文明細の永続化の約束。
type OrderItemRepository interface {
	//withRelations=trueならOrderとProductもPreloadする
	FindByID(ctx context.Context, id int64, withRelations bool) (model.OrderItem, error)
	//全件（id昇順、関連はPreload）
	List(ctx context.Context) ([]model.OrderItem, error)
	//IDはitemに書き戻す
	Create(ctx context.Context, item *model.OrderItem) error
	//changesでnilでない列だけ更新
	UpdateFields(ctx context.Context, id int64, changes model.OrderItemChanges) error
	//物理削除
	Delete(ctx context.Context, id int64) error
}
