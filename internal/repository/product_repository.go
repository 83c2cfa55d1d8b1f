package repository

import (
	"context"

	"orderitems/internal/domain/model"
)

// 商品の参照だけを約束（商品のライフサイクルは別サービス）。
type ProductRepository interface {
	FindByID(ctx context.Context, id int64) (model.Product, error)
}
