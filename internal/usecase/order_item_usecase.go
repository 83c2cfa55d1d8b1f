package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"orderitems/internal/domain/model"
	repo "orderitems/internal/repository"
)

type OrderItemUsecase struct {
	tx       repo.TransactionManager
	products repo.ProductRepository
	log      *slog.Logger
}

// DI
func NewOrderItemUsecase(tx repo.TransactionManager, products repo.ProductRepository, log *slog.Logger) *OrderItemUsecase {
	if log == nil {
		log = slog.Default()
	}
	return &OrderItemUsecase{tx: tx, products: products, log: log}
}

// POST /order_itemsの入力
type CreateOrderItemInput struct {
	OrderID   int64
	ProductID int64
	Quantity  int64
}

// PUTの入力（3項目とも必須、全部上書き）
type UpdateOrderItemInput struct {
	OrderID   int64
	ProductID int64
	Quantity  int64
}

// PATCHの入力（送られた項目だけ）
type PatchOrderItemInput struct {
	OrderID   Optional[int64]
	ProductID Optional[int64]
	Quantity  Optional[int64]
}

func itemNotFound(id int64) error {
	return NewNotFound(fmt.Sprintf("Order item with id=%d not found.", id))
}

func productNotFound(id int64) error {
	return NewNotFound(fmt.Sprintf("Product with id=%d not found.", id))
}

// product_idは形式だけ見て、存在確認は商品の取得に任せる
func validateFields(orderID, quantity int64) error {
	if orderID <= 0 {
		return NewInvalid("invalid order_id", nil)
	}
	if quantity <= 0 {
		return NewInvalid("quantity must be > 0", nil)
	}
	return nil
}

func (u *OrderItemUsecase) List(ctx context.Context) ([]model.OrderItem, error) {
	var items []model.OrderItem
	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		var err error
		items, err = r.OrderItems().List(ctx)
		return err
	})
	if err != nil {
		return []model.OrderItem{}, NewInternal(err)
	}
	if items == nil {
		items = []model.OrderItem{}
	}
	return items, nil
}

func (u *OrderItemUsecase) Get(ctx context.Context, id int64) (model.OrderItem, error) {

	var out model.OrderItem
	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		it, err := r.OrderItems().FindByID(ctx, id, true)
		if errors.Is(err, repo.ErrNotFound) {
			return itemNotFound(id)
		}
		if err != nil {
			return err
		}
		out = it
		return nil
	})
	if err != nil {
		return model.OrderItem{}, u.fail(ctx, "get", id, "", err)
	}
	return out, nil
}

// 単価は商品の現在価格をここで確定する
func (u *OrderItemUsecase) Create(ctx context.Context, in CreateOrderItemInput) (model.OrderItem, error) {
	if err := validateFields(in.OrderID, in.Quantity); err != nil {
		return model.OrderItem{}, err
	}

	//商品確認はTxの前（書き込み前に弾く）
	p, err := u.products.FindByID(ctx, in.ProductID)
	if errors.Is(err, repo.ErrNotFound) {
		return model.OrderItem{}, productNotFound(in.ProductID)
	}
	if err != nil {
		return model.OrderItem{}, NewInternal(err)
	}

	var out model.OrderItem
	err = u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		item := model.OrderItem{
			OrderID:   in.OrderID,
			ProductID: in.ProductID,
			Quantity:  in.Quantity,
			UnitPrice: p.Price,
		}
		if err := r.OrderItems().Create(ctx, &item); err != nil {
			return err
		}

		created, err := r.OrderItems().FindByID(ctx, item.ID, true)
		if err != nil {
			return err
		}
		out = created
		return nil
	})
	if err != nil {
		return model.OrderItem{}, u.fail(ctx, "create", 0, "Error creating order item: ", err)
	}

	u.log.InfoContext(ctx, "order item created",
		slog.Int64("id", out.ID),
		slog.Int64("order_id", out.OrderID),
		slog.Int64("product_id", out.ProductID),
		slog.String("unit_price", out.UnitPrice.String()),
	)
	return out, nil
}

// 3項目を上書き。単価はそのまま（商品が変わっても再計算しない）
func (u *OrderItemUsecase) Update(ctx context.Context, id int64, in UpdateOrderItemInput) (model.OrderItem, error) {
	if err := validateFields(in.OrderID, in.Quantity); err != nil {
		return model.OrderItem{}, err
	}

	changes := model.OrderItemChanges{
		OrderID:   &in.OrderID,
		ProductID: &in.ProductID,
		Quantity:  &in.Quantity,
	}
	out, err := u.apply(ctx, id, func(model.OrderItem) model.OrderItemChanges { return changes })
	if err != nil {
		return model.OrderItem{}, u.fail(ctx, "update", id, "", err)
	}
	return out, nil
}

// 送られた項目だけ更新
func (u *OrderItemUsecase) PartialUpdate(ctx context.Context, id int64, in PatchOrderItemInput) (model.OrderItem, error) {
	if v, ok := in.OrderID.Get(); ok && v <= 0 {
		return model.OrderItem{}, NewInvalid("invalid order_id", nil)
	}
	if v, ok := in.Quantity.Get(); ok && v <= 0 {
		return model.OrderItem{}, NewInvalid("quantity must be > 0", nil)
	}

	out, err := u.apply(ctx, id, func(existing model.OrderItem) model.OrderItemChanges {
		return MergePatch(existing, in)
	})
	if err != nil {
		return model.OrderItem{}, u.fail(ctx, "partial update", id, "Error updating order item: ", err)
	}
	return out, nil
}

// MergePatch は送られた項目のうち、今と違うものだけを変更にする。
func MergePatch(existing model.OrderItem, in PatchOrderItemInput) model.OrderItemChanges {
	var c model.OrderItemChanges
	if v, ok := in.OrderID.Get(); ok && v != existing.OrderID {
		c.OrderID = &v
	}
	if v, ok := in.ProductID.Get(); ok && v != existing.ProductID {
		c.ProductID = &v
	}
	if v, ok := in.Quantity.Get(); ok && v != existing.Quantity {
		c.Quantity = &v
	}
	return c
}

// 取得→変更→再取得を1つのTxで行う
func (u *OrderItemUsecase) apply(ctx context.Context, id int64, changesFor func(model.OrderItem) model.OrderItemChanges) (model.OrderItem, error) {
	var out model.OrderItem
	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		existing, err := r.OrderItems().FindByID(ctx, id, true)
		if errors.Is(err, repo.ErrNotFound) {
			return itemNotFound(id)
		}
		if err != nil {
			return err
		}

		changes := changesFor(existing)
		if changes.IsEmpty() {
			out = existing
			return nil
		}

		if err := r.OrderItems().UpdateFields(ctx, id, changes); err != nil {
			if errors.Is(err, repo.ErrNotFound) {
				return itemNotFound(id)
			}
			return err
		}

		//product_idが変わったらProductも読み直す
		updated, err := r.OrderItems().FindByID(ctx, id, true)
		if err != nil {
			return err
		}
		out = updated
		return nil
	})
	return out, err
}

func (u *OrderItemUsecase) Delete(ctx context.Context, id int64) error {
	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		if _, err := r.OrderItems().FindByID(ctx, id, false); err != nil {
			if errors.Is(err, repo.ErrNotFound) {
				return itemNotFound(id)
			}
			return err
		}
		if err := r.OrderItems().Delete(ctx, id); err != nil {
			if errors.Is(err, repo.ErrNotFound) {
				return itemNotFound(id)
			}
			return err
		}
		return nil
	})
	if err != nil {
		return u.fail(ctx, "delete", id, "", err)
	}

	u.log.InfoContext(ctx, "order item deleted", slog.Int64("id", id))
	return nil
}

// Txから返ったエラーを種類に分ける。
// 書き込み/commitの失敗はrollback済みなので400で返す。
func (u *OrderItemUsecase) fail(ctx context.Context, op string, id int64, prefix string, err error) error {
	if _, ok := AsError(err); ok {
		return err
	}
	if se, ok := repo.AsStorageError(err); ok {
		u.log.WarnContext(ctx, "order item write rolled back",
			slog.String("op", op),
			slog.Int64("id", id),
			slog.String("error", se.Error()),
		)
		return NewInvalid(prefix+se.Error(), err)
	}
	u.log.ErrorContext(ctx, "order item read failed",
		slog.String("op", op),
		slog.Int64("id", id),
		slog.String("error", err.Error()),
	)
	return NewInternal(err)
}
