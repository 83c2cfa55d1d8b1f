package repository

import (
	"context"

	repo "orderitems/internal/repository"

	"gorm.io/gorm"
)

type txReposGorm struct {
	orderItems repo.OrderItemRepository
	products   repo.ProductRepository
}

func (r *txReposGorm) OrderItems() repo.OrderItemRepository { return r.orderItems }
func (r *txReposGorm) Products() repo.ProductRepository     { return r.products }

type TxManagerGorm struct {
	db *gorm.DB
}

func NewTxManagerGorm(db *gorm.DB) *TxManagerGorm {
	return &TxManagerGorm{db: db}
}

func (tm *TxManagerGorm) WithinTx(ctx context.Context, fn func(r repo.TxRepos) error) error {
	var fnErr error
	err := tm.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		//repoはtxを持ったDBで作り直す
		r := &txReposGorm{
			orderItems: NewOrderItemGormRepository(tx),
			products:   NewProductGormRepository(tx),
		}
		fnErr = fn(r)
		return fnErr
	})
	if err == nil {
		return nil
	}
	//fnのエラーはrollback済みでそのまま返す
	if fnErr != nil {
		return fnErr
	}
	//begin/commitの失敗
	tm.discardOpenTx()
	return storageError("transaction", err)
}

// SQLiteはCOMMITに失敗してもTxが開いたまま接続がプールに戻る。
// 接続は1本なので、ここでROLLBACKすればその接続のTxが閉じる。
// Postgresは失敗したCOMMITでTxが終わるので何もしない。
func (tm *TxManagerGorm) discardOpenTx() {
	if tm.db.Dialector.Name() != "sqlite" {
		return
	}
	_ = tm.db.WithContext(context.Background()).Exec("ROLLBACK").Error
}
