package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// 注文明細
// UnitPriceは作成時点の商品価格。あとから商品や価格が変わっても再計算しない。
type OrderItem struct {
	ID        int64           `gorm:"primaryKey;autoIncrement" json:"id"`
	OrderID   int64           `gorm:"not null;index" json:"order_id"`
	ProductID int64           `gorm:"not null;index" json:"product_id"`
	Quantity  int64           `gorm:"not null" json:"quantity"`
	UnitPrice decimal.Decimal `gorm:"type:numeric(10,2);not null" json:"unit_price"`
	CreatedAt time.Time       `gorm:"not null;autoCreateTime" json:"created_at"`
	UpdatedAt time.Time       `gorm:"not null;autoUpdateTime" json:"updated_at"`

	//Preloadで一緒に読む
	Order   *Order   `gorm:"foreignKey:OrderID;constraint:OnUpdate:CASCADE,OnDelete:RESTRICT" json:"order,omitempty"`
	Product *Product `gorm:"foreignKey:ProductID;constraint:OnUpdate:CASCADE,OnDelete:RESTRICT" json:"product,omitempty"`
}

// 列の変更内容。nilの項目は触らない。
type OrderItemChanges struct {
	OrderID   *int64
	ProductID *int64
	Quantity  *int64
}

// 変更が1つでもあるか
func (c OrderItemChanges) IsEmpty() bool {
	return c.OrderID == nil && c.ProductID == nil && c.Quantity == nil
}
