package model

import "time"

// カートの明細。
// 追加時点の価格と（WEIGHTモードなら）1個あたり重量を必ず保存。
type CartItem struct {
	ID        int64  `gorm:"primaryKey;autoIncrement" json:"id"`
	CartID    int64  `gorm:"not null;index" json:"cart_id"`
	ProductID int64  `gorm:"not null;index" json:"product_id"`
	VariantID *int64 `gorm:"index" json:"variant_id"`
	Quantity  int64  `gorm:"not null" json:"quantity"`

	UnitPriceSnapshot int64 `gorm:"not null;column:unit_price_snapshot" json:"unit_price_snapshot"`

	//WEIGHTモード商品の追加時点の1個あたり重量（g）。QUANTITYモードは0
	UnitWeightGrams float64 `gorm:"not null;default:0" json:"unit_weight_grams"`

	CreatedAt time.Time `gorm:"not null;autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime" json:"updated_at"`
}
