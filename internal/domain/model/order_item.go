package model

import "time"

type OrderItem struct {
	ID                  int64  `gorm:"primaryKey;autoIncrement" json:"id"`
	OrderID             int64  `gorm:"not null;index" json:"order_id"`
	ProductID           int64  `gorm:"not null;index" json:"product_id"`
	VariantID           *int64 `gorm:"index" json:"variant_id"`
	ProductNameSnapshot string `gorm:"type:varchar(255);not null" json:"product_name_snapshot"`
	UnitPriceSnapshot   int64  `gorm:"not null" json:"unit_price_snapshot"`

	//WEIGHTモード商品の1個あたり重量スナップショット（g）
	UnitWeightGrams float64 `gorm:"not null;default:0" json:"unit_weight_grams"`

	Quantity  int64     `gorm:"not null" json:"quantity"`
	CreatedAt time.Time `gorm:"not null;autoCreateTime" json:"created_at"`
}
