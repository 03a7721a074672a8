package model

import "time"

//在庫調整の履歴

type InventoryAdjustment struct {
	ID          int64  `gorm:"primaryKey;autoIncrement" json:"id"`
	ProductID   int64  `gorm:"not null;index" json:"product_id"`
	VariantID   *int64 `gorm:"index" json:"variant_id"`
	AdminUserID int64  `gorm:"not null;index" json:"admin_user_id"`

	//QUANTITYモードの増減
	QuantityDelta int64 `gorm:"not null;default:0" json:"quantity_delta"`

	//WEIGHTモードの増減（g）
	WeightDeltaGrams float64 `gorm:"not null;default:0" json:"weight_delta_grams"`

	Reason    string    `gorm:"type:varchar(255);not null" json:"reason"`
	CreatedAt time.Time `gorm:"not null;autoCreateTime" json:"created_at"`
}
