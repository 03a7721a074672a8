package model

import "time"

// (product, variant) ごとの在庫レコード。
// 行が無い＝在庫ゼロとして扱う。
type Inventory struct {
	ID        int64  `gorm:"primaryKey;autoIncrement" json:"id"`
	ProductID int64  `gorm:"not null;uniqueIndex:idx_inventories_product_variant" json:"product_id"`
	VariantID *int64 `gorm:"uniqueIndex:idx_inventories_product_variant" json:"variant_id"`

	//QUANTITYモードの在庫数
	AvailableQuantity int64 `gorm:"not null;default:0" json:"available_quantity"`

	//WEIGHTモードの在庫量（g）
	AvailableWeightGrams float64 `gorm:"not null;default:0" json:"available_weight_grams"`

	CreatedAt time.Time `gorm:"not null;autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime" json:"updated_at"`
}
