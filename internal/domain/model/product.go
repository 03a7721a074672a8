package model

import (
	"time"

	"storefront/internal/domain/stock"

	"gorm.io/gorm"
)

// 商品。在庫の現在値はInventory側に持つ。
type Product struct {
	ID          int64      `gorm:"primaryKey;autoIncrement" json:"id"`
	Name        string     `gorm:"type:varchar(255);not null" json:"name"`
	Description string     `gorm:"type:text" json:"description"`
	Price       int64      `gorm:"not null" json:"price"`
	StockMode   stock.Mode `gorm:"type:varchar(20);not null;default:'QUANTITY'" json:"stock_mode"`

	//WEIGHTモードの1個あたり重量（g）。カート既存分の重量換算に使う
	UnitWeightGrams float64 `gorm:"not null;default:0" json:"unit_weight_grams"`

	IsActive  bool           `gorm:"not null;default:false" json:"is_active"`
	CreatedAt time.Time      `gorm:"not null;autoCreateTime" json:"created_at"`
	UpdatedAt time.Time      `gorm:"not null;autoUpdateTime" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}
