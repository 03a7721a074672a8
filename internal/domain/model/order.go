package model

import "time"

type OrderStatus string

const (
	OrderStatusPending  OrderStatus = "PENDING"
	OrderStatusPaid     OrderStatus = "PAID"
	OrderStatusShipped  OrderStatus = "SHIPPED"
	OrderStatusCanceled OrderStatus = "CANCELED"
)

type Order struct {
	ID        int64       `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID    int64       `gorm:"not null;index;uniqueIndex:idx_orders_user_idem" json:"user_id"`
	AddressID int64       `gorm:"not null" json:"address_id"`
	Status    OrderStatus `gorm:"type:varchar(20);not null;index" json:"status"`
	//注文時点の合計金額（アイテムのスナップショット価格×数量の和）
	TotalPrice int64 `gorm:"not null" json:"total_price"`
	//同一ユーザー内でユニーク。二重送信で同じ注文を返すために使う
	IdempotencyKey string    `gorm:"type:varchar(255);not null;uniqueIndex:idx_orders_user_idem" json:"-"`
	CreatedAt      time.Time `gorm:"not null;autoCreateTime" json:"created_at"`
	UpdatedAt      time.Time `gorm:"not null;autoUpdateTime" json:"updated_at"`
}
