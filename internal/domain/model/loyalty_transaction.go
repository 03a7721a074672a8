package model

import "time"

type LoyaltyKind string

const (
	//注文で獲得
	LoyaltyKindEarn LoyaltyKind = "EARN"
	//利用（将来の値引きなど）
	LoyaltyKindRedeem LoyaltyKind = "REDEEM"
)

// ポイントの増減履歴。残高はこの合計。
type LoyaltyTransaction struct {
	ID      int64       `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID  int64       `gorm:"not null;index" json:"user_id"`
	OrderID *int64      `gorm:"index" json:"order_id"`
	Points  int64       `gorm:"not null" json:"points"`
	Kind    LoyaltyKind `gorm:"type:varchar(20);not null" json:"kind"`

	CreatedAt time.Time `gorm:"not null;autoCreateTime" json:"created_at"`
}
