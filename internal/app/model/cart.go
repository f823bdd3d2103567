package model

import "time"

// Cart survives checkout; only its items are drained.
type Cart struct {
	ID        uint      `gorm:"primarykey" json:"id"`
	UserID    uint      `gorm:"not null;uniqueIndex" json:"user_id"`
	CreatedAt time.Time `json:"created_at"`

	User  User       `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
	Items []CartItem `gorm:"foreignKey:CartID;constraint:OnDelete:CASCADE" json:"items"`
}

func (Cart) TableName() string {
	return "carts"
}

type CartItem struct {
	ID        uint      `gorm:"primarykey" json:"id"`
	CartID    uint      `gorm:"not null;uniqueIndex:idx_cart_item_book" json:"cart_id"`
	BookID    uint      `gorm:"not null;uniqueIndex:idx_cart_item_book;index" json:"book_id"`
	Quantity  int       `gorm:"not null;default:1" json:"quantity"`
	CreatedAt time.Time `json:"created_at"`

	Book Book `gorm:"foreignKey:BookID;constraint:OnDelete:CASCADE" json:"book"`
}

func (CartItem) TableName() string {
	return "cart_items"
}
