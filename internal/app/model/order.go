package model

import "time"

type OrderStatus string

const (
	OrderStatusPending    OrderStatus = "pending"
	OrderStatusPaid       OrderStatus = "paid"
	OrderStatusProcessing OrderStatus = "processing"
	OrderStatusShipped    OrderStatus = "shipped"
	OrderStatusCompleted  OrderStatus = "completed"
	OrderStatusCancelled  OrderStatus = "cancelled"
	OrderStatusRefunded   OrderStatus = "refunded"
)

var OrderStatuses = []OrderStatus{
	OrderStatusPending, OrderStatusPaid, OrderStatusProcessing, OrderStatusShipped,
	OrderStatusCompleted, OrderStatusCancelled, OrderStatusRefunded,
}

func (s OrderStatus) Valid() bool {
	for _, v := range OrderStatuses {
		if v == s {
			return true
		}
	}
	return false
}

type Order struct {
	ID         uint        `gorm:"primarykey" json:"id"`
	BuyerID    uint        `gorm:"not null;index" json:"buyer_id"`
	Status     OrderStatus `gorm:"type:varchar(20);default:'pending';index" json:"status"`
	TotalPrice Money       `gorm:"type:decimal(10,2);not null;default:0" json:"total_price"` // derived from items
	CreatedAt  time.Time   `json:"created_at"`
	UpdatedAt  time.Time   `json:"updated_at"`

	Buyer User        `gorm:"foreignKey:BuyerID;constraint:OnDelete:CASCADE" json:"-"`
	Items []OrderItem `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE" json:"items"`
}

func (Order) TableName() string {
	return "orders"
}

type OrderItem struct {
	ID       uint  `gorm:"primarykey" json:"id"`
	OrderID  uint  `gorm:"not null;uniqueIndex:idx_order_item_book" json:"order_id"`
	BookID   uint  `gorm:"not null;uniqueIndex:idx_order_item_book;index" json:"book_id"`
	Quantity int   `gorm:"not null;default:1" json:"quantity"`
	Price    Money `gorm:"type:decimal(10,2);not null" json:"price"` // snapshot at checkout

	Book Book `gorm:"foreignKey:BookID;constraint:OnDelete:CASCADE" json:"book,omitempty"`
}

func (OrderItem) TableName() string {
	return "order_items"
}

func (i OrderItem) Subtotal() Money {
	return i.Price.Mul(i.Quantity)
}
