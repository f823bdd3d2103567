package model

import "time"

// ProductType tags the weak (type, id) reference held by payments and short links.
type ProductType string

const (
	ProductCourse ProductType = "course"
	ProductBook   ProductType = "book"
)

func (p ProductType) Valid() bool {
	return p == ProductCourse || p == ProductBook
}

type PaymentStatus string

const (
	PaymentPending PaymentStatus = "pending"
	PaymentSuccess PaymentStatus = "success"
	PaymentFailed  PaymentStatus = "failed" // reserved; no flow writes it
)

type Payment struct {
	ID          uint          `gorm:"primarykey" json:"id"`
	UserID      uint          `gorm:"not null;index" json:"user_id"`
	Amount      Money         `gorm:"type:decimal(10,2);not null" json:"amount"`
	ProductType ProductType   `gorm:"type:varchar(10);not null;index:idx_payment_product" json:"product_type"`
	ProductID   uint          `gorm:"not null;index:idx_payment_product" json:"product_id"`
	OrderID     *uint         `gorm:"index" json:"order_id,omitempty"`
	Authority   string        `gorm:"size:64;uniqueIndex;not null" json:"authority"`
	Status      PaymentStatus `gorm:"type:varchar(10);default:'pending';index" json:"status"`
	CreatedAt   time.Time     `json:"created_at"`
	VerifiedAt  *time.Time    `json:"verified_at,omitempty"`

	User  User   `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
	Order *Order `gorm:"foreignKey:OrderID;constraint:OnDelete:SET NULL" json:"-"`
}

func (Payment) TableName() string {
	return "payments"
}
