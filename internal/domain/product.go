package domain

import "time"

// Product is a catalog item managed by the CRUD service.
type Product struct {
	ID        int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	Sku       string    `gorm:"size:64;index" json:"sku"`
	Name      string    `gorm:"size:200;index" json:"name"`
	Price     float64   `json:"price"` // price in main currency units (e.g., dollars)
	IsActive  bool      `json:"isActive"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// TableName Specify table name
func (Product) TableName() string {
	return "products"
}
