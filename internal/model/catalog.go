package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Category groups products in the catalog
type Category struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Name        string    `gorm:"type:varchar(100);uniqueIndex;not null" json:"name"`
	Description string    `gorm:"type:text" json:"description"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func (c *Category) BeforeCreate(tx *gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}

// Product represents an item in the inventory.
// Quantity is adjusted exclusively through the stock ledger so the stored
// value stays consistent with the movement history.
type Product struct {
	ID          uuid.UUID       `gorm:"type:uuid;primaryKey" json:"id"`
	Name        string          `gorm:"type:varchar(100);not null" json:"name"`
	SKU         string          `gorm:"type:varchar(50);uniqueIndex;not null" json:"sku"`
	Description string          `gorm:"type:text" json:"description"`
	CategoryID  uuid.UUID       `gorm:"type:uuid;not null;index" json:"category_id"`
	Category    *Category       `gorm:"foreignKey:CategoryID" json:"category,omitempty"`
	Unit        string          `gorm:"type:varchar(20);not null" json:"unit"`
	CostPrice   decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"cost_price"`
	SalePrice   decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"sale_price"`
	Quantity    int             `gorm:"type:int;default:0;not null" json:"quantity"`
	MinQuantity int             `gorm:"type:int;default:0" json:"min_quantity"`
	MaxQuantity *int            `gorm:"type:int" json:"max_quantity"`
	ImageURL    string          `gorm:"type:varchar(255)" json:"image_url"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
	DeletedAt   gorm.DeletedAt  `gorm:"index" json:"-"`
}

func (p *Product) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}
