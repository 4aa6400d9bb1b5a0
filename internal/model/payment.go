package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Payment status values
const (
	PaymentPending  = "pendente"
	PaymentApproved = "aprovado"
	PaymentRefused  = "recusado"
)

// Payment records a payment attempt against a purchase
type Payment struct {
	ID         uuid.UUID       `gorm:"type:uuid;primaryKey" json:"id"`
	PurchaseID uuid.UUID       `gorm:"type:uuid;not null;index" json:"purchase_id"`
	CustomerID uuid.UUID       `gorm:"type:uuid;not null;index" json:"customer_id"`
	Method     string          `gorm:"type:varchar(50);not null" json:"method"` // cartao, pix, boleto
	Status     string          `gorm:"type:varchar(20);default:'pendente'" json:"status"`
	Amount     decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"amount"`
	CreatedAt  time.Time       `json:"created_at"`
}

func (p *Payment) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}
