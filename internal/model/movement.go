package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Movement direction values (kept as the legacy wire values)
const (
	MovementIn  = "entrada"
	MovementOut = "saida"
)

// Movement records a single stock adjustment. Rows are immutable after
// creation except for the note; deleting a movement reverses its quantity
// effect on the product.
type Movement struct {
	ID        uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	ProductID uuid.UUID  `gorm:"type:uuid;not null;index" json:"product_id"`
	Product   *Product   `gorm:"foreignKey:ProductID" json:"product,omitempty"`
	UserID    *uuid.UUID `gorm:"type:uuid;index" json:"user_id"` // nil for purchase-generated movements
	User      *User      `gorm:"foreignKey:UserID" json:"user,omitempty"`
	Type      string     `gorm:"type:varchar(10);not null;index" json:"type"` // entrada, saida
	Quantity  int        `gorm:"type:int;not null" json:"quantity"`
	Date      time.Time  `gorm:"index" json:"date"`
	Note      string     `gorm:"type:text" json:"note"`
	ProjectID *uuid.UUID `gorm:"type:uuid;index" json:"project_id"`
	Project   *Project   `gorm:"foreignKey:ProjectID" json:"project,omitempty"`
}

func (m *Movement) BeforeCreate(tx *gorm.DB) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	return nil
}
