package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	ActionCreateMovement   = "CREATE_MOVEMENT"
	ActionDeleteMovement   = "DELETE_MOVEMENT"
	ActionFinalizePurchase = "FINALIZE_PURCHASE"
	ActionDeletePurchase   = "DELETE_PURCHASE"
	ActionCreateProduct    = "CREATE_PRODUCT"
	ActionUpdateProduct    = "UPDATE_PRODUCT"
	ActionDeleteProduct    = "DELETE_PRODUCT"
	ActionUpdateBoardCell  = "UPDATE_BOARD_CELL"
	ActionGrantBoardAccess = "GRANT_BOARD_ACCESS"
)

// AuditLog tracks who did what and when for critical changes
type AuditLog struct {
	ID        uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	UserID    *uuid.UUID `gorm:"type:uuid;index" json:"user_id"` // nil for system/customer actions
	User      *User      `gorm:"foreignKey:UserID" json:"user,omitempty"`
	Action    string     `gorm:"type:varchar(50);not null;index" json:"action"`
	Entity    string     `gorm:"type:varchar(50);index" json:"entity"`
	RecordID  string     `gorm:"type:varchar(50);index" json:"record_id"`
	Details   string     `gorm:"type:text" json:"details"` // serialized JSON payload
	CreatedAt time.Time  `gorm:"index" json:"created_at"`
}

func (l *AuditLog) BeforeCreate(tx *gorm.DB) error {
	if l.ID == uuid.Nil {
		l.ID = uuid.New()
	}
	return nil
}
