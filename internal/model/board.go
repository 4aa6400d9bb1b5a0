package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Board is a checklist-driven unit of work. Progress is the denormalized
// completion ratio over its active cells (0.0 when no cell is active).
type Board struct {
	ID          uuid.UUID     `gorm:"type:uuid;primaryKey" json:"id"`
	Title       string        `gorm:"type:varchar(255);not null" json:"title"`
	Description string        `gorm:"type:text" json:"description"`
	CreatedByID uuid.UUID     `gorm:"type:uuid;not null;index" json:"created_by"`
	CreatedBy   *User         `gorm:"foreignKey:CreatedByID" json:"creator,omitempty"`
	StartedAt   *time.Time    `json:"started_at"`
	CompletedAt *time.Time    `json:"completed_at"`
	Progress    float64       `gorm:"default:0" json:"progress"`
	Public      bool          `json:"public"`
	Items       []BoardItem   `gorm:"foreignKey:BoardID;constraint:OnDelete:CASCADE" json:"items,omitempty"`
	Actions     []BoardAction `gorm:"foreignKey:BoardID;constraint:OnDelete:CASCADE" json:"actions,omitempty"`
	Grants      []BoardGrant  `gorm:"foreignKey:BoardID;constraint:OnDelete:CASCADE" json:"grants,omitempty"`
	CreatedAt   time.Time     `json:"created_at"`
	UpdatedAt   time.Time     `json:"updated_at"`
}

func (b *Board) BeforeCreate(tx *gorm.DB) error {
	if b.ID == uuid.Nil {
		b.ID = uuid.New()
	}
	return nil
}

// BoardItem is one row of the board grid
type BoardItem struct {
	ID      uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	BoardID uuid.UUID `gorm:"type:uuid;not null;index" json:"board_id"`
	Name    string    `gorm:"type:varchar(255);not null" json:"name"`
	Order   int       `gorm:"column:position;default:0" json:"order"`
}

func (i *BoardItem) BeforeCreate(tx *gorm.DB) error {
	if i.ID == uuid.Nil {
		i.ID = uuid.New()
	}
	return nil
}

// BoardAction is one column of the board grid
type BoardAction struct {
	ID      uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	BoardID uuid.UUID `gorm:"type:uuid;not null;index" json:"board_id"`
	Name    string    `gorm:"type:varchar(255);not null" json:"name"`
	Order   int       `gorm:"column:position;default:0" json:"order"`
}

func (a *BoardAction) BeforeCreate(tx *gorm.DB) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	return nil
}

// BoardCell is the (item, action) pairing. One cell exists per pair of the
// same board; an inactive cell is invisible to the progress ratio.
type BoardCell struct {
	ID          uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	ItemID      uuid.UUID  `gorm:"type:uuid;not null;index;uniqueIndex:uq_item_action" json:"item_id"`
	ActionID    uuid.UUID  `gorm:"type:uuid;not null;uniqueIndex:uq_item_action" json:"action_id"`
	Done        bool       `gorm:"default:false" json:"done"`
	Active      bool       `gorm:"default:true" json:"active"`
	CompletedAt *time.Time `json:"completed_at"`
	CompletedBy *uuid.UUID `gorm:"type:uuid" json:"completed_by"`
}

func (c *BoardCell) BeforeCreate(tx *gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}

// BoardGrant is an explicit per-user authorization on a board; at most one
// row per (board, user) pair.
type BoardGrant struct {
	ID      uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	BoardID uuid.UUID `gorm:"type:uuid;not null;index;uniqueIndex:uq_board_user" json:"board_id"`
	UserID  uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:uq_board_user" json:"user_id"`
	User    *User     `gorm:"foreignKey:UserID" json:"user,omitempty"`
	CanEdit bool      `gorm:"default:false" json:"can_edit"`
}

func (g *BoardGrant) BeforeCreate(tx *gorm.DB) error {
	if g.ID == uuid.Nil {
		g.ID = uuid.New()
	}
	return nil
}
