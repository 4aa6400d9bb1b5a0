package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Project status values
const (
	ProjectPlanning   = "planejamento"
	ProjectInProgress = "em_andamento"
	ProjectDone       = "concluido"
	ProjectCancelled  = "cancelado"
)

// Project groups collaborators, allocated products and stock movements
type Project struct {
	ID            uuid.UUID            `gorm:"type:uuid;primaryKey" json:"id"`
	Name          string               `gorm:"type:varchar(100);not null" json:"name"`
	Location      string               `gorm:"type:varchar(100)" json:"location"`
	StartDate     time.Time            `gorm:"not null" json:"start_date"`
	EndDate       *time.Time           `json:"end_date"`
	ResponsibleID uuid.UUID            `gorm:"type:uuid;not null;index" json:"responsible_id"`
	Responsible   *User                `gorm:"foreignKey:ResponsibleID" json:"responsible,omitempty"`
	Status        string               `gorm:"type:varchar(20);default:'planejamento'" json:"status"`
	Description   string               `gorm:"type:text" json:"description"`
	Collaborators []ProjectCollaborator `gorm:"foreignKey:ProjectID" json:"collaborators,omitempty"`
	Products      []ProjectProduct      `gorm:"foreignKey:ProjectID" json:"products,omitempty"`
	CreatedAt     time.Time            `json:"created_at"`
	UpdatedAt     time.Time            `json:"updated_at"`
}

func (p *Project) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}

// ProjectCollaborator links an internal user to a project
type ProjectCollaborator struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	ProjectID uuid.UUID `gorm:"type:uuid;not null;index;uniqueIndex:uq_project_user" json:"project_id"`
	UserID    uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:uq_project_user" json:"user_id"`
	User      *User     `gorm:"foreignKey:UserID" json:"user,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

func (c *ProjectCollaborator) BeforeCreate(tx *gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}

// ProjectProduct allocates a quantity of a product to a project
type ProjectProduct struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	ProjectID uuid.UUID `gorm:"type:uuid;not null;index;uniqueIndex:uq_project_product" json:"project_id"`
	ProductID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:uq_project_product" json:"product_id"`
	Product   *Product  `gorm:"foreignKey:ProductID" json:"product,omitempty"`
	Quantity  int       `gorm:"type:int;not null" json:"quantity"`
	Note      string    `gorm:"type:text" json:"note"`
}

func (p *ProjectProduct) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}
