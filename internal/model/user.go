package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Role levels for internal users
const (
	RoleAdmin    = "admin"
	RoleRegular  = "usuario"
	RoleReadOnly = "visualizacao"
)

// User represents an internal (staff) account
type User struct {
	ID        uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	Name      string     `gorm:"type:varchar(100);not null" json:"name"`
	Email     string     `gorm:"type:varchar(100);uniqueIndex;not null" json:"email"`
	Password  string     `gorm:"type:varchar(255);not null" json:"-"` // Omit password hash from JSON
	Role      string     `gorm:"type:varchar(20);not null;default:'usuario'" json:"role"`
	Active    bool       `gorm:"default:true" json:"active"`
	LastLogin *time.Time `json:"last_login"`
	CreatedAt time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}

// BeforeCreate assigns the ID in Go so inserts behave the same on postgres
// and the sqlite test driver.
func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	return nil
}

// IsAdmin reports whether the user holds the admin role.
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}
