package models

import (
	"context"
	"time"

	"github.com/transafrica/fleetops_backend/config"
	"github.com/transafrica/fleetops_backend/utils"
)

// User carries the session identity resolved by the middleware. The engine
// trusts the caller was already authorized; role is informational here.
type User struct {
	ID        int       `gorm:"primary_key" json:"id"`
	OrgId     string    `gorm:"index;not null" json:"org_id"`
	Username  string    `gorm:"size:100;not null;uniqueIndex" json:"username"`
	Name      string    `gorm:"size:100" json:"name"`
	Role      UserRole  `gorm:"size:20;not null;default:'staff'" json:"role"`
	IsActive  *bool     `gorm:"default:true" json:"is_active"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func GetUserByUsername(ctx context.Context, username string) (*User, error) {
	db := config.GetDB()

	var user User
	err := db.WithContext(ctx).Where("username = ?", username).First(&user).Error
	if err != nil {
		return nil, utils.ErrorRecordNotFound
	}
	return &user, nil
}
