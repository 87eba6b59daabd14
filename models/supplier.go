package models

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/transafrica/fleetops_backend/config"
	"github.com/transafrica/fleetops_backend/utils"
)

type Supplier struct {
	ID        int       `gorm:"primary_key" json:"id"`
	OrgId     string    `gorm:"index;not null" json:"org_id"`
	Name      string    `gorm:"size:255;not null" json:"name"`
	Email     string    `gorm:"size:255" json:"email"`
	Phone     string    `gorm:"size:50" json:"phone"`
	Address   string    `gorm:"type:text" json:"address"`
	IsActive  *bool     `gorm:"default:true" json:"is_active"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (obj Supplier) GetOrgId() string {
	return obj.OrgId
}

type NewSupplier struct {
	Name    string `json:"name" binding:"required"`
	Email   string `json:"email"`
	Phone   string `json:"phone"`
	Address string `json:"address"`
}

func CreateSupplier(ctx context.Context, input *NewSupplier) (*Supplier, error) {
	db := config.GetDB()

	orgId, ok := utils.GetOrgIdFromContext(ctx)
	if !ok || orgId == "" {
		return nil, errors.New("org id is required")
	}

	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, newValidationError("name", "must not be empty")
	}
	if err := utils.ValidateUnique[Supplier](ctx, orgId, "name", name, 0); err != nil {
		return nil, err
	}

	supplier := Supplier{
		OrgId:    orgId,
		Name:     name,
		Email:    input.Email,
		Phone:    input.Phone,
		Address:  input.Address,
		IsActive: utils.NewTrue(),
	}

	if err := db.WithContext(ctx).Create(&supplier).Error; err != nil {
		return nil, err
	}
	return &supplier, nil
}

func GetSupplier(ctx context.Context, id int) (*Supplier, error) {
	orgId, ok := utils.GetOrgIdFromContext(ctx)
	if !ok || orgId == "" {
		return nil, errors.New("org id is required")
	}
	return utils.FetchModel[Supplier](ctx, orgId, id)
}

func GetSuppliers(ctx context.Context) ([]*Supplier, error) {
	orgId, ok := utils.GetOrgIdFromContext(ctx)
	if !ok || orgId == "" {
		return nil, errors.New("org id is required")
	}
	return utils.FetchAllModels[Supplier](ctx, orgId)
}
