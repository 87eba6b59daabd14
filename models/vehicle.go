package models

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/transafrica/fleetops_backend/config"
	"github.com/transafrica/fleetops_backend/utils"
)

// Vehicle is master data: the engine only references it, never manages its
// lifecycle beyond create/list.
type Vehicle struct {
	ID          int       `gorm:"primary_key" json:"id"`
	OrgId       string    `gorm:"index;not null;uniqueIndex:idx_vehicles_org_plate" json:"org_id"`
	PlateNumber string    `gorm:"size:20;not null;uniqueIndex:idx_vehicles_org_plate" json:"plate_number"`
	Make        string    `gorm:"size:100" json:"make"`
	Model       string    `gorm:"size:100" json:"model"`
	Year        int       `json:"year"`
	Terminal    Terminal  `gorm:"size:20;not null" json:"terminal"`
	IsActive    *bool     `gorm:"default:true" json:"is_active"`
	CreatedAt   time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (obj Vehicle) GetOrgId() string {
	return obj.OrgId
}

type NewVehicle struct {
	PlateNumber string `json:"plate_number" binding:"required"`
	Make        string `json:"make"`
	Model       string `json:"model"`
	Year        int    `json:"year"`
	Terminal    string `json:"terminal" binding:"required"`
}

func CreateVehicle(ctx context.Context, input *NewVehicle) (*Vehicle, error) {
	db := config.GetDB()

	orgId, ok := utils.GetOrgIdFromContext(ctx)
	if !ok || orgId == "" {
		return nil, errors.New("org id is required")
	}

	terminal, err := ParseTerminal(input.Terminal)
	if err != nil {
		return nil, newValidationError("terminal", "%s", err.Error())
	}

	plate := strings.ToUpper(strings.TrimSpace(input.PlateNumber))
	if plate == "" {
		return nil, newValidationError("plate_number", "must not be empty")
	}
	if err := utils.ValidateUnique[Vehicle](ctx, orgId, "plate_number", plate, 0); err != nil {
		return nil, err
	}

	vehicle := Vehicle{
		OrgId:       orgId,
		PlateNumber: plate,
		Make:        input.Make,
		Model:       input.Model,
		Year:        input.Year,
		Terminal:    terminal,
		IsActive:    utils.NewTrue(),
	}

	if err := db.WithContext(ctx).Create(&vehicle).Error; err != nil {
		if utils.IsDuplicateKeyErr(err) {
			return nil, utils.ErrorDuplicateValue
		}
		return nil, err
	}
	return &vehicle, nil
}

func GetVehicle(ctx context.Context, id int) (*Vehicle, error) {
	orgId, ok := utils.GetOrgIdFromContext(ctx)
	if !ok || orgId == "" {
		return nil, errors.New("org id is required")
	}
	return utils.FetchModel[Vehicle](ctx, orgId, id)
}

func GetVehicles(ctx context.Context, terminal *string) ([]*Vehicle, error) {
	db := config.GetDB()

	orgId, ok := utils.GetOrgIdFromContext(ctx)
	if !ok || orgId == "" {
		return nil, errors.New("org id is required")
	}

	var results []*Vehicle
	dbCtx := db.WithContext(ctx).Where("org_id = ?", orgId)
	if terminal != nil && *terminal != "" {
		parsed, err := ParseTerminal(*terminal)
		if err != nil {
			return nil, newValidationError("terminal", "%s", err.Error())
		}
		dbCtx = dbCtx.Where("terminal = ?", parsed)
	}

	err := dbCtx.Order("plate_number ASC").Find(&results).Error
	if err != nil {
		return nil, err
	}
	return results, nil
}
