package models

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/transafrica/fleetops_backend/config"
	"github.com/transafrica/fleetops_backend/utils"
)

type InventoryItem struct {
	ID           int             `gorm:"primary_key" json:"id"`
	OrgId        string          `gorm:"index;not null;uniqueIndex:idx_items_org_sku" json:"org_id"`
	Sku          string          `gorm:"size:100;not null;uniqueIndex:idx_items_org_sku" json:"sku" binding:"required"`
	Name         string          `gorm:"size:255;not null" json:"name" binding:"required"`
	Category     string          `gorm:"size:100" json:"category"`
	Unit         string          `gorm:"size:50" json:"unit"`
	Quantity     int             `gorm:"not null;default:0" json:"quantity"`
	SeedQuantity int             `gorm:"not null;default:0" json:"seed_quantity"`
	MinQuantity  int             `gorm:"default:0" json:"min_quantity"`
	ReorderPoint int             `gorm:"default:0" json:"reorder_point"`
	UnitCost     decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"unit_cost"`
	TotalValue   decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"total_value"`
	SupplierId   int             `gorm:"index" json:"supplier_id"`
	CreatedAt    time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt    time.Time       `gorm:"autoUpdateTime" json:"updated_at"`

	// derived on read
	LowStock bool `gorm:"-" json:"low_stock"`
}

func (item *InventoryItem) GetOrgId() string {
	return item.OrgId
}

// ComputeDerived fills read-side fields that are never persisted.
func (item *InventoryItem) ComputeDerived() {
	item.LowStock = item.Quantity <= item.ReorderPoint
	item.TotalValue = item.UnitCost.Mul(decimal.NewFromInt(int64(item.Quantity)))
}

type NewInventoryItem struct {
	Sku          string          `json:"sku" binding:"required"`
	Name         string          `json:"name" binding:"required"`
	Category     string          `json:"category"`
	Unit         string          `json:"unit"`
	Quantity     int             `json:"quantity"`
	MinQuantity  int             `json:"min_quantity"`
	ReorderPoint int             `json:"reorder_point"`
	UnitCost     decimal.Decimal `json:"unit_cost"`
	SupplierId   int             `json:"supplier_id"`
}

func (input *NewInventoryItem) validate(ctx context.Context, orgId string) error {
	if input.Quantity < 0 {
		return newValidationError("quantity", "must not be negative")
	}
	if input.UnitCost.IsNegative() {
		return newValidationError("unit_cost", "must not be negative")
	}
	if strings.TrimSpace(input.Sku) == "" {
		return newValidationError("sku", "is required")
	}
	if input.SupplierId > 0 {
		if err := utils.ValidateResourceId[Supplier](ctx, orgId, input.SupplierId); err != nil {
			return errors.New("supplier not found")
		}
	}
	if err := utils.ValidateUnique[InventoryItem](ctx, orgId, "sku", strings.ToUpper(strings.TrimSpace(input.Sku)), 0); err != nil {
		return newValidationError("sku", "already exists")
	}
	return nil
}

// CreateInventoryItem seeds a new item. The seed quantity is the ledger's
// reconciliation base: it produces no stock movement, and every later change
// to Quantity must go through ApplyInventoryDelta.
func CreateInventoryItem(ctx context.Context, input *NewInventoryItem) (*InventoryItem, error) {
	orgId, ok := utils.GetOrgIdFromContext(ctx)
	if !ok || orgId == "" {
		return nil, errors.New("org id is required")
	}

	if err := input.validate(ctx, orgId); err != nil {
		return nil, err
	}

	item := InventoryItem{
		OrgId:        orgId,
		Sku:          strings.ToUpper(strings.TrimSpace(input.Sku)),
		Name:         input.Name,
		Category:     input.Category,
		Unit:         input.Unit,
		Quantity:     input.Quantity,
		SeedQuantity: input.Quantity,
		MinQuantity:  input.MinQuantity,
		ReorderPoint: input.ReorderPoint,
		UnitCost:     input.UnitCost,
		TotalValue:   input.UnitCost.Mul(decimal.NewFromInt(int64(input.Quantity))),
		SupplierId:   input.SupplierId,
	}

	db := config.GetDB()
	if err := db.WithContext(ctx).Create(&item).Error; err != nil {
		if utils.IsDuplicateKeyErr(err) {
			return nil, utils.ErrorDuplicateValue
		}
		return nil, err
	}

	item.ComputeDerived()
	return &item, nil
}

func GetInventoryItem(ctx context.Context, id int) (*InventoryItem, error) {
	orgId, ok := utils.GetOrgIdFromContext(ctx)
	if !ok || orgId == "" {
		return nil, errors.New("org id is required")
	}

	item, err := utils.FetchModel[InventoryItem](ctx, orgId, id)
	if err != nil {
		return nil, err
	}
	item.ComputeDerived()
	return item, nil
}

func GetInventoryItems(ctx context.Context, sku *string, category *string, lowStockOnly bool) ([]*InventoryItem, error) {
	orgId, ok := utils.GetOrgIdFromContext(ctx)
	if !ok || orgId == "" {
		return nil, errors.New("org id is required")
	}

	db := config.GetDB()
	dbCtx := db.WithContext(ctx).Where("org_id = ?", orgId)
	if sku != nil && *sku != "" {
		dbCtx = dbCtx.Where("sku LIKE ?", "%"+strings.ToUpper(*sku)+"%")
	}
	if category != nil && *category != "" {
		dbCtx = dbCtx.Where("category = ?", *category)
	}
	if lowStockOnly {
		dbCtx = dbCtx.Where("quantity <= reorder_point")
	}

	var items []*InventoryItem
	if err := dbCtx.Order("sku").Find(&items).Error; err != nil {
		return nil, err
	}
	for _, item := range items {
		item.ComputeDerived()
	}
	return items, nil
}
