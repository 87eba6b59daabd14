package models

import (
	"context"
	"errors"
	"time"

	"github.com/transafrica/fleetops_backend/config"
	"github.com/transafrica/fleetops_backend/utils"
	"gorm.io/gorm"
)

// StockMovement is the append-only audit trail of the inventory ledger.
// Rows are never updated or deleted; for any item,
// seed_quantity + sum(delta) must equal the item's current quantity.
type StockMovement struct {
	ID         int                 `gorm:"primary_key" json:"id"`
	OrgId      string              `gorm:"index;not null" json:"org_id"`
	ItemId     int                 `gorm:"index;not null" json:"item_id"`
	Delta      int                 `gorm:"not null" json:"delta"`
	Reason     StockMovementReason `gorm:"type:enum('maintenance','purchase_receipt','manual_adjustment','loss');not null" json:"reason"`
	Reference  string              `gorm:"size:255;index" json:"reference"`
	ClosingQty int                 `gorm:"not null" json:"closing_qty"`
	OccurredAt time.Time           `gorm:"not null;index" json:"occurred_at"`
	CreatedAt  time.Time           `gorm:"autoCreateTime" json:"created_at"`
}

// createStockMovement appends one movement row inside the caller's
// transaction. The ledger has already validated feasibility; the only check
// here is that the row carries a real change.
func createStockMovement(tx *gorm.DB, movement *StockMovement) error {
	if movement.Delta == 0 {
		return newValidationError("delta", "must be non-zero")
	}
	if movement.OccurredAt.IsZero() {
		movement.OccurredAt = time.Now().UTC()
	}
	return tx.Create(movement).Error
}

type NewStockMovement struct {
	ItemId    int    `json:"item_id" binding:"required"`
	Delta     int    `json:"delta" binding:"required"`
	Reason    string `json:"reason" binding:"required"`
	Reference string `json:"reference"`
}

// CreateManualStockMovement is the internal write surface for corrections and
// recorded losses. Consumption and receipt paths never come through here;
// they post through their owning service.
func CreateManualStockMovement(ctx context.Context, input *NewStockMovement) (*InventoryItem, error) {
	orgId, ok := utils.GetOrgIdFromContext(ctx)
	if !ok || orgId == "" {
		return nil, errors.New("org id is required")
	}

	reason, err := ParseStockMovementReason(input.Reason)
	if err != nil {
		return nil, newValidationError("reason", "%s", err.Error())
	}
	if reason != MovementReasonManualAdjustment && reason != MovementReasonLoss {
		return nil, newValidationError("reason", "must be manual_adjustment or loss")
	}
	if reason == MovementReasonLoss && input.Delta > 0 {
		return nil, newValidationError("delta", "loss must be negative")
	}

	release, err := utils.ObtainOrgLock(ctx, orgId, "stockLock", "stockMovement.go", "CreateManualStockMovement")
	if err != nil {
		return nil, err
	}
	defer release()

	db := config.GetDB()
	tx := db.Begin()
	defer func() {
		if r := recover(); r != nil {
			_ = tx.Rollback().Error
			panic(r)
		}
	}()

	item, err := ApplyInventoryDelta(tx.WithContext(ctx), orgId, input.ItemId, input.Delta, reason, input.Reference)
	if err != nil {
		tx.Rollback()
		return nil, err
	}

	if err := createHistory(tx.WithContext(ctx), "Adjust", item.ID, "inventory_items", nil, nil,
		"Manual stock movement of "+item.Sku); err != nil {
		tx.Rollback()
		return nil, err
	}

	if err := tx.Commit().Error; err != nil {
		return nil, err
	}
	item.ComputeDerived()
	return item, nil
}

func GetStockMovements(ctx context.Context, itemId *int, reference *string) ([]*StockMovement, error) {
	orgId, ok := utils.GetOrgIdFromContext(ctx)
	if !ok || orgId == "" {
		return nil, errors.New("org id is required")
	}

	db := config.GetDB()
	dbCtx := db.WithContext(ctx).Where("org_id = ?", orgId)
	if itemId != nil && *itemId > 0 {
		dbCtx = dbCtx.Where("item_id = ?", *itemId)
	}
	if reference != nil && *reference != "" {
		dbCtx = dbCtx.Where("reference = ?", *reference)
	}

	var movements []*StockMovement
	if err := dbCtx.Order("id").Find(&movements).Error; err != nil {
		return nil, err
	}
	return movements, nil
}
