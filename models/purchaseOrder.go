package models

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/transafrica/fleetops_backend/config"
	"github.com/transafrica/fleetops_backend/utils"
	"gorm.io/gorm"
)

type PurchaseOrder struct {
	ID               int                 `gorm:"primary_key" json:"id"`
	OrgId            string              `gorm:"index;not null;uniqueIndex:idx_purchase_orders_org_number" json:"org_id"`
	SequenceNo       int64               `gorm:"not null" json:"sequence_no"`
	OrderNumber      string              `gorm:"size:20;not null;uniqueIndex:idx_purchase_orders_org_number" json:"order_number"`
	SupplierId       int                 `gorm:"index;not null" json:"supplier_id"`
	OrderDate        time.Time           `gorm:"not null" json:"order_date"`
	ExpectedDelivery *time.Time          `json:"expected_delivery"`
	CurrentStatus    PurchaseOrderStatus `gorm:"size:20;not null;index" json:"current_status"`
	TotalAmount      decimal.Decimal     `gorm:"type:decimal(20,4)" json:"total_amount"`
	ReceivedAt       *time.Time          `json:"received_at"`
	Items            []PurchaseOrderItem `gorm:"foreignKey:PurchaseOrderId" json:"items"`
	Supplier         *Supplier           `gorm:"foreignKey:SupplierId" json:"supplier,omitempty"`
	CreatedAt        time.Time           `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt        time.Time           `gorm:"autoUpdateTime" json:"updated_at"`
}

type PurchaseOrderItem struct {
	ID              int             `gorm:"primary_key" json:"id"`
	PurchaseOrderId int             `gorm:"index;not null" json:"purchase_order_id"`
	OrgId           string          `gorm:"index;not null" json:"org_id"`
	ItemId          int             `gorm:"index;not null" json:"item_id"`
	Sku             string          `gorm:"size:100;not null" json:"sku"`
	Name            string          `gorm:"size:255;not null" json:"name"`
	Quantity        int             `gorm:"not null" json:"quantity"`
	UnitCost        decimal.Decimal `gorm:"type:decimal(20,4)" json:"unit_cost"`
	TotalCost       decimal.Decimal `gorm:"type:decimal(20,4)" json:"total_cost"`
}

func (obj PurchaseOrder) GetOrgId() string {
	return obj.OrgId
}

func (obj PurchaseOrderItem) GetOrgId() string {
	return obj.OrgId
}

type NewPurchaseOrder struct {
	SupplierId       int            `json:"supplier_id" binding:"required"`
	OrderDate        time.Time      `json:"order_date" binding:"required"`
	ExpectedDelivery *time.Time     `json:"expected_delivery"`
	Items            []*NewPartLine `json:"items" binding:"required"`
}

func (input *NewPurchaseOrder) validate(ctx context.Context, orgId string) error {
	if err := utils.ValidateResourceId[Supplier](ctx, orgId, input.SupplierId); err != nil {
		return newValidationError("supplier_id", "supplier %d not found", input.SupplierId)
	}
	if len(input.Items) == 0 {
		return newValidationError("items", "at least one item line is required")
	}
	return nil
}

// CreatePurchaseOrder snapshots the ordered items at today's cost. Stock does
// not move until the order is received.
func CreatePurchaseOrder(ctx context.Context, input *NewPurchaseOrder) (*PurchaseOrder, error) {
	db := config.GetDB()

	orgId, ok := utils.GetOrgIdFromContext(ctx)
	if !ok || orgId == "" {
		return nil, errors.New("org id is required")
	}

	if err := input.validate(ctx, orgId); err != nil {
		return nil, err
	}

	tx := db.Begin()
	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
			panic(r)
		}
	}()

	seqNo, err := utils.GetSequence[PurchaseOrder](ctx, orgId)
	if err != nil {
		tx.Rollback()
		return nil, err
	}

	snapshots, err := snapshotPartLines(tx.WithContext(ctx), orgId, input.Items)
	if err != nil {
		tx.Rollback()
		return nil, err
	}

	var totalAmount decimal.Decimal
	items := make([]PurchaseOrderItem, 0, len(snapshots))
	for _, snap := range snapshots {
		items = append(items, PurchaseOrderItem{
			OrgId:     orgId,
			ItemId:    snap.Item.ID,
			Sku:       snap.Item.Sku,
			Name:      snap.Item.Name,
			Quantity:  snap.Quantity,
			UnitCost:  snap.UnitCost,
			TotalCost: snap.TotalCost,
		})
		totalAmount = totalAmount.Add(snap.TotalCost)
	}

	purchaseOrder := PurchaseOrder{
		OrgId:            orgId,
		SequenceNo:       seqNo,
		OrderNumber:      "PO-" + fmt.Sprint(seqNo),
		SupplierId:       input.SupplierId,
		OrderDate:        input.OrderDate,
		ExpectedDelivery: input.ExpectedDelivery,
		CurrentStatus:    PurchaseOrderStatusPending,
		TotalAmount:      totalAmount,
		Items:            items,
	}

	if err := tx.WithContext(ctx).Create(&purchaseOrder).Error; err != nil {
		tx.Rollback()
		if utils.IsDuplicateKeyErr(err) {
			return nil, utils.ErrorDuplicateValue
		}
		return nil, err
	}

	description := fmt.Sprintf("Purchase order %s created with %d item line(s).", purchaseOrder.OrderNumber, len(items))
	if err := createHistory(tx.WithContext(ctx), "CREATE", purchaseOrder.ID, "purchase_orders", nil, &purchaseOrder, description); err != nil {
		tx.Rollback()
		return nil, err
	}

	if err := tx.Commit().Error; err != nil {
		return nil, err
	}

	return &purchaseOrder, nil
}

// ReceivePurchaseOrder is the one-way pending -> received transition. Each
// item line increments stock by its ordered quantity; a second receive fails
// with ErrAlreadyReceived and moves nothing, so retries are safe.
func ReceivePurchaseOrder(ctx context.Context, id int) (*PurchaseOrder, error) {
	db := config.GetDB()

	orgId, ok := utils.GetOrgIdFromContext(ctx)
	if !ok || orgId == "" {
		return nil, errors.New("org id is required")
	}

	purchaseOrder, err := utils.FetchModel[PurchaseOrder](ctx, orgId, id, "Items")
	if err != nil {
		return nil, err
	}
	if purchaseOrder.CurrentStatus == PurchaseOrderStatusReceived {
		return nil, ErrAlreadyReceived
	}

	release, err := utils.ObtainOrgLock(ctx, orgId, "stockLock", "purchaseOrder.go", "ReceivePurchaseOrder")
	if err != nil {
		return nil, err
	}
	defer release()

	tx := db.Begin()
	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
			panic(r)
		}
	}()

	// Re-check under the lock: a concurrent receive may have won.
	var current PurchaseOrder
	if err := tx.WithContext(ctx).Where("org_id = ? AND id = ?", orgId, id).First(&current).Error; err != nil {
		tx.Rollback()
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, utils.ErrorRecordNotFound
		}
		return nil, err
	}
	if current.CurrentStatus == PurchaseOrderStatusReceived {
		tx.Rollback()
		return nil, ErrAlreadyReceived
	}

	if err := ApplyPurchaseOrderStockOnReceive(tx.WithContext(ctx), purchaseOrder); err != nil {
		tx.Rollback()
		return nil, err
	}

	now := time.Now().UTC()
	if err := tx.WithContext(ctx).Model(&PurchaseOrder{}).
		Where("org_id = ? AND id = ?", orgId, id).
		Updates(map[string]interface{}{
			"current_status": PurchaseOrderStatusReceived,
			"received_at":    &now,
		}).Error; err != nil {
		tx.Rollback()
		return nil, err
	}

	description := fmt.Sprintf("Purchase order %s received, %d item line(s) restocked.", purchaseOrder.OrderNumber, len(purchaseOrder.Items))
	if err := createHistory(tx.WithContext(ctx), "UPDATE", purchaseOrder.ID, "purchase_orders", PurchaseOrderStatusPending, PurchaseOrderStatusReceived, description); err != nil {
		tx.Rollback()
		return nil, err
	}

	if err := tx.Commit().Error; err != nil {
		return nil, err
	}

	purchaseOrder.CurrentStatus = PurchaseOrderStatusReceived
	purchaseOrder.ReceivedAt = &now
	return purchaseOrder, nil
}

func GetPurchaseOrder(ctx context.Context, id int) (*PurchaseOrder, error) {
	orgId, ok := utils.GetOrgIdFromContext(ctx)
	if !ok || orgId == "" {
		return nil, errors.New("org id is required")
	}
	return utils.FetchModel[PurchaseOrder](ctx, orgId, id, "Items", "Supplier")
}

func GetPurchaseOrders(ctx context.Context, supplierId *int, status *string) ([]*PurchaseOrder, error) {
	db := config.GetDB()

	orgId, ok := utils.GetOrgIdFromContext(ctx)
	if !ok || orgId == "" {
		return nil, errors.New("org id is required")
	}

	var results []*PurchaseOrder
	dbCtx := db.WithContext(ctx).Where("org_id = ?", orgId)
	if supplierId != nil && *supplierId > 0 {
		dbCtx = dbCtx.Where("supplier_id = ?", *supplierId)
	}
	if status != nil && *status != "" {
		parsed := PurchaseOrderStatus(*status)
		if !parsed.Valid() {
			return nil, newValidationError("status", "invalid purchase order status %q", *status)
		}
		dbCtx = dbCtx.Where("current_status = ?", parsed)
	}

	err := dbCtx.Preload("Items").Order("created_at DESC").Find(&results).Error
	if err != nil {
		return nil, err
	}
	return results, nil
}
