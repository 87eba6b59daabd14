package models

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/transafrica/fleetops_backend/config"
	"github.com/transafrica/fleetops_backend/utils"
)

type WorkOrder struct {
	ID            int             `gorm:"primary_key" json:"id"`
	OrgId         string          `gorm:"index;not null;uniqueIndex:idx_work_orders_org_number" json:"org_id"`
	SequenceNo    int64           `gorm:"not null" json:"sequence_no"`
	OrderNumber   string          `gorm:"size:20;not null;uniqueIndex:idx_work_orders_org_number" json:"order_number"`
	VehicleId     int             `gorm:"index;not null" json:"vehicle_id"`
	Terminal      Terminal        `gorm:"size:20;not null" json:"terminal"`
	WorkType      WorkType        `gorm:"size:20;not null" json:"work_type"`
	Priority      Priority        `gorm:"size:10;not null" json:"priority"`
	CurrentStatus WorkOrderStatus `gorm:"size:20;not null;index" json:"current_status"`
	Title         string          `gorm:"size:255;not null" json:"title"`
	Description   string          `gorm:"type:text" json:"description"`
	AssignedTo    string          `gorm:"size:100" json:"assigned_to"`
	ScheduledDate *time.Time      `json:"scheduled_date"`
	CompletedAt   *time.Time      `json:"completed_at"`
	LaborCost     decimal.Decimal `gorm:"type:decimal(20,4)" json:"labor_cost"`
	PartsCost     decimal.Decimal `gorm:"type:decimal(20,4)" json:"parts_cost"`
	TotalCost     decimal.Decimal `gorm:"type:decimal(20,4)" json:"total_cost"`
	Parts         []WorkOrderPart `gorm:"foreignKey:WorkOrderId" json:"parts"`
	Vehicle       *Vehicle        `gorm:"foreignKey:VehicleId" json:"vehicle,omitempty"`
	CreatedAt     time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt     time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

// WorkOrderPart is a consumed part line. Name, sku and unit cost are copied
// from the inventory item at creation time so the document stays stable when
// the item is later edited.
type WorkOrderPart struct {
	ID          int             `gorm:"primary_key" json:"id"`
	WorkOrderId int             `gorm:"index;not null" json:"work_order_id"`
	OrgId       string          `gorm:"index;not null" json:"org_id"`
	ItemId      int             `gorm:"index;not null" json:"item_id"`
	Sku         string          `gorm:"size:100;not null" json:"sku"`
	Name        string          `gorm:"size:255;not null" json:"name"`
	Quantity    int             `gorm:"not null" json:"quantity"`
	UnitCost    decimal.Decimal `gorm:"type:decimal(20,4)" json:"unit_cost"`
	TotalCost   decimal.Decimal `gorm:"type:decimal(20,4)" json:"total_cost"`
}

func (obj WorkOrder) GetOrgId() string {
	return obj.OrgId
}

func (obj WorkOrderPart) GetOrgId() string {
	return obj.OrgId
}

type NewWorkOrder struct {
	VehicleId     int             `json:"vehicle_id" binding:"required"`
	Terminal      string          `json:"terminal" binding:"required"`
	WorkType      string          `json:"work_type" binding:"required"`
	Priority      string          `json:"priority" binding:"required"`
	Title         string          `json:"title" binding:"required"`
	Description   string          `json:"description"`
	AssignedTo    string          `json:"assigned_to"`
	ScheduledDate *time.Time      `json:"scheduled_date"`
	LaborCost     decimal.Decimal `json:"labor_cost"`
	Parts         []*NewPartLine  `json:"parts" binding:"required"`
}

func (input *NewWorkOrder) validate(ctx context.Context, orgId string) error {
	if _, err := ParseTerminal(input.Terminal); err != nil {
		return newValidationError("terminal", "%s", err.Error())
	}
	if _, err := ParseWorkType(input.WorkType); err != nil {
		return newValidationError("work_type", "%s", err.Error())
	}
	if _, err := ParsePriority(input.Priority); err != nil {
		return newValidationError("priority", "%s", err.Error())
	}
	if input.LaborCost.IsNegative() {
		return newValidationError("labor_cost", "must not be negative")
	}
	if err := utils.ValidateResourceId[Vehicle](ctx, orgId, input.VehicleId); err != nil {
		return newValidationError("vehicle_id", "vehicle %d not found", input.VehicleId)
	}
	if len(input.Parts) == 0 {
		return newValidationError("parts", "at least one part line is required")
	}
	return nil
}

// workOrderTransitions is the allowed status transition table. Statuses not
// present as a key are terminal.
var workOrderTransitions = map[WorkOrderStatus][]WorkOrderStatus{
	WorkOrderStatusPending:    {WorkOrderStatusInProgress, WorkOrderStatusOnHold, WorkOrderStatusCancelled},
	WorkOrderStatusInProgress: {WorkOrderStatusOnHold, WorkOrderStatusCompleted, WorkOrderStatusCancelled},
	WorkOrderStatusOnHold:     {WorkOrderStatusInProgress, WorkOrderStatusCancelled},
}

func CanTransitionWorkOrder(from, to WorkOrderStatus) bool {
	for _, allowed := range workOrderTransitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}

// CreateWorkOrder creates a work order and consumes its part lines in one
// transaction: either every line decrements and the order exists, or nothing
// changed. A single short line (insufficient stock, unknown item) rolls the
// whole document back.
func CreateWorkOrder(ctx context.Context, input *NewWorkOrder) (*WorkOrder, error) {
	db := config.GetDB()

	orgId, ok := utils.GetOrgIdFromContext(ctx)
	if !ok || orgId == "" {
		return nil, errors.New("org id is required")
	}

	if err := input.validate(ctx, orgId); err != nil {
		return nil, err
	}

	release, err := utils.ObtainOrgLock(ctx, orgId, "stockLock", "workOrder.go", "CreateWorkOrder")
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

	seqNo, err := utils.GetSequence[WorkOrder](ctx, orgId)
	if err != nil {
		tx.Rollback()
		return nil, err
	}

	snapshots, err := snapshotPartLines(tx.WithContext(ctx), orgId, input.Parts)
	if err != nil {
		tx.Rollback()
		return nil, err
	}

	var partsCost decimal.Decimal
	parts := make([]WorkOrderPart, 0, len(snapshots))
	for _, snap := range snapshots {
		parts = append(parts, WorkOrderPart{
			OrgId:     orgId,
			ItemId:    snap.Item.ID,
			Sku:       snap.Item.Sku,
			Name:      snap.Item.Name,
			Quantity:  snap.Quantity,
			UnitCost:  snap.UnitCost,
			TotalCost: snap.TotalCost,
		})
		partsCost = partsCost.Add(snap.TotalCost)
	}

	terminal, _ := ParseTerminal(input.Terminal)
	workType, _ := ParseWorkType(input.WorkType)
	priority, _ := ParsePriority(input.Priority)

	workOrder := WorkOrder{
		OrgId:         orgId,
		SequenceNo:    seqNo,
		OrderNumber:   "WO-" + fmt.Sprint(seqNo),
		VehicleId:     input.VehicleId,
		Terminal:      terminal,
		WorkType:      workType,
		Priority:      priority,
		CurrentStatus: WorkOrderStatusPending,
		Title:         input.Title,
		Description:   input.Description,
		AssignedTo:    input.AssignedTo,
		ScheduledDate: input.ScheduledDate,
		LaborCost:     input.LaborCost,
		PartsCost:     partsCost,
		TotalCost:     input.LaborCost.Add(partsCost),
		Parts:         parts,
	}

	if err := tx.WithContext(ctx).Create(&workOrder).Error; err != nil {
		tx.Rollback()
		if utils.IsDuplicateKeyErr(err) {
			return nil, utils.ErrorDuplicateValue
		}
		return nil, err
	}

	if err := ApplyWorkOrderStockOnCreate(tx.WithContext(ctx), &workOrder); err != nil {
		tx.Rollback()
		return nil, err
	}

	description := fmt.Sprintf("Work order %s created with %d part line(s).", workOrder.OrderNumber, len(workOrder.Parts))
	if err := createHistory(tx.WithContext(ctx), "CREATE", workOrder.ID, "work_orders", nil, &workOrder, description); err != nil {
		tx.Rollback()
		return nil, err
	}

	if err := tx.Commit().Error; err != nil {
		return nil, err
	}

	return &workOrder, nil
}

// UpdateWorkOrderStatus transitions a work order per the transition table.
// Completing sets CompletedAt. Parts were consumed at creation, so
// cancellation restocks only when the org opted into the compensating
// behavior (see config.RestockOnWorkOrderCancel).
func UpdateWorkOrderStatus(ctx context.Context, id int, status string) (*WorkOrder, error) {
	db := config.GetDB()

	orgId, ok := utils.GetOrgIdFromContext(ctx)
	if !ok || orgId == "" {
		return nil, errors.New("org id is required")
	}

	newStatus, err := ParseWorkOrderStatus(status)
	if err != nil {
		return nil, newValidationError("status", "%s", err.Error())
	}

	workOrder, err := utils.FetchModel[WorkOrder](ctx, orgId, id, "Parts")
	if err != nil {
		return nil, err
	}

	oldStatus := workOrder.CurrentStatus
	if oldStatus == newStatus {
		return workOrder, nil
	}
	if !CanTransitionWorkOrder(oldStatus, newStatus) {
		return nil, &InvalidStateTransitionError{
			Entity: "work order",
			From:   string(oldStatus),
			To:     string(newStatus),
		}
	}

	restock := newStatus == WorkOrderStatusCancelled && config.RestockOnWorkOrderCancel()

	if restock {
		release, err := utils.ObtainOrgLock(ctx, orgId, "stockLock", "workOrder.go", "UpdateWorkOrderStatus")
		if err != nil {
			return nil, err
		}
		defer release()
	}

	tx := db.Begin()
	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
			panic(r)
		}
	}()

	updates := map[string]interface{}{"current_status": newStatus}
	if newStatus == WorkOrderStatusCompleted {
		now := time.Now().UTC()
		updates["completed_at"] = &now
	}
	// The status read above is unguarded, so the update only applies if the
	// row still carries it. Zero rows means a concurrent transition won.
	result := tx.WithContext(ctx).Model(&WorkOrder{}).
		Where("org_id = ? AND id = ? AND current_status = ?", orgId, id, oldStatus).
		Updates(updates)
	if result.Error != nil {
		tx.Rollback()
		return nil, result.Error
	}
	if result.RowsAffected == 0 {
		tx.Rollback()
		fresh, err := utils.FetchModel[WorkOrder](ctx, orgId, id)
		if err != nil {
			return nil, err
		}
		return nil, &InvalidStateTransitionError{
			Entity: "work order",
			From:   string(fresh.CurrentStatus),
			To:     string(newStatus),
		}
	}

	if restock {
		if err := ApplyWorkOrderStockOnCancel(tx.WithContext(ctx), workOrder); err != nil {
			tx.Rollback()
			return nil, err
		}
	}

	description := fmt.Sprintf("Work order %s: %s -> %s.", workOrder.OrderNumber, oldStatus, newStatus)
	if err := createHistory(tx.WithContext(ctx), "UPDATE", workOrder.ID, "work_orders", oldStatus, newStatus, description); err != nil {
		tx.Rollback()
		return nil, err
	}

	if err := tx.Commit().Error; err != nil {
		return nil, err
	}

	workOrder.CurrentStatus = newStatus
	if ts, ok := updates["completed_at"].(*time.Time); ok {
		workOrder.CompletedAt = ts
	}
	return workOrder, nil
}

func GetWorkOrder(ctx context.Context, id int) (*WorkOrder, error) {
	orgId, ok := utils.GetOrgIdFromContext(ctx)
	if !ok || orgId == "" {
		return nil, errors.New("org id is required")
	}
	return utils.FetchModel[WorkOrder](ctx, orgId, id, "Parts", "Vehicle")
}

func GetWorkOrders(ctx context.Context, vehicleId *int, status *string, terminal *string) ([]*WorkOrder, error) {
	db := config.GetDB()

	orgId, ok := utils.GetOrgIdFromContext(ctx)
	if !ok || orgId == "" {
		return nil, errors.New("org id is required")
	}

	var results []*WorkOrder
	dbCtx := db.WithContext(ctx).Where("org_id = ?", orgId)
	if vehicleId != nil && *vehicleId > 0 {
		dbCtx = dbCtx.Where("vehicle_id = ?", *vehicleId)
	}
	if status != nil && *status != "" {
		parsed, err := ParseWorkOrderStatus(*status)
		if err != nil {
			return nil, newValidationError("status", "%s", err.Error())
		}
		dbCtx = dbCtx.Where("current_status = ?", parsed)
	}
	if terminal != nil && *terminal != "" {
		parsed, err := ParseTerminal(*terminal)
		if err != nil {
			return nil, newValidationError("terminal", "%s", err.Error())
		}
		dbCtx = dbCtx.Where("terminal = ?", parsed)
	}

	err := dbCtx.Preload("Parts").Order("created_at DESC").Find(&results).Error
	if err != nil {
		return nil, err
	}
	return results, nil
}
