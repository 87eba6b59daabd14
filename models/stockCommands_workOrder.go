package models

import (
	"fmt"

	"gorm.io/gorm"
)

// ApplyWorkOrderStockOnCreate consumes every part line on the order. Parts
// come out of stock when the order is created, not when it completes, so
// they cannot be promised twice.
//
// This is the explicit, command-style replacement for implicit GORM
// model-hook side-effects. Must run inside the CreateWorkOrder transaction.
func ApplyWorkOrderStockOnCreate(tx *gorm.DB, workOrder *WorkOrder) error {
	if tx == nil {
		return fmt.Errorf("tx is nil")
	}
	if workOrder == nil {
		return fmt.Errorf("work order is nil")
	}

	for _, part := range workOrder.Parts {
		if _, err := ApplyInventoryDelta(
			tx,
			workOrder.OrgId,
			part.ItemId,
			-part.Quantity,
			MovementReasonMaintenance,
			workOrder.OrderNumber,
		); err != nil {
			return err
		}
	}
	return nil
}

// ApplyWorkOrderStockOnCancel returns every part line to stock. Only invoked
// when the org has opted into compensating restock on cancellation; the
// default keeps consumed parts consumed.
func ApplyWorkOrderStockOnCancel(tx *gorm.DB, workOrder *WorkOrder) error {
	if tx == nil {
		return fmt.Errorf("tx is nil")
	}
	if workOrder == nil {
		return fmt.Errorf("work order is nil")
	}

	for _, part := range workOrder.Parts {
		if _, err := ApplyInventoryDelta(
			tx,
			workOrder.OrgId,
			part.ItemId,
			part.Quantity,
			MovementReasonManualAdjustment,
			workOrder.OrderNumber,
		); err != nil {
			return err
		}
	}
	return nil
}
