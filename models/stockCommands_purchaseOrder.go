package models

import (
	"fmt"

	"gorm.io/gorm"
)

// ApplyPurchaseOrderStockOnReceive increments stock for every ordered line.
// Positive deltas cannot underflow, so the only failure modes here are an
// unknown item or a storage error. Must run inside the ReceivePurchaseOrder
// transaction.
func ApplyPurchaseOrderStockOnReceive(tx *gorm.DB, purchaseOrder *PurchaseOrder) error {
	if tx == nil {
		return fmt.Errorf("tx is nil")
	}
	if purchaseOrder == nil {
		return fmt.Errorf("purchase order is nil")
	}

	for _, item := range purchaseOrder.Items {
		if _, err := ApplyInventoryDelta(
			tx,
			purchaseOrder.OrgId,
			item.ItemId,
			item.Quantity,
			MovementReasonPurchaseReceipt,
			purchaseOrder.OrderNumber,
		); err != nil {
			return err
		}
	}
	return nil
}
