package models

import (
	"fmt"

	"gorm.io/gorm"
)

// ApplyMaintenanceScheduleStockOnComplete consumes every required part line.
// Runs inside the CompleteMaintenanceSchedule transaction; a single short
// line rolls back the whole completion, so a schedule is never half-consumed.
func ApplyMaintenanceScheduleStockOnComplete(tx *gorm.DB, schedule *MaintenanceSchedule) error {
	if tx == nil {
		return fmt.Errorf("tx is nil")
	}
	if schedule == nil {
		return fmt.Errorf("maintenance schedule is nil")
	}

	reference := fmt.Sprintf("MS-%d", schedule.ID)
	for _, part := range schedule.RequiredParts {
		if _, err := ApplyInventoryDelta(
			tx,
			schedule.OrgId,
			part.ItemId,
			-part.Quantity,
			MovementReasonMaintenance,
			reference,
		); err != nil {
			return err
		}
	}
	return nil
}
