package models

import (
	"log"

	"github.com/transafrica/fleetops_backend/config"
)

func MigrateTable() {
	db := config.GetDB()

	err := db.AutoMigrate(
		&InventoryItem{}, &StockMovement{},
		&WorkOrder{}, &WorkOrderPart{},
		&MaintenanceSchedule{}, &MaintenanceSchedulePart{},
		&PurchaseOrder{}, &PurchaseOrderItem{},
		&Vehicle{}, &Supplier{},
		&History{},
		&User{},
	)
	if err != nil {
		log.Fatal(err)
	}
}
