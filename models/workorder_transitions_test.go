package models_test

import (
	"testing"

	"github.com/transafrica/fleetops_backend/models"
)

func TestCanTransitionWorkOrder(t *testing.T) {
	allowed := []struct{ from, to models.WorkOrderStatus }{
		{models.WorkOrderStatusPending, models.WorkOrderStatusInProgress},
		{models.WorkOrderStatusPending, models.WorkOrderStatusOnHold},
		{models.WorkOrderStatusPending, models.WorkOrderStatusCancelled},
		{models.WorkOrderStatusInProgress, models.WorkOrderStatusCompleted},
		{models.WorkOrderStatusInProgress, models.WorkOrderStatusOnHold},
		{models.WorkOrderStatusInProgress, models.WorkOrderStatusCancelled},
		{models.WorkOrderStatusOnHold, models.WorkOrderStatusInProgress},
		{models.WorkOrderStatusOnHold, models.WorkOrderStatusCancelled},
	}
	for _, tc := range allowed {
		if !models.CanTransitionWorkOrder(tc.from, tc.to) {
			t.Errorf("expected %s -> %s to be allowed", tc.from, tc.to)
		}
	}

	denied := []struct{ from, to models.WorkOrderStatus }{
		{models.WorkOrderStatusPending, models.WorkOrderStatusCompleted},
		{models.WorkOrderStatusOnHold, models.WorkOrderStatusCompleted},
		{models.WorkOrderStatusCompleted, models.WorkOrderStatusInProgress},
		{models.WorkOrderStatusCompleted, models.WorkOrderStatusCancelled},
		{models.WorkOrderStatusCancelled, models.WorkOrderStatusPending},
		{models.WorkOrderStatusCancelled, models.WorkOrderStatusInProgress},
	}
	for _, tc := range denied {
		if models.CanTransitionWorkOrder(tc.from, tc.to) {
			t.Errorf("expected %s -> %s to be rejected", tc.from, tc.to)
		}
	}
}

func TestWorkOrderStatusFinal(t *testing.T) {
	if !models.WorkOrderStatusCompleted.Final() || !models.WorkOrderStatusCancelled.Final() {
		t.Fatal("completed and cancelled must be final")
	}
	for _, s := range []models.WorkOrderStatus{
		models.WorkOrderStatusPending,
		models.WorkOrderStatusInProgress,
		models.WorkOrderStatusOnHold,
	} {
		if s.Final() {
			t.Errorf("%s must not be final", s)
		}
	}
}

func TestEnumParsing(t *testing.T) {
	if _, err := models.ParseTerminal("Kigali"); err != nil {
		t.Errorf("Kigali: %v", err)
	}
	if _, err := models.ParseTerminal("kigali"); err == nil {
		t.Error("terminal names are case sensitive; lowercase must fail")
	}
	if _, err := models.ParseWorkType("preventive"); err != nil {
		t.Errorf("preventive: %v", err)
	}
	if _, err := models.ParsePriority("critical"); err != nil {
		t.Errorf("critical: %v", err)
	}
	if _, err := models.ParseStockMovementReason("purchase_receipt"); err != nil {
		t.Errorf("purchase_receipt: %v", err)
	}
	if _, err := models.ParseStockMovementReason("theft"); err == nil {
		t.Error("expected unknown reason to fail")
	}
	if _, err := models.ParseMaintenanceFrequency("semi_annually"); err != nil {
		t.Errorf("semi_annually: %v", err)
	}
	if !models.FrequencyMonthly.CalendarBased() {
		t.Error("monthly must be calendar based")
	}
	if models.FrequencyMileageBased.CalendarBased() || models.FrequencyCustom.CalendarBased() {
		t.Error("mileage_based and custom must not be calendar based")
	}
}
