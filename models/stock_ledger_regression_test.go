package models_test

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"regexp"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/transafrica/fleetops_backend/config"
	"github.com/transafrica/fleetops_backend/models"
	"github.com/transafrica/fleetops_backend/utils"
)

// End-to-end ledger regression: part consumption on work order creation,
// insufficient-stock rejection with zero net effect, and idempotent purchase
// order receipt.
func TestStockLedgerEndToEnd(t *testing.T) {
	ctx := setupIntegrationEnv(t)

	vehicle, err := models.CreateVehicle(ctx, &models.NewVehicle{
		PlateNumber: "RAD 123 A",
		Make:        "Isuzu",
		Model:       "FRR",
		Year:        2019,
		Terminal:    "Kigali",
	})
	if err != nil {
		t.Fatalf("CreateVehicle: %v", err)
	}

	supplier, err := models.CreateSupplier(ctx, &models.NewSupplier{
		Name: "Lakeside Auto Parts",
	})
	if err != nil {
		t.Fatalf("CreateSupplier: %v", err)
	}

	oil, err := models.CreateInventoryItem(ctx, &models.NewInventoryItem{
		Sku:        "OIL-5L",
		Name:       "Engine Oil 5L",
		Category:   "fluids",
		Unit:       "bottle",
		Quantity:   10,
		UnitCost:   decimal.NewFromInt(20),
		SupplierId: supplier.ID,
	})
	if err != nil {
		t.Fatalf("CreateInventoryItem: %v", err)
	}
	if oil.SeedQuantity != 10 {
		t.Fatalf("expected seed quantity 10, got %d", oil.SeedQuantity)
	}

	// Seeding must not produce a movement: the seed is the reconciliation base.
	movements, err := models.GetStockMovements(ctx, &oil.ID, nil)
	if err != nil {
		t.Fatalf("GetStockMovements: %v", err)
	}
	if len(movements) != 0 {
		t.Fatalf("expected no movements after seeding, got %d", len(movements))
	}

	workOrder, err := models.CreateWorkOrder(ctx, &models.NewWorkOrder{
		VehicleId: vehicle.ID,
		Terminal:  "Kigali",
		WorkType:  "maintenance",
		Priority:  "medium",
		Title:     "Oil change",
		Parts:     []*models.NewPartLine{{ItemId: oil.ID, Quantity: 3}},
	})
	if err != nil {
		t.Fatalf("CreateWorkOrder: %v", err)
	}
	if workOrder.CurrentStatus != models.WorkOrderStatusPending {
		t.Fatalf("expected pending, got %s", workOrder.CurrentStatus)
	}
	if !strings.HasPrefix(workOrder.OrderNumber, "WO-") {
		t.Fatalf("unexpected order number %q", workOrder.OrderNumber)
	}
	if workOrder.PartsCost.Cmp(decimal.NewFromInt(60)) != 0 {
		t.Fatalf("expected parts cost 60, got %s", workOrder.PartsCost)
	}

	item, err := models.GetInventoryItem(ctx, oil.ID)
	if err != nil {
		t.Fatalf("GetInventoryItem: %v", err)
	}
	if item.Quantity != 7 {
		t.Fatalf("expected quantity 7 after consuming 3, got %d", item.Quantity)
	}

	movements, err = models.GetStockMovements(ctx, &oil.ID, nil)
	if err != nil {
		t.Fatalf("GetStockMovements: %v", err)
	}
	if len(movements) != 1 {
		t.Fatalf("expected 1 movement, got %d", len(movements))
	}
	if movements[0].Delta != -3 || movements[0].Reason != models.MovementReasonMaintenance {
		t.Fatalf("unexpected movement: delta=%d reason=%s", movements[0].Delta, movements[0].Reason)
	}
	if movements[0].Reference != workOrder.OrderNumber {
		t.Fatalf("expected reference %q, got %q", workOrder.OrderNumber, movements[0].Reference)
	}
	if movements[0].ClosingQty != 7 {
		t.Fatalf("expected closing qty 7, got %d", movements[0].ClosingQty)
	}

	// A second order needing 8 bottles must fail whole and move nothing.
	_, err = models.CreateWorkOrder(ctx, &models.NewWorkOrder{
		VehicleId: vehicle.ID,
		Terminal:  "Kigali",
		WorkType:  "repair",
		Priority:  "high",
		Title:     "Gearbox overhaul",
		Parts:     []*models.NewPartLine{{ItemId: oil.ID, Quantity: 8}},
	})
	if !models.IsInsufficientStock(err) {
		t.Fatalf("expected InsufficientStockError, got %v", err)
	}

	item, err = models.GetInventoryItem(ctx, oil.ID)
	if err != nil {
		t.Fatalf("GetInventoryItem: %v", err)
	}
	if item.Quantity != 7 {
		t.Fatalf("failed order must not move stock; expected 7, got %d", item.Quantity)
	}
	movements, _ = models.GetStockMovements(ctx, &oil.ID, nil)
	if len(movements) != 1 {
		t.Fatalf("failed order must not append movements; expected 1, got %d", len(movements))
	}

	// Purchase receipt: +20 bottles, totalAmount = 20 × 20.
	purchaseOrder, err := models.CreatePurchaseOrder(ctx, &models.NewPurchaseOrder{
		SupplierId: supplier.ID,
		OrderDate:  time.Now().UTC(),
		Items:      []*models.NewPartLine{{ItemId: oil.ID, Quantity: 20}},
	})
	if err != nil {
		t.Fatalf("CreatePurchaseOrder: %v", err)
	}
	if purchaseOrder.TotalAmount.Cmp(decimal.NewFromInt(400)) != 0 {
		t.Fatalf("expected total amount 400, got %s", purchaseOrder.TotalAmount)
	}
	if purchaseOrder.CurrentStatus != models.PurchaseOrderStatusPending {
		t.Fatalf("expected pending, got %s", purchaseOrder.CurrentStatus)
	}

	received, err := models.ReceivePurchaseOrder(ctx, purchaseOrder.ID)
	if err != nil {
		t.Fatalf("ReceivePurchaseOrder: %v", err)
	}
	if received.CurrentStatus != models.PurchaseOrderStatusReceived {
		t.Fatalf("expected received, got %s", received.CurrentStatus)
	}

	item, err = models.GetInventoryItem(ctx, oil.ID)
	if err != nil {
		t.Fatalf("GetInventoryItem: %v", err)
	}
	if item.Quantity != 27 {
		t.Fatalf("expected quantity 27 after receipt, got %d", item.Quantity)
	}

	// Re-receiving is rejected and moves nothing.
	_, err = models.ReceivePurchaseOrder(ctx, purchaseOrder.ID)
	if !errors.Is(err, models.ErrAlreadyReceived) {
		t.Fatalf("expected ErrAlreadyReceived, got %v", err)
	}
	item, _ = models.GetInventoryItem(ctx, oil.ID)
	if item.Quantity != 27 {
		t.Fatalf("duplicate receipt must not move stock; expected 27, got %d", item.Quantity)
	}

	movements, _ = models.GetStockMovements(ctx, &oil.ID, nil)
	if len(movements) != 2 {
		t.Fatalf("expected 2 movements, got %d", len(movements))
	}

	// Reconciliation invariant: seed + sum(deltas) == current quantity.
	sum := 0
	for _, m := range movements {
		sum += m.Delta
	}
	if item.SeedQuantity+sum != item.Quantity {
		t.Fatalf("reconciliation broken: seed=%d + deltas=%d != quantity=%d",
			item.SeedQuantity, sum, item.Quantity)
	}
}

func TestScheduleCompletionConsumesPartsAndAdvances(t *testing.T) {
	ctx := setupIntegrationEnv(t)

	vehicle, err := models.CreateVehicle(ctx, &models.NewVehicle{
		PlateNumber: "UAH 456 B",
		Terminal:    "Kampala",
	})
	if err != nil {
		t.Fatalf("CreateVehicle: %v", err)
	}

	filter, err := models.CreateInventoryItem(ctx, &models.NewInventoryItem{
		Sku:      "FLT-01",
		Name:     "Oil Filter",
		Quantity: 5,
		UnitCost: decimal.NewFromInt(8),
	})
	if err != nil {
		t.Fatalf("CreateInventoryItem: %v", err)
	}

	nextDue := time.Date(2026, 9, 10, 0, 0, 0, 0, time.UTC)
	schedule, err := models.CreateMaintenanceSchedule(ctx, &models.NewMaintenanceSchedule{
		VehicleId:       vehicle.ID,
		MaintenanceType: "oil_change",
		Title:           "Quarterly service",
		Frequency:       "quarterly",
		Interval:        1,
		NextDue:         nextDue,
		Priority:        "medium",
		Terminal:        "Kampala",
		RequiredParts:   []*models.NewPartLine{{ItemId: filter.ID, Quantity: 2}},
	})
	if err != nil {
		t.Fatalf("CreateMaintenanceSchedule: %v", err)
	}

	// Creating the schedule reserves nothing.
	item, _ := models.GetInventoryItem(ctx, filter.ID)
	if item.Quantity != 5 {
		t.Fatalf("schedule creation must not move stock; expected 5, got %d", item.Quantity)
	}

	completed, err := models.CompleteMaintenanceSchedule(ctx, schedule.ID, nil)
	if err != nil {
		t.Fatalf("CompleteMaintenanceSchedule: %v", err)
	}
	if completed.CurrentStatus != models.ScheduleStatusScheduled {
		t.Fatalf("recurring schedule must reset to scheduled, got %s", completed.CurrentStatus)
	}
	want := nextDue.AddDate(0, 3, 0)
	if !completed.NextDue.Equal(want) {
		t.Fatalf("expected next due %s, got %s", want.Format("2006-01-02"), completed.NextDue.Format("2006-01-02"))
	}
	if completed.CompletedCount != 1 {
		t.Fatalf("expected completed count 1, got %d", completed.CompletedCount)
	}

	item, _ = models.GetInventoryItem(ctx, filter.ID)
	if item.Quantity != 3 {
		t.Fatalf("expected 3 filters left, got %d", item.Quantity)
	}

	reference := fmt.Sprintf("MS-%d", schedule.ID)
	movements, err := models.GetStockMovements(ctx, &filter.ID, &reference)
	if err != nil {
		t.Fatalf("GetStockMovements: %v", err)
	}
	if len(movements) != 1 || movements[0].Delta != -2 {
		t.Fatalf("expected one -2 movement referencing %s, got %+v", reference, movements)
	}
}

func TestWorkOrderCancelKeepsPartsConsumed(t *testing.T) {
	ctx := setupIntegrationEnv(t)

	vehicle, err := models.CreateVehicle(ctx, &models.NewVehicle{
		PlateNumber: "KCB 789 C",
		Terminal:    "Nairobi",
	})
	if err != nil {
		t.Fatalf("CreateVehicle: %v", err)
	}
	pads, err := models.CreateInventoryItem(ctx, &models.NewInventoryItem{
		Sku:      "BRK-PAD",
		Name:     "Brake Pads",
		Quantity: 6,
		UnitCost: decimal.NewFromInt(35),
	})
	if err != nil {
		t.Fatalf("CreateInventoryItem: %v", err)
	}

	workOrder, err := models.CreateWorkOrder(ctx, &models.NewWorkOrder{
		VehicleId: vehicle.ID,
		Terminal:  "Nairobi",
		WorkType:  "repair",
		Priority:  "high",
		Title:     "Brake job",
		Parts:     []*models.NewPartLine{{ItemId: pads.ID, Quantity: 4}},
	})
	if err != nil {
		t.Fatalf("CreateWorkOrder: %v", err)
	}

	// Skipping pending -> completed is illegal.
	_, err = models.UpdateWorkOrderStatus(ctx, workOrder.ID, "completed")
	if !models.IsInvalidStateTransition(err) {
		t.Fatalf("expected InvalidStateTransitionError, got %v", err)
	}

	cancelled, err := models.UpdateWorkOrderStatus(ctx, workOrder.ID, "cancelled")
	if err != nil {
		t.Fatalf("UpdateWorkOrderStatus: %v", err)
	}
	if cancelled.CurrentStatus != models.WorkOrderStatusCancelled {
		t.Fatalf("expected cancelled, got %s", cancelled.CurrentStatus)
	}

	// Default policy: cancellation does not return consumed parts.
	item, _ := models.GetInventoryItem(ctx, pads.ID)
	if item.Quantity != 2 {
		t.Fatalf("cancellation must not restock by default; expected 2, got %d", item.Quantity)
	}

	// Terminal state: no further transitions.
	_, err = models.UpdateWorkOrderStatus(ctx, workOrder.ID, "in_progress")
	if !models.IsInvalidStateTransition(err) {
		t.Fatalf("expected InvalidStateTransitionError from cancelled, got %v", err)
	}
}

// A multi-line order where a later line is short must roll back the earlier
// lines too: no quantity change and no movements for any line.
func TestWorkOrderMultiLineShortfallRollsBackEveryLine(t *testing.T) {
	ctx := setupIntegrationEnv(t)

	vehicle, err := models.CreateVehicle(ctx, &models.NewVehicle{
		PlateNumber: "SSD 321 D",
		Terminal:    "Juba",
	})
	if err != nil {
		t.Fatalf("CreateVehicle: %v", err)
	}
	coolant, err := models.CreateInventoryItem(ctx, &models.NewInventoryItem{
		Sku:      "CLT-01",
		Name:     "Coolant 1L",
		Quantity: 10,
		UnitCost: decimal.NewFromInt(6),
	})
	if err != nil {
		t.Fatalf("CreateInventoryItem: %v", err)
	}
	belt, err := models.CreateInventoryItem(ctx, &models.NewInventoryItem{
		Sku:      "BLT-01",
		Name:     "Fan Belt",
		Quantity: 1,
		UnitCost: decimal.NewFromInt(14),
	})
	if err != nil {
		t.Fatalf("CreateInventoryItem: %v", err)
	}

	_, err = models.CreateWorkOrder(ctx, &models.NewWorkOrder{
		VehicleId: vehicle.ID,
		Terminal:  "Juba",
		WorkType:  "maintenance",
		Priority:  "medium",
		Title:     "Cooling system service",
		Parts: []*models.NewPartLine{
			{ItemId: coolant.ID, Quantity: 2},
			{ItemId: belt.ID, Quantity: 5},
		},
	})
	if !models.IsInsufficientStock(err) {
		t.Fatalf("expected InsufficientStockError, got %v", err)
	}

	item, _ := models.GetInventoryItem(ctx, coolant.ID)
	if item.Quantity != 10 {
		t.Fatalf("earlier line must roll back with the failed one; expected 10, got %d", item.Quantity)
	}
	for _, id := range []int{coolant.ID, belt.ID} {
		movements, _ := models.GetStockMovements(ctx, &id, nil)
		if len(movements) != 0 {
			t.Fatalf("failed order must append no movements for item %d, got %d", id, len(movements))
		}
	}
}

// Two racing cancels must write the compensating restock exactly once.
func TestConcurrentCancelRestocksOnce(t *testing.T) {
	ctx := setupIntegrationEnv(t)
	t.Setenv("RESTOCK_ON_WORK_ORDER_CANCEL", "true")

	vehicle, err := models.CreateVehicle(ctx, &models.NewVehicle{
		PlateNumber: "RAD 654 E",
		Terminal:    "Kigali",
	})
	if err != nil {
		t.Fatalf("CreateVehicle: %v", err)
	}
	plugs, err := models.CreateInventoryItem(ctx, &models.NewInventoryItem{
		Sku:      "PLG-01",
		Name:     "Spark Plugs",
		Quantity: 6,
		UnitCost: decimal.NewFromInt(9),
	})
	if err != nil {
		t.Fatalf("CreateInventoryItem: %v", err)
	}
	workOrder, err := models.CreateWorkOrder(ctx, &models.NewWorkOrder{
		VehicleId: vehicle.ID,
		Terminal:  "Kigali",
		WorkType:  "maintenance",
		Priority:  "low",
		Title:     "Plug replacement",
		Parts:     []*models.NewPartLine{{ItemId: plugs.ID, Quantity: 4}},
	})
	if err != nil {
		t.Fatalf("CreateWorkOrder: %v", err)
	}

	var wg sync.WaitGroup
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			// The loser either no-ops on the already-cancelled order or is
			// rejected by the guarded update; neither may restock again.
			_, _ = models.UpdateWorkOrderStatus(ctx, workOrder.ID, "cancelled")
		}()
	}
	wg.Wait()

	item, _ := models.GetInventoryItem(ctx, plugs.ID)
	if item.Quantity != 6 {
		t.Fatalf("expected exactly one restock back to 6, got %d", item.Quantity)
	}
	movements, _ := models.GetStockMovements(ctx, &plugs.ID, nil)
	restocks := 0
	for _, m := range movements {
		if m.Delta > 0 {
			restocks++
		}
	}
	if restocks != 1 {
		t.Fatalf("expected exactly one compensating movement, got %d", restocks)
	}
}

// Two racing completions of a terminally-completing schedule must consume the
// required parts exactly once.
func TestConcurrentScheduleCompletionConsumesOnce(t *testing.T) {
	ctx := setupIntegrationEnv(t)

	vehicle, err := models.CreateVehicle(ctx, &models.NewVehicle{
		PlateNumber: "UAH 987 F",
		Terminal:    "Kampala",
	})
	if err != nil {
		t.Fatalf("CreateVehicle: %v", err)
	}
	grease, err := models.CreateInventoryItem(ctx, &models.NewInventoryItem{
		Sku:      "GRS-01",
		Name:     "Bearing Grease",
		Quantity: 4,
		UnitCost: decimal.NewFromInt(5),
	})
	if err != nil {
		t.Fatalf("CreateInventoryItem: %v", err)
	}
	schedule, err := models.CreateMaintenanceSchedule(ctx, &models.NewMaintenanceSchedule{
		VehicleId:       vehicle.ID,
		MaintenanceType: "general_inspection",
		Title:           "Bearing check",
		Frequency:       "custom",
		NextDue:         time.Now().UTC().AddDate(0, 0, 7),
		Priority:        "low",
		Terminal:        "Kampala",
		RequiredParts:   []*models.NewPartLine{{ItemId: grease.ID, Quantity: 1}},
	})
	if err != nil {
		t.Fatalf("CreateMaintenanceSchedule: %v", err)
	}

	var wg sync.WaitGroup
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = models.CompleteMaintenanceSchedule(ctx, schedule.ID, nil)
		}()
	}
	wg.Wait()

	got, err := models.GetMaintenanceSchedule(ctx, schedule.ID)
	if err != nil {
		t.Fatalf("GetMaintenanceSchedule: %v", err)
	}
	if got.CurrentStatus != models.ScheduleStatusCompleted {
		t.Fatalf("custom schedule without next due must complete terminally, got %s", got.CurrentStatus)
	}
	if got.CompletedCount != 1 {
		t.Fatalf("expected completed count 1, got %d", got.CompletedCount)
	}
	item, _ := models.GetInventoryItem(ctx, grease.ID)
	if item.Quantity != 3 {
		t.Fatalf("parts must be consumed exactly once; expected 3, got %d", item.Quantity)
	}
	movements, _ := models.GetStockMovements(ctx, &grease.ID, nil)
	if len(movements) != 1 {
		t.Fatalf("expected one movement, got %d", len(movements))
	}
}

// The schema rejects a second document carrying an org's order number.
func TestOrderNumbersUniquePerOrg(t *testing.T) {
	ctx := setupIntegrationEnv(t)
	orgId, _ := utils.GetOrgIdFromContext(ctx)

	vehicle, err := models.CreateVehicle(ctx, &models.NewVehicle{
		PlateNumber: "KCB 147 G",
		Terminal:    "Nairobi",
	})
	if err != nil {
		t.Fatalf("CreateVehicle: %v", err)
	}
	supplier, err := models.CreateSupplier(ctx, &models.NewSupplier{Name: "Ridge Spares"})
	if err != nil {
		t.Fatalf("CreateSupplier: %v", err)
	}
	bulbs, err := models.CreateInventoryItem(ctx, &models.NewInventoryItem{
		Sku:      "BLB-01",
		Name:     "Headlight Bulb",
		Quantity: 8,
		UnitCost: decimal.NewFromInt(3),
	})
	if err != nil {
		t.Fatalf("CreateInventoryItem: %v", err)
	}

	workOrder, err := models.CreateWorkOrder(ctx, &models.NewWorkOrder{
		VehicleId: vehicle.ID,
		Terminal:  "Nairobi",
		WorkType:  "repair",
		Priority:  "low",
		Title:     "Headlight swap",
		Parts:     []*models.NewPartLine{{ItemId: bulbs.ID, Quantity: 1}},
	})
	if err != nil {
		t.Fatalf("CreateWorkOrder: %v", err)
	}
	dupOrder := models.WorkOrder{
		OrgId:         orgId,
		SequenceNo:    workOrder.SequenceNo,
		OrderNumber:   workOrder.OrderNumber,
		VehicleId:     vehicle.ID,
		Terminal:      workOrder.Terminal,
		WorkType:      workOrder.WorkType,
		Priority:      workOrder.Priority,
		CurrentStatus: models.WorkOrderStatusPending,
		Title:         "Duplicate number",
	}
	if err := config.GetDB().Create(&dupOrder).Error; !utils.IsDuplicateKeyErr(err) {
		t.Fatalf("expected duplicate key error for %s, got %v", workOrder.OrderNumber, err)
	}

	purchaseOrder, err := models.CreatePurchaseOrder(ctx, &models.NewPurchaseOrder{
		SupplierId: supplier.ID,
		OrderDate:  time.Now().UTC(),
		Items:      []*models.NewPartLine{{ItemId: bulbs.ID, Quantity: 10}},
	})
	if err != nil {
		t.Fatalf("CreatePurchaseOrder: %v", err)
	}
	dupPO := models.PurchaseOrder{
		OrgId:         orgId,
		SequenceNo:    purchaseOrder.SequenceNo,
		OrderNumber:   purchaseOrder.OrderNumber,
		SupplierId:    supplier.ID,
		OrderDate:     time.Now().UTC(),
		CurrentStatus: models.PurchaseOrderStatusPending,
	}
	if err := config.GetDB().Create(&dupPO).Error; !utils.IsDuplicateKeyErr(err) {
		t.Fatalf("expected duplicate key error for %s, got %v", purchaseOrder.OrderNumber, err)
	}
}

// Query failures other than a missing row must not surface as not-found.
func TestFetchErrorsAreNotMaskedAsNotFound(t *testing.T) {
	ctx := setupIntegrationEnv(t)

	item, err := models.CreateInventoryItem(ctx, &models.NewInventoryItem{
		Sku:      "WPR-01",
		Name:     "Wiper Blade",
		Quantity: 2,
		UnitCost: decimal.NewFromInt(4),
	})
	if err != nil {
		t.Fatalf("CreateInventoryItem: %v", err)
	}

	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	_, err = models.GetInventoryItem(cancelled, item.ID)
	if err == nil {
		t.Fatalf("expected error from cancelled context")
	}
	if errors.Is(err, utils.ErrorRecordNotFound) {
		t.Fatalf("cancelled context must not read as not-found: %v", err)
	}
}

// setupIntegrationEnv starts throwaway MySQL and redis containers, connects
// the app to them, and returns a context carrying a seeded test identity.
func setupIntegrationEnv(t *testing.T) context.Context {
	t.Helper()
	if strings.TrimSpace(os.Getenv("INTEGRATION_TESTS")) == "" {
		t.Skip("set INTEGRATION_TESTS=1 to run integration tests (requires docker)")
	}

	redisName, redisPort := startRedisContainer(t)
	t.Cleanup(func() { _ = dockerRmForce(redisName) })

	mysqlName, mysqlPort := startMySQLContainer(t)
	t.Cleanup(func() { _ = dockerRmForce(mysqlName) })

	t.Setenv("REDIS_ADDRESS", fmt.Sprintf("127.0.0.1:%s", redisPort))
	t.Setenv("DB_USER", "root")
	t.Setenv("DB_PASSWORD", "testpw")
	t.Setenv("DB_HOST", "127.0.0.1")
	t.Setenv("DB_PORT", mysqlPort)
	t.Setenv("DB_NAME", "fleetops_test")

	config.ConnectDatabaseWithRetry()
	config.ConnectRedisWithRetry()
	models.MigrateTable()

	orgId := fmt.Sprintf("org-%d", time.Now().UnixNano())
	user := models.User{
		OrgId:    orgId,
		Username: fmt.Sprintf("tester-%d@local", time.Now().UnixNano()),
		Name:     "Tester",
		Role:     models.UserRoleManager,
	}
	if err := config.GetDB().Create(&user).Error; err != nil {
		t.Fatalf("seed user: %v", err)
	}

	ctx := context.Background()
	ctx = utils.SetOrgIdInContext(ctx, orgId)
	ctx = utils.SetUserIdInContext(ctx, user.ID)
	ctx = utils.SetUserNameInContext(ctx, user.Name)
	ctx = utils.SetUsernameInContext(ctx, user.Username)
	return ctx
}

func startRedisContainer(t *testing.T) (containerName, hostPort string) {
	t.Helper()
	name := fmt.Sprintf("fleetops-test-redis-%d", time.Now().UnixNano())
	out, err := dockerRun(
		"run", "-d", "--name", name,
		"-p", "127.0.0.1:0:6379",
		"redis:7-alpine",
	)
	if err != nil {
		t.Fatalf("start redis container: %v\n%s", err, out)
	}
	port, err := dockerHostPort(name, "6379/tcp")
	if err != nil {
		t.Fatalf("redis docker port: %v", err)
	}
	deadline := time.Now().Add(60 * time.Second)
	for time.Now().Before(deadline) {
		_, err := dockerRun("exec", name, "redis-cli", "ping")
		if err == nil {
			return name, port
		}
		time.Sleep(250 * time.Millisecond)
	}
	t.Fatalf("redis did not become ready")
	return "", ""
}

func startMySQLContainer(t *testing.T) (containerName, hostPort string) {
	t.Helper()
	name := fmt.Sprintf("fleetops-test-mysql-%d", time.Now().UnixNano())
	out, err := dockerRun(
		"run", "-d", "--name", name,
		"-e", "MYSQL_ROOT_PASSWORD=testpw",
		"-e", "MYSQL_DATABASE=fleetops_test",
		"-p", "127.0.0.1:0:3306",
		"mysql:8.0",
		"--default-authentication-plugin=mysql_native_password",
	)
	if err != nil {
		t.Fatalf("start mysql container: %v\n%s", err, out)
	}
	port, err := dockerHostPort(name, "3306/tcp")
	if err != nil {
		t.Fatalf("mysql docker port: %v", err)
	}
	deadline := time.Now().Add(120 * time.Second)
	for time.Now().Before(deadline) {
		_, err := dockerRun("exec", name, "mysqladmin", "ping", "-h", "127.0.0.1", "-ptestpw", "--silent")
		if err == nil {
			return name, port
		}
		time.Sleep(500 * time.Millisecond)
	}
	t.Fatalf("mysql did not become ready")
	return "", ""
}

func dockerHostPort(container, portProto string) (string, error) {
	out, err := dockerRun("port", container, portProto)
	if err != nil {
		return "", fmt.Errorf("docker port: %w: %s", err, out)
	}
	re := regexp.MustCompile(`:(\d+)`)
	m := re.FindStringSubmatch(out)
	if len(m) != 2 {
		return "", fmt.Errorf("unexpected docker port output: %q", out)
	}
	return m[1], nil
}

func dockerRmForce(container string) error {
	if strings.TrimSpace(container) == "" {
		return nil
	}
	_, err := dockerRun("rm", "-f", container)
	return err
}

func dockerRun(args ...string) (string, error) {
	cmd := exec.Command("docker", args...)
	b, err := cmd.CombinedOutput()
	return string(b), err
}
