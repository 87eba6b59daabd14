package main

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/transafrica/fleetops_backend/models"
	"github.com/transafrica/fleetops_backend/utils"
)

// respondError maps the engine's error taxonomy to HTTP statuses. Validation
// failures are 422, state conflicts (insufficient stock, illegal transitions,
// duplicate receipt) are 409, unknown ids are 404.
func respondError(c *gin.Context, err error) {
	switch {
	case models.IsValidation(err):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
	case models.IsInsufficientStock(err):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case models.IsInvalidStateTransition(err):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, models.ErrAlreadyReceived):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, utils.ErrorRecordNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, utils.ErrorDuplicateValue):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	default:
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
	}
}

func pathId(c *gin.Context) (int, bool) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return 0, false
	}
	return id, true
}

func optionalIntQuery(c *gin.Context, name string) *int {
	raw := c.Query(name)
	if raw == "" {
		return nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return nil
	}
	return &v
}

func optionalStringQuery(c *gin.Context, name string) *string {
	raw := c.Query(name)
	if raw == "" {
		return nil
	}
	return &raw
}

func createWorkOrderHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var input models.NewWorkOrder
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(http.StatusUnprocessableEntity, gin.H{"errors": utils.ProcessValidationErrors(err)})
			return
		}
		ctx, span := tracer.Start(c.Request.Context(), "CreateWorkOrder")
		defer span.End()
		workOrder, err := models.CreateWorkOrder(ctx, &input)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusCreated, workOrder)
	}
}

func getWorkOrdersHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		results, err := models.GetWorkOrders(c.Request.Context(),
			optionalIntQuery(c, "vehicle_id"),
			optionalStringQuery(c, "status"),
			optionalStringQuery(c, "terminal"))
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, results)
	}
}

func getWorkOrderHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := pathId(c)
		if !ok {
			return
		}
		workOrder, err := models.GetWorkOrder(c.Request.Context(), id)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, workOrder)
	}
}

type statusPatch struct {
	Status string `json:"status" binding:"required"`
}

func patchWorkOrderHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := pathId(c)
		if !ok {
			return
		}
		var patch statusPatch
		if err := c.ShouldBindJSON(&patch); err != nil {
			c.JSON(http.StatusUnprocessableEntity, gin.H{"errors": utils.ProcessValidationErrors(err)})
			return
		}
		workOrder, err := models.UpdateWorkOrderStatus(c.Request.Context(), id, patch.Status)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, workOrder)
	}
}

func createMaintenanceScheduleHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var input models.NewMaintenanceSchedule
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(http.StatusUnprocessableEntity, gin.H{"errors": utils.ProcessValidationErrors(err)})
			return
		}
		schedule, err := models.CreateMaintenanceSchedule(c.Request.Context(), &input)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusCreated, schedule)
	}
}

func getMaintenanceSchedulesHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		results, err := models.GetMaintenanceSchedules(c.Request.Context(),
			optionalIntQuery(c, "vehicle_id"),
			optionalStringQuery(c, "status"),
			optionalStringQuery(c, "terminal"))
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, results)
	}
}

func getMaintenanceScheduleHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := pathId(c)
		if !ok {
			return
		}
		schedule, err := models.GetMaintenanceSchedule(c.Request.Context(), id)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, schedule)
	}
}

type schedulePatch struct {
	Status  string     `json:"status" binding:"required"`
	NextDue *time.Time `json:"next_due"`
}

func patchMaintenanceScheduleHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := pathId(c)
		if !ok {
			return
		}
		var patch schedulePatch
		if err := c.ShouldBindJSON(&patch); err != nil {
			c.JSON(http.StatusUnprocessableEntity, gin.H{"errors": utils.ProcessValidationErrors(err)})
			return
		}

		var schedule *models.MaintenanceSchedule
		var err error
		if patch.Status == string(models.ScheduleStatusCompleted) {
			ctx, span := tracer.Start(c.Request.Context(), "CompleteMaintenanceSchedule")
			defer span.End()
			schedule, err = models.CompleteMaintenanceSchedule(ctx, id, patch.NextDue)
		} else {
			schedule, err = models.UpdateMaintenanceScheduleStatus(c.Request.Context(), id, patch.Status)
		}
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, schedule)
	}
}

func createStockMovementHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var input models.NewStockMovement
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(http.StatusUnprocessableEntity, gin.H{"errors": utils.ProcessValidationErrors(err)})
			return
		}
		item, err := models.CreateManualStockMovement(c.Request.Context(), &input)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusCreated, item)
	}
}

func getStockMovementsHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		results, err := models.GetStockMovements(c.Request.Context(),
			optionalIntQuery(c, "item_id"),
			optionalStringQuery(c, "reference"))
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, results)
	}
}

func createPurchaseOrderHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var input models.NewPurchaseOrder
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(http.StatusUnprocessableEntity, gin.H{"errors": utils.ProcessValidationErrors(err)})
			return
		}
		purchaseOrder, err := models.CreatePurchaseOrder(c.Request.Context(), &input)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusCreated, purchaseOrder)
	}
}

func getPurchaseOrdersHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		results, err := models.GetPurchaseOrders(c.Request.Context(),
			optionalIntQuery(c, "supplier_id"),
			optionalStringQuery(c, "status"))
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, results)
	}
}

func getPurchaseOrderHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := pathId(c)
		if !ok {
			return
		}
		purchaseOrder, err := models.GetPurchaseOrder(c.Request.Context(), id)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, purchaseOrder)
	}
}

func patchPurchaseOrderHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := pathId(c)
		if !ok {
			return
		}
		var patch statusPatch
		if err := c.ShouldBindJSON(&patch); err != nil {
			c.JSON(http.StatusUnprocessableEntity, gin.H{"errors": utils.ProcessValidationErrors(err)})
			return
		}
		if patch.Status != string(models.PurchaseOrderStatusReceived) {
			c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "only the received status can be set"})
			return
		}
		ctx, span := tracer.Start(c.Request.Context(), "ReceivePurchaseOrder")
		defer span.End()
		purchaseOrder, err := models.ReceivePurchaseOrder(ctx, id)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, purchaseOrder)
	}
}

func createInventoryItemHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var input models.NewInventoryItem
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(http.StatusUnprocessableEntity, gin.H{"errors": utils.ProcessValidationErrors(err)})
			return
		}
		item, err := models.CreateInventoryItem(c.Request.Context(), &input)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusCreated, item)
	}
}

func getInventoryItemsHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		lowStockOnly := c.Query("low_stock") == "true"
		results, err := models.GetInventoryItems(c.Request.Context(),
			optionalStringQuery(c, "sku"),
			optionalStringQuery(c, "category"),
			lowStockOnly)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, results)
	}
}

func getInventoryItemHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := pathId(c)
		if !ok {
			return
		}
		item, err := models.GetInventoryItem(c.Request.Context(), id)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, item)
	}
}

func createVehicleHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var input models.NewVehicle
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(http.StatusUnprocessableEntity, gin.H{"errors": utils.ProcessValidationErrors(err)})
			return
		}
		vehicle, err := models.CreateVehicle(c.Request.Context(), &input)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusCreated, vehicle)
	}
}

func getVehiclesHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		results, err := models.GetVehicles(c.Request.Context(), optionalStringQuery(c, "terminal"))
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, results)
	}
}

func createSupplierHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var input models.NewSupplier
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(http.StatusUnprocessableEntity, gin.H{"errors": utils.ProcessValidationErrors(err)})
			return
		}
		supplier, err := models.CreateSupplier(c.Request.Context(), &input)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusCreated, supplier)
	}
}

func getSuppliersHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		results, err := models.GetSuppliers(c.Request.Context())
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, results)
	}
}

func getHistoriesHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		results, err := models.GetHistories(c.Request.Context(),
			optionalIntQuery(c, "reference_id"),
			optionalStringQuery(c, "reference_type"),
			optionalIntQuery(c, "user_id"))
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, results)
	}
}
