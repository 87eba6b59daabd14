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

type MaintenanceSchedule struct {
	ID              int                       `gorm:"primary_key" json:"id"`
	OrgId           string                    `gorm:"index;not null" json:"org_id"`
	VehicleId       int                       `gorm:"index;not null" json:"vehicle_id"`
	MaintenanceType MaintenanceType           `gorm:"size:30;not null" json:"maintenance_type"`
	Title           string                    `gorm:"size:255;not null" json:"title"`
	Frequency       MaintenanceFrequency      `gorm:"size:20;not null" json:"frequency"`
	Interval        int                       `gorm:"not null;default:1" json:"interval"`
	NextDue         time.Time                 `gorm:"not null;index" json:"next_due"`
	Priority        Priority                  `gorm:"size:10;not null" json:"priority"`
	Terminal        Terminal                  `gorm:"size:20;not null" json:"terminal"`
	CurrentStatus   ScheduleStatus            `gorm:"size:20;not null;index" json:"current_status"`
	CompletedCount  int                       `gorm:"not null;default:0" json:"completed_count"`
	MaxOccurrences  int                       `gorm:"not null;default:0" json:"max_occurrences"`
	RequiredParts   []MaintenanceSchedulePart `gorm:"foreignKey:ScheduleId" json:"required_parts"`
	Vehicle         *Vehicle                  `gorm:"foreignKey:VehicleId" json:"vehicle,omitempty"`
	CreatedAt       time.Time                 `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt       time.Time                 `gorm:"autoUpdateTime" json:"updated_at"`

	// Derived on read, never stored.
	DerivedStatus ScheduleStatus `gorm:"-" json:"derived_status"`
	DaysUntilDue  int            `gorm:"-" json:"days_until_due"`
}

type MaintenanceSchedulePart struct {
	ID         int             `gorm:"primary_key" json:"id"`
	ScheduleId int             `gorm:"index;not null" json:"schedule_id"`
	OrgId      string          `gorm:"index;not null" json:"org_id"`
	ItemId     int             `gorm:"index;not null" json:"item_id"`
	Sku        string          `gorm:"size:100;not null" json:"sku"`
	Name       string          `gorm:"size:255;not null" json:"name"`
	Quantity   int             `gorm:"not null" json:"quantity"`
	UnitCost   decimal.Decimal `gorm:"type:decimal(20,4)" json:"unit_cost"`
	TotalCost  decimal.Decimal `gorm:"type:decimal(20,4)" json:"total_cost"`
}

func (obj MaintenanceSchedule) GetOrgId() string {
	return obj.OrgId
}

func (obj MaintenanceSchedulePart) GetOrgId() string {
	return obj.OrgId
}

type NewMaintenanceSchedule struct {
	VehicleId       int            `json:"vehicle_id" binding:"required"`
	MaintenanceType string         `json:"maintenance_type" binding:"required"`
	Title           string         `json:"title" binding:"required"`
	Frequency       string         `json:"frequency" binding:"required"`
	// Interval is "every N frequency units"; omitted (zero) defaults to 1.
	Interval        int            `json:"interval"`
	NextDue         time.Time      `json:"next_due" binding:"required"`
	Priority        string         `json:"priority" binding:"required"`
	Terminal        string         `json:"terminal" binding:"required"`
	MaxOccurrences  int            `json:"max_occurrences"`
	RequiredParts   []*NewPartLine `json:"required_parts"`
}

func (input *NewMaintenanceSchedule) validate(ctx context.Context, orgId string) error {
	if _, err := ParseMaintenanceType(input.MaintenanceType); err != nil {
		return newValidationError("maintenance_type", "%s", err.Error())
	}
	if _, err := ParseMaintenanceFrequency(input.Frequency); err != nil {
		return newValidationError("frequency", "%s", err.Error())
	}
	if _, err := ParsePriority(input.Priority); err != nil {
		return newValidationError("priority", "%s", err.Error())
	}
	if _, err := ParseTerminal(input.Terminal); err != nil {
		return newValidationError("terminal", "%s", err.Error())
	}
	if input.Interval < 0 {
		return newValidationError("interval", "must not be negative")
	}
	if input.MaxOccurrences < 0 {
		return newValidationError("max_occurrences", "must not be negative")
	}
	if err := utils.ValidateResourceId[Vehicle](ctx, orgId, input.VehicleId); err != nil {
		return newValidationError("vehicle_id", "vehicle %d not found", input.VehicleId)
	}
	for _, line := range input.RequiredParts {
		if line.Quantity <= 0 {
			return newValidationError("quantity", "part quantity must be positive, got %d", line.Quantity)
		}
	}
	return nil
}

// ComputeScheduleStatus derives the visible status of a schedule. Terminal
// states and a caller-set in_progress pass through as stored; everything
// else is computed from the due date, so "overdue" is never written to the
// database and can never go stale.
func ComputeScheduleStatus(stored ScheduleStatus, nextDue time.Time, today time.Time) ScheduleStatus {
	if stored.Final() || stored == ScheduleStatusInProgress {
		return stored
	}
	if DaysUntilDue(nextDue, today) < 0 {
		return ScheduleStatusOverdue
	}
	return ScheduleStatusScheduled
}

// DaysUntilDue counts whole calendar days from today to the due date.
// Negative means overdue. Both dates are truncated to day boundaries so a
// schedule due later today is not yet overdue.
func DaysUntilDue(nextDue time.Time, today time.Time) int {
	due := time.Date(nextDue.Year(), nextDue.Month(), nextDue.Day(), 0, 0, 0, 0, time.UTC)
	now := time.Date(today.Year(), today.Month(), today.Day(), 0, 0, 0, 0, time.UTC)
	return int(due.Sub(now).Hours() / 24)
}

// AdvanceNextDue returns the next occurrence after one completion.
// Calendar frequencies advance by interval × frequency-unit using calendar
// arithmetic (AddDate), so "monthly" lands on the same day-of-month rather
// than a fixed number of hours later.
func AdvanceNextDue(from time.Time, frequency MaintenanceFrequency, interval int) (time.Time, error) {
	if interval <= 0 {
		interval = 1
	}
	switch frequency {
	case FrequencyDaily:
		return from.AddDate(0, 0, interval), nil
	case FrequencyWeekly:
		return from.AddDate(0, 0, 7*interval), nil
	case FrequencyMonthly:
		return from.AddDate(0, interval, 0), nil
	case FrequencyQuarterly:
		return from.AddDate(0, 3*interval, 0), nil
	case FrequencySemiAnnually:
		return from.AddDate(0, 6*interval, 0), nil
	case FrequencyAnnually:
		return from.AddDate(interval, 0, 0), nil
	default:
		return time.Time{}, fmt.Errorf("frequency %q has no calendar unit", frequency)
	}
}

// ComputeDerived fills the read-only status fields against the given clock.
func (s *MaintenanceSchedule) ComputeDerived(today time.Time) {
	s.DerivedStatus = ComputeScheduleStatus(s.CurrentStatus, s.NextDue, today)
	s.DaysUntilDue = DaysUntilDue(s.NextDue, today)
}

// CreateMaintenanceSchedule records a recurring obligation. Parts are
// required, not consumed: stock only moves when the schedule completes.
func CreateMaintenanceSchedule(ctx context.Context, input *NewMaintenanceSchedule) (*MaintenanceSchedule, error) {
	db := config.GetDB()

	orgId, ok := utils.GetOrgIdFromContext(ctx)
	if !ok || orgId == "" {
		return nil, errors.New("org id is required")
	}

	if err := input.validate(ctx, orgId); err != nil {
		return nil, err
	}

	maintenanceType, _ := ParseMaintenanceType(input.MaintenanceType)
	frequency, _ := ParseMaintenanceFrequency(input.Frequency)
	priority, _ := ParsePriority(input.Priority)
	terminal, _ := ParseTerminal(input.Terminal)

	interval := input.Interval
	if interval == 0 {
		interval = 1
	}

	schedule := MaintenanceSchedule{
		OrgId:           orgId,
		VehicleId:       input.VehicleId,
		MaintenanceType: maintenanceType,
		Title:           input.Title,
		Frequency:       frequency,
		Interval:        interval,
		NextDue:         input.NextDue,
		Priority:        priority,
		Terminal:        terminal,
		CurrentStatus:   ScheduleStatusScheduled,
		MaxOccurrences:  input.MaxOccurrences,
	}

	tx := db.Begin()
	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
			panic(r)
		}
	}()

	if len(input.RequiredParts) > 0 {
		snapshots, err := snapshotPartLines(tx.WithContext(ctx), orgId, input.RequiredParts)
		if err != nil {
			tx.Rollback()
			return nil, err
		}
		parts := make([]MaintenanceSchedulePart, 0, len(snapshots))
		for _, snap := range snapshots {
			parts = append(parts, MaintenanceSchedulePart{
				OrgId:     orgId,
				ItemId:    snap.Item.ID,
				Sku:       snap.Item.Sku,
				Name:      snap.Item.Name,
				Quantity:  snap.Quantity,
				UnitCost:  snap.UnitCost,
				TotalCost: snap.TotalCost,
			})
		}
		schedule.RequiredParts = parts
	}

	if err := tx.WithContext(ctx).Create(&schedule).Error; err != nil {
		tx.Rollback()
		return nil, err
	}

	description := fmt.Sprintf("Maintenance schedule %q created for vehicle %d.", schedule.Title, schedule.VehicleId)
	if err := createHistory(tx.WithContext(ctx), "CREATE", schedule.ID, "maintenance_schedules", nil, &schedule, description); err != nil {
		tx.Rollback()
		return nil, err
	}

	if err := tx.Commit().Error; err != nil {
		return nil, err
	}

	schedule.ComputeDerived(time.Now().UTC())
	return &schedule, nil
}

// UpdateMaintenanceScheduleStatus handles the caller-settable transitions:
// in_progress and cancelled. Completion goes through
// CompleteMaintenanceSchedule because it moves stock.
func UpdateMaintenanceScheduleStatus(ctx context.Context, id int, status string) (*MaintenanceSchedule, error) {
	db := config.GetDB()

	orgId, ok := utils.GetOrgIdFromContext(ctx)
	if !ok || orgId == "" {
		return nil, errors.New("org id is required")
	}

	newStatus, err := ParseScheduleStatus(status)
	if err != nil {
		return nil, newValidationError("status", "%s", err.Error())
	}
	if newStatus == ScheduleStatusCompleted {
		return CompleteMaintenanceSchedule(ctx, id, nil)
	}
	if newStatus != ScheduleStatusInProgress && newStatus != ScheduleStatusCancelled {
		return nil, newValidationError("status", "only in_progress, cancelled and completed can be set; %s is derived", newStatus)
	}

	schedule, err := utils.FetchModel[MaintenanceSchedule](ctx, orgId, id, "RequiredParts")
	if err != nil {
		return nil, err
	}
	if schedule.CurrentStatus.Final() {
		return nil, &InvalidStateTransitionError{
			Entity: "maintenance schedule",
			From:   string(schedule.CurrentStatus),
			To:     string(newStatus),
		}
	}

	tx := db.Begin()
	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
			panic(r)
		}
	}()

	oldStatus := schedule.CurrentStatus
	// Guard on the status we validated against; a concurrent transition
	// (e.g. a racing complete) makes this match zero rows instead of
	// clobbering a terminal state.
	result := tx.WithContext(ctx).Model(&MaintenanceSchedule{}).
		Where("org_id = ? AND id = ? AND current_status = ?", orgId, id, oldStatus).
		Update("current_status", newStatus)
	if result.Error != nil {
		tx.Rollback()
		return nil, result.Error
	}
	if result.RowsAffected == 0 {
		tx.Rollback()
		fresh, err := utils.FetchModel[MaintenanceSchedule](ctx, orgId, id)
		if err != nil {
			return nil, err
		}
		return nil, &InvalidStateTransitionError{
			Entity: "maintenance schedule",
			From:   string(fresh.CurrentStatus),
			To:     string(newStatus),
		}
	}

	description := fmt.Sprintf("Maintenance schedule %q: %s -> %s.", schedule.Title, oldStatus, newStatus)
	if err := createHistory(tx.WithContext(ctx), "UPDATE", schedule.ID, "maintenance_schedules", oldStatus, newStatus, description); err != nil {
		tx.Rollback()
		return nil, err
	}

	if err := tx.Commit().Error; err != nil {
		return nil, err
	}

	schedule.CurrentStatus = newStatus
	schedule.ComputeDerived(time.Now().UTC())
	return schedule, nil
}

// CompleteMaintenanceSchedule consumes the required parts (all-or-nothing,
// reference "MS-<id>") and advances the recurrence.
//
// Calendar frequencies roll next_due forward by interval × unit and reset to
// scheduled, unless max_occurrences is set and this completion exhausts it.
// custom and mileage_based schedules cannot self-advance: the caller supplies
// nextDue, or the schedule completes terminally (strict mode rejects instead,
// see config.StrictScheduleNextDue).
func CompleteMaintenanceSchedule(ctx context.Context, id int, nextDue *time.Time) (*MaintenanceSchedule, error) {
	db := config.GetDB()

	orgId, ok := utils.GetOrgIdFromContext(ctx)
	if !ok || orgId == "" {
		return nil, errors.New("org id is required")
	}

	schedule, err := utils.FetchModel[MaintenanceSchedule](ctx, orgId, id, "RequiredParts")
	if err != nil {
		return nil, err
	}
	if schedule.CurrentStatus.Final() {
		return nil, &InvalidStateTransitionError{
			Entity: "maintenance schedule",
			From:   string(schedule.CurrentStatus),
			To:     string(ScheduleStatusCompleted),
		}
	}

	release, err := utils.ObtainOrgLock(ctx, orgId, "stockLock", "maintenanceSchedule.go", "CompleteMaintenanceSchedule")
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

	completedCount := schedule.CompletedCount + 1
	exhausted := schedule.MaxOccurrences > 0 && completedCount >= schedule.MaxOccurrences

	updates := map[string]interface{}{"completed_count": completedCount}
	switch {
	case exhausted:
		updates["current_status"] = ScheduleStatusCompleted
	case schedule.Frequency.CalendarBased():
		advanced, err := AdvanceNextDue(schedule.NextDue, schedule.Frequency, schedule.Interval)
		if err != nil {
			tx.Rollback()
			return nil, err
		}
		updates["current_status"] = ScheduleStatusScheduled
		updates["next_due"] = advanced
	case nextDue != nil:
		updates["current_status"] = ScheduleStatusScheduled
		updates["next_due"] = *nextDue
	case config.StrictScheduleNextDue():
		tx.Rollback()
		return nil, newValidationError("next_due", "%s schedules require an explicit next due date", schedule.Frequency)
	default:
		updates["current_status"] = ScheduleStatusCompleted
	}

	// completed_count versions the completion itself: a concurrent complete
	// increments it even when the status resets to scheduled, so the loser
	// matches zero rows and never consumes the parts a second time. The
	// status clause additionally fences off a racing cancel.
	result := tx.WithContext(ctx).Model(&MaintenanceSchedule{}).
		Where("org_id = ? AND id = ? AND completed_count = ? AND current_status = ?",
			orgId, id, schedule.CompletedCount, schedule.CurrentStatus).
		Updates(updates)
	if result.Error != nil {
		tx.Rollback()
		return nil, result.Error
	}
	if result.RowsAffected == 0 {
		tx.Rollback()
		fresh, err := utils.FetchModel[MaintenanceSchedule](ctx, orgId, id)
		if err != nil {
			return nil, err
		}
		return nil, &InvalidStateTransitionError{
			Entity: "maintenance schedule",
			From:   string(fresh.CurrentStatus),
			To:     string(ScheduleStatusCompleted),
		}
	}

	if err := ApplyMaintenanceScheduleStockOnComplete(tx.WithContext(ctx), schedule); err != nil {
		tx.Rollback()
		return nil, err
	}

	description := fmt.Sprintf("Maintenance schedule %q completed (occurrence %d).", schedule.Title, completedCount)
	if err := createHistory(tx.WithContext(ctx), "UPDATE", schedule.ID, "maintenance_schedules", schedule.CurrentStatus, updates["current_status"], description); err != nil {
		tx.Rollback()
		return nil, err
	}

	if err := tx.Commit().Error; err != nil {
		return nil, err
	}

	schedule.CompletedCount = completedCount
	schedule.CurrentStatus = updates["current_status"].(ScheduleStatus)
	if due, ok := updates["next_due"].(time.Time); ok {
		schedule.NextDue = due
	}
	schedule.ComputeDerived(time.Now().UTC())
	return schedule, nil
}

func GetMaintenanceSchedule(ctx context.Context, id int) (*MaintenanceSchedule, error) {
	orgId, ok := utils.GetOrgIdFromContext(ctx)
	if !ok || orgId == "" {
		return nil, errors.New("org id is required")
	}
	schedule, err := utils.FetchModel[MaintenanceSchedule](ctx, orgId, id, "RequiredParts", "Vehicle")
	if err != nil {
		return nil, err
	}
	schedule.ComputeDerived(time.Now().UTC())
	return schedule, nil
}

func GetMaintenanceSchedules(ctx context.Context, vehicleId *int, status *string, terminal *string) ([]*MaintenanceSchedule, error) {
	db := config.GetDB()

	orgId, ok := utils.GetOrgIdFromContext(ctx)
	if !ok || orgId == "" {
		return nil, errors.New("org id is required")
	}

	var results []*MaintenanceSchedule
	dbCtx := db.WithContext(ctx).Where("org_id = ?", orgId)
	if vehicleId != nil && *vehicleId > 0 {
		dbCtx = dbCtx.Where("vehicle_id = ?", *vehicleId)
	}
	if terminal != nil && *terminal != "" {
		parsed, err := ParseTerminal(*terminal)
		if err != nil {
			return nil, newValidationError("terminal", "%s", err.Error())
		}
		dbCtx = dbCtx.Where("terminal = ?", parsed)
	}

	err := dbCtx.Preload("RequiredParts").Order("next_due ASC").Find(&results).Error
	if err != nil {
		return nil, err
	}

	// Derived statuses (overdue, scheduled) never hit the database, so the
	// status filter applies after derivation.
	today := time.Now().UTC()
	if status != nil && *status != "" {
		wanted, err := ParseScheduleStatus(*status)
		if err != nil {
			return nil, newValidationError("status", "%s", err.Error())
		}
		filtered := results[:0]
		for _, s := range results {
			s.ComputeDerived(today)
			if s.DerivedStatus == wanted {
				filtered = append(filtered, s)
			}
		}
		return filtered, nil
	}

	for _, s := range results {
		s.ComputeDerived(today)
	}
	return results, nil
}
