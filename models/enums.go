package models

import "fmt"

type Terminal string

const (
	TerminalKigali  Terminal = "Kigali"
	TerminalKampala Terminal = "Kampala"
	TerminalNairobi Terminal = "Nairobi"
	TerminalJuba    Terminal = "Juba"
)

var terminals = map[string]Terminal{
	"Kigali":  TerminalKigali,
	"Kampala": TerminalKampala,
	"Nairobi": TerminalNairobi,
	"Juba":    TerminalJuba,
}

func ParseTerminal(s string) (Terminal, error) {
	t, ok := terminals[s]
	if !ok {
		return "", fmt.Errorf("invalid terminal %q", s)
	}
	return t, nil
}

func (t Terminal) Valid() bool {
	_, ok := terminals[string(t)]
	return ok
}

type WorkType string

const (
	WorkTypeRepair      WorkType = "repair"
	WorkTypeMaintenance WorkType = "maintenance"
	WorkTypeInspection  WorkType = "inspection"
	WorkTypeEmergency   WorkType = "emergency"
	WorkTypePreventive  WorkType = "preventive"
	WorkTypeOther       WorkType = "other"
)

var workTypes = map[string]WorkType{
	"repair":      WorkTypeRepair,
	"maintenance": WorkTypeMaintenance,
	"inspection":  WorkTypeInspection,
	"emergency":   WorkTypeEmergency,
	"preventive":  WorkTypePreventive,
	"other":       WorkTypeOther,
}

func ParseWorkType(s string) (WorkType, error) {
	t, ok := workTypes[s]
	if !ok {
		return "", fmt.Errorf("invalid work type %q", s)
	}
	return t, nil
}

func (t WorkType) Valid() bool {
	_, ok := workTypes[string(t)]
	return ok
}

type Priority string

const (
	PriorityLow      Priority = "low"
	PriorityMedium   Priority = "medium"
	PriorityHigh     Priority = "high"
	PriorityCritical Priority = "critical"
)

var priorities = map[string]Priority{
	"low":      PriorityLow,
	"medium":   PriorityMedium,
	"high":     PriorityHigh,
	"critical": PriorityCritical,
}

func ParsePriority(s string) (Priority, error) {
	p, ok := priorities[s]
	if !ok {
		return "", fmt.Errorf("invalid priority %q", s)
	}
	return p, nil
}

func (p Priority) Valid() bool {
	_, ok := priorities[string(p)]
	return ok
}

type WorkOrderStatus string

const (
	WorkOrderStatusPending    WorkOrderStatus = "pending"
	WorkOrderStatusInProgress WorkOrderStatus = "in_progress"
	WorkOrderStatusOnHold     WorkOrderStatus = "on_hold"
	WorkOrderStatusCompleted  WorkOrderStatus = "completed"
	WorkOrderStatusCancelled  WorkOrderStatus = "cancelled"
)

var workOrderStatuses = map[string]WorkOrderStatus{
	"pending":     WorkOrderStatusPending,
	"in_progress": WorkOrderStatusInProgress,
	"on_hold":     WorkOrderStatusOnHold,
	"completed":   WorkOrderStatusCompleted,
	"cancelled":   WorkOrderStatusCancelled,
}

func ParseWorkOrderStatus(s string) (WorkOrderStatus, error) {
	st, ok := workOrderStatuses[s]
	if !ok {
		return "", fmt.Errorf("invalid work order status %q", s)
	}
	return st, nil
}

func (s WorkOrderStatus) Valid() bool {
	_, ok := workOrderStatuses[string(s)]
	return ok
}

// Terminal in the state-machine sense: no transitions leave these.
func (s WorkOrderStatus) Final() bool {
	return s == WorkOrderStatusCompleted || s == WorkOrderStatusCancelled
}

type MaintenanceType string

const (
	MaintenanceTypeOilChange          MaintenanceType = "oil_change"
	MaintenanceTypeBrakeService       MaintenanceType = "brake_service"
	MaintenanceTypeTireRotation       MaintenanceType = "tire_rotation"
	MaintenanceTypeEngineTuneUp       MaintenanceType = "engine_tune_up"
	MaintenanceTypeTransmission       MaintenanceType = "transmission_service"
	MaintenanceTypeCoolantFlush       MaintenanceType = "coolant_flush"
	MaintenanceTypeBatteryReplacement MaintenanceType = "battery_replacement"
	MaintenanceTypeFilterReplacement  MaintenanceType = "filter_replacement"
	MaintenanceTypeGeneralInspection  MaintenanceType = "general_inspection"
	MaintenanceTypeOther              MaintenanceType = "other"
)

var maintenanceTypes = map[string]MaintenanceType{
	"oil_change":           MaintenanceTypeOilChange,
	"brake_service":        MaintenanceTypeBrakeService,
	"tire_rotation":        MaintenanceTypeTireRotation,
	"engine_tune_up":       MaintenanceTypeEngineTuneUp,
	"transmission_service": MaintenanceTypeTransmission,
	"coolant_flush":        MaintenanceTypeCoolantFlush,
	"battery_replacement":  MaintenanceTypeBatteryReplacement,
	"filter_replacement":   MaintenanceTypeFilterReplacement,
	"general_inspection":   MaintenanceTypeGeneralInspection,
	"other":                MaintenanceTypeOther,
}

func ParseMaintenanceType(s string) (MaintenanceType, error) {
	t, ok := maintenanceTypes[s]
	if !ok {
		return "", fmt.Errorf("invalid maintenance type %q", s)
	}
	return t, nil
}

func (t MaintenanceType) Valid() bool {
	_, ok := maintenanceTypes[string(t)]
	return ok
}

type MaintenanceFrequency string

const (
	FrequencyDaily        MaintenanceFrequency = "daily"
	FrequencyWeekly       MaintenanceFrequency = "weekly"
	FrequencyMonthly      MaintenanceFrequency = "monthly"
	FrequencyQuarterly    MaintenanceFrequency = "quarterly"
	FrequencySemiAnnually MaintenanceFrequency = "semi_annually"
	FrequencyAnnually     MaintenanceFrequency = "annually"
	FrequencyMileageBased MaintenanceFrequency = "mileage_based"
	FrequencyCustom       MaintenanceFrequency = "custom"
)

var maintenanceFrequencies = map[string]MaintenanceFrequency{
	"daily":         FrequencyDaily,
	"weekly":        FrequencyWeekly,
	"monthly":       FrequencyMonthly,
	"quarterly":     FrequencyQuarterly,
	"semi_annually": FrequencySemiAnnually,
	"annually":      FrequencyAnnually,
	"mileage_based": FrequencyMileageBased,
	"custom":        FrequencyCustom,
}

func ParseMaintenanceFrequency(s string) (MaintenanceFrequency, error) {
	f, ok := maintenanceFrequencies[s]
	if !ok {
		return "", fmt.Errorf("invalid maintenance frequency %q", s)
	}
	return f, nil
}

func (f MaintenanceFrequency) Valid() bool {
	_, ok := maintenanceFrequencies[string(f)]
	return ok
}

// CalendarBased reports whether next-due advancement can be derived from the
// frequency unit alone. mileage_based and custom schedules need the caller to
// supply the next due date.
func (f MaintenanceFrequency) CalendarBased() bool {
	return f != FrequencyMileageBased && f != FrequencyCustom
}

type ScheduleStatus string

const (
	ScheduleStatusScheduled  ScheduleStatus = "scheduled"
	ScheduleStatusInProgress ScheduleStatus = "in_progress"
	ScheduleStatusOverdue    ScheduleStatus = "overdue"
	ScheduleStatusCompleted  ScheduleStatus = "completed"
	ScheduleStatusCancelled  ScheduleStatus = "cancelled"
)

var scheduleStatuses = map[string]ScheduleStatus{
	"scheduled":   ScheduleStatusScheduled,
	"in_progress": ScheduleStatusInProgress,
	"overdue":     ScheduleStatusOverdue,
	"completed":   ScheduleStatusCompleted,
	"cancelled":   ScheduleStatusCancelled,
}

func ParseScheduleStatus(s string) (ScheduleStatus, error) {
	st, ok := scheduleStatuses[s]
	if !ok {
		return "", fmt.Errorf("invalid schedule status %q", s)
	}
	return st, nil
}

func (s ScheduleStatus) Valid() bool {
	_, ok := scheduleStatuses[string(s)]
	return ok
}

func (s ScheduleStatus) Final() bool {
	return s == ScheduleStatusCompleted || s == ScheduleStatusCancelled
}

type StockMovementReason string

const (
	MovementReasonMaintenance      StockMovementReason = "maintenance"
	MovementReasonPurchaseReceipt  StockMovementReason = "purchase_receipt"
	MovementReasonManualAdjustment StockMovementReason = "manual_adjustment"
	MovementReasonLoss             StockMovementReason = "loss"
)

var stockMovementReasons = map[string]StockMovementReason{
	"maintenance":       MovementReasonMaintenance,
	"purchase_receipt":  MovementReasonPurchaseReceipt,
	"manual_adjustment": MovementReasonManualAdjustment,
	"loss":              MovementReasonLoss,
}

func ParseStockMovementReason(s string) (StockMovementReason, error) {
	r, ok := stockMovementReasons[s]
	if !ok {
		return "", fmt.Errorf("invalid stock movement reason %q", s)
	}
	return r, nil
}

func (r StockMovementReason) Valid() bool {
	_, ok := stockMovementReasons[string(r)]
	return ok
}

type PurchaseOrderStatus string

const (
	PurchaseOrderStatusPending  PurchaseOrderStatus = "pending"
	PurchaseOrderStatusReceived PurchaseOrderStatus = "received"
)

func (s PurchaseOrderStatus) Valid() bool {
	return s == PurchaseOrderStatusPending || s == PurchaseOrderStatusReceived
}

type UserRole string

const (
	UserRoleAdmin   UserRole = "admin"
	UserRoleManager UserRole = "manager"
	UserRoleStaff   UserRole = "staff"
)
