package config

import (
	"os"
	"strings"
)

// RestockOnWorkOrderCancel controls whether cancelling a work order writes a
// compensating positive stock movement for the parts that were consumed at
// creation. The fleet console this engine replaces never restocked on
// cancellation, so the default is off; operators who want the stricter
// behavior opt in.
//
// Set via env:
// - RESTOCK_ON_WORK_ORDER_CANCEL=true
func RestockOnWorkOrderCancel() bool {
	v := strings.ToLower(strings.TrimSpace(os.Getenv("RESTOCK_ON_WORK_ORDER_CANCEL")))
	return v == "1" || v == "true" || v == "yes" || v == "y"
}

// StrictScheduleNextDue rejects completion of custom/mileage-based schedules
// when the caller does not supply the next due date, instead of silently
// completing them terminally.
//
// Set via env:
// - STRICT_SCHEDULE_NEXT_DUE=true
func StrictScheduleNextDue() bool {
	v := strings.ToLower(strings.TrimSpace(os.Getenv("STRICT_SCHEDULE_NEXT_DUE")))
	return v == "1" || v == "true" || v == "yes" || v == "y"
}
