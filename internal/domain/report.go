package domain

import "time"

// ClearanceArea identifies one of the three sign-off parties on a weekly
// report.
type ClearanceArea string

const (
	ClearanceIT         ClearanceArea = "IT"
	ClearanceMonitoring ClearanceArea = "MONITORING"
	ClearanceOperations ClearanceArea = "OPERATIONS"
)

// SecurityReport is the per-location inspection sheet created by the
// weekly scheduler and filled in by the location's own submission.
// CreatedAt anchors the report to its reporting week.
type SecurityReport struct {
	ID                     string
	LocationID             string
	LocationName           string
	CreatedAt              time.Time
	UpdatedAt              *time.Time
	IsSubmitted            bool
	TotalCCTV              int
	FaultyCCTV             int
	WalkthroughGates       int
	FaultyWalkthroughGates int
	MetalDetectors         int
	FaultyMetalDetectors   int
	BiometricStatus        bool
	Comments               string
}

// WeeklyReport aggregates one security report per location for a calendar
// week. At most one exists per [Monday 00:00, Sunday 23:59] window. The
// three clearance flags are independent and monotonic: once true they are
// never reset.
type WeeklyReport struct {
	ID                    string
	CreatedAt             time.Time
	MarketsReport         []SecurityReport
	ClearedByIt           bool
	ClearedByItAt         *time.Time
	ClearedByMonitoring   bool
	ClearedByMonitoringAt *time.Time
	ClearedByOperations   bool
	ClearedByOperationsAt *time.Time
}

// FullyCleared reports whether all three parties have signed off. Nothing
// in the service consumes this; it exists for dashboard consumers.
func (w *WeeklyReport) FullyCleared() bool {
	return w.ClearedByIt && w.ClearedByMonitoring && w.ClearedByOperations
}
