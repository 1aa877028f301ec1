package dto

import "time"

// SubmitSecurityReportRequest carries a location's inspection data.
type SubmitSecurityReportRequest struct {
	TotalCCTV              int    `json:"total_cctv"`
	FaultyCCTV             int    `json:"faulty_cctv"`
	WalkthroughGates       int    `json:"walkthrough_gates"`
	FaultyWalkthroughGates int    `json:"faulty_walkthrough_gates"`
	MetalDetectors         int    `json:"metal_detectors"`
	FaultyMetalDetectors   int    `json:"faulty_metal_detectors"`
	BiometricStatus        bool   `json:"biometric_status"`
	Comments               string `json:"comments"`
}

// SecurityReportResponse is one location's inspection sheet.
type SecurityReportResponse struct {
	ID                     string     `json:"id"`
	LocationID             string     `json:"location_id"`
	LocationName           string     `json:"location_name"`
	IsSubmitted            bool       `json:"is_submitted"`
	TotalCCTV              int        `json:"total_cctv"`
	FaultyCCTV             int        `json:"faulty_cctv"`
	WalkthroughGates       int        `json:"walkthrough_gates"`
	FaultyWalkthroughGates int        `json:"faulty_walkthrough_gates"`
	MetalDetectors         int        `json:"metal_detectors"`
	FaultyMetalDetectors   int        `json:"faulty_metal_detectors"`
	BiometricStatus        bool       `json:"biometric_status"`
	Comments               string     `json:"comments"`
	CreatedAt              time.Time  `json:"created_at"`
	UpdatedAt              *time.Time `json:"updated_at"`
}

// WeeklyReportResponse is the aggregate with its clearance state.
type WeeklyReportResponse struct {
	ID                    string                   `json:"id"`
	CreatedAt             time.Time                `json:"created_at"`
	MarketsReport         []SecurityReportResponse `json:"markets_report"`
	ClearedByIt           bool                     `json:"cleared_by_it"`
	ClearedByItAt         *time.Time               `json:"cleared_by_it_at"`
	ClearedByMonitoring   bool                     `json:"cleared_by_monitoring"`
	ClearedByMonitoringAt *time.Time               `json:"cleared_by_monitoring_at"`
	ClearedByOperations   bool                     `json:"cleared_by_operations"`
	ClearedByOperationsAt *time.Time               `json:"cleared_by_operations_at"`
	FullyCleared          bool                     `json:"fully_cleared"`
}
