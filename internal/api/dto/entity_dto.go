package dto

import "time"

// CreateEntityRequest names a new department or location.
type CreateEntityRequest struct {
	Name string `json:"name"`
}

// DepartmentResponse view.
type DepartmentResponse struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

// LocationResponse view.
type LocationResponse struct {
	ID              string    `json:"id"`
	Name            string    `json:"name"`
	CurrentReportID *string   `json:"current_report_id"`
	CreatedAt       time.Time `json:"created_at"`
}
