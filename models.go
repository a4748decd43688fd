package main

import "bse-announcements/internal/bse"

// AnnouncementsResponse is the API response for the announcements endpoint.
type AnnouncementsResponse struct {
	Date  string             `json:"date,omitempty"`
	Count int                `json:"count"`
	Rows  []bse.Announcement `json:"rows"`
	Diag  *DiagInfo          `json:"diag,omitempty"`
	Probe *bse.ProbeReport   `json:"probe,omitempty"`
}

// DiagInfo echoes the effective query parameters and the first row, for
// debugging deployments where the upstream returns nothing.
type DiagInfo struct {
	Segment        string            `json:"segment"`
	SubmissionType string            `json:"submission_type"`
	Category       string            `json:"category"`
	Subcategory    string            `json:"subcategory"`
	Search         string            `json:"search"`
	MaxPages       int               `json:"max_pages"`
	FirstRow       *bse.Announcement `json:"first_row"`
}

// ErrorResponse represents an error response.
type ErrorResponse struct {
	Error string `json:"error"`
	Trace string `json:"trace,omitempty"`
}

// HealthResponse represents the health-check response.
type HealthResponse struct {
	OK       bool   `json:"ok"`
	TodayIST string `json:"today_ist,omitempty"`
}
