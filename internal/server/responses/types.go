// Package responses defines API response types used by the dynlinks HTTP handlers.
package responses

import "time"

// HealthResponse represents the health check API response.
type HealthResponse struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
	Version   string    `json:"version"`
	Uptime    float64   `json:"uptime"`
	DocsBase  string    `json:"docs_base"`
	DynBase   string    `json:"dyn_base,omitempty"`
	Rules     int       `json:"rules"`
	Items     string    `json:"items_source"`
}
