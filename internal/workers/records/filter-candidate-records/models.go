// internal/workers/records/filter-candidate-records/models.go
package filtercandidaterecords

import "candidate-dashboard/internal/models"

type Input struct {
	Criteria map[string]string `json:"criteria"`
	Page     int               `json:"page"`
	PageSize int               `json:"pageSize,omitempty"`
	// Refresh discards the held snapshot and fetches the list again.
	Refresh bool `json:"refresh,omitempty"`
}

type Output struct {
	Records    []models.CandidateRecord `json:"records"`
	Page       int                      `json:"page"`
	PageSize   int                      `json:"pageSize"`
	Total      int                      `json:"total"`
	TotalPages int                      `json:"totalPages"`
	Fetched    int                      `json:"fetched"`
	Criteria   models.FilterCriteria    `json:"criteria"`
}
