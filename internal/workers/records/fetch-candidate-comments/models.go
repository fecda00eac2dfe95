// internal/workers/records/fetch-candidate-comments/models.go
package fetchcandidatecomments

import "candidate-dashboard/internal/models"

type Input struct {
	RecordID string `json:"recordId"`
}

type Output struct {
	RecordID      string           `json:"recordId"`
	Comments      []models.Comment `json:"comments"`
	TotalComments int              `json:"totalComments"`
	UserName      string           `json:"userName,omitempty"`
	UserID        string           `json:"userId,omitempty"`
}
