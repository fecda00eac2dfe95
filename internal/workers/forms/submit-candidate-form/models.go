// internal/workers/forms/submit-candidate-form/models.go
package submitcandidateform

// Input carries the form values keyed by field name. An empty RecordID creates a record.
type Input struct {
	RecordID string            `json:"recordId,omitempty"`
	Form     map[string]string `json:"form"`

	ResumeFilename string `json:"resumeFilename,omitempty"`
	ResumeBase64   string `json:"resumeBase64,omitempty"`
}

type Output struct {
	RecordID string `json:"recordId"`
	Created  bool   `json:"created"`
}
