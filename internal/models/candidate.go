package models

import "time"

// CandidateRecord is a submitted candidate profile as returned by the backend record API.
// The dashboard only reads it; ID is opaque.
type CandidateRecord struct {
	ID         string `json:"_id"`
	FirstName  string `json:"firstName"`
	MiddleName string `json:"middleName,omitempty"`
	LastName   string `json:"lastName"`
	Gender     string `json:"gender"`
	// DateOfBirth is kept as sent (YYYY-MM-DD or RFC 3339).
	DateOfBirth string `json:"dateOfBirth"`
	FatherName  string `json:"fatherName,omitempty"`
	PANNumber   string `json:"panNumber,omitempty"`

	Phone    string `json:"phone"`
	AltPhone string `json:"altPhone,omitempty"`
	Email    string `json:"email"`
	AltEmail string `json:"altEmail,omitempty"`

	CurrentState   string `json:"currentState"`
	CurrentCity    string `json:"currentCity"`
	PreferredState string `json:"preferredState"`
	PreferredCity  string `json:"preferredCity"`

	CompanyName     string   `json:"companyName"`
	Designation     string   `json:"designation"`
	Department      string   `json:"department"`
	CTC             *float64 `json:"ctc,omitempty"`
	TotalExperience string   `json:"totalExperience"`

	ResumeURL string    `json:"resumeUrl,omitempty"`
	Comments  []Comment `json:"comments,omitempty"`
	CreatedAt time.Time `json:"createdAt,omitempty"`
}

// FullName joins the non-empty name parts.
func (r CandidateRecord) FullName() string {
	name := r.FirstName
	for _, part := range []string{r.MiddleName, r.LastName} {
		if part == "" {
			continue
		}
		if name != "" {
			name += " "
		}
		name += part
	}
	return name
}

type Comment struct {
	Text      string    `json:"text"`
	Author    string    `json:"author"`
	CreatedAt time.Time `json:"createdAt"`
}

// CommentThread is the payload of GET /forms/:id/comments.
type CommentThread struct {
	Comments      []Comment `json:"comments"`
	UserName      string    `json:"userName"`
	UserID        string    `json:"userId"`
	TotalComments int       `json:"totalComments"`
}

// Company is an entry managed through the admin API.
type Company struct {
	ID   string `json:"_id"`
	Name string `json:"name"`
}
