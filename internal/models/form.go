package models

import "strconv"

// CandidateForm is the add/edit payload posted to the backend as multipart fields.
type CandidateForm struct {
	FirstName   string `json:"firstName" validate:"required,max=50"`
	MiddleName  string `json:"middleName" validate:"max=50"`
	LastName    string `json:"lastName" validate:"required,max=50"`
	Gender      string `json:"gender" validate:"required,oneof=Male Female Other"`
	DateOfBirth string `json:"dateOfBirth" validate:"required,past_date"`
	FatherName  string `json:"fatherName" validate:"max=100"`
	PANNumber   string `json:"panNumber" validate:"omitempty,pan"`

	Phone    string `json:"phone" validate:"required,len=10,numeric"`
	AltPhone string `json:"altPhone" validate:"omitempty,len=10,numeric,nefield=Phone"`
	Email    string `json:"email" validate:"required,email"`
	AltEmail string `json:"altEmail" validate:"omitempty,email,nefield=Email"`

	CurrentState   string `json:"currentState" validate:"required"`
	CurrentCity    string `json:"currentCity" validate:"required"`
	PreferredState string `json:"preferredState" validate:"required"`
	PreferredCity  string `json:"preferredCity" validate:"required"`

	CompanyName     string `json:"companyName"`
	Designation     string `json:"designation" validate:"required"`
	Department      string `json:"department" validate:"required"`
	CTC             string `json:"ctc" validate:"omitempty,numeric"`
	TotalExperience string `json:"totalExperience" validate:"omitempty,numeric"`
}

// Form field names, matching the JSON tags above.
const (
	FieldFirstName       = "firstName"
	FieldMiddleName      = "middleName"
	FieldLastName        = "lastName"
	FieldGender          = "gender"
	FieldDateOfBirth     = "dateOfBirth"
	FieldFatherName      = "fatherName"
	FieldPANNumber       = "panNumber"
	FieldPhone           = "phone"
	FieldAltPhone        = "altPhone"
	FieldEmail           = "email"
	FieldAltEmail        = "altEmail"
	FieldCurrentState    = "currentState"
	FieldCurrentCity     = "currentCity"
	FieldPreferredState  = "preferredState"
	FieldPreferredCity   = "preferredCity"
	FieldCompanyName     = "companyName"
	FieldDesignation     = "designation"
	FieldDepartment      = "department"
	FieldCTC             = "ctc"
	FieldTotalExperience = "totalExperience"
)

// Fields returns the form as name/value pairs in a stable order.
func (f CandidateForm) Fields() [][2]string {
	return [][2]string{
		{FieldFirstName, f.FirstName},
		{FieldMiddleName, f.MiddleName},
		{FieldLastName, f.LastName},
		{FieldGender, f.Gender},
		{FieldDateOfBirth, f.DateOfBirth},
		{FieldFatherName, f.FatherName},
		{FieldPANNumber, f.PANNumber},
		{FieldPhone, f.Phone},
		{FieldAltPhone, f.AltPhone},
		{FieldEmail, f.Email},
		{FieldAltEmail, f.AltEmail},
		{FieldCurrentState, f.CurrentState},
		{FieldCurrentCity, f.CurrentCity},
		{FieldPreferredState, f.PreferredState},
		{FieldPreferredCity, f.PreferredCity},
		{FieldCompanyName, f.CompanyName},
		{FieldDesignation, f.Designation},
		{FieldDepartment, f.Department},
		{FieldCTC, f.CTC},
		{FieldTotalExperience, f.TotalExperience},
	}
}

// Set assigns a field by name; it reports false for unknown names.
func (f *CandidateForm) Set(name, value string) bool {
	switch name {
	case FieldFirstName:
		f.FirstName = value
	case FieldMiddleName:
		f.MiddleName = value
	case FieldLastName:
		f.LastName = value
	case FieldGender:
		f.Gender = value
	case FieldDateOfBirth:
		f.DateOfBirth = value
	case FieldFatherName:
		f.FatherName = value
	case FieldPANNumber:
		f.PANNumber = value
	case FieldPhone:
		f.Phone = value
	case FieldAltPhone:
		f.AltPhone = value
	case FieldEmail:
		f.Email = value
	case FieldAltEmail:
		f.AltEmail = value
	case FieldCurrentState:
		f.CurrentState = value
	case FieldCurrentCity:
		f.CurrentCity = value
	case FieldPreferredState:
		f.PreferredState = value
	case FieldPreferredCity:
		f.PreferredCity = value
	case FieldCompanyName:
		f.CompanyName = value
	case FieldDesignation:
		f.Designation = value
	case FieldDepartment:
		f.Department = value
	case FieldCTC:
		f.CTC = value
	case FieldTotalExperience:
		f.TotalExperience = value
	default:
		return false
	}
	return true
}

// FormFromRecord pre-fills an edit form from an existing record.
func FormFromRecord(r CandidateRecord) CandidateForm {
	f := CandidateForm{
		FirstName:       r.FirstName,
		MiddleName:      r.MiddleName,
		LastName:        r.LastName,
		Gender:          r.Gender,
		DateOfBirth:     r.DateOfBirth,
		FatherName:      r.FatherName,
		PANNumber:       r.PANNumber,
		Phone:           r.Phone,
		AltPhone:        r.AltPhone,
		Email:           r.Email,
		AltEmail:        r.AltEmail,
		CurrentState:    r.CurrentState,
		CurrentCity:     r.CurrentCity,
		PreferredState:  r.PreferredState,
		PreferredCity:   r.PreferredCity,
		CompanyName:     r.CompanyName,
		Designation:     r.Designation,
		Department:      r.Department,
		TotalExperience: r.TotalExperience,
	}
	if r.CTC != nil {
		f.CTC = formatAmount(*r.CTC)
	}
	if len(f.DateOfBirth) > 10 {
		f.DateOfBirth = f.DateOfBirth[:10]
	}
	return f
}

func formatAmount(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
