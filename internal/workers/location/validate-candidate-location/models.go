// internal/workers/location/validate-candidate-location/models.go
package validatecandidatelocation

type Input struct {
	City  string `json:"city"`
	State string `json:"state"`
	// FailOnInvalid throws CITY_INVALID instead of completing with valid=false.
	FailOnInvalid bool `json:"failOnInvalid,omitempty"`
}

type Output struct {
	Valid     bool   `json:"valid"`
	City      string `json:"city"`
	State     string `json:"state"`
	StateCode string `json:"stateCode,omitempty"`
	Message   string `json:"message,omitempty"`
}
