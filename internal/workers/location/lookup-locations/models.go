// internal/workers/location/lookup-locations/models.go
package lookuplocations

// Input asks for state, city or company suggestions. Cities need either StateCode or State.
type Input struct {
	Field     string `json:"field"`
	Query     string `json:"query"`
	StateCode string `json:"stateCode,omitempty"`
	State     string `json:"state,omitempty"`
}

type Output struct {
	Names   []string `json:"names"`
	Count   int      `json:"count"`
	Outcome string   `json:"outcome"`
}
