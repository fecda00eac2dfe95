// internal/workers/location/validate-candidate-location/config.go
package validatecandidatelocation

import "time"

type Config struct {
	Timeout time.Duration
}

func LoadConfig() *Config {
	return &Config{
		Timeout: 15 * time.Second,
	}
}
