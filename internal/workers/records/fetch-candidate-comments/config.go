// internal/workers/records/fetch-candidate-comments/config.go
package fetchcandidatecomments

import "time"

type Config struct {
	Timeout time.Duration
}

func LoadConfig() *Config {
	return &Config{
		Timeout: 10 * time.Second,
	}
}
