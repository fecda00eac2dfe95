// internal/workers/forms/submit-candidate-form/config.go
package submitcandidateform

import "time"

type Config struct {
	Timeout time.Duration
	// MaxResumeBytes bounds the decoded resume attachment.
	MaxResumeBytes int
}

func LoadConfig() *Config {
	return &Config{
		Timeout:        30 * time.Second,
		MaxResumeBytes: 5 << 20,
	}
}
