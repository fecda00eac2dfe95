// internal/workers/records/filter-candidate-records/config.go
package filtercandidaterecords

import (
	"time"

	"candidate-dashboard/internal/records"
)

type Config struct {
	Timeout time.Duration
	// FetchLimit caps how many records one snapshot holds.
	FetchLimit int
	PageSize   int
	// SnapshotTTL is how long a fetched list is reused before the next job refetches it.
	SnapshotTTL time.Duration
}

func LoadConfig() *Config {
	return &Config{
		Timeout:     30 * time.Second,
		FetchLimit:  1000,
		PageSize:    records.DefaultPageSize,
		SnapshotTTL: 5 * time.Minute,
	}
}
