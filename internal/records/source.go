package records

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"candidate-dashboard/internal/common/errors"
	"candidate-dashboard/internal/models"
)

// Source fetches the full record list in one shot.
type Source interface {
	FetchRecords(ctx context.Context, limit int) ([]models.CandidateRecord, error)
}

// PostgresSource reads records from the candidate_forms table, whose payload column holds
// the record as JSON.
type PostgresSource struct {
	db *sql.DB
}

func NewPostgresSource(db *sql.DB) *PostgresSource {
	return &PostgresSource{db: db}
}

func (s *PostgresSource) FetchRecords(ctx context.Context, limit int) ([]models.CandidateRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, payload
		FROM candidate_forms
		ORDER BY created_at DESC
		LIMIT $1`, limit)
	if err != nil {
		return nil, errors.NewRecordFetchFailedError("postgres", err)
	}
	defer rows.Close()

	out := make([]models.CandidateRecord, 0)
	for rows.Next() {
		var id string
		var payload []byte
		if err := rows.Scan(&id, &payload); err != nil {
			return nil, errors.NewRecordFetchFailedError("postgres", err)
		}
		var rec models.CandidateRecord
		if err := json.Unmarshal(payload, &rec); err != nil {
			return nil, errors.NewRecordFetchFailedError("postgres", fmt.Errorf("record %s: %w", id, err))
		}
		rec.ID = id
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.NewRecordFetchFailedError("postgres", err)
	}
	return out, nil
}
