package records

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"

	"candidate-dashboard/internal/common/errors"
	"candidate-dashboard/internal/models"
)

// ElasticsearchSource reads records from a search index holding one document per
// candidate. Documents are returned newest first.
type ElasticsearchSource struct {
	client *elasticsearch.Client
	index  string
}

func NewElasticsearchSource(client *elasticsearch.Client, index string) *ElasticsearchSource {
	return &ElasticsearchSource{client: client, index: index}
}

type searchResponse struct {
	Hits struct {
		Hits []struct {
			ID     string                 `json:"_id"`
			Source models.CandidateRecord `json:"_source"`
		} `json:"hits"`
	} `json:"hits"`
}

func (s *ElasticsearchSource) FetchRecords(ctx context.Context, limit int) ([]models.CandidateRecord, error) {
	body, err := json.Marshal(map[string]interface{}{
		"query": map[string]interface{}{"match_all": map[string]interface{}{}},
		"sort": []interface{}{
			map[string]interface{}{
				"createdAt": map[string]interface{}{"order": "desc", "unmapped_type": "date"},
			},
		},
	})
	if err != nil {
		return nil, errors.NewRecordFetchFailedError("elasticsearch", err)
	}

	req := esapi.SearchRequest{
		Index: []string{s.index},
		Body:  bytes.NewReader(body),
		Size:  &limit,
	}
	res, err := req.Do(ctx, s.client)
	if err != nil {
		return nil, errors.NewRecordFetchFailedError("elasticsearch", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return nil, errors.NewRecordFetchFailedError("elasticsearch", fmt.Errorf("search failed: %s", res.Status()))
	}

	var parsed searchResponse
	if err := json.NewDecoder(res.Body).Decode(&parsed); err != nil {
		return nil, errors.NewRecordFetchFailedError("elasticsearch", fmt.Errorf("decode response: %w", err))
	}

	out := make([]models.CandidateRecord, 0, len(parsed.Hits.Hits))
	for _, hit := range parsed.Hits.Hits {
		rec := hit.Source
		if rec.ID == "" {
			rec.ID = hit.ID
		}
		out = append(out, rec)
	}
	return out, nil
}
