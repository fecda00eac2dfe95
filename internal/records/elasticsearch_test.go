package records

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	commonerrors "candidate-dashboard/internal/common/errors"
)

func createTestSearchClient(t *testing.T, handler http.HandlerFunc) *elasticsearch.Client {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Elastic-Product", "Elasticsearch")
		w.Header().Set("Content-Type", "application/json")
		handler(w, r)
	}))
	t.Cleanup(server.Close)

	client, err := elasticsearch.NewClient(elasticsearch.Config{Addresses: []string{server.URL}})
	require.NoError(t, err)
	return client
}

func TestElasticsearchSource_FetchRecords(t *testing.T) {
	var gotPath, gotSize string
	var gotBody map[string]interface{}

	client := createTestSearchClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotSize = r.URL.Query().Get("size")
		raw, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(raw, &gotBody)

		_, _ = io.WriteString(w, `{
			"took": 3,
			"hits": {
				"total": {"value": 2, "relation": "eq"},
				"hits": [
					{"_id": "es-2", "_source": {"firstName": "Ravi", "ctc": 12.5, "currentState": "Karnataka"}},
					{"_id": "es-1", "_source": {"_id": "f-1", "firstName": "Asha", "totalExperience": "4"}}
				]
			}
		}`)
	})

	out, err := NewElasticsearchSource(client, "candidates").FetchRecords(context.Background(), 25)
	require.NoError(t, err)

	assert.Equal(t, "/candidates/_search", gotPath)
	assert.Equal(t, "25", gotSize)
	assert.Contains(t, gotBody["query"], "match_all")

	assert.Equal(t, []string{"es-2", "f-1"}, ids(out))
	assert.Equal(t, "Ravi", out[0].FirstName)
	require.NotNil(t, out[0].CTC)
	assert.Equal(t, 12.5, *out[0].CTC)
	assert.Equal(t, "Karnataka", out[0].CurrentState)
	assert.Equal(t, "4", out[1].TotalExperience)
}

func TestElasticsearchSource_FetchRecords_Errors(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
	}{
		{
			name: "missing index",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusNotFound)
				_, _ = io.WriteString(w, `{"error":{"type":"index_not_found_exception"},"status":404}`)
			},
		},
		{
			name: "malformed response",
			handler: func(w http.ResponseWriter, r *http.Request) {
				_, _ = io.WriteString(w, `{"hits":`)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := createTestSearchClient(t, tt.handler)

			out, err := NewElasticsearchSource(client, "candidates").FetchRecords(context.Background(), 10)
			require.Error(t, err)
			assert.Nil(t, out)

			stdErr, ok := commonerrors.AsStandardError(err)
			require.True(t, ok)
			assert.Equal(t, commonerrors.ErrCodeRecordFetchFailed, stdErr.Code)
			assert.True(t, stdErr.Retryable)
			assert.Contains(t, stdErr.Details, "elasticsearch")
		})
	}
}
