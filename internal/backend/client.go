package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"candidate-dashboard/internal/common/config"
	"candidate-dashboard/internal/common/errors"
	commonhttp "candidate-dashboard/internal/common/http"
	"candidate-dashboard/internal/common/logger"
	"candidate-dashboard/internal/models"
)

// Resume is the optional file part of a form submission.
type Resume struct {
	Filename string
	Content  io.Reader
}

// Client talks to the recruitment backend record and admin API.
type Client struct {
	baseURL string
	http    *commonhttp.Client
	logger  logger.Logger
}

func NewClient(cfg config.BackendConfig, log logger.Logger) *Client {
	return &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		http: commonhttp.NewClient(config.GetDuration(cfg.Timeout),
			commonhttp.WithBearerToken(cfg.Token),
		),
		logger: log.WithFields(map[string]interface{}{"component": "backend-client"}),
	}
}

// errorBody is the shape of a non-2xx answer. errors may be absent.
type errorBody struct {
	Success bool              `json:"success"`
	Message string            `json:"message"`
	Error   string            `json:"error"`
	Errors  map[string]string `json:"errors"`
}

// FetchRecords returns up to limit records, newest first as ordered by the backend.
func (c *Client) FetchRecords(ctx context.Context, limit int) ([]models.CandidateRecord, error) {
	endpoint := fmt.Sprintf("%s/forms?limit=%s", c.baseURL, url.QueryEscape(strconv.Itoa(limit)))

	var payload struct {
		Data []models.CandidateRecord `json:"data"`
	}
	if err := c.getJSON(ctx, endpoint, &payload); err != nil {
		return nil, errors.NewRecordFetchFailedError("backend", err)
	}
	if payload.Data == nil {
		payload.Data = []models.CandidateRecord{}
	}

	c.logger.Debug("fetched records", map[string]interface{}{
		"limit": limit,
		"count": len(payload.Data),
	})
	return payload.Data, nil
}

// Comments returns the comment thread of one record.
func (c *Client) Comments(ctx context.Context, id string) (*models.CommentThread, error) {
	if id == "" {
		return nil, errors.NewInvalidInputError("record id is required")
	}
	endpoint := fmt.Sprintf("%s/forms/%s/comments", c.baseURL, url.PathEscape(id))

	var payload struct {
		Success bool                 `json:"success"`
		Data    models.CommentThread `json:"data"`
	}
	if err := c.getJSON(ctx, endpoint, &payload); err != nil {
		return nil, errors.NewRecordFetchFailedError("backend", err)
	}
	if payload.Data.Comments == nil {
		payload.Data.Comments = []models.Comment{}
	}
	return &payload.Data, nil
}

// Companies lists the companies managed through the admin API.
func (c *Client) Companies(ctx context.Context) ([]models.Company, error) {
	var payload struct {
		Data []models.Company `json:"data"`
	}
	if err := c.getJSON(ctx, c.baseURL+"/admin/companies", &payload); err != nil {
		return nil, errors.NewRecordFetchFailedError("backend", err)
	}
	return payload.Data, nil
}

// SaveForm creates a record when id is empty and updates it otherwise. Only the given
// fields are written, so an update leaves the others as stored. It returns the record id
// reported by the backend.
func (c *Client) SaveForm(ctx context.Context, id string, fields [][2]string, resume *Resume) (string, error) {
	body := &bytes.Buffer{}
	mw := multipart.NewWriter(body)
	for _, kv := range fields {
		if err := mw.WriteField(kv[0], kv[1]); err != nil {
			return "", errors.NewInvalidInputError(fmt.Sprintf("encode field %s: %v", kv[0], err))
		}
	}
	if resume != nil && resume.Content != nil {
		part, err := mw.CreateFormFile("resume", resume.Filename)
		if err != nil {
			return "", errors.NewInvalidInputError(fmt.Sprintf("encode resume: %v", err))
		}
		if _, err := io.Copy(part, resume.Content); err != nil {
			return "", errors.NewInvalidInputError(fmt.Sprintf("read resume: %v", err))
		}
	}
	if err := mw.Close(); err != nil {
		return "", errors.NewInvalidInputError(fmt.Sprintf("encode form: %v", err))
	}

	method := http.MethodPost
	endpoint := c.baseURL + "/forms"
	if id != "" {
		method = http.MethodPut
		endpoint = fmt.Sprintf("%s/forms/%s", c.baseURL, url.PathEscape(id))
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, body)
	if err != nil {
		return "", errors.NewInvalidInputError(fmt.Sprintf("build request: %v", err))
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return "", errors.NewTimeoutError("backend", err)
		}
		return "", errors.NewBackendMutationFailedError(0, "Backend unreachable", nil)
	}
	defer resp.Body.Close()

	raw, _ := io.ReadAll(resp.Body)
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var eb errorBody
		_ = json.Unmarshal(raw, &eb)
		msg := eb.Message
		if msg == "" {
			msg = eb.Error
		}
		c.logger.Warn("backend rejected form", map[string]interface{}{
			"method": method,
			"status": resp.StatusCode,
			"fields": len(eb.Errors),
		})
		return "", errors.NewBackendMutationFailedError(resp.StatusCode, msg, eb.Errors)
	}

	var saved struct {
		Data struct {
			ID string `json:"_id"`
		} `json:"data"`
	}
	if err := json.Unmarshal(raw, &saved); err != nil {
		c.logger.Warn("could not decode save response", map[string]interface{}{"error": err})
	}
	if saved.Data.ID == "" {
		saved.Data.ID = id
	}

	c.logger.Info("form saved", map[string]interface{}{
		"method":   method,
		"recordId": saved.Data.ID,
	})
	return saved.Data.ID, nil
}

func (c *Client) getJSON(ctx context.Context, endpoint string, dest interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("request %s: %w", endpoint, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("request %s: status %d", endpoint, resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(dest); err != nil {
		return fmt.Errorf("decode %s: %w", endpoint, err)
	}
	return nil
}
