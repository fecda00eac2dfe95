// internal/workers/records/filter-candidate-records/handler.go
package filtercandidaterecords

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"

	"candidate-dashboard/internal/common/errors"
	"candidate-dashboard/internal/common/logger"
	"candidate-dashboard/internal/models"
	"candidate-dashboard/internal/records"
	"candidate-dashboard/pkg/registry"
)

const (
	TaskType = "filter-candidate-records"
)

type Handler struct {
	config       *Config
	source       records.Source
	engine       *records.Engine
	logger       logger.Logger
	errorHandler *errors.ErrorHandler
	now          func() time.Time

	mu        sync.Mutex
	snapshot  []models.CandidateRecord
	fetchedAt time.Time
}

func NewHandler(config *Config, source records.Source, engine *records.Engine, log logger.Logger) *Handler {
	log = log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:       config,
		source:       source,
		engine:       engine,
		logger:       log,
		errorHandler: errors.NewErrorHandler(log),
		now:          time.Now,
	}
}

func (h *Handler) Handle(client worker.JobClient, job entities.Job) error {
	h.logger.Info("processing job", map[string]interface{}{
		"jobKey":      job.Key,
		"workflowKey": job.ProcessInstanceKey,
	})

	if err := registry.ValidateJobInput(TaskType, []byte(job.Variables)); err != nil {
		h.errorHandler.HandleJobError(context.Background(), client, job, err)
		return err
	}

	var input Input
	if err := json.Unmarshal([]byte(job.Variables), &input); err != nil {
		stdErr := errors.NewInvalidInputError(fmt.Sprintf("parse input: %v", err))
		h.errorHandler.HandleJobError(context.Background(), client, job, stdErr)
		return stdErr
	}

	ctx, cancel := context.WithTimeout(context.Background(), h.config.Timeout)
	defer cancel()

	output, err := h.execute(ctx, &input)
	if err != nil {
		h.errorHandler.HandleJobError(context.Background(), client, job, err)
		return err
	}

	h.completeJob(client, job, output)
	return nil
}

func (h *Handler) execute(ctx context.Context, input *Input) (*Output, error) {
	criteria, err := h.criteriaFrom(input.Criteria)
	if err != nil {
		return nil, err
	}

	list, err := h.records(ctx, input.Refresh)
	if err != nil {
		return nil, err
	}

	pageSize := input.PageSize
	if pageSize <= 0 {
		pageSize = h.config.PageSize
	}
	view := records.NewView(h.engine, pageSize)
	view.SetRecords(list)
	if err := view.SetCriteria(criteria); err != nil {
		return nil, err
	}
	page := view.SetPage(input.Page)

	h.logger.Debug("records filtered", map[string]interface{}{
		"fetched":  len(list),
		"matched":  page.Total,
		"page":     page.Page,
		"pageSize": page.PageSize,
	})

	return &Output{
		Records:    page.Records,
		Page:       page.Page,
		PageSize:   page.PageSize,
		Total:      page.Total,
		TotalPages: page.TotalPages,
		Fetched:    len(list),
		Criteria:   view.Criteria(),
	}, nil
}

// criteriaFrom rejects unknown keys; bucket names are checked by the engine.
func (h *Handler) criteriaFrom(in map[string]string) (models.FilterCriteria, error) {
	var unknown []string
	c := models.NewFilterCriteria()
	for k, v := range in {
		if !models.IsKnownFilter(k) {
			unknown = append(unknown, k)
			continue
		}
		c[k] = strings.TrimSpace(v)
	}
	if len(unknown) > 0 {
		sort.Strings(unknown)
		return nil, errors.NewInvalidFilterCriteriaError(fmt.Sprintf("unknown filters: %s", strings.Join(unknown, ", ")))
	}
	return c, nil
}

// records returns the held snapshot, fetching it first when it is missing, stale or a
// refresh was asked for. Concurrent jobs share one fetch.
func (h *Handler) records(ctx context.Context, refresh bool) ([]models.CandidateRecord, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	fresh := h.snapshot != nil &&
		(h.config.SnapshotTTL <= 0 || h.now().Sub(h.fetchedAt) < h.config.SnapshotTTL)
	if fresh && !refresh {
		return h.snapshot, nil
	}

	list, err := h.source.FetchRecords(ctx, h.config.FetchLimit)
	if err != nil {
		if ctx.Err() != nil {
			return nil, errors.NewTimeoutError("records", ctx.Err())
		}
		if _, ok := errors.AsStandardError(err); ok {
			return nil, err
		}
		return nil, errors.NewRecordFetchFailedError("source", err)
	}
	if list == nil {
		list = []models.CandidateRecord{}
	}

	h.snapshot = list
	h.fetchedAt = h.now()
	h.logger.Info("record snapshot refreshed", map[string]interface{}{
		"count":   len(list),
		"refresh": refresh,
	})
	return list, nil
}

func (h *Handler) completeJob(client worker.JobClient, job entities.Job, output *Output) {
	cmd, err := client.NewCompleteJobCommand().
		JobKey(job.Key).
		VariablesFromObject(output)
	if err != nil {
		h.logger.Error("failed to create complete job command", map[string]interface{}{
			"error": err.Error(),
		})
		return
	}
	_, err = cmd.Send(context.Background())
	if err != nil {
		h.logger.Error("failed to send complete job command", map[string]interface{}{
			"error": err.Error(),
		})
	}
}

func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	return h.execute(ctx, input)
}
