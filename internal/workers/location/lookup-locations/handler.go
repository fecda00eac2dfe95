// internal/workers/location/lookup-locations/handler.go
package lookuplocations

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"

	"candidate-dashboard/internal/common/errors"
	"candidate-dashboard/internal/common/logger"
	"candidate-dashboard/internal/location"
	"candidate-dashboard/pkg/registry"
)

const (
	TaskType = "lookup-locations"
)

// Lookup is satisfied by *location.Gateway.
type Lookup interface {
	LookupStates(ctx context.Context, query string) location.Result
	LookupCities(ctx context.Context, query, stateCode string) location.Result
}

type Handler struct {
	config       *Config
	lookup       Lookup
	companies    location.Suggester
	catalog      location.Catalog
	logger       logger.Logger
	errorHandler *errors.ErrorHandler
}

// NewHandler wires the geo lookup. companies may be nil, in which case the companies field
// is rejected.
func NewHandler(config *Config, lookup Lookup, companies location.Suggester, log logger.Logger) *Handler {
	log = log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:       config,
		lookup:       lookup,
		companies:    companies,
		logger:       log,
		errorHandler: errors.NewErrorHandler(log),
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
	var result location.Result

	switch location.Field(strings.ToLower(strings.TrimSpace(input.Field))) {
	case location.FieldStates:
		result = h.lookup.LookupStates(ctx, input.Query)
	case location.FieldCities:
		code := strings.TrimSpace(input.StateCode)
		if code == "" && input.State != "" {
			code = h.catalog.CodeFor(input.State)
			if code == "" {
				return nil, errors.NewInvalidInputError(fmt.Sprintf("unknown state %q", input.State))
			}
		}
		result = h.lookup.LookupCities(ctx, input.Query, code)
	case location.FieldCompanies:
		if h.companies == nil {
			return nil, errors.NewInvalidInputError("company suggestions are not configured")
		}
		result = location.Result{Names: h.companies.Suggest(ctx, input.Query, ""), Outcome: location.OutcomeRemote}
		if len(result.Names) == 0 {
			result.Outcome = location.OutcomeEmpty
		}
	default:
		return nil, errors.NewInvalidInputError(fmt.Sprintf("field must be one of %q, %q, %q; got %q",
			location.FieldStates, location.FieldCities, location.FieldCompanies, input.Field))
	}

	if result.Outcome == location.OutcomeCancelled && ctx.Err() != nil {
		return nil, errors.NewTimeoutError("geo", ctx.Err())
	}

	names := result.Names
	if names == nil {
		names = []string{}
	}

	h.logger.Debug("locations resolved", map[string]interface{}{
		"field":   input.Field,
		"count":   len(names),
		"outcome": string(result.Outcome),
	})

	return &Output{
		Names:   names,
		Count:   len(names),
		Outcome: string(result.Outcome),
	}, nil
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
