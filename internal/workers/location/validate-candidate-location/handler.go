// internal/workers/location/validate-candidate-location/handler.go
package validatecandidatelocation

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
	TaskType = "validate-candidate-location"

	invalidCityMessage = "City is not valid for the selected state"
)

// Validator is satisfied by *location.Gateway.
type Validator interface {
	IsValidCity(ctx context.Context, city, stateName string) bool
}

type Handler struct {
	config       *Config
	validator    Validator
	catalog      location.Catalog
	logger       logger.Logger
	errorHandler *errors.ErrorHandler
}

func NewHandler(config *Config, validator Validator, log logger.Logger) *Handler {
	log = log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:       config,
		validator:    validator,
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
	city := strings.TrimSpace(input.City)
	state := strings.TrimSpace(input.State)
	if city == "" || state == "" {
		return nil, errors.NewInvalidInputError("city and state are required")
	}

	valid := h.validator.IsValidCity(ctx, city, state)
	if !valid && ctx.Err() != nil {
		return nil, errors.NewTimeoutError("geo", ctx.Err())
	}

	output := &Output{
		Valid:     valid,
		City:      city,
		State:     state,
		StateCode: h.catalog.CodeFor(state),
	}
	if !valid {
		if input.FailOnInvalid {
			return nil, errors.NewCityInvalidError(city, state)
		}
		output.Message = invalidCityMessage
	}

	h.logger.Debug("city validated", map[string]interface{}{
		"city":  city,
		"state": state,
		"valid": valid,
	})
	return output, nil
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
