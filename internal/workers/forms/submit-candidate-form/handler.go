// internal/workers/forms/submit-candidate-form/handler.go
package submitcandidateform

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"

	"candidate-dashboard/internal/backend"
	"candidate-dashboard/internal/common/errors"
	"candidate-dashboard/internal/common/logger"
	"candidate-dashboard/internal/form"
	"candidate-dashboard/internal/models"
	"candidate-dashboard/pkg/registry"
)

const (
	TaskType = "submit-candidate-form"
)

type Handler struct {
	config       *Config
	validator    form.CityValidator
	saver        form.Saver
	logger       logger.Logger
	errorHandler *errors.ErrorHandler
}

func NewHandler(config *Config, validator form.CityValidator, saver form.Saver, log logger.Logger) *Handler {
	log = log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:       config,
		validator:    validator,
		saver:        saver,
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
	if err := checkFieldNames(input.Form); err != nil {
		return nil, err
	}
	resume, err := h.resumeFrom(input)
	if err != nil {
		return nil, err
	}

	o := form.New(form.Config{}, form.Dependencies{
		Validator: h.validator,
		Saver:     h.saver,
	}, h.logger)
	defer o.Close()

	// an update only carries the fields the job supplied; the backend keeps the rest
	if input.RecordID != "" {
		o.Edit(input.RecordID)
	}
	// Fields() lists each state before its city, so setting a state never wipes a city
	// that arrives in the same job.
	for _, kv := range (models.CandidateForm{}).Fields() {
		if v, ok := input.Form[kv[0]]; ok {
			if err := o.SetField(kv[0], strings.TrimSpace(v)); err != nil {
				return nil, err
			}
		}
	}

	id, err := o.Submit(ctx, resume)
	if err != nil {
		if ctx.Err() != nil {
			return nil, errors.NewTimeoutError("backend", ctx.Err())
		}
		return nil, err
	}
	return &Output{RecordID: id, Created: input.RecordID == ""}, nil
}

func checkFieldNames(values map[string]string) error {
	known := make(map[string]bool)
	for _, kv := range (models.CandidateForm{}).Fields() {
		known[kv[0]] = true
	}
	var unknown []string
	for k := range values {
		if !known[k] {
			unknown = append(unknown, k)
		}
	}
	if len(unknown) > 0 {
		sort.Strings(unknown)
		return errors.NewInvalidInputError(fmt.Sprintf("unknown form fields: %s", strings.Join(unknown, ", ")))
	}
	return nil
}

func (h *Handler) resumeFrom(input *Input) (*backend.Resume, error) {
	if input.ResumeBase64 == "" {
		return nil, nil
	}
	data, err := base64.StdEncoding.DecodeString(input.ResumeBase64)
	if err != nil {
		return nil, errors.NewInvalidInputError(fmt.Sprintf("resume is not valid base64: %v", err))
	}
	if h.config.MaxResumeBytes > 0 && len(data) > h.config.MaxResumeBytes {
		return nil, errors.NewInvalidInputError(fmt.Sprintf("resume exceeds %d bytes", h.config.MaxResumeBytes))
	}
	name := input.ResumeFilename
	if name == "" {
		name = "resume.pdf"
	}
	return &backend.Resume{Filename: name, Content: bytes.NewReader(data)}, nil
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
