// internal/workers/records/fetch-candidate-comments/handler.go
package fetchcandidatecomments

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"

	"candidate-dashboard/internal/common/errors"
	"candidate-dashboard/internal/common/logger"
	"candidate-dashboard/internal/models"
	"candidate-dashboard/pkg/registry"
)

const (
	TaskType = "fetch-candidate-comments"
)

// CommentReader is satisfied by *backend.Client.
type CommentReader interface {
	Comments(ctx context.Context, id string) (*models.CommentThread, error)
}

type Handler struct {
	config       *Config
	reader       CommentReader
	logger       logger.Logger
	errorHandler *errors.ErrorHandler
}

func NewHandler(config *Config, reader CommentReader, log logger.Logger) *Handler {
	log = log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:       config,
		reader:       reader,
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
	id := strings.TrimSpace(input.RecordID)
	if id == "" {
		return nil, errors.NewInvalidInputError("recordId is required")
	}

	thread, err := h.reader.Comments(ctx, id)
	if err != nil {
		if ctx.Err() != nil {
			return nil, errors.NewTimeoutError("backend", ctx.Err())
		}
		return nil, err
	}

	comments := thread.Comments
	if comments == nil {
		comments = []models.Comment{}
	}
	total := thread.TotalComments
	if total < len(comments) {
		total = len(comments)
	}
	return &Output{
		RecordID:      id,
		Comments:      comments,
		TotalComments: total,
		UserName:      thread.UserName,
		UserID:        thread.UserID,
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
