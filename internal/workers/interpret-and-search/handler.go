// internal/workers/interpret-and-search/handler.go
package interpretandsearch

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	apperrors "sante-search/internal/common/errors"
	"sante-search/internal/common/logger"
	"sante-search/internal/common/metrics"
	"sante-search/internal/search"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
)

const (
	TaskType = "interpret-and-search"
)

var (
	ErrSearchFailed = errors.New("SEARCH_FAILED")
)

// SearchEngine is the interpretation pipeline behind this worker, defined as
// an interface for mocking.
type SearchEngine interface {
	InterpretAndSearch(ctx context.Context, q search.Query) (*search.AggregatedResponse, error)
}

type Handler struct {
	config    *Config
	engine    SearchEngine
	errorsOut *apperrors.ErrorHandler
	logger    logger.Logger
}

func NewHandler(config *Config, engine SearchEngine, log logger.Logger) *Handler {
	scoped := log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:    config,
		engine:    engine,
		errorsOut: apperrors.NewErrorHandler(scoped),
		logger:    scoped,
	}
}

func (h *Handler) Handle(client worker.JobClient, job entities.Job) {
	startTime := time.Now()

	h.logger.Info("processing job", map[string]interface{}{
		"jobKey":      job.Key,
		"workflowKey": job.ProcessInstanceKey,
	})

	var input Input
	if err := json.Unmarshal([]byte(job.Variables), &input); err != nil {
		metrics.WorkerJobsFailed.WithLabelValues(TaskType, ErrorCodeInvalidQuery).Inc()
		h.failJob(client, job, ErrorCodeInvalidQuery, fmt.Sprintf("parse input: %v", err))
		return
	}

	if strings.TrimSpace(input.Query) == "" && len(input.UserContext) == 0 {
		metrics.WorkerJobsFailed.WithLabelValues(TaskType, ErrorCodeInvalidQuery).Inc()
		h.failJob(client, job, ErrorCodeInvalidQuery, "empty query without context")
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), h.config.Timeout)
	defer cancel()

	output, err := h.execute(ctx, &input)
	if err != nil {
		metrics.WorkerJobsFailed.WithLabelValues(TaskType, ErrorCodeSearchFailed).Inc()
		var stdErr *apperrors.StandardError
		if errors.As(err, &stdErr) {
			h.errorsOut.HandleJobError(ctx, client, job, stdErr)
			return
		}
		h.failJob(client, job, ErrorCodeSearchFailed, err.Error())
		return
	}

	metrics.WorkerJobsCompleted.WithLabelValues(TaskType).Inc()
	metrics.WorkerJobDuration.WithLabelValues(TaskType).Observe(time.Since(startTime).Seconds())
	h.completeJob(client, job, output)
}

func (h *Handler) execute(ctx context.Context, input *Input) (*Output, error) {
	response, err := h.engine.InterpretAndSearch(ctx, search.Query{
		Text:     input.Query,
		Language: input.Language,
		Context:  input.UserContext,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSearchFailed, err)
	}

	return &Output{
		Success: response.Success,
		Count:   response.Count,
		Items:   response.Items,
		Trace:   response.Trace,
	}, nil
}

func (h *Handler) completeJob(client worker.JobClient, job entities.Job, output *Output) {
	cmd, err := client.NewCompleteJobCommand().
		JobKey(job.Key).
		VariablesFromObject(output)
	if err != nil {
		h.logger.Error("failed to create complete job command", map[string]interface{}{
			"error": err,
		})
		return
	}
	_, err = cmd.Send(context.Background())
	if err != nil {
		h.logger.Error("failed to send complete job command", map[string]interface{}{
			"error": err,
		})
	}
}

func (h *Handler) failJob(client worker.JobClient, job entities.Job, errorCode, errorMessage string) {
	h.logger.Error("job failed", map[string]interface{}{
		"jobKey":       job.Key,
		"errorCode":    errorCode,
		"errorMessage": errorMessage,
	})

	_, err := client.NewThrowErrorCommand().
		JobKey(job.Key).
		ErrorCode(errorCode).
		ErrorMessage(errorMessage).
		Send(context.Background())
	if err != nil {
		h.logger.Error("failed to throw error", map[string]interface{}{
			"error": err,
		})
	}
}

func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	return h.execute(ctx, input)
}
