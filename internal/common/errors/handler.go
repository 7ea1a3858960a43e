// internal/common/errors/handler.go
package errors

import (
	"context"
	"encoding/json"
	"time"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
)

const (
	baseRetryBackoff = 2 * time.Second
	maxRetryBackoff  = 30 * time.Second
)

// JobAction is the broker command used to report a failed job.
type JobAction int

const (
	ActionFail JobAction = iota
	ActionThrow
)

func (a JobAction) String() string {
	if a == ActionFail {
		return "fail"
	}
	return "throw"
}

// Resolution describes how a job failure is reported.
type Resolution struct {
	Action  JobAction
	Retries int32
	Backoff time.Duration
	Error   *BPMNError
}

// Resolve fails the job with retries for retryable codes while the broker
// still grants retries, and throws a BPMN error otherwise. Retries never
// exceed job.Retries-1. The backoff doubles with each retry already spent.
func Resolve(job entities.Job, err error) Resolution {
	bpmnErr := ConvertToBPMNError(normalizeError(err))

	if bpmnErr.Retries <= 0 || job.Retries <= 1 {
		return Resolution{Action: ActionThrow, Error: bpmnErr}
	}

	retries := min(job.Retries-1, int32(bpmnErr.Retries))
	spent := bpmnErr.Retries - int(retries)
	backoff := min(baseRetryBackoff<<spent, maxRetryBackoff)

	return Resolution{Action: ActionFail, Retries: retries, Backoff: backoff, Error: bpmnErr}
}

type Logger interface {
	Error(msg string, fields map[string]interface{})
}

// ErrorHandler reports job failures to the broker.
type ErrorHandler struct {
	logger Logger
}

func NewErrorHandler(logger Logger) *ErrorHandler {
	return &ErrorHandler{logger: logger}
}

func (h *ErrorHandler) HandleJobError(ctx context.Context, client worker.JobClient, job entities.Job, err error) *BPMNError {
	res := Resolve(job, err)
	h.logError(job, res)

	vars, marshalErr := json.Marshal(res.Error.ToErrorVariables())
	if marshalErr != nil {
		vars = []byte("{}")
	}

	var sendErr error
	switch res.Action {
	case ActionFail:
		sendErr = h.fail(ctx, client, job, res, string(vars))
	default:
		sendErr = h.throw(ctx, client, job, res, string(vars))
	}
	if sendErr != nil {
		h.logger.Error("Failed to report job error to broker", map[string]interface{}{
			"jobKey": job.Key,
			"action": res.Action.String(),
			"error":  sendErr.Error(),
		})
	}
	return res.Error
}

func (h *ErrorHandler) fail(ctx context.Context, client worker.JobClient, job entities.Job, res Resolution, vars string) error {
	cmd, err := client.NewFailJobCommand().
		JobKey(job.Key).
		Retries(res.Retries).
		RetryBackoff(res.Backoff).
		ErrorMessage(res.Error.Message).
		VariablesFromString(vars)
	if err != nil {
		return err
	}
	_, err = cmd.Send(ctx)
	return err
}

func (h *ErrorHandler) throw(ctx context.Context, client worker.JobClient, job entities.Job, res Resolution, vars string) error {
	cmd, err := client.NewThrowErrorCommand().
		JobKey(job.Key).
		ErrorCode(res.Error.Code).
		ErrorMessage(res.Error.Message).
		VariablesFromString(vars)
	if err != nil {
		return err
	}
	_, err = cmd.Send(ctx)
	return err
}

func normalizeError(err error) *StandardError {
	if stdErr, ok := AsStandardError(err); ok {
		return stdErr
	}
	return NewInternalError(err)
}

func (h *ErrorHandler) logError(job entities.Job, res Resolution) {
	h.logger.Error("Job failed", map[string]interface{}{
		"jobKey":           job.Key,
		"jobType":          job.Type,
		"bpmnErrorCode":    res.Error.Code,
		"originalCode":     res.Error.ErrorVariables["originalErrorCode"],
		"message":          res.Error.Message,
		"details":          res.Error.Details,
		"action":           res.Action.String(),
		"retries":          res.Retries,
		"backoff":          res.Backoff.String(),
		"workflowInstance": job.ProcessInstanceKey,
	})
}
