// internal/workers/credit/calculate-credit-score/handler.go
package calculatecreditscore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"credit-scoring-workers/internal/common/camunda"
	apperrors "credit-scoring-workers/internal/common/errors"
	"credit-scoring-workers/internal/common/logger"
	"credit-scoring-workers/internal/common/metrics"
	"credit-scoring-workers/internal/common/observability"
	"credit-scoring-workers/internal/scoring"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
)

const (
	TaskType = "calculate-credit-score"
)

var errSchemaViolation = errors.New("job variables do not match schema")

// Scorer is the part of the scoring engine the worker needs.
type Scorer interface {
	Score(ctx context.Context, p scoring.ApplicantProfile) scoring.Result
	SaveResult(ctx context.Context, applicationID string, p scoring.ApplicantProfile, res scoring.Result) bool
}

type Handler struct {
	config     *Config
	scorer     Scorer
	obs        *observability.Observability
	errHandler *apperrors.ErrorHandler
	retry      *camunda.RetryConfig
	logger     logger.Logger
}

func NewHandler(config *Config, scorer Scorer, obs *observability.Observability, log logger.Logger) *Handler {
	if obs == nil {
		obs = &observability.Observability{}
	}
	if config.Timeout <= 0 {
		config.Timeout = 30 * time.Second
	}
	log = log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:     config,
		scorer:     scorer,
		obs:        obs,
		errHandler: apperrors.NewErrorHandler(log),
		retry:      camunda.DefaultRetryConfig,
		logger:     log,
	}
}

func (h *Handler) Handle(client worker.JobClient, job entities.Job) error {
	start := time.Now()
	metrics.WorkerJobsActive.WithLabelValues(TaskType).Inc()
	defer metrics.WorkerJobsActive.WithLabelValues(TaskType).Dec()

	h.logger.Info("processing job", map[string]interface{}{
		"jobKey":      job.Key,
		"workflowKey": job.ProcessInstanceKey,
	})

	ctx, cancel := context.WithTimeout(context.Background(), h.config.Timeout)
	defer cancel()

	output, err := h.process(ctx, job.Variables)
	if err != nil {
		bpmnErr := h.errHandler.HandleJobError(ctx, client, job, err)
		h.recordJob(ctx, start, "failed", bpmnErr.Code)
		return nil
	}

	if err := h.completeJob(ctx, client, job, output); err != nil {
		h.recordJob(ctx, start, "failed", string(apperrors.ErrCodeJobCompletionFailed))
		return err
	}

	h.recordJob(ctx, start, "completed", "")
	return nil
}

// process decodes and validates the variables, then scores.
func (h *Handler) process(ctx context.Context, variables string) (*Output, error) {
	if err := validateVariables(variables); err != nil {
		if errors.Is(err, errSchemaViolation) {
			return nil, apperrors.NewInvalidApplicantProfileError(err)
		}
		return nil, apperrors.NewParseError(err)
	}

	var input Input
	if err := json.Unmarshal([]byte(variables), &input); err != nil {
		return nil, apperrors.NewParseError(fmt.Errorf("parse input: %w", err))
	}

	if err := input.ApplicantProfile.Validate(); err != nil {
		return nil, apperrors.NewInvalidApplicantProfileError(err).
			WithMetadata("applicationId", input.ApplicationID)
	}

	return h.execute(ctx, &input)
}

func (h *Handler) execute(ctx context.Context, input *Input) (*Output, error) {
	result := h.scorer.Score(ctx, input.ApplicantProfile)

	persisted := false
	if h.config.PersistResults {
		persisted = h.scorer.SaveResult(ctx, input.ApplicationID, input.ApplicantProfile, result)
	}

	h.obs.RecordScore(ctx, result.Score, string(result.Outcome), string(result.RiskTier))

	fields := map[string]interface{}{
		"applicationId": input.ApplicationID,
		"creditScore":   result.Score,
		"riskRating":    result.RiskTier,
		"outcome":       result.Outcome,
		"historyStatus": result.HistoryStatus,
		"persisted":     persisted,
	}
	if result.Degraded() {
		for k, v := range apperrors.NewScoringDegradedError(result.DegradedReason).LogFields() {
			fields[k] = v
		}
		fields["degradedReason"] = result.DegradedReason
		h.logger.Warn("credit score calculated in degraded mode", fields)
	} else {
		h.logger.Info("credit score calculated", fields)
	}

	return &Output{
		CreditScore:          result.Score,
		RiskRating:           string(result.RiskTier),
		Confidence:           result.Confidence,
		ProbabilityOfDefault: result.ProbabilityOfDefault,
		PositiveFactors:      result.PositiveFactors,
		NegativeFactors:      result.NegativeFactors,
		NeutralFactors:       result.NeutralFactors,
		Recommendations:      result.Recommendations,
		ScoringOutcome:       string(result.Outcome),
		DegradedReason:       result.DegradedReason,
		HistoryStatus:        string(result.HistoryStatus),
		ScoredAt:             result.ScoredAt.UTC().Format(time.RFC3339),
		ResultPersisted:      persisted,
	}, nil
}

func (h *Handler) completeJob(ctx context.Context, client worker.JobClient, job entities.Job, output *Output) error {
	cmd, err := client.NewCompleteJobCommand().
		JobKey(job.Key).
		VariablesFromObject(output)
	if err != nil {
		h.logger.Error("failed to create complete job command", map[string]interface{}{
			"error": err,
		})
		return err
	}

	err = camunda.WithRetry(ctx, h.retry, "complete-job", func(ctx context.Context) error {
		_, err := cmd.Send(ctx)
		return err
	})
	if err != nil {
		appErr := apperrors.NewJobCompletionFailedError(err)
		fields := appErr.LogFields()
		fields["jobKey"] = job.Key
		h.logger.WithError(err).Error("failed to send complete job command", fields)
		return appErr
	}
	return nil
}

func (h *Handler) recordJob(ctx context.Context, start time.Time, status, errorCode string) {
	elapsed := time.Since(start)

	metrics.WorkerJobDuration.WithLabelValues(TaskType).Observe(elapsed.Seconds())
	if status == "completed" {
		metrics.WorkerJobsCompleted.WithLabelValues(TaskType).Inc()
	} else {
		metrics.WorkerJobsFailed.WithLabelValues(TaskType, errorCode).Inc()
	}

	h.obs.RecordJobProcessed(ctx, status)
	h.obs.RecordJobDuration(ctx, elapsed, status)
}

// Execute scores an already decoded input.
func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	return h.execute(ctx, input)
}

// Process runs the variable checks and scoring without a job client.
func (h *Handler) Process(ctx context.Context, variables string) (*Output, error) {
	return h.process(ctx, variables)
}
