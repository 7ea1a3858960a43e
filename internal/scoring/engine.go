// internal/scoring/engine.go
package scoring

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strconv"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	apperrors "credit-scoring-workers/internal/common/errors"
	"credit-scoring-workers/internal/common/logger"
	"credit-scoring-workers/internal/common/metrics"
)

const (
	DefaultHistoryTimeout = 3 * time.Second

	// DefaultContributionScale multiplies the weighted sum before BaseScore is
	// added. WithContributionScale(1) gives the literal weighted sum + 300.
	DefaultContributionScale = 5.0

	tracerName = "credit-scoring-workers/internal/scoring"
)

// Engine scores applicant profiles. It holds no per-call state and is safe
// for concurrent use.
type Engine struct {
	history HistorySource
	sink    RunSink
	log     logger.Logger
	tracer  trace.Tracer

	weights           Weights
	calibrator        Calibrator
	historyLimit      int
	historyTimeout    time.Duration
	contributionScale float64

	now   func() time.Time
	newID func() string
}

type Option func(*Engine)

// WithWeights replaces the base weights. Invalid weights are normalized.
func WithWeights(w Weights) Option {
	return func(e *Engine) {
		if w.Validate() != nil {
			w = w.Normalize()
		}
		e.weights = w
	}
}

func WithCalibrator(c Calibrator) Option {
	return func(e *Engine) {
		if c != nil {
			e.calibrator = c
		}
	}
}

// WithHistoryLimit caps the sample size. Values outside 1..MaxHistoryRecords
// are ignored.
func WithHistoryLimit(n int) Option {
	return func(e *Engine) {
		if n > 0 && n <= MaxHistoryRecords {
			e.historyLimit = n
		}
	}
}

func WithHistoryTimeout(d time.Duration) Option {
	return func(e *Engine) {
		if d > 0 {
			e.historyTimeout = d
		}
	}
}

// WithContributionScale sets the multiplier applied to the weighted sum
// before the base score is added.
func WithContributionScale(s float64) Option {
	return func(e *Engine) {
		if s > 0 && !math.IsInf(s, 0) {
			e.contributionScale = s
		}
	}
}

// WithTracerProvider traces scoring calls through tp instead of the global
// provider.
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(e *Engine) {
		if tp != nil {
			e.tracer = tp.Tracer(tracerName)
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		if now != nil {
			e.now = now
		}
	}
}

func WithIDGenerator(fn func() string) Option {
	return func(e *Engine) {
		if fn != nil {
			e.newID = fn
		}
	}
}

// New builds an Engine. history and sink may be nil: a nil source scores
// against an empty sample and a nil sink makes SaveResult a no-op.
func New(history HistorySource, sink RunSink, log logger.Logger, opts ...Option) *Engine {
	if log == nil {
		log = logger.NewNoOpLogger()
	}
	e := &Engine{
		history:           history,
		sink:              sink,
		log:               log.WithFields(map[string]interface{}{"component": "credit-scoring-engine"}),
		tracer:            otel.Tracer(tracerName),
		weights:           DefaultWeights(),
		calibrator:        StaticCalibrator{},
		historyLimit:      MaxHistoryRecords,
		historyTimeout:    DefaultHistoryTimeout,
		contributionScale: DefaultContributionScale,
		now:               time.Now,
		newID:             uuid.NewString,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Score always returns a usable result. When the full pipeline fails the
// result is the degraded basic score and Outcome says so.
func (e *Engine) Score(ctx context.Context, p ApplicantProfile) Result {
	ctx, span := e.tracer.Start(ctx, "scoring.Score", trace.WithAttributes(
		attribute.String("credit.loan_type", string(p.LoanType)),
		attribute.String("credit.income_source", string(p.IncomeSource)),
	))
	defer span.End()

	status := HistoryUnavailable
	res, err := e.scoreFull(ctx, p, &status)
	if err != nil {
		e.log.WithError(err).Warn("Full scoring pipeline failed, using degraded score", map[string]interface{}{
			"loanType":     p.LoanType,
			"incomeSource": p.IncomeSource,
		})
		span.RecordError(err)
		span.SetStatus(codes.Error, "degraded")
		res = e.degraded(p, status, err)
	}

	span.SetAttributes(
		attribute.Int("credit.score", res.Score),
		attribute.String("credit.risk_tier", string(res.RiskTier)),
		attribute.String("credit.outcome", string(res.Outcome)),
		attribute.String("credit.history_status", string(res.HistoryStatus)),
	)
	metrics.CreditScoresCalculated.WithLabelValues(string(res.Outcome), string(res.RiskTier)).Inc()
	metrics.CreditScoreDistribution.Observe(float64(res.Score))

	e.log.Debug("Credit score calculated", map[string]interface{}{
		"score":         res.Score,
		"riskTier":      res.RiskTier,
		"outcome":       res.Outcome,
		"historyStatus": res.HistoryStatus,
	})
	return res
}

func (e *Engine) scoreFull(ctx context.Context, p ApplicantProfile, status *HistoryStatus) (res Result, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("scoring panic: %v", r)
		}
	}()

	sample, hs := e.loadHistory(ctx)
	*status = hs

	weights := e.calibrator.Calibrate(e.weights, sample)
	if err := weights.Validate(); err != nil {
		return Result{}, fmt.Errorf("calibrator %s: %w", e.calibrator.Name(), err)
	}
	metrics.CreditWeightsCalibrated.WithLabelValues(e.calibrator.Name(), strconv.FormatBool(weights != e.weights)).Inc()

	breakdown := &Breakdown{
		Categories: make(map[Category]CategoryScore, len(Categories)),
		SampleSize: len(sample),
	}
	for _, c := range Categories {
		raw := scorers[c](p)
		if !isFinite(raw) {
			return Result{}, fmt.Errorf("%w: %s scorer returned %v", ErrNonFiniteScore, c, raw)
		}
		w := weights.Get(c)
		breakdown.Categories[c] = CategoryScore{Raw: raw, Weight: w, Weighted: raw * w}
		breakdown.WeightedSum += raw * w
	}

	computed := BaseScore + breakdown.WeightedSum*e.contributionScale
	delta, similar := mlAdjustment(p, sample)
	breakdown.MLAdjustment = delta
	breakdown.SimilarCases = similar
	computed += delta
	if !isFinite(computed) {
		return Result{}, fmt.Errorf("%w: combined score %v", ErrNonFiniteScore, computed)
	}

	score := ClampScore(computed)
	factors := Explain(p)

	return Result{
		CreditScoreResult: CreditScoreResult{
			Score:                score,
			RiskTier:             ClassifyRisk(score),
			Confidence:           Confidence(p, len(sample)),
			ProbabilityOfDefault: ProbabilityOfDefault(p),
			PositiveFactors:      factors.Positive,
			NegativeFactors:      factors.Negative,
			NeutralFactors:       factors.Neutral,
			Recommendations:      Recommend(p, score),
			Breakdown:            breakdown,
		},
		Outcome:       OutcomeFull,
		HistoryStatus: hs,
		Weights:       weights,
		ScoredAt:      e.now().UTC(),
	}, nil
}

// degraded computes base + raw income + raw stability. It cannot fail.
func (e *Engine) degraded(p ApplicantProfile, status HistoryStatus, cause error) Result {
	basic := float64(BaseScore)
	func() {
		defer func() {
			if r := recover(); r != nil {
				basic = BaseScore
			}
		}()
		basic += IncomeScore(p) + StabilityScore(p)
	}()

	score := ClampScore(basic)
	return Result{
		CreditScoreResult: CreditScoreResult{
			Score:                score,
			RiskTier:             ClassifyRisk(score),
			Confidence:           degradedConfidence,
			ProbabilityOfDefault: degradedDefaultProbability,
			PositiveFactors:      []string{},
			NegativeFactors:      []string{},
			NeutralFactors:       []string{},
			Recommendations:      []string{},
		},
		Outcome:        OutcomeDegraded,
		DegradedReason: cause.Error(),
		HistoryStatus:  status,
		Weights:        e.weights,
		ScoredAt:       e.now().UTC(),
	}
}

type fetchResult struct {
	records []HistoricalRecord
	err     error
	panic   interface{}
}

// loadHistory returns an empty sample when the source fails or times out.
// A panic inside the source is re-raised on the calling goroutine.
func (e *Engine) loadHistory(ctx context.Context) ([]HistoricalRecord, HistoryStatus) {
	if e.history == nil {
		return nil, HistoryEmpty
	}

	ctx, span := e.tracer.Start(ctx, "scoring.loadHistory", trace.WithAttributes(
		attribute.Int("credit.history_limit", e.historyLimit),
	))
	defer span.End()

	ctx, cancel := context.WithTimeout(ctx, e.historyTimeout)
	defer cancel()

	done := make(chan fetchResult, 1)
	go func() {
		var out fetchResult
		defer func() {
			if r := recover(); r != nil {
				out.panic = r
			}
			done <- out
		}()
		out.records, out.err = e.history.FetchHistory(ctx, e.historyLimit)
	}()

	var out fetchResult
	select {
	case out = <-done:
	case <-ctx.Done():
		out.err = ctx.Err()
	}

	if out.panic != nil {
		panic(fmt.Sprintf("history source: %v", out.panic))
	}

	if out.err != nil {
		reason := "error"
		if errors.Is(out.err, context.DeadlineExceeded) {
			reason = "timeout"
		}
		metrics.CreditHistoryFetchFailures.WithLabelValues(reason).Inc()
		span.RecordError(out.err)
		span.SetStatus(codes.Error, reason)
		fields := apperrors.NewHistoryFetchFailedError(out.err).LogFields()
		fields["reason"] = reason
		fields["limit"] = e.historyLimit
		e.log.WithError(out.err).Warn("Historical sample unavailable, scoring without history", fields)
		return nil, HistoryUnavailable
	}

	records := out.records
	if len(records) > e.historyLimit {
		records = records[:e.historyLimit]
	}
	span.SetAttributes(attribute.Int("credit.history_size", len(records)))
	if len(records) == 0 {
		return nil, HistoryEmpty
	}
	return records, HistoryLoaded
}

// SaveResult appends a scoring run to the sink. Failures are logged and
// counted; the return value reports whether the run was stored.
func (e *Engine) SaveResult(ctx context.Context, applicationID string, p ApplicantProfile, res Result) (saved bool) {
	if e.sink == nil {
		return false
	}

	ctx, span := e.tracer.Start(ctx, "scoring.SaveResult", trace.WithAttributes(
		attribute.String("credit.application_id", applicationID),
	))
	defer span.End()

	run := ScoringRun{
		ID:            e.newID(),
		ApplicationID: applicationID,
		Input:         p,
		Result:        res.CreditScoreResult,
		Outcome:       res.Outcome,
		CreatedAt:     e.now().UTC(),
	}

	log := e.log.WithFields(map[string]interface{}{
		"applicationId": applicationID,
		"runId":         run.ID,
	})

	defer func() {
		if r := recover(); r != nil {
			saved = false
			log.Error("Scoring run sink panicked", map[string]interface{}{"panic": fmt.Sprint(r)})
			metrics.CreditScoringRunsSaved.WithLabelValues("failed").Inc()
		}
	}()

	if err := e.sink.SaveRun(ctx, run); err != nil {
		err = fmt.Errorf("%w: %w", ErrScoringRunNotStored, err)
		span.RecordError(err)
		span.SetStatus(codes.Error, "persist failed")
		log.WithError(err).Error("Failed to persist scoring run", apperrors.NewScoringPersistFailedError(err).LogFields())
		metrics.CreditScoringRunsSaved.WithLabelValues("failed").Inc()
		return false
	}

	metrics.CreditScoringRunsSaved.WithLabelValues("saved").Inc()
	log.Debug("Scoring run persisted", nil)
	return true
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
