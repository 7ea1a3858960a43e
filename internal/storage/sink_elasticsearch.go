// internal/storage/sink_elasticsearch.go
package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/elastic/go-elasticsearch/v8"

	"credit-scoring-workers/internal/scoring"
)

const DefaultRunsIndex = "credit-scoring-runs"

const runsIndexMapping = `{
	"mappings": {
		"properties": {
			"runId":                {"type": "keyword"},
			"applicationId":        {"type": "keyword"},
			"score":                {"type": "integer"},
			"riskTier":             {"type": "keyword"},
			"confidence":           {"type": "float"},
			"probabilityOfDefault": {"type": "float"},
			"outcome":              {"type": "keyword"},
			"loanType":             {"type": "keyword"},
			"incomeSource":         {"type": "keyword"},
			"clientType":           {"type": "keyword"},
			"monthlyIncome":        {"type": "double"},
			"requestedAmount":      {"type": "double"},
			"positiveFactors":      {"type": "text"},
			"negativeFactors":      {"type": "text"},
			"neutralFactors":       {"type": "text"},
			"recommendations":      {"type": "text"},
			"createdAt":            {"type": "date"}
		}
	}
}`

// runDocument is the flattened reporting view of a scoring run.
type runDocument struct {
	RunID                string    `json:"runId"`
	ApplicationID        string    `json:"applicationId"`
	Score                int       `json:"score"`
	RiskTier             string    `json:"riskTier"`
	Confidence           float64   `json:"confidence"`
	ProbabilityOfDefault float64   `json:"probabilityOfDefault"`
	Outcome              string    `json:"outcome"`
	LoanType             string    `json:"loanType"`
	IncomeSource         string    `json:"incomeSource"`
	ClientType           string    `json:"clientType,omitempty"`
	MonthlyIncome        float64   `json:"monthlyIncome"`
	RequestedAmount      float64   `json:"requestedAmount"`
	PositiveFactors      []string  `json:"positiveFactors"`
	NegativeFactors      []string  `json:"negativeFactors"`
	NeutralFactors       []string  `json:"neutralFactors"`
	Recommendations      []string  `json:"recommendations"`
	CreatedAt            time.Time `json:"createdAt"`
}

func newRunDocument(run scoring.ScoringRun) runDocument {
	return runDocument{
		RunID:                run.ID,
		ApplicationID:        run.ApplicationID,
		Score:                run.Result.Score,
		RiskTier:             string(run.Result.RiskTier),
		Confidence:           run.Result.Confidence,
		ProbabilityOfDefault: run.Result.ProbabilityOfDefault,
		Outcome:              string(run.Outcome),
		LoanType:             string(run.Input.LoanType),
		IncomeSource:         string(run.Input.IncomeSource),
		ClientType:           string(run.Input.ClientType),
		MonthlyIncome:        run.Input.MonthlyIncome,
		RequestedAmount:      run.Input.RequestedAmount,
		PositiveFactors:      run.Result.PositiveFactors,
		NegativeFactors:      run.Result.NegativeFactors,
		NeutralFactors:       run.Result.NeutralFactors,
		Recommendations:      run.Result.Recommendations,
		CreatedAt:            run.CreatedAt,
	}
}

// ElasticsearchRunSink indexes scoring runs for reporting dashboards.
type ElasticsearchRunSink struct {
	client *elasticsearch.Client
	index  string
}

func NewElasticsearchRunSink(client *elasticsearch.Client, index string) *ElasticsearchRunSink {
	if index == "" {
		index = DefaultRunsIndex
	}
	return &ElasticsearchRunSink{client: client, index: index}
}

// SaveRun creates the document keyed by run id. A second write with the same
// id is rejected, keeping the index append only.
func (s *ElasticsearchRunSink) SaveRun(ctx context.Context, run scoring.ScoringRun) error {
	body, err := json.Marshal(newRunDocument(run))
	if err != nil {
		return fmt.Errorf("marshal run document: %w", err)
	}

	res, err := s.client.Index(
		s.index,
		bytes.NewReader(body),
		s.client.Index.WithContext(ctx),
		s.client.Index.WithDocumentID(run.ID),
		s.client.Index.WithOpType("create"),
	)
	if err != nil {
		return fmt.Errorf("index scoring run %s: %w", run.ID, err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return fmt.Errorf("index scoring run %s: %s", run.ID, res.String())
	}
	return nil
}

// EnsureIndex creates the runs index with its mapping when missing.
func (s *ElasticsearchRunSink) EnsureIndex(ctx context.Context) error {
	res, err := s.client.Indices.Exists([]string{s.index}, s.client.Indices.Exists.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("check index %s: %w", s.index, err)
	}
	res.Body.Close()

	if res.StatusCode == http.StatusOK {
		return nil
	}
	if res.StatusCode != http.StatusNotFound {
		return fmt.Errorf("check index %s: %s", s.index, res.Status())
	}

	res, err = s.client.Indices.Create(
		s.index,
		s.client.Indices.Create.WithContext(ctx),
		s.client.Indices.Create.WithBody(strings.NewReader(runsIndexMapping)),
	)
	if err != nil {
		return fmt.Errorf("create index %s: %w", s.index, err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return fmt.Errorf("create index %s: %s", s.index, res.String())
	}
	return nil
}
