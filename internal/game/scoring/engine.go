package scoring

import (
	"math"

	"github.com/gokatarajesh/cloud-architect-quest/internal/catalog"
)

// StageRecord is what the run remembers about one stage.
// A run only completes once every stage was answered correctly, so records
// carry no pass flag.
type StageRecord struct {
	StageKey  string
	StageName string
	Question  catalog.Question
	Attempts  int
}

// StageOutcome is the per-stage line of the completion summary.
type StageOutcome struct {
	StageKey     string `json:"stage_key"`
	StageName    string `json:"stage_name"`
	Prompt       string `json:"prompt"`
	IdealOption  string `json:"ideal_option"`
	Rationale    string `json:"rationale"`
	Attempts     int    `json:"attempts"`
	FirstAttempt bool   `json:"first_attempt"`
}

// Summary aggregates a finished run.
type Summary struct {
	Outcomes       []StageOutcome `json:"outcomes"`
	Score          int            `json:"score"`
	StageCount     int            `json:"stage_count"`
	Accuracy       float64        `json:"accuracy"`
	Percent        int            `json:"percent"`
	Perfect        bool           `json:"perfect"`
	SuccessSummary string         `json:"success_summary,omitempty"`
}

// Engine turns stage records into a summary.
type Engine struct{}

// NewEngine creates a scoring engine.
func NewEngine() *Engine {
	return &Engine{}
}

// FirstAttemptCredit reports whether a correct answer earns a point: only the
// first attempt at a stage within a run counts.
func (e *Engine) FirstAttemptCredit(attempts int) bool {
	return attempts <= 1
}

// Summarize builds the completion report. Outcomes follow record order and use
// the question instance actually answered at each stage.
func (e *Engine) Summarize(records []StageRecord, score int, successSummary string) Summary {
	outcomes := make([]StageOutcome, 0, len(records))
	for _, rec := range records {
		outcomes = append(outcomes, StageOutcome{
			StageKey:     rec.StageKey,
			StageName:    rec.StageName,
			Prompt:       rec.Question.Prompt,
			IdealOption:  rec.Question.IdealOption(),
			Rationale:    rec.Question.CorrectFeedback,
			Attempts:     rec.Attempts,
			FirstAttempt: e.FirstAttemptCredit(rec.Attempts),
		})
	}

	var accuracy float64
	if len(records) > 0 {
		accuracy = float64(score) / float64(len(records))
	}

	return Summary{
		Outcomes:       outcomes,
		Score:          score,
		StageCount:     len(records),
		Accuracy:       accuracy,
		Percent:        int(math.Round(accuracy * 100)),
		Perfect:        len(records) > 0 && score == len(records),
		SuccessSummary: successSummary,
	}
}
