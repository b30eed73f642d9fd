package scoring

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/gokatarajesh/cloud-architect-quest/internal/catalog"
)

func record(key string, attempts int) StageRecord {
	return StageRecord{
		StageKey:  key,
		StageName: "Stage " + key,
		Question: catalog.Question{
			Prompt:          key + "?",
			Options:         []string{"x", "y"},
			Correct:         1,
			CorrectFeedback: key + " because",
		},
		Attempts: attempts,
	}
}

func TestFirstAttemptCredit(t *testing.T) {
	e := NewEngine()
	assert.True(t, e.FirstAttemptCredit(1))
	assert.False(t, e.FirstAttemptCredit(2))
}

func TestSummarizePerfectRun(t *testing.T) {
	sum := NewEngine().Summarize([]StageRecord{record("a", 1), record("b", 1)}, 2, "well done")

	assert.Equal(t, 2, sum.Score)
	assert.Equal(t, 2, sum.StageCount)
	assert.Equal(t, 1.0, sum.Accuracy)
	assert.Equal(t, 100, sum.Percent)
	assert.True(t, sum.Perfect)
	assert.Equal(t, "well done", sum.SuccessSummary)
	if assert.Len(t, sum.Outcomes, 2) {
		assert.Equal(t, "a?", sum.Outcomes[0].Prompt)
		assert.Equal(t, "y", sum.Outcomes[0].IdealOption)
		assert.Equal(t, "a because", sum.Outcomes[0].Rationale)
		assert.True(t, sum.Outcomes[1].FirstAttempt)
	}
}

func TestSummarizeWithRetries(t *testing.T) {
	sum := NewEngine().Summarize([]StageRecord{record("a", 3), record("b", 1)}, 1, "")

	assert.InDelta(t, 0.5, sum.Accuracy, 1e-9)
	assert.Equal(t, 50, sum.Percent)
	assert.False(t, sum.Perfect)
	assert.False(t, sum.Outcomes[0].FirstAttempt)
	assert.Equal(t, 3, sum.Outcomes[0].Attempts)
	assert.True(t, sum.Outcomes[1].FirstAttempt, "credit follows the attempt count alone")
}

func TestSummarizeEmpty(t *testing.T) {
	sum := NewEngine().Summarize(nil, 0, "")
	assert.Zero(t, sum.Accuracy)
	assert.False(t, sum.Perfect)
	assert.Empty(t, sum.Outcomes)
}
