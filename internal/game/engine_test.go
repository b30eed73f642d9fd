package game

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gokatarajesh/cloud-architect-quest/internal/catalog"
)

// seqSource replays a fixed sequence of draws.
type seqSource struct {
	draws []int
	calls int
}

func (s *seqSource) IntN(n int) int {
	v := s.draws[s.calls%len(s.draws)] % n
	s.calls++
	return v
}

type panicSource struct{}

func (panicSource) IntN(int) int { panic("source must not be consulted") }

func question(prompt string, correct int) catalog.Question {
	return catalog.Question{
		Prompt:          prompt,
		Options:         []string{prompt + " a", prompt + " b", prompt + " c"},
		Correct:         correct,
		CorrectFeedback: prompt + " right",
		WrongFeedback:   prompt + " wrong",
	}
}

func testCatalog(t *testing.T) *catalog.Catalog {
	t.Helper()
	c, err := catalog.New(catalog.Definition{Scenarios: []catalog.Scenario{
		{
			Key:            "solo",
			Title:          "Solo",
			SuccessSummary: "solo done",
			Stages: []catalog.Stage{
				{Key: "only", Name: "Only Stage", Pool: []catalog.Question{question("q0", 1)}},
			},
		},
		{
			Key:            "trio",
			Title:          "Trio",
			SuccessSummary: "trio done",
			Stages: []catalog.Stage{
				{Key: "s0", Name: "Stage Zero", Pool: []catalog.Question{question("s0q0", 0)}},
				{Key: "s1", Name: "Stage One", Pool: []catalog.Question{
					question("s1q0", 0), question("s1q1", 1), question("s1q2", 2),
				}},
				{Key: "s2", Name: "Stage Two", Pool: []catalog.Question{question("s2q0", 2)}},
			},
		},
	}})
	require.NoError(t, err)
	return c
}

func newTestEngine(t *testing.T, src Source) *Engine {
	t.Helper()
	return NewEngine(testCatalog(t), NewSelector(src))
}

func mustApply(t *testing.T, e *Engine, s Session, evs ...Event) Session {
	t.Helper()
	for _, ev := range evs {
		next, err := e.Apply(s, ev)
		require.NoError(t, err, "event %s in phase %s", ev.Kind, s.Phase)
		s = next
	}
	return s
}

func atStage(t *testing.T, e *Engine, key string) Session {
	t.Helper()
	return mustApply(t, e, NewSession(), Start(), ChooseScenario(key), BeginStages())
}

func TestCorrectAnswerThenAcknowledgeCompletes(t *testing.T) {
	e := newTestEngine(t, nil)
	s := atStage(t, e, "solo")
	require.Equal(t, PhaseStage, s.Phase)
	assert.Equal(t, 0, s.StageIndex)

	s = mustApply(t, e, s, SubmitAnswer(1))
	assert.Equal(t, PhaseStage, s.Phase)
	assert.Equal(t, 1, s.Score)
	require.NotNil(t, s.Feedback)
	assert.Equal(t, "q0 right", s.Feedback.Text)
	assert.Equal(t, 0, s.Feedback.StageIndex)

	s = mustApply(t, e, s, Acknowledge())
	assert.Equal(t, PhaseCompleted, s.Phase)
	assert.Equal(t, 1, s.Score)
	assert.Equal(t, 1, s.StageIndex)
	assert.Nil(t, s.Feedback)

	sum, err := e.Summary(s)
	require.NoError(t, err)
	assert.Equal(t, 1, sum.Score)
	assert.Equal(t, 1, sum.StageCount)
	assert.Equal(t, 1.0, sum.Accuracy)
	assert.True(t, sum.Perfect)
	assert.Equal(t, "solo done", sum.SuccessSummary)
}

func TestWrongAnswerCrashesAndRetryReturnsToStage(t *testing.T) {
	e := newTestEngine(t, nil)
	s := atStage(t, e, "solo")

	s = mustApply(t, e, s, SubmitAnswer(2))
	assert.Equal(t, PhaseCrashed, s.Phase)
	assert.Equal(t, 0, s.Score)
	require.NotNil(t, s.Crash)
	assert.Equal(t, "Only Stage", s.Crash.StageName)
	assert.Equal(t, "q0", s.Crash.Prompt)
	assert.Equal(t, "q0 wrong", s.Crash.Feedback)

	s = mustApply(t, e, s, RetryStage())
	assert.Equal(t, PhaseStage, s.Phase)
	assert.Equal(t, 0, s.StageIndex)
	assert.Nil(t, s.Crash)
	assert.Equal(t, 0, s.Score)
	assert.Equal(t, 2, s.Attempts[0])
}

func TestSubmitTwiceBeforeAcknowledgeIsInvalidState(t *testing.T) {
	e := newTestEngine(t, nil)
	s := mustApply(t, e, atStage(t, e, "solo"), SubmitAnswer(1))

	_, err := e.Apply(s, SubmitAnswer(1))
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInvalidState))
	assert.Equal(t, 1, s.Score, "rejected event must not change the session")
}

func TestChooseUnknownScenarioIsNotFound(t *testing.T) {
	e := newTestEngine(t, nil)
	s := mustApply(t, e, NewSession(), Start())

	_, err := e.Apply(s, ChooseScenario("unknown"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNotFound))
	assert.True(t, errors.Is(err, catalog.ErrNotFound))
	assert.Equal(t, PhaseScenarioSelect, s.Phase)
}

func TestSubmitOutOfRangeIsInvalidChoice(t *testing.T) {
	e := newTestEngine(t, nil)
	s := atStage(t, e, "solo")

	for _, choice := range []int{99, 3, -1} {
		_, err := e.Apply(s, SubmitAnswer(choice))
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrInvalidChoice), "choice %d", choice)

		var gerr *Error
		require.True(t, errors.As(err, &gerr))
		assert.Equal(t, CodeInvalidChoice, gerr.Code)
	}
	assert.Equal(t, PhaseStage, s.Phase)
	assert.Nil(t, s.Feedback)
}

func TestEventsRejectedOutsideTheirPhase(t *testing.T) {
	e := newTestEngine(t, nil)
	start := NewSession()
	selecting := mustApply(t, e, start, Start())
	intro := mustApply(t, e, selecting, ChooseScenario("solo"))
	stage := mustApply(t, e, intro, BeginStages())
	answered := mustApply(t, e, stage, SubmitAnswer(1))
	crashed := mustApply(t, e, stage, SubmitAnswer(0))
	completed := mustApply(t, e, answered, Acknowledge())

	cases := []struct {
		name string
		s    Session
		ev   Event
	}{
		{"begin from start", start, BeginStages()},
		{"choose from start", start, ChooseScenario("solo")},
		{"start twice", selecting, Start()},
		{"submit from select", selecting, SubmitAnswer(0)},
		{"acknowledge without feedback", stage, Acknowledge()},
		{"retry from stage", stage, RetryStage()},
		{"restart from stage", stage, RestartScenario()},
		{"change from stage", stage, ChangeScenario()},
		{"submit after crash", crashed, SubmitAnswer(1)},
		{"retry after completion", completed, RetryStage()},
		{"restart from intro", intro, RestartScenario()},
		{"change from select", selecting, ChangeScenario()},
		{"unknown event", stage, Event{Kind: "jump"}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			before := tc.s.Clone()
			_, err := e.Apply(tc.s, tc.ev)
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrInvalidState))
			assert.Equal(t, before, tc.s)
		})
	}
}

func TestResetFromAnyPhaseReturnsInitialSession(t *testing.T) {
	e := newTestEngine(t, nil)
	stage := atStage(t, e, "trio")

	states := map[string]Session{
		"start":     NewSession(),
		"select":    mustApply(t, e, NewSession(), Start()),
		"intro":     mustApply(t, e, NewSession(), Start(), ChooseScenario("trio")),
		"stage":     stage,
		"answered":  mustApply(t, e, stage, SubmitAnswer(0)),
		"crashed":   mustApply(t, e, stage, SubmitAnswer(1)),
		"completed": mustApply(t, e, atStage(t, e, "solo"), SubmitAnswer(1), Acknowledge()),
	}

	for name, s := range states {
		t.Run(name, func(t *testing.T) {
			out := mustApply(t, e, s, Reset())
			assert.Equal(t, NewSession(), out)
			assert.Equal(t, PhaseStart, out.Phase)
			assert.Equal(t, 0, out.StageIndex)
			assert.Equal(t, 0, out.Score)
			assert.Nil(t, out.Feedback)
			assert.Nil(t, out.Crash)
		})
	}
}

func TestStageIndexAdvancesByOnePerAcknowledge(t *testing.T) {
	e := newTestEngine(t, &seqSource{draws: []int{1}})
	s := atStage(t, e, "trio")
	sc, err := testCatalog(t).GetScenario("trio")
	require.NoError(t, err)

	prev := s.StageIndex
	for s.Phase == PhaseStage {
		q, ok := e.CurrentQuestion(s)
		require.True(t, ok)
		s = mustApply(t, e, s, SubmitAnswer(q.Correct))
		assert.Equal(t, prev, s.StageIndex, "submit must not move the cursor")
		assert.LessOrEqual(t, s.Score, s.StageIndex+1)

		s = mustApply(t, e, s, Acknowledge())
		assert.Equal(t, prev+1, s.StageIndex)
		assert.LessOrEqual(t, s.StageIndex, sc.StageCount())
		assert.LessOrEqual(t, s.Score, s.StageIndex)
		prev = s.StageIndex
	}

	assert.Equal(t, PhaseCompleted, s.Phase)
	assert.Equal(t, sc.StageCount(), s.StageIndex)
	assert.Equal(t, 3, s.Score)
}

func TestRetryDoesNotInflateScore(t *testing.T) {
	e := newTestEngine(t, nil)
	s := atStage(t, e, "trio")

	s = mustApply(t, e, s, SubmitAnswer(2), RetryStage())
	s = mustApply(t, e, s, SubmitAnswer(0))
	assert.Equal(t, 0, s.Score, "stage passed on a retry earns no point")
	require.NotNil(t, s.Feedback)

	s = mustApply(t, e, s, Acknowledge())
	q, ok := e.CurrentQuestion(s)
	require.True(t, ok)
	s = mustApply(t, e, s, SubmitAnswer(q.Correct), Acknowledge(), SubmitAnswer(2), Acknowledge())
	require.Equal(t, PhaseCompleted, s.Phase)
	assert.Equal(t, 2, s.Score)

	sum, err := e.Summary(s)
	require.NoError(t, err)
	require.Len(t, sum.Outcomes, 3)
	assert.False(t, sum.Outcomes[0].FirstAttempt)
	assert.Equal(t, 2, sum.Outcomes[0].Attempts)
	assert.True(t, sum.Outcomes[1].FirstAttempt)
	assert.False(t, sum.Perfect)
}

func TestScoreNeverDecreases(t *testing.T) {
	e := newTestEngine(t, &seqSource{draws: []int{0, 1, 2}})
	s := atStage(t, e, "trio")
	s = mustApply(t, e, s, SubmitAnswer(0), Acknowledge())
	require.Equal(t, 1, s.Score)

	events := []Event{SubmitAnswer(2), RetryStage(), SubmitAnswer(2), RetryStage()}
	for _, ev := range events {
		next, err := e.Apply(s, ev)
		if err != nil {
			continue
		}
		assert.GreaterOrEqual(t, next.Score, s.Score)
		s = next
	}
}

func TestRestartScenarioStartsOver(t *testing.T) {
	e := newTestEngine(t, &seqSource{draws: []int{0}})
	crashed := mustApply(t, e, atStage(t, e, "trio"), SubmitAnswer(0), Acknowledge(), SubmitAnswer(2))
	require.Equal(t, PhaseCrashed, crashed.Phase)
	require.Equal(t, 1, crashed.Score)

	s := mustApply(t, e, crashed, RestartScenario())
	assert.Equal(t, PhaseScenarioIntro, s.Phase)
	assert.Equal(t, "trio", s.ScenarioKey)
	assert.Equal(t, 0, s.Score)
	assert.Equal(t, 0, s.StageIndex)
	assert.Empty(t, s.Pinned)
	assert.Empty(t, s.Attempts)
	assert.Nil(t, s.Crash)
	assert.Nil(t, s.Feedback)

	completed := mustApply(t, e, atStage(t, e, "solo"), SubmitAnswer(1), Acknowledge())
	s = mustApply(t, e, completed, RestartScenario())
	assert.Equal(t, PhaseScenarioIntro, s.Phase)
	assert.Equal(t, "solo", s.ScenarioKey)
}

func TestChangeScenarioUnsetsSelection(t *testing.T) {
	e := newTestEngine(t, nil)
	intro := mustApply(t, e, NewSession(), Start(), ChooseScenario("solo"))
	crashed := mustApply(t, e, intro, BeginStages(), SubmitAnswer(0))
	completed := mustApply(t, e, intro, BeginStages(), SubmitAnswer(1), Acknowledge())

	for name, s := range map[string]Session{"intro": intro, "crashed": crashed, "completed": completed} {
		t.Run(name, func(t *testing.T) {
			out := mustApply(t, e, s, ChangeScenario())
			assert.Equal(t, PhaseScenarioSelect, out.Phase)
			assert.Empty(t, out.ScenarioKey)
			assert.Equal(t, 0, out.Score)
			assert.Nil(t, out.Crash)
		})
	}
}

func TestPinnedQuestionStableWithinAttempt(t *testing.T) {
	src := &seqSource{draws: []int{2, 0}}
	e := newTestEngine(t, src)
	s := mustApply(t, e, atStage(t, e, "trio"), SubmitAnswer(0), Acknowledge())
	require.Equal(t, 1, s.StageIndex)
	require.Equal(t, 2, s.Pinned[1])
	calls := src.calls

	for i := 0; i < 5; i++ {
		q, ok := e.CurrentQuestion(s)
		require.True(t, ok)
		assert.Equal(t, "s1q2", q.Prompt)
		v := e.View(s)
		require.NotNil(t, v.Question)
		assert.Equal(t, "s1q2", v.Question.Prompt)
	}
	assert.Equal(t, calls, src.calls, "reads must not draw new questions")

	// The pinned question is the one graded: option 2 is correct for s1q2 only.
	next := mustApply(t, e, s, SubmitAnswer(2))
	require.NotNil(t, next.Feedback)
	assert.Equal(t, "s1q2 right", next.Feedback.Text)
}

func TestRetryRerollsCrashedStage(t *testing.T) {
	src := &seqSource{draws: []int{1, 0}}
	e := newTestEngine(t, src)
	s := mustApply(t, e, atStage(t, e, "trio"), SubmitAnswer(0), Acknowledge())
	require.Equal(t, 1, s.Pinned[1])

	s = mustApply(t, e, s, SubmitAnswer(0))
	require.Equal(t, PhaseCrashed, s.Phase)
	assert.Equal(t, "s1q1", s.Crash.Prompt)

	s = mustApply(t, e, s, RetryStage())
	assert.Equal(t, 0, s.Pinned[1])
	q, ok := e.CurrentQuestion(s)
	require.True(t, ok)
	assert.Equal(t, "s1q0", q.Prompt)
}

func TestSummaryReflectsQuestionsActuallyFaced(t *testing.T) {
	e := newTestEngine(t, &seqSource{draws: []int{2}})
	s := mustApply(t, e, atStage(t, e, "trio"),
		SubmitAnswer(0), Acknowledge(),
		SubmitAnswer(2), Acknowledge(),
		SubmitAnswer(2), Acknowledge(),
	)
	require.Equal(t, PhaseCompleted, s.Phase)

	sum, err := e.Summary(s)
	require.NoError(t, err)
	require.Len(t, sum.Outcomes, 3)
	assert.Equal(t, "s1q2", sum.Outcomes[1].Prompt)
	assert.Equal(t, "s1q2 c", sum.Outcomes[1].IdealOption)
	assert.Equal(t, "s1q2 right", sum.Outcomes[1].Rationale)
	assert.Equal(t, 3, sum.Score)

	_, err = e.Summary(atStage(t, e, "trio"))
	assert.True(t, errors.Is(err, ErrInvalidState))
}

func TestApplyDoesNotMutateInput(t *testing.T) {
	e := newTestEngine(t, &seqSource{draws: []int{1}})
	s := mustApply(t, e, atStage(t, e, "trio"), SubmitAnswer(0))
	before := s.Clone()

	_ = mustApply(t, e, s, Acknowledge())
	assert.Equal(t, before, s)
}

func TestViewPerPhase(t *testing.T) {
	e := newTestEngine(t, nil)

	v := e.View(NewSession())
	assert.Equal(t, PhaseStart, v.Phase)
	assert.Equal(t, []EventKind{EventStart, EventReset}, v.AllowedEvents)

	sel := mustApply(t, e, NewSession(), Start())
	v = e.View(sel)
	require.Len(t, v.Scenarios, 2)
	assert.Equal(t, "solo", v.Scenarios[0].Key)

	intro := mustApply(t, e, sel, ChooseScenario("trio"))
	v = e.View(intro)
	require.NotNil(t, v.Scenario)
	assert.Equal(t, "Trio", v.Scenario.Title)
	assert.Equal(t, 3, v.StageCount)
	assert.Nil(t, v.Question)

	stage := mustApply(t, e, intro, BeginStages())
	v = e.View(stage)
	require.NotNil(t, v.Stage)
	assert.Equal(t, 1, v.Stage.Number)
	assert.Equal(t, 3, v.Stage.Count)
	require.NotNil(t, v.Question)
	assert.Len(t, v.Question.Options, 3)
	assert.Empty(t, v.Feedback)

	answered := mustApply(t, e, stage, SubmitAnswer(0))
	v = e.View(answered)
	assert.Equal(t, "s0q0 right", v.Feedback)
	assert.Equal(t, []EventKind{EventAcknowledge, EventReset}, v.AllowedEvents)

	crashed := mustApply(t, e, stage, SubmitAnswer(1))
	v = e.View(crashed)
	require.NotNil(t, v.Crash)
	assert.Equal(t, "Stage Zero", v.Crash.StageName)
	assert.Nil(t, v.Summary)

	completed := mustApply(t, e, atStage(t, e, "solo"), SubmitAnswer(1), Acknowledge())
	v = e.View(completed)
	require.NotNil(t, v.Summary)
	assert.Equal(t, 1, v.Summary.Score)
	assert.Nil(t, v.Stage)
}

func TestControllerKeepsSessionOnRejectedEvent(t *testing.T) {
	c := NewController(newTestEngine(t, nil))

	v, err := c.Dispatch(Start())
	require.NoError(t, err)
	assert.Equal(t, PhaseScenarioSelect, v.Phase)

	_, err = c.Dispatch(ChooseScenario("nope"))
	require.Error(t, err)
	assert.Equal(t, PhaseScenarioSelect, c.View().Phase)

	for _, ev := range []Event{ChooseScenario("solo"), BeginStages(), SubmitAnswer(1), Acknowledge()} {
		_, err := c.Dispatch(ev)
		require.NoError(t, err, fmt.Sprint(ev.Kind))
	}
	assert.Equal(t, PhaseCompleted, c.Session().Phase)
	assert.Equal(t, 1, c.Session().Score)
}

func TestParseEventKind(t *testing.T) {
	k, ok := ParseEventKind("submit_answer")
	assert.True(t, ok)
	assert.Equal(t, EventSubmitAnswer, k)

	_, ok = ParseEventKind("teleport")
	assert.False(t, ok)
}
