package game

import (
	"errors"
	"fmt"
	"slices"

	"github.com/gokatarajesh/cloud-architect-quest/internal/catalog"
	"github.com/gokatarajesh/cloud-architect-quest/internal/game/scoring"
)

// Catalog is the read side of the content catalog the engine needs.
type Catalog interface {
	ListScenarios() []catalog.Scenario
	GetScenario(key string) (catalog.Scenario, error)
}

// Engine applies events to sessions. It holds no per-session state and is safe
// for concurrent use.
type Engine struct {
	catalog  Catalog
	selector *Selector
	scoring  *scoring.Engine
}

// NewEngine wires an engine to a catalog and selector. A nil selector uses the
// process-wide random source.
func NewEngine(cat Catalog, selector *Selector) *Engine {
	if selector == nil {
		selector = NewSelector(nil)
	}
	return &Engine{
		catalog:  cat,
		selector: selector,
		scoring:  scoring.NewEngine(),
	}
}

// AllowedEvents lists the events accepted in the session's current state.
func AllowedEvents(s Session) []EventKind {
	switch s.Phase {
	case PhaseStart:
		return []EventKind{EventStart, EventReset}
	case PhaseScenarioSelect:
		return []EventKind{EventChooseScenario, EventReset}
	case PhaseScenarioIntro:
		return []EventKind{EventBeginStages, EventChangeScenario, EventReset}
	case PhaseStage:
		if s.Feedback != nil {
			return []EventKind{EventAcknowledge, EventReset}
		}
		return []EventKind{EventSubmitAnswer, EventReset}
	case PhaseCrashed:
		return []EventKind{EventRetryStage, EventRestartScenario, EventChangeScenario, EventReset}
	case PhaseCompleted:
		return []EventKind{EventRestartScenario, EventChangeScenario, EventReset}
	default:
		return []EventKind{EventReset}
	}
}

// Apply returns the session that results from ev. On error the returned session is
// the zero value and s is untouched.
func (e *Engine) Apply(s Session, ev Event) (Session, error) {
	if _, ok := knownEvents[ev.Kind]; !ok {
		return Session{}, invalidState("unknown event %q", ev.Kind)
	}
	if !slices.Contains(AllowedEvents(s), ev.Kind) {
		if ev.Kind == EventSubmitAnswer && s.Phase == PhaseStage {
			return Session{}, invalidState("stage %d already answered; acknowledge to continue", s.StageIndex+1)
		}
		return Session{}, invalidState("event %q not allowed in phase %q", ev.Kind, s.Phase)
	}

	next := s.Clone()

	switch ev.Kind {
	case EventStart:
		next.Phase = PhaseScenarioSelect
		return next, nil

	case EventChooseScenario:
		return e.startRun(ev.ScenarioKey)

	case EventRestartScenario:
		return e.startRun(s.ScenarioKey)

	case EventBeginStages:
		sc, err := e.scenario(next)
		if err != nil {
			return Session{}, err
		}
		e.enterStage(&next, sc, 0)
		return next, nil

	case EventSubmitAnswer:
		return e.submit(next, ev.Choice)

	case EventAcknowledge:
		sc, err := e.scenario(next)
		if err != nil {
			return Session{}, err
		}
		next.Feedback = nil
		if next.StageIndex+1 < sc.StageCount() {
			e.enterStage(&next, sc, next.StageIndex+1)
			return next, nil
		}
		next.StageIndex = sc.StageCount()
		next.Phase = PhaseCompleted
		return next, nil

	case EventRetryStage:
		sc, err := e.scenario(next)
		if err != nil {
			return Session{}, err
		}
		i := next.StageIndex
		next.Crash = nil
		next.Pinned[i] = e.selector.SelectQuestion(sc.Stages[i].Pool, next.pinnedIndex(i), true)
		next.Attempts[i]++
		next.Phase = PhaseStage
		return next, nil

	case EventChangeScenario:
		out := NewSession()
		out.Phase = PhaseScenarioSelect
		return out, nil

	case EventReset:
		return NewSession(), nil
	}

	return Session{}, invalidState("unhandled event %q", ev.Kind)
}

// startRun resets all run state for key and moves to the scenario intro.
func (e *Engine) startRun(key string) (Session, error) {
	if _, err := e.catalog.GetScenario(key); err != nil {
		if errors.Is(err, catalog.ErrNotFound) {
			return Session{}, &Error{Code: CodeNotFound, Message: fmt.Sprintf("unknown scenario %q", key), Err: err}
		}
		return Session{}, fmt.Errorf("resolve scenario: %w", err)
	}

	s := NewSession()
	s.Phase = PhaseScenarioIntro
	s.ScenarioKey = key
	return s, nil
}

func (e *Engine) enterStage(s *Session, sc catalog.Scenario, i int) {
	s.StageIndex = i
	s.Pinned[i] = e.selector.SelectQuestion(sc.Stages[i].Pool, s.pinnedIndex(i), false)
	s.Attempts[i] = 1
	s.Phase = PhaseStage
}

func (e *Engine) submit(s Session, choice int) (Session, error) {
	sc, err := e.scenario(s)
	if err != nil {
		return Session{}, err
	}

	i := s.StageIndex
	stage := sc.Stages[i]
	s.Pinned[i] = e.selector.SelectQuestion(stage.Pool, s.pinnedIndex(i), false)
	q := stage.Pool[s.Pinned[i]]

	if choice < 0 || choice >= len(q.Options) {
		return Session{}, &Error{
			Code:    CodeInvalidChoice,
			Message: fmt.Sprintf("choice %d out of range [0, %d)", choice, len(q.Options)),
		}
	}

	if choice == q.Correct {
		if e.scoring.FirstAttemptCredit(s.Attempts[i]) {
			s.Score++
		}
		s.Feedback = &Feedback{Text: q.CorrectFeedback, StageIndex: i}
		return s, nil
	}

	s.Crash = &CrashInfo{
		StageIndex: i,
		StageName:  stage.Name,
		Prompt:     q.Prompt,
		Feedback:   q.WrongFeedback,
	}
	s.Phase = PhaseCrashed
	return s, nil
}

// scenario resolves the session's scenario. A session can only reference a key the
// catalog accepted, so a failure here means the catalog changed underneath it.
func (e *Engine) scenario(s Session) (catalog.Scenario, error) {
	sc, err := e.catalog.GetScenario(s.ScenarioKey)
	if err != nil {
		return catalog.Scenario{}, &Error{Code: CodeInvalidState, Message: "session scenario unavailable", Err: err}
	}
	return sc, nil
}

// CurrentQuestion returns the question pinned for the session's current stage.
func (e *Engine) CurrentQuestion(s Session) (catalog.Question, bool) {
	if s.Phase != PhaseStage && s.Phase != PhaseCrashed {
		return catalog.Question{}, false
	}
	sc, err := e.catalog.GetScenario(s.ScenarioKey)
	if err != nil || s.StageIndex >= sc.StageCount() {
		return catalog.Question{}, false
	}
	idx, ok := s.Pinned[s.StageIndex]
	if !ok {
		return catalog.Question{}, false
	}
	return sc.Stages[s.StageIndex].Pool[idx], true
}

// Summary reports the finished run. It is only available in PhaseCompleted.
func (e *Engine) Summary(s Session) (scoring.Summary, error) {
	if s.Phase != PhaseCompleted {
		return scoring.Summary{}, invalidState("summary not available in phase %q", s.Phase)
	}
	sc, err := e.scenario(s)
	if err != nil {
		return scoring.Summary{}, err
	}

	records := make([]scoring.StageRecord, 0, sc.StageCount())
	for i, st := range sc.Stages {
		records = append(records, scoring.StageRecord{
			StageKey:  st.Key,
			StageName: st.Name,
			Question:  st.Pool[s.Pinned[i]],
			Attempts:  s.Attempts[i],
		})
	}
	return e.scoring.Summarize(records, s.Score, sc.SuccessSummary), nil
}

// Controller owns one Session and feeds it events one at a time. It is not safe for
// concurrent use; hosts serialize access.
type Controller struct {
	engine  *Engine
	session Session
}

// NewController starts a controller at the initial session.
func NewController(engine *Engine) *Controller {
	return &Controller{engine: engine, session: NewSession()}
}

// Dispatch applies ev. The session only changes when the event is accepted.
func (c *Controller) Dispatch(ev Event) (View, error) {
	next, err := c.engine.Apply(c.session, ev)
	if err != nil {
		return View{}, err
	}
	c.session = next
	return c.engine.View(c.session), nil
}

// Session returns a snapshot of the current session.
func (c *Controller) Session() Session {
	return c.session.Clone()
}

// View renders the current session.
func (c *Controller) View() View {
	return c.engine.View(c.session)
}
