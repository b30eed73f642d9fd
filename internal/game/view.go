package game

import (
	"github.com/gokatarajesh/cloud-architect-quest/internal/catalog"
	"github.com/gokatarajesh/cloud-architect-quest/internal/game/scoring"
)

// ScenarioCard is the display metadata of a scenario.
type ScenarioCard struct {
	Key         string `json:"key"`
	Title       string `json:"title"`
	Avatar      string `json:"avatar,omitempty"`
	Description string `json:"description"`
	StageCount  int    `json:"stage_count"`
}

// StageProgress locates the player inside the scenario.
type StageProgress struct {
	Index       int    `json:"index"`
	Number      int    `json:"number"`
	Count       int    `json:"count"`
	Key         string `json:"key"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

// QuestionView is what the player chooses from.
type QuestionView struct {
	Prompt  string   `json:"prompt"`
	Options []string `json:"options"`
}

// CrashView explains why the run ended.
type CrashView struct {
	StageName string `json:"stage_name"`
	Prompt    string `json:"prompt"`
	Feedback  string `json:"feedback"`
}

// View is the render model handed to the presentation layer after every event.
type View struct {
	Phase         Phase            `json:"phase"`
	Scenarios     []ScenarioCard   `json:"scenarios,omitempty"`
	Scenario      *ScenarioCard    `json:"scenario,omitempty"`
	Stage         *StageProgress   `json:"stage,omitempty"`
	Question      *QuestionView    `json:"question,omitempty"`
	Feedback      string           `json:"feedback,omitempty"`
	Crash         *CrashView       `json:"crash,omitempty"`
	Summary       *scoring.Summary `json:"summary,omitempty"`
	Score         int              `json:"score"`
	StageCount    int              `json:"stage_count"`
	AllowedEvents []EventKind      `json:"allowed_events"`
}

func cardFor(sc catalog.Scenario) ScenarioCard {
	return ScenarioCard{
		Key:         sc.Key,
		Title:       sc.Title,
		Avatar:      sc.Avatar,
		Description: sc.Description,
		StageCount:  sc.StageCount(),
	}
}

// Scenarios lists the selectable scenarios in catalog order.
func (e *Engine) Scenarios() []ScenarioCard {
	list := e.catalog.ListScenarios()
	cards := make([]ScenarioCard, 0, len(list))
	for _, sc := range list {
		cards = append(cards, cardFor(sc))
	}
	return cards
}

// View renders s. It reads the catalog but never changes the session.
func (e *Engine) View(s Session) View {
	v := View{
		Phase:         s.Phase,
		Score:         s.Score,
		AllowedEvents: AllowedEvents(s),
	}

	switch s.Phase {
	case PhaseStart:
		return v
	case PhaseScenarioSelect:
		v.Scenarios = e.Scenarios()
		return v
	case PhaseScenarioIntro, PhaseStage, PhaseCrashed, PhaseCompleted:
	default:
		return v
	}

	sc, err := e.catalog.GetScenario(s.ScenarioKey)
	if err != nil {
		return v
	}
	card := cardFor(sc)
	v.Scenario = &card
	v.StageCount = sc.StageCount()

	switch s.Phase {
	case PhaseStage, PhaseCrashed:
		st := sc.Stages[s.StageIndex]
		v.Stage = &StageProgress{
			Index:       s.StageIndex,
			Number:      s.StageIndex + 1,
			Count:       sc.StageCount(),
			Key:         st.Key,
			Name:        st.Name,
			Description: st.Description,
		}
	}

	switch s.Phase {
	case PhaseStage:
		if q, ok := e.CurrentQuestion(s); ok {
			v.Question = &QuestionView{Prompt: q.Prompt, Options: append([]string(nil), q.Options...)}
		}
		if s.Feedback != nil {
			v.Feedback = s.Feedback.Text
		}
	case PhaseCrashed:
		if s.Crash != nil {
			v.Crash = &CrashView{
				StageName: s.Crash.StageName,
				Prompt:    s.Crash.Prompt,
				Feedback:  s.Crash.Feedback,
			}
		}
	case PhaseCompleted:
		if sum, err := e.Summary(s); err == nil {
			v.Summary = &sum
		}
	}

	return v
}
