package game

// EventKind names an input the presentation layer can send.
type EventKind string

const (
	EventStart           EventKind = "start"
	EventChooseScenario  EventKind = "choose_scenario"
	EventBeginStages     EventKind = "begin_stages"
	EventSubmitAnswer    EventKind = "submit_answer"
	EventAcknowledge     EventKind = "acknowledge"
	EventRetryStage      EventKind = "retry_stage"
	EventRestartScenario EventKind = "restart_scenario"
	EventChangeScenario  EventKind = "change_scenario"
	EventReset           EventKind = "reset"
)

var knownEvents = map[EventKind]bool{
	EventStart:           true,
	EventChooseScenario:  true,
	EventBeginStages:     true,
	EventSubmitAnswer:    true,
	EventAcknowledge:     true,
	EventRetryStage:      true,
	EventRestartScenario: true,
	EventChangeScenario:  true,
	EventReset:           true,
}

// ParseEventKind validates a wire value.
func ParseEventKind(s string) (EventKind, bool) {
	k := EventKind(s)
	return k, knownEvents[k]
}

// Event is a single player action. ScenarioKey is read by EventChooseScenario and
// Choice by EventSubmitAnswer; other kinds ignore both.
type Event struct {
	Kind        EventKind
	ScenarioKey string
	Choice      int
}

func Start() Event { return Event{Kind: EventStart} }
func ChooseScenario(key string) Event { return Event{Kind: EventChooseScenario, ScenarioKey: key} }
func BeginStages() Event { return Event{Kind: EventBeginStages} }
func SubmitAnswer(choice int) Event { return Event{Kind: EventSubmitAnswer, Choice: choice} }
func Acknowledge() Event { return Event{Kind: EventAcknowledge} }
func RetryStage() Event { return Event{Kind: EventRetryStage} }
func RestartScenario() Event { return Event{Kind: EventRestartScenario} }
func ChangeScenario() Event { return Event{Kind: EventChangeScenario} }
func Reset() Event { return Event{Kind: EventReset} }
