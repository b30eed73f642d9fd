package catalog

// Question is one multiple-choice item inside a stage pool.
type Question struct {
	Prompt          string   `yaml:"prompt"`
	Options         []string `yaml:"options"`
	Correct         int      `yaml:"correct"`
	CorrectFeedback string   `yaml:"correct_feedback"`
	WrongFeedback   string   `yaml:"wrong_feedback"`
}

// IdealOption returns the label of the correct option.
func (q Question) IdealOption() string {
	return q.Options[q.Correct]
}

// Stage is one step of a scenario. Pool holds the interchangeable questions for the
// stage; a pool of one behaves as a fixed question.
type Stage struct {
	Key         string     `yaml:"key"`
	Name        string     `yaml:"name"`
	Description string     `yaml:"description"`
	Pool        []Question `yaml:"questions"`
}

// Scenario is a themed quest with an ordered list of stages.
type Scenario struct {
	Key            string  `yaml:"key"`
	Title          string  `yaml:"title"`
	Avatar         string  `yaml:"avatar"`
	Description    string  `yaml:"description"`
	SuccessSummary string  `yaml:"success_summary"`
	Stages         []Stage `yaml:"stages"`
}

// StageCount is a convenience for len(s.Stages).
func (s Scenario) StageCount() int {
	return len(s.Stages)
}

// Definition is the raw, unvalidated catalog document.
type Definition struct {
	Scenarios []Scenario `yaml:"scenarios"`
}
