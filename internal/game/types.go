// Package game implements the scenario state machine: phase transitions, per-stage
// question selection, scoring and the crash/retry branching. Every change to a
// Session goes through Engine.Apply.
package game

import "maps"

// Phase is the screen the player is currently on.
type Phase string

const (
	PhaseStart          Phase = "start"
	PhaseScenarioSelect Phase = "scenario_select"
	PhaseScenarioIntro  Phase = "scenario_intro"
	PhaseStage          Phase = "stage"
	PhaseCrashed        Phase = "crashed"
	PhaseCompleted      Phase = "completed"
)

// Feedback is the correct-answer narration waiting for the player to move on.
type Feedback struct {
	Text       string
	StageIndex int
}

// CrashInfo describes the wrong answer that ended the run.
type CrashInfo struct {
	StageIndex int
	StageName  string
	Prompt     string
	Feedback   string
}

// Session is the full state of one player's run. It is a value: Apply returns a
// new Session and never mutates the one passed in.
type Session struct {
	Phase       Phase
	ScenarioKey string
	StageIndex  int
	Score       int

	// Pinned maps a stage index to the pool index of the question chosen for the
	// current attempt at that stage.
	Pinned map[int]int
	// Attempts counts attempts per stage during the current run.
	Attempts map[int]int

	Feedback *Feedback
	Crash    *CrashInfo
}

// NewSession returns the initial session.
func NewSession() Session {
	return Session{
		Phase:    PhaseStart,
		Pinned:   map[int]int{},
		Attempts: map[int]int{},
	}
}

// Clone returns a copy that shares no mutable state with s.
func (s Session) Clone() Session {
	out := s
	out.Pinned = maps.Clone(s.Pinned)
	if out.Pinned == nil {
		out.Pinned = map[int]int{}
	}
	out.Attempts = maps.Clone(s.Attempts)
	if out.Attempts == nil {
		out.Attempts = map[int]int{}
	}
	if s.Feedback != nil {
		fb := *s.Feedback
		out.Feedback = &fb
	}
	if s.Crash != nil {
		ci := *s.Crash
		out.Crash = &ci
	}
	return out
}

// pinnedIndex returns the pinned pool index for stage, or -1.
func (s Session) pinnedIndex(stage int) int {
	if idx, ok := s.Pinned[stage]; ok {
		return idx
	}
	return -1
}
