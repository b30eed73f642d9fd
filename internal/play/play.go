// Package play is a line-oriented terminal front end for a single game session.
package play

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/rs/zerolog"

	"github.com/gokatarajesh/cloud-architect-quest/internal/game"
)

// Dispatcher is the part of game.Controller the terminal drives.
type Dispatcher interface {
	Dispatch(ev game.Event) (game.View, error)
	View() game.View
}

var _ Dispatcher = (*game.Controller)(nil)

// Terminal renders views and turns typed lines into events.
type Terminal struct {
	ctl    Dispatcher
	in     *bufio.Scanner
	out    io.Writer
	logger zerolog.Logger
}

func New(ctl Dispatcher, in io.Reader, out io.Writer, logger zerolog.Logger) *Terminal {
	return &Terminal{
		ctl:    ctl,
		in:     bufio.NewScanner(in),
		out:    out,
		logger: logger.With().Str("component", "terminal").Logger(),
	}
}

// Run loops until input ends, the player types "q", or ctx is canceled.
func (t *Terminal) Run(ctx context.Context) error {
	view := t.ctl.View()
	for {
		t.render(view)
		t.printf("%s> ", hint(view))

		if err := ctx.Err(); err != nil {
			return err
		}
		if !t.in.Scan() {
			t.printf("\n")
			return t.in.Err()
		}
		line := strings.TrimSpace(t.in.Text())
		if strings.EqualFold(line, "q") {
			t.printf("bye\n")
			return nil
		}

		ev, ok := parse(view, line)
		if !ok {
			t.printf("! unrecognised input %q\n", line)
			continue
		}
		next, err := t.ctl.Dispatch(ev)
		if err != nil {
			t.logger.Debug().Err(err).Str("event", string(ev.Kind)).Msg("event rejected")
			t.printf("! %v\n", err)
			continue
		}
		view = next
	}
}

// parse maps a typed line onto an event for the current screen. "b" goes back
// to the title screen from anywhere.
func parse(v game.View, line string) (game.Event, bool) {
	if strings.EqualFold(line, "b") {
		return game.Reset(), true
	}
	n, numErr := strconv.Atoi(line)

	switch v.Phase {
	case game.PhaseStart:
		return game.Start(), true
	case game.PhaseScenarioSelect:
		if numErr != nil || n < 1 || n > len(v.Scenarios) {
			return game.Event{}, false
		}
		return game.ChooseScenario(v.Scenarios[n-1].Key), true
	case game.PhaseScenarioIntro:
		switch strings.ToLower(line) {
		case "", "s":
			return game.BeginStages(), true
		case "c":
			return game.ChangeScenario(), true
		}
	case game.PhaseStage:
		if v.Feedback != "" {
			return game.Acknowledge(), true
		}
		if numErr != nil {
			return game.Event{}, false
		}
		// Out-of-range numbers are passed through so the engine reports them.
		return game.SubmitAnswer(n - 1), true
	case game.PhaseCrashed:
		switch strings.ToLower(line) {
		case "r":
			return game.RetryStage(), true
		case "s":
			return game.RestartScenario(), true
		case "c":
			return game.ChangeScenario(), true
		}
	case game.PhaseCompleted:
		switch strings.ToLower(line) {
		case "s":
			return game.RestartScenario(), true
		case "c":
			return game.ChangeScenario(), true
		}
	}
	return game.Event{}, false
}

func hint(v game.View) string {
	switch v.Phase {
	case game.PhaseStart:
		return "[enter] start"
	case game.PhaseScenarioSelect:
		return "[number] choose"
	case game.PhaseScenarioIntro:
		return "[enter] begin  [c] change scenario"
	case game.PhaseStage:
		if v.Feedback != "" {
			return "[enter] continue"
		}
		return "[number] answer"
	case game.PhaseCrashed:
		return "[r] retry stage  [s] restart  [c] change scenario"
	case game.PhaseCompleted:
		return "[s] play again  [c] change scenario"
	}
	return ""
}

func (t *Terminal) printf(format string, args ...any) {
	_, _ = fmt.Fprintf(t.out, format, args...)
}

func (t *Terminal) render(v game.View) {
	t.printf("\n")
	switch v.Phase {
	case game.PhaseStart:
		t.printf("CLOUD ARCHITECT QUEST\nMake architecture calls. One wrong call crashes the system.\n")

	case game.PhaseScenarioSelect:
		t.printf("Choose a scenario:\n")
		for i, sc := range v.Scenarios {
			t.printf("  %d. %s %s (%d stages)\n", i+1, sc.Avatar, sc.Title, sc.StageCount)
		}

	case game.PhaseScenarioIntro:
		if v.Scenario != nil {
			t.printf("%s %s\n\n%s\n", v.Scenario.Avatar, v.Scenario.Title, strings.TrimSpace(v.Scenario.Description))
		}

	case game.PhaseStage:
		if v.Stage != nil {
			t.printf("Stage %d/%d: %s   score %d/%d\n", v.Stage.Number, v.Stage.Count, v.Stage.Name, v.Score, v.StageCount)
		}
		if v.Feedback != "" {
			t.printf("\n%s\n", strings.TrimSpace(v.Feedback))
			return
		}
		if v.Question != nil {
			t.printf("\n%s\n", v.Question.Prompt)
			for i, opt := range v.Question.Options {
				t.printf("  %d. %s\n", i+1, opt)
			}
		}

	case game.PhaseCrashed:
		if v.Crash != nil {
			t.printf("SYSTEM CRASHED at %s\n%s\n\n%s\n", v.Crash.StageName, v.Crash.Prompt, strings.TrimSpace(v.Crash.Feedback))
		}
		t.printf("score %d/%d\n", v.Score, v.StageCount)

	case game.PhaseCompleted:
		if v.Summary == nil {
			return
		}
		t.printf("MISSION COMPLETE   score %d/%d\n\n", v.Summary.Score, v.Summary.StageCount)
		for _, o := range v.Summary.Outcomes {
			mark := "+"
			if !o.FirstAttempt {
				mark = "~"
			}
			t.printf(" %s %s: %s\n", mark, o.StageName, o.IdealOption)
		}
		if v.Summary.SuccessSummary != "" {
			t.printf("\n%s\n", strings.TrimSpace(v.Summary.SuccessSummary))
		}
	}
}
