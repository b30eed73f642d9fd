// Package catalog holds the read-only scenario content: scenarios, their ordered
// stages and the question pool of every stage. Content is validated once, when a
// Catalog is built; everything downstream relies on those invariants.
package catalog

import (
	"errors"
	"fmt"
)

// ErrNotFound is returned by GetScenario for unknown keys.
var ErrNotFound = errors.New("scenario not found")

// ValidationError describes one malformed piece of content.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Field + ": " + e.Message
}

// Catalog is an immutable, validated set of scenarios.
type Catalog struct {
	scenarios []Scenario
	byKey     map[string]int
}

// New validates def and builds a Catalog from it. All problems are reported together.
func New(def Definition) (*Catalog, error) {
	if err := Validate(def); err != nil {
		return nil, fmt.Errorf("invalid catalog: %w", err)
	}

	c := &Catalog{
		scenarios: make([]Scenario, len(def.Scenarios)),
		byKey:     make(map[string]int, len(def.Scenarios)),
	}
	copy(c.scenarios, def.Scenarios)
	for i, sc := range c.scenarios {
		c.byKey[sc.Key] = i
	}
	return c, nil
}

// ListScenarios returns every scenario in definition order.
func (c *Catalog) ListScenarios() []Scenario {
	out := make([]Scenario, len(c.scenarios))
	copy(out, c.scenarios)
	return out
}

// GetScenario resolves a scenario by key.
func (c *Catalog) GetScenario(key string) (Scenario, error) {
	idx, ok := c.byKey[key]
	if !ok {
		return Scenario{}, fmt.Errorf("%w: %q", ErrNotFound, key)
	}
	return c.scenarios[idx], nil
}

// Len reports the number of scenarios.
func (c *Catalog) Len() int {
	return len(c.scenarios)
}

// Validate checks the structural rules every catalog must satisfy.
func Validate(def Definition) error {
	var errs []error
	add := func(field, format string, args ...any) {
		errs = append(errs, &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)})
	}

	if len(def.Scenarios) == 0 {
		add("scenarios", "at least one scenario is required")
	}

	seen := make(map[string]bool, len(def.Scenarios))
	for i, sc := range def.Scenarios {
		scField := fmt.Sprintf("scenarios[%d]", i)
		if sc.Key == "" {
			add(scField+".key", "must not be empty")
		} else if seen[sc.Key] {
			add(scField+".key", "duplicate key %q", sc.Key)
		}
		seen[sc.Key] = true

		if len(sc.Stages) == 0 {
			add(scField+".stages", "at least one stage is required")
		}

		stageKeys := make(map[string]bool, len(sc.Stages))
		for j, st := range sc.Stages {
			stField := fmt.Sprintf("%s.stages[%d]", scField, j)
			if st.Key != "" {
				if stageKeys[st.Key] {
					add(stField+".key", "duplicate key %q", st.Key)
				}
				stageKeys[st.Key] = true
			}
			if len(st.Pool) == 0 {
				add(stField+".questions", "pool must not be empty")
			}
			for k, q := range st.Pool {
				qField := fmt.Sprintf("%s.questions[%d]", stField, k)
				for _, e := range validateQuestion(q) {
					add(qField+e.Field, "%s", e.Message)
				}
			}
		}
	}

	return errors.Join(errs...)
}

func validateQuestion(q Question) []ValidationError {
	var out []ValidationError
	if len(q.Options) < 2 {
		out = append(out, ValidationError{Field: ".options", Message: "at least two options are required"})
	}
	labels := make(map[string]bool, len(q.Options))
	for _, opt := range q.Options {
		if labels[opt] {
			out = append(out, ValidationError{Field: ".options", Message: fmt.Sprintf("duplicate option %q", opt)})
		}
		labels[opt] = true
	}
	if q.Correct < 0 || q.Correct >= len(q.Options) {
		out = append(out, ValidationError{Field: ".correct", Message: fmt.Sprintf("index %d out of range", q.Correct)})
	}
	return out
}
