package game

import (
	"math/rand/v2"
	"sync"

	"github.com/gokatarajesh/cloud-architect-quest/internal/catalog"
)

// Source yields uniform integers in [0, n).
type Source interface {
	IntN(n int) int
}

type globalSource struct{}

func (globalSource) IntN(n int) int { return rand.IntN(n) }

// Selector picks which question of a stage pool the player faces.
type Selector struct {
	mu  sync.Mutex
	src Source
}

// NewSelector builds a selector. A nil source uses the process-wide generator.
func NewSelector(src Source) *Selector {
	if src == nil {
		src = globalSource{}
	}
	return &Selector{src: src}
}

// SelectQuestion returns the pool index to use for an attempt. prior is the index
// already pinned for this attempt, or -1 when nothing is pinned yet. A pinned index
// is kept unless forceReroll is set; pools of one never consult the source.
func (s *Selector) SelectQuestion(pool []catalog.Question, prior int, forceReroll bool) int {
	if len(pool) == 1 {
		return 0
	}
	if prior >= 0 && prior < len(pool) && !forceReroll {
		return prior
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	return s.src.IntN(len(pool))
}
