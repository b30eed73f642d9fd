package game

import (
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/gokatarajesh/cloud-architect-quest/internal/catalog"
)

func pool(n int) []catalog.Question {
	out := make([]catalog.Question, n)
	for i := range out {
		out[i] = question("p", 0)
	}
	return out
}

func TestSelectQuestionSinglePoolNeverDraws(t *testing.T) {
	s := NewSelector(panicSource{})
	assert.Equal(t, 0, s.SelectQuestion(pool(1), -1, false))
	assert.Equal(t, 0, s.SelectQuestion(pool(1), 0, true))
}

func TestSelectQuestionKeepsPinnedIndex(t *testing.T) {
	s := NewSelector(panicSource{})
	assert.Equal(t, 2, s.SelectQuestion(pool(3), 2, false))
}

func TestSelectQuestionDrawsWhenUnpinnedOrForced(t *testing.T) {
	src := &seqSource{draws: []int{1, 2}}
	s := NewSelector(src)

	assert.Equal(t, 1, s.SelectQuestion(pool(3), -1, false))
	assert.Equal(t, 2, s.SelectQuestion(pool(3), 1, true))
	assert.Equal(t, 2, src.calls)
}

func TestSelectQuestionOutOfRangePriorRedraws(t *testing.T) {
	src := &seqSource{draws: []int{0}}
	s := NewSelector(src)
	assert.Equal(t, 0, s.SelectQuestion(pool(2), 5, false))
	assert.Equal(t, 1, src.calls)
}

func TestSelectQuestionRoughlyUniform(t *testing.T) {
	s := NewSelector(rand.New(rand.NewPCG(7, 11)))
	const trials = 30000
	counts := make([]int, 3)
	for i := 0; i < trials; i++ {
		counts[s.SelectQuestion(pool(3), -1, true)]++
	}
	for i, c := range counts {
		assert.InDelta(t, trials/3, c, trials*0.03, "index %d", i)
	}
}
