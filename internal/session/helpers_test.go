package session

import (
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/gokatarajesh/cloud-architect-quest/internal/catalog"
	"github.com/gokatarajesh/cloud-architect-quest/internal/game"
	"github.com/gokatarajesh/cloud-architect-quest/internal/metrics"
	ws "github.com/gokatarajesh/cloud-architect-quest/pkg/http/ws"
)

type mockBroadcaster struct {
	mock.Mock
}

func (m *mockBroadcaster) Broadcast(sessionID string, msg ws.Message) error {
	return m.Called(sessionID, msg).Error(0)
}

func (m *mockBroadcaster) CloseSession(sessionID string) {
	m.Called(sessionID)
}

// fakeClock is a settable time source.
type fakeClock struct{ t time.Time }

func (c *fakeClock) Now() time.Time { return c.t }
func (c *fakeClock) Advance(d time.Duration) { c.t = c.t.Add(d) }

func testEngine(t *testing.T) *game.Engine {
	t.Helper()
	q := func(prompt string) catalog.Question {
		return catalog.Question{
			Prompt:          prompt,
			Options:         []string{"one", "two", "three"},
			Correct:         1,
			CorrectFeedback: prompt + " right",
			WrongFeedback:   prompt + " wrong",
		}
	}
	cat, err := catalog.New(catalog.Definition{Scenarios: []catalog.Scenario{
		{
			Key:   "solo",
			Title: "Solo",
			Stages: []catalog.Stage{
				{Key: "only", Name: "Only", Pool: []catalog.Question{q("only?")}},
			},
		},
		{
			Key:   "duo",
			Title: "Duo",
			Stages: []catalog.Stage{
				{Key: "first", Name: "First", Pool: []catalog.Question{q("first?")}},
				{Key: "second", Name: "Second", Pool: []catalog.Question{q("second?")}},
			},
		},
	}})
	require.NoError(t, err)
	return game.NewEngine(cat, nil)
}

func newTestService(t *testing.T, hub Broadcaster, opts ManagerOptions) (*Service, *metrics.Metrics) {
	t.Helper()
	engine := testEngine(t)
	m := metrics.New()
	return NewService(engine, NewManager(engine, opts), hub, m, zerolog.Nop()), m
}
