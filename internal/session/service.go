package session

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"github.com/gokatarajesh/cloud-architect-quest/internal/game"
	"github.com/gokatarajesh/cloud-architect-quest/internal/metrics"
	ws "github.com/gokatarajesh/cloud-architect-quest/pkg/http/ws"
)

// Broadcaster pushes messages to the live connections of a session.
type Broadcaster interface {
	Broadcast(sessionID string, msg ws.Message) error
	CloseSession(sessionID string)
}

// Service is the entry point hosts use to drive sessions. It records metrics,
// logs every event and pushes new views to watchers.
type Service struct {
	engine  *game.Engine
	manager *Manager
	hub     Broadcaster
	metrics *metrics.Metrics
	logger  zerolog.Logger
}

func NewService(engine *game.Engine, manager *Manager, hub Broadcaster, m *metrics.Metrics, logger zerolog.Logger) *Service {
	return &Service{
		engine:  engine,
		manager: manager,
		hub:     hub,
		metrics: m,
		logger:  logger.With().Str("component", "session_service").Logger(),
	}
}

// Scenarios lists the playable scenarios.
func (s *Service) Scenarios() []game.ScenarioCard {
	return s.engine.Scenarios()
}

// Create opens a new session.
func (s *Service) Create(ctx context.Context) (string, game.View, error) {
	id, view, err := s.manager.Create()
	if err != nil {
		s.logger.Warn().Err(err).Int("active", s.manager.Len()).Msg("session create rejected")
		return "", game.View{}, err
	}
	s.metrics.SetActiveSessions(s.manager.Len())
	s.logger.Info().Str("session_id", id).Msg("session created")
	return id, view, nil
}

// View renders a session without changing it.
func (s *Service) View(ctx context.Context, id string) (game.View, error) {
	return s.manager.Get(id)
}

// Attach hands fn the current view of a session. Views broadcast for later
// events are published only after fn returns, so a watcher registered inside fn
// sees every state change exactly once and in order.
func (s *Service) Attach(ctx context.Context, id string, fn func(game.View)) error {
	return s.manager.Attach(id, fn)
}

// Dispatch applies ev and broadcasts the resulting view.
func (s *Service) Dispatch(ctx context.Context, id string, ev game.Event) (game.View, error) {
	start := time.Now()
	res, err := s.manager.Apply(id, ev, func(res Result) {
		s.publish(id, res.View)
	})
	took := time.Since(start)

	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return game.View{}, err
		}
		code := "internal"
		var gerr *game.Error
		if errors.As(err, &gerr) {
			code = string(gerr.Code)
		}
		s.metrics.ObserveEvent(string(ev.Kind), code, took)
		s.logger.Info().
			Str("session_id", id).
			Str("event", string(ev.Kind)).
			Str("phase", string(res.Before)).
			Str("code", code).
			Err(err).
			Msg("event rejected")
		return game.View{}, err
	}

	s.metrics.ObserveEvent(string(ev.Kind), metrics.ResultApplied, took)
	s.logger.Info().
		Str("session_id", id).
		Str("event", string(ev.Kind)).
		Str("from", string(res.Before)).
		Str("to", string(res.Session.Phase)).
		Int("stage_index", res.Session.StageIndex).
		Int("score", res.Session.Score).
		Msg("event applied")

	if res.Before != res.Session.Phase {
		switch res.Session.Phase {
		case game.PhaseCrashed:
			s.metrics.RunFinished(res.Session.ScenarioKey, metrics.OutcomeCrashed)
		case game.PhaseCompleted:
			s.metrics.RunFinished(res.Session.ScenarioKey, metrics.OutcomeCompleted)
		}
	}

	return res.View, nil
}

// Delete ends a session and disconnects its watchers.
func (s *Service) Delete(ctx context.Context, id string) error {
	if err := s.manager.Delete(id); err != nil {
		return err
	}
	s.hub.CloseSession(id)
	s.metrics.SetActiveSessions(s.manager.Len())
	s.logger.Info().Str("session_id", id).Msg("session deleted")
	return nil
}

// Sweep evicts idle sessions.
func (s *Service) Sweep(now time.Time) int {
	expired := s.manager.Sweep(now)
	for _, id := range expired {
		s.hub.CloseSession(id)
	}
	if len(expired) > 0 {
		s.metrics.SessionsExpired(len(expired))
		s.logger.Info().Int("expired", len(expired)).Msg("idle sessions evicted")
	}
	s.metrics.SetActiveSessions(s.manager.Len())
	return len(expired)
}

func (s *Service) publish(id string, view game.View) {
	msg, err := ws.NewMessage(ws.TypeView, view, "")
	if err != nil {
		s.logger.Error().Err(err).Str("session_id", id).Msg("encode view")
		return
	}
	if err := s.hub.Broadcast(id, msg); err != nil {
		s.logger.Debug().Err(err).Str("session_id", id).Msg("view broadcast incomplete")
	}
}
