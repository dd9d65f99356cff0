package server

import (
	"go.uber.org/zap"
)

// Phases move forward only: lobby → investigation → discussion → voting →
// reveal. The lobby edge is host-triggered (StartGame); the rest fire on
// timeout, with voting also ending early once every participant has voted.
var nextPhase = map[string]string{
	phaseInvestigation: phaseDiscussion,
	phaseDiscussion:    phaseVoting,
	phaseVoting:        phaseReveal,
}

func (s *Server) phaseDuration(phase string) int {
	switch phase {
	case phaseInvestigation:
		return s.cfg.InvestigationSeconds
	case phaseDiscussion:
		return s.cfg.DiscussionSeconds
	case phaseVoting:
		return s.cfg.VotingSeconds
	default:
		return 0
	}
}

// autoAdvancePhase is the phase-timeout handler. The expected-phase guard
// makes it a no-op when the game has already moved on, which is how the
// voting timer loses gracefully to the all-voted shortcut.
func (s *Server) autoAdvancePhase(gameID, expectedPhase string) {
	state, err := s.store.UpdateGame(gameID, func(game *Game) error {
		if game.Phase != expectedPhase {
			return errPhaseChanged
		}
		next, ok := nextPhase[game.Phase]
		if !ok {
			return errPhaseChanged
		}
		if next == phaseReveal {
			s.applyReveal(game)
			return nil
		}
		game.Phase = next
		game.TimeRemaining = s.phaseDuration(next)
		return nil
	})
	if err != nil {
		return
	}

	s.logger.Info("phase advanced",
		zap.String("game_id", gameID),
		zap.String("from", expectedPhase),
		zap.String("to", state.Phase),
	)
	if state.Phase == phaseReveal {
		s.finishReveal(state, "timeout")
	} else {
		s.schedulePhaseTimer(gameID, state.Phase)
		if err := s.persistPhase(state, "phase_advanced", EventPayload{Phase: state.Phase, Reason: "timeout"}); err != nil {
			s.logger.Warn("persist phase failed", zap.String("game_id", gameID), zap.Error(err))
		}
	}
	s.broadcastGameUpdate(state)
}

// DeleteGame tears down a session and its timers.
func (s *Server) DeleteGame(gameID string) {
	s.cancelPhaseTimer(gameID)
	s.store.DeleteGame(gameID)
	s.logger.Info("game deleted", zap.String("game_id", gameID))
}
