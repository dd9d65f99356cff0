package server

import (
	"time"
)

// schedulePhaseTimer arms the one-shot expiry for a timed phase and starts
// the companion countdown. Any previous timer for the game is cancelled
// first, so a game owns at most one pending expiry.
func (s *Server) schedulePhaseTimer(gameID, phase string) {
	duration := s.phaseDuration(phase)
	if duration <= 0 {
		s.cancelPhaseTimer(gameID)
		return
	}
	s.timersMu.Lock()
	if existing, ok := s.timers[gameID]; ok {
		existing.Stop()
	}
	s.timers[gameID] = time.AfterFunc(time.Duration(duration)*time.Second, func() {
		s.autoAdvancePhase(gameID, phase)
	})
	s.timersMu.Unlock()

	go s.runCountdown(gameID, phase)
}

func (s *Server) cancelPhaseTimer(gameID string) {
	s.timersMu.Lock()
	defer s.timersMu.Unlock()
	if timer, ok := s.timers[gameID]; ok {
		timer.Stop()
		delete(s.timers, gameID)
	}
}

// runCountdown persists the remaining seconds once per second for clients
// and observability. It drives no transitions; the AfterFunc owns those. It
// stops itself when the phase changes out from under it or hits zero.
func (s *Server) runCountdown(gameID, phase string) {
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()
	for range ticker.C {
		if !s.tickCountdown(gameID, phase) {
			return
		}
	}
}

func (s *Server) tickCountdown(gameID, phase string) bool {
	remaining := 0
	_, err := s.store.UpdateGame(gameID, func(game *Game) error {
		if game.Phase != phase {
			return errPhaseChanged
		}
		if game.TimeRemaining > 0 {
			game.TimeRemaining--
		}
		remaining = game.TimeRemaining
		return nil
	})
	if err != nil {
		return false
	}
	return remaining > 0
}
