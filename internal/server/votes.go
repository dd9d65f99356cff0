package server

import (
	"fmt"

	"go.uber.org/zap"
)

// CastVote records a vote for a suspect. Re-voting overwrites until reveal.
// The participant completing the vote set triggers the reveal immediately,
// inside the same store closure, so the racing phase timer can never apply
// the scoring a second time.
func (s *Server) CastVote(gameID, userID, suspectID string) (GameState, error) {
	state, err := s.store.UpdateGame(gameID, func(game *Game) error {
		if game.Phase != phaseVoting {
			return fmt.Errorf("%w: not in voting phase", ErrInvalidPhase)
		}
		if game.Mystery.suspect(suspectID) == nil {
			return ErrInvalidSuspect
		}
		participant := game.participant(userID)
		if participant == nil {
			return ErrParticipantNotFound
		}
		participant.Vote = suspectID

		for i := range game.Participants {
			if game.Participants[i].Vote == "" {
				return nil
			}
		}
		s.applyReveal(game)
		return nil
	})
	if err != nil {
		return GameState{}, err
	}

	s.logger.Info("vote cast",
		zap.String("game_id", gameID),
		zap.String("user_id", userID),
		zap.String("suspect_id", suspectID),
	)
	if err := s.persistVote(state, userID, suspectID); err != nil {
		s.logger.Warn("persist vote failed", zap.String("game_id", gameID), zap.Error(err))
	}
	if state.Phase == phaseReveal {
		s.finishReveal(state, "all_voted")
	}
	return state, nil
}

// applyReveal scores correct voters and ends the session. Callers must hold
// the game lock and have verified the game is not already revealed.
func (s *Server) applyReveal(game *Game) {
	murdererID := ""
	if game.Mystery != nil {
		murdererID = game.Mystery.Murderer.SuspectID
	}
	for i := range game.Participants {
		if murdererID != "" && game.Participants[i].Vote == murdererID {
			game.Participants[i].Score += s.cfg.CorrectVoteScore
		}
	}
	game.Phase = phaseReveal
	game.TimeRemaining = 0
}

// finishReveal runs the out-of-lock bookkeeping shared by the all-voted
// shortcut and the voting timeout.
func (s *Server) finishReveal(state GameState, reason string) {
	s.cancelPhaseTimer(state.ID)
	s.logger.Info("murderer revealed",
		zap.String("game_id", state.ID),
		zap.String("reason", reason),
	)
	if err := s.persistReveal(state, reason); err != nil {
		s.logger.Warn("persist reveal failed", zap.String("game_id", state.ID), zap.Error(err))
	}
}
