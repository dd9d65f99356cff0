package server

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

func newParticipant(userID, username string) Participant {
	return Participant{
		ID:       uuid.NewString(),
		UserID:   userID,
		Username: username,
	}
}

// CreateGame opens a lobby with the caller as host and first participant.
func (s *Server) CreateGame(hostUserID, hostUsername string) GameState {
	state := s.store.CreateGame(hostUserID, hostUsername)
	s.logger.Info("game created",
		zap.String("game_id", state.ID),
		zap.String("room_code", state.RoomCode),
		zap.String("host_id", state.HostID),
	)
	if err := s.persistGame(state); err != nil {
		s.logger.Warn("persist game failed", zap.String("game_id", state.ID), zap.Error(err))
	}
	return state
}

func (s *Server) JoinGame(roomCode, userID, username string) (GameState, error) {
	gameID, ok := s.store.FindIDByRoomCode(roomCode)
	if !ok {
		return GameState{}, ErrGameNotFound
	}
	state, err := s.store.UpdateGame(gameID, func(game *Game) error {
		if game.Phase != phaseLobby {
			return fmt.Errorf("%w: game already in progress", ErrInvalidPhase)
		}
		if len(game.Participants) >= s.cfg.MaxPlayers {
			return ErrGameFull
		}
		if game.participant(userID) != nil {
			return ErrAlreadyJoined
		}
		game.Participants = append(game.Participants, newParticipant(userID, username))
		return nil
	})
	if err != nil {
		return GameState{}, err
	}
	s.logger.Info("player joined",
		zap.String("game_id", state.ID),
		zap.String("user_id", userID),
		zap.String("username", username),
	)
	if err := s.persistParticipant(state, userID, username); err != nil {
		s.logger.Warn("persist participant failed", zap.String("game_id", state.ID), zap.Error(err))
	}
	return state, nil
}

func (s *Server) SetReady(gameID, userID string, isReady bool) (GameState, error) {
	return s.store.UpdateGame(gameID, func(game *Game) error {
		participant := game.participant(userID)
		if participant == nil {
			return ErrParticipantNotFound
		}
		participant.IsReady = isReady
		return nil
	})
}

// StartGame generates the mystery and moves the lobby into investigation.
// Generation runs outside the game lock; the transition closure re-validates
// lobby state afterwards, so a failed or slow generation leaves the game in
// the lobby and retriable.
func (s *Server) StartGame(ctx context.Context, gameID, hostUserID, difficulty string) (GameState, error) {
	state, ok := s.store.GameState(gameID)
	if !ok {
		return GameState{}, ErrGameNotFound
	}
	if err := validateStart(state, hostUserID, s.cfg.MinPlayers); err != nil {
		return GameState{}, err
	}

	difficulty = normalizeDifficulty(difficulty)
	mystery, err := s.generator.GenerateMystery(ctx, difficulty)
	if err != nil {
		s.logger.Error("mystery generation failed",
			zap.String("game_id", gameID),
			zap.String("difficulty", difficulty),
			zap.Error(err),
		)
		return GameState{}, fmt.Errorf("%w: %v", ErrGenerationFailed, err)
	}

	state, err = s.store.UpdateGame(gameID, func(game *Game) error {
		if err := validateStart(snapshot(game), hostUserID, s.cfg.MinPlayers); err != nil {
			return err
		}
		game.Phase = phaseInvestigation
		game.Mystery = mystery
		game.TimeRemaining = s.cfg.InvestigationSeconds
		return nil
	})
	if err != nil {
		return GameState{}, err
	}

	s.schedulePhaseTimer(gameID, phaseInvestigation)
	s.logger.Info("game started",
		zap.String("game_id", gameID),
		zap.String("difficulty", difficulty),
		zap.Int("players", len(state.Participants)),
	)
	if err := s.persistPhase(state, "game_started", EventPayload{Phase: state.Phase, Difficulty: difficulty}); err != nil {
		s.logger.Warn("persist phase failed", zap.String("game_id", gameID), zap.Error(err))
	}
	return state, nil
}

func validateStart(state GameState, hostUserID string, minPlayers int) error {
	if state.HostID != hostUserID {
		return ErrNotHost
	}
	if state.Phase != phaseLobby {
		return fmt.Errorf("%w: game already started", ErrInvalidPhase)
	}
	if len(state.Participants) < minPlayers {
		return ErrNotEnoughPlayers
	}
	for _, participant := range state.Participants {
		if !participant.IsReady {
			return ErrNotAllReady
		}
	}
	return nil
}

func normalizeDifficulty(difficulty string) string {
	switch difficulty {
	case difficultyEasy, difficultyMedium, difficultyHard:
		return difficulty
	default:
		return difficultyMedium
	}
}
