package server

import (
	"context"
	"fmt"
	"math/rand/v2"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ExploreResult is what a single room visit yields. Narration is always
// present; Evidence is set only when this visit discovered something.
type ExploreResult struct {
	RoomID    string
	Narration string
	Evidence  *Evidence
	State     GameState
}

// ExploreRoom narrates a room for one player and rolls for evidence
// discovery. Narration is requested outside the game lock; discovery is
// committed inside it so the same clue can never be recorded twice.
func (s *Server) ExploreRoom(ctx context.Context, gameID, userID, roomID string) (ExploreResult, error) {
	state, ok := s.store.GameState(gameID)
	if !ok {
		return ExploreResult{}, ErrGameNotFound
	}
	if state.Phase != phaseInvestigation {
		return ExploreResult{}, fmt.Errorf("%w: can only explore rooms during investigation", ErrInvalidPhase)
	}
	room := state.Mystery.room(roomID)
	if room == nil {
		return ExploreResult{}, ErrRoomNotFound
	}

	names := make([]string, 0, len(state.Participants))
	for _, participant := range state.Participants {
		names = append(names, participant.Username)
	}
	narration := s.generator.GenerateRoomNarration(ctx, state.Mystery, roomID, names)

	var discovered *Evidence
	state, err := s.store.UpdateGame(gameID, func(game *Game) error {
		if game.Phase != phaseInvestigation {
			return fmt.Errorf("%w: can only explore rooms during investigation", ErrInvalidPhase)
		}
		room := game.Mystery.room(roomID)
		if room == nil {
			return ErrRoomNotFound
		}
		undiscovered := make([]string, 0, len(room.Evidence))
		for _, evidenceID := range room.Evidence {
			if game.Mystery.evidenceItem(evidenceID) == nil {
				continue
			}
			if !game.evidenceDiscovered(evidenceID) {
				undiscovered = append(undiscovered, evidenceID)
			}
		}
		if len(undiscovered) == 0 || rand.Float64() >= s.cfg.DiscoveryChance {
			return nil
		}
		evidenceID := undiscovered[rand.IntN(len(undiscovered))]
		game.Evidence = append(game.Evidence, EvidenceRecord{
			ID:           uuid.NewString(),
			UserID:       userID,
			EvidenceID:   evidenceID,
			RoomID:       roomID,
			DiscoveredAt: timeNowUTC(),
		})
		discovered = game.Mystery.evidenceItem(evidenceID)
		return nil
	})
	if err != nil {
		return ExploreResult{}, err
	}

	if discovered != nil {
		s.logger.Info("evidence discovered",
			zap.String("game_id", gameID),
			zap.String("user_id", userID),
			zap.String("evidence_id", discovered.ID),
			zap.String("room_id", roomID),
		)
		if err := s.persistEvidence(state, userID, discovered.ID, roomID); err != nil {
			s.logger.Warn("persist evidence failed", zap.String("game_id", gameID), zap.Error(err))
		}
	}
	return ExploreResult{
		RoomID:    roomID,
		Narration: narration,
		Evidence:  discovered,
		State:     state,
	}, nil
}
