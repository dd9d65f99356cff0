package server

import (
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const maxMessageLength = 500

// SendMessage appends a chat message with a server-assigned timestamp. Chat
// is permitted in every phase.
func (s *Server) SendMessage(gameID, userID, username, text string) (GameState, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return GameState{}, ErrEmptyMessage
	}
	if len(text) > maxMessageLength {
		text = text[:maxMessageLength]
	}
	state, err := s.store.UpdateGame(gameID, func(game *Game) error {
		if game.participant(userID) == nil {
			return ErrParticipantNotFound
		}
		game.Messages = append(game.Messages, ChatMessage{
			ID:        uuid.NewString(),
			UserID:    userID,
			Username:  username,
			Text:      text,
			Timestamp: timeNowUTC(),
		})
		return nil
	})
	if err != nil {
		return GameState{}, err
	}
	if err := s.persistMessage(state, userID, username, text); err != nil {
		s.logger.Warn("persist message failed", zap.String("game_id", gameID), zap.Error(err))
	}
	return state, nil
}
