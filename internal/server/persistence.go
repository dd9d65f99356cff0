package server

import (
	"encoding/json"
	"errors"

	"mystery-manor/internal/db"

	"github.com/jackc/pgconn"
	"gorm.io/datatypes"
	"gorm.io/gorm/clause"
)

// The database is an audit mirror of the in-memory store, not a source of
// truth. Every persist function is a no-op without a configured connection,
// and callers log failures instead of failing the player action.

type EventPayload struct {
	Phase      string `json:"phase,omitempty"`
	Reason     string `json:"reason,omitempty"`
	Difficulty string `json:"difficulty,omitempty"`
	UserID     string `json:"user_id,omitempty"`
	Username   string `json:"username,omitempty"`
	RoomID     string `json:"room_id,omitempty"`
	EvidenceID string `json:"evidence_id,omitempty"`
	SuspectID  string `json:"suspect_id,omitempty"`
}

func (s *Server) persistGame(state GameState) error {
	if s.db == nil {
		return nil
	}
	record := db.Game{
		RoomCode: state.RoomCode,
		HostID:   state.HostID,
		Phase:    state.Phase,
	}
	if err := s.db.Clauses(clause.OnConflict{DoNothing: true}).Create(&record).Error; err != nil && !isUniqueViolation(err) {
		return err
	}
	gameID, err := s.gameDBID(state.RoomCode)
	if err != nil {
		return err
	}
	host := state.HostID
	hostName := ""
	for _, participant := range state.Participants {
		if participant.UserID == host {
			hostName = participant.Username
		}
	}
	if err := s.upsertParticipant(gameID, host, hostName); err != nil {
		return err
	}
	return s.persistEvent(gameID, "game_created", EventPayload{UserID: host, Username: hostName})
}

func (s *Server) persistParticipant(state GameState, userID, username string) error {
	if s.db == nil {
		return nil
	}
	gameID, err := s.gameDBID(state.RoomCode)
	if err != nil {
		return err
	}
	if err := s.upsertParticipant(gameID, userID, username); err != nil {
		return err
	}
	return s.persistEvent(gameID, "player_joined", EventPayload{UserID: userID, Username: username})
}

func (s *Server) upsertParticipant(gameID uint, userID, username string) error {
	record := db.Participant{
		GameID:   gameID,
		UserID:   userID,
		Username: username,
	}
	err := s.db.Create(&record).Error
	if err != nil && !isUniqueViolation(err) {
		return err
	}
	return nil
}

func (s *Server) persistMessage(state GameState, userID, username, text string) error {
	if s.db == nil {
		return nil
	}
	gameID, err := s.gameDBID(state.RoomCode)
	if err != nil {
		return err
	}
	record := db.Message{
		GameID:   gameID,
		UserID:   userID,
		Username: username,
		Text:     text,
	}
	if err := s.db.Create(&record).Error; err != nil {
		return err
	}
	return s.persistEvent(gameID, "message_sent", EventPayload{UserID: userID, Username: username})
}

func (s *Server) persistEvidence(state GameState, userID, evidenceID, roomID string) error {
	if s.db == nil {
		return nil
	}
	gameID, err := s.gameDBID(state.RoomCode)
	if err != nil {
		return err
	}
	record := db.Evidence{
		GameID:       gameID,
		UserID:       userID,
		EvidenceID:   evidenceID,
		RoomID:       roomID,
		DiscoveredAt: timeNowUTC(),
	}
	if err := s.db.Create(&record).Error; err != nil && !isUniqueViolation(err) {
		return err
	}
	return s.persistEvent(gameID, "evidence_discovered", EventPayload{
		UserID:     userID,
		EvidenceID: evidenceID,
		RoomID:     roomID,
	})
}

func (s *Server) persistVote(state GameState, userID, suspectID string) error {
	if s.db == nil {
		return nil
	}
	gameID, err := s.gameDBID(state.RoomCode)
	if err != nil {
		return err
	}
	if err := s.db.Model(&db.Participant{}).
		Where("game_id = ? AND user_id = ?", gameID, userID).
		Update("vote", suspectID).Error; err != nil {
		return err
	}
	return s.persistEvent(gameID, "vote_cast", EventPayload{UserID: userID, SuspectID: suspectID})
}

func (s *Server) persistPhase(state GameState, eventType string, payload EventPayload) error {
	if s.db == nil {
		return nil
	}
	gameID, err := s.gameDBID(state.RoomCode)
	if err != nil {
		return err
	}
	updates := map[string]any{
		"phase":          state.Phase,
		"time_remaining": state.TimeRemaining,
	}
	if state.Mystery != nil {
		if raw, err := json.Marshal(state.Mystery); err == nil {
			updates["mystery"] = datatypes.JSON(raw)
		}
	}
	if err := s.db.Model(&db.Game{}).Where("id = ?", gameID).Updates(updates).Error; err != nil {
		return err
	}
	return s.persistEvent(gameID, eventType, payload)
}

func (s *Server) persistReveal(state GameState, reason string) error {
	if s.db == nil {
		return nil
	}
	gameID, err := s.gameDBID(state.RoomCode)
	if err != nil {
		return err
	}
	for _, participant := range state.Participants {
		if err := s.db.Model(&db.Participant{}).
			Where("game_id = ? AND user_id = ?", gameID, participant.UserID).
			Update("score", participant.Score).Error; err != nil {
			return err
		}
	}
	if err := s.db.Model(&db.Game{}).Where("id = ?", gameID).Updates(map[string]any{
		"phase":          state.Phase,
		"time_remaining": 0,
	}).Error; err != nil {
		return err
	}
	return s.persistEvent(gameID, "game_revealed", EventPayload{Phase: state.Phase, Reason: reason})
}

func (s *Server) persistEvent(gameID uint, eventType string, payload EventPayload) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	event := db.Event{
		GameID:  gameID,
		Type:    eventType,
		Payload: datatypes.JSON(data),
	}
	return s.db.Create(&event).Error
}

func (s *Server) gameDBID(roomCode string) (uint, error) {
	var record db.Game
	if err := s.db.Where("room_code = ?", roomCode).First(&record).Error; err != nil {
		return 0, err
	}
	return record.ID, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	return false
}
