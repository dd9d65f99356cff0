package server

import (
	"crypto/rand"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Store is the memory-resident source of truth for live sessions. The outer
// mutex only guards the maps; every game carries its own lock, so mutations
// of one game never block another.
type Store struct {
	mu    sync.Mutex
	games map[string]*gameHandle
	codes map[string]string
}

type gameHandle struct {
	mu   sync.Mutex
	game *Game
}

func NewStore() *Store {
	return &Store{
		games: make(map[string]*gameHandle),
		codes: make(map[string]string),
	}
}

func (s *Store) CreateGame(hostUserID, hostUsername string) GameState {
	s.mu.Lock()
	defer s.mu.Unlock()

	code := newRoomCode()
	for {
		if _, taken := s.codes[code]; !taken {
			break
		}
		code = newRoomCode()
	}

	game := &Game{
		ID:        uuid.NewString(),
		RoomCode:  code,
		HostID:    hostUserID,
		Phase:     phaseLobby,
		CreatedAt: timeNowUTC(),
		Participants: []Participant{{
			ID:       uuid.NewString(),
			UserID:   hostUserID,
			Username: hostUsername,
		}},
	}
	s.games[game.ID] = &gameHandle{game: game}
	s.codes[code] = game.ID
	return snapshot(game)
}

func (s *Store) handle(id string) (*gameHandle, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	handle, ok := s.games[id]
	return handle, ok
}

// GameState composes the read model for one game.
func (s *Store) GameState(id string) (GameState, bool) {
	handle, ok := s.handle(id)
	if !ok {
		return GameState{}, false
	}
	handle.mu.Lock()
	defer handle.mu.Unlock()
	return snapshot(handle.game), true
}

func (s *Store) FindIDByRoomCode(code string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id, ok := s.codes[code]
	return id, ok
}

// UpdateGame runs update under the game's lock and returns the resulting
// snapshot. It is the single mutation path: racing writers for the same game
// are serialized here, and a closure seeing unexpected state can bail out by
// returning an error without mutating.
func (s *Store) UpdateGame(id string, update func(game *Game) error) (GameState, error) {
	handle, ok := s.handle(id)
	if !ok {
		return GameState{}, ErrGameNotFound
	}
	handle.mu.Lock()
	defer handle.mu.Unlock()
	if err := update(handle.game); err != nil {
		return GameState{}, err
	}
	return snapshot(handle.game), nil
}

func (s *Store) DeleteGame(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	handle, ok := s.games[id]
	if !ok {
		return
	}
	delete(s.codes, handle.game.RoomCode)
	delete(s.games, id)
}

// RemoveParticipant is the explicit leave path. Disconnects do not call it;
// a dropped connection leaves the participant record in place.
func (s *Store) RemoveParticipant(gameID, userID string) error {
	_, err := s.UpdateGame(gameID, func(game *Game) error {
		for i := range game.Participants {
			if game.Participants[i].UserID == userID {
				game.Participants = append(game.Participants[:i], game.Participants[i+1:]...)
				return nil
			}
		}
		return ErrParticipantNotFound
	})
	return err
}

func snapshot(game *Game) GameState {
	state := GameState{
		ID:                 game.ID,
		RoomCode:           game.RoomCode,
		HostID:             game.HostID,
		Phase:              game.Phase,
		Mystery:            game.Mystery,
		Participants:       make([]Participant, len(game.Participants)),
		Messages:           make([]ChatMessage, len(game.Messages)),
		DiscoveredEvidence: make([]EvidenceRecord, len(game.Evidence)),
		TimeRemaining:      game.TimeRemaining,
		Votes:              make(map[string]string),
		CreatedAt:          game.CreatedAt,
	}
	copy(state.Participants, game.Participants)
	copy(state.Messages, game.Messages)
	copy(state.DiscoveredEvidence, game.Evidence)
	for _, p := range game.Participants {
		if p.Vote != "" {
			state.Votes[p.UserID] = p.Vote
		}
	}
	return state
}

func newRoomCode() string {
	const alphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	buf := make([]byte, 6)
	if _, err := rand.Read(buf); err != nil {
		return "AAAAAA"
	}
	for i := range buf {
		buf[i] = alphabet[int(buf[i])%len(alphabet)]
	}
	return string(buf)
}

func timeNowUTC() time.Time {
	return time.Now().UTC()
}
