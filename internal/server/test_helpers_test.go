package server

import (
	"context"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"

	"mystery-manor/internal/config"

	"go.uber.org/zap"
)

type stubGenerator struct {
	mystery *Mystery
	err     error
}

func (g *stubGenerator) GenerateMystery(_ context.Context, difficulty string) (*Mystery, error) {
	if g.err != nil {
		return nil, g.err
	}
	mystery := *g.mystery
	mystery.Difficulty = difficulty
	return &mystery, nil
}

func (g *stubGenerator) GenerateRoomNarration(_ context.Context, mystery *Mystery, roomID string, _ []string) string {
	room := mystery.room(roomID)
	if room == nil {
		return "You find yourself in a dimly lit room with an air of mystery."
	}
	return fallbackNarration(room)
}

func testMystery() *Mystery {
	return &Mystery{
		ID:      "mystery-1",
		Title:   "Death at Blackwood Manor",
		Setting: "A storm-lashed manor on the moors",
		Victim: Victim{
			Name:        "Lord Blackwood",
			Description: "The estate's aging patriarch",
			Background:  "Recently rewrote his will",
		},
		CrimeScene: "The study, door locked from the inside",
		Suspects: []Suspect{
			{ID: "suspect-1", Name: "Eleanor Vane", Role: "Secretary", Motive: "Blackmail", Alibi: "In the garden"},
			{ID: "suspect-2", Name: "Dr. Harlan Cole", Role: "Family physician", Motive: "Debt", Alibi: "None"},
			{ID: "suspect-3", Name: "Miriam Blackwood", Role: "Niece", Motive: "Inheritance", Alibi: "Asleep"},
			{ID: "suspect-4", Name: "Tobias Finch", Role: "Groundskeeper", Motive: "Dismissal", Alibi: "In the stables"},
		},
		Evidence: []Evidence{
			{ID: "evidence-1", Title: "Torn letter", Room: "room-1", Significance: "high"},
			{ID: "evidence-2", Title: "Empty vial", Room: "room-1", Significance: "critical"},
			{ID: "evidence-3", Title: "Muddy boots", Room: "room-2", Significance: "low", IsRedHerring: true},
			{ID: "evidence-4", Title: "Ledger page", Room: "room-3", Significance: "medium"},
		},
		Rooms: []Room{
			{ID: "room-1", Name: "Study", Description: "Books line every wall.", Evidence: []string{"evidence-1", "evidence-2"}},
			{ID: "room-2", Name: "Conservatory", Description: "Glass panes rattle in the wind.", Evidence: []string{"evidence-3"}},
			{ID: "room-3", Name: "Library", Description: "A ladder leans against the shelves.", Evidence: []string{"evidence-4"}},
		},
		Murderer: Murderer{
			SuspectID:       "suspect-2",
			Method:          "Poisoned brandy",
			Confession:      "The debts would have ruined me.",
			AlternateEnding: "The doctor slips away on the morning train.",
		},
		Difficulty: difficultyMedium,
	}
}

func testConfig() config.Config {
	cfg := config.Default()
	cfg.DiscoveryChance = 1.0
	return cfg
}

func newTestGameServer(t *testing.T) *Server {
	t.Helper()
	srv := New(nil, testConfig(), zap.NewNop())
	srv.generator = &stubGenerator{mystery: testMystery()}
	return srv
}

func newTestServer(t *testing.T, handler http.Handler) *httptest.Server {
	t.Helper()
	listener, err := net.Listen("tcp4", "127.0.0.1:0")
	if err != nil {
		t.Skipf("skipping test; listen unavailable: %v", err)
	}
	ts := &httptest.Server{
		Listener: listener,
		Config:   &http.Server{Handler: handler},
	}
	ts.Start()
	return ts
}

// startedGame creates a game with the given extra players, readies everyone
// and starts it, returning the state in investigation phase.
func startedGame(t *testing.T, srv *Server, extraPlayers ...string) GameState {
	t.Helper()
	state := srv.CreateGame("host-user", "Ada")
	t.Cleanup(func() { srv.DeleteGame(state.ID) })
	for _, name := range extraPlayers {
		if _, err := srv.JoinGame(state.RoomCode, "user-"+name, name); err != nil {
			t.Fatalf("join game: %v", err)
		}
	}
	if _, err := srv.SetReady(state.ID, "host-user", true); err != nil {
		t.Fatalf("set ready: %v", err)
	}
	for _, name := range extraPlayers {
		if _, err := srv.SetReady(state.ID, "user-"+name, true); err != nil {
			t.Fatalf("set ready: %v", err)
		}
	}
	started, err := srv.StartGame(context.Background(), state.ID, "host-user", difficultyEasy)
	if err != nil {
		t.Fatalf("start game: %v", err)
	}
	return started
}

// forcePhase advances a test game directly in the store.
func forcePhase(t *testing.T, srv *Server, gameID, phase string) {
	t.Helper()
	if _, err := srv.store.UpdateGame(gameID, func(game *Game) error {
		game.Phase = phase
		game.TimeRemaining = srv.phaseDuration(phase)
		return nil
	}); err != nil {
		t.Fatalf("force phase: %v", err)
	}
}
