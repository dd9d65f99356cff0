package server

import "time"

const (
	phaseLobby         = "lobby"
	phaseInvestigation = "investigation"
	phaseDiscussion    = "discussion"
	phaseVoting        = "voting"
	phaseReveal        = "reveal"
)

const (
	difficultyEasy   = "easy"
	difficultyMedium = "medium"
	difficultyHard   = "hard"
)

type Game struct {
	ID            string
	RoomCode      string
	HostID        string
	Phase         string
	Mystery       *Mystery
	TimeRemaining int
	CreatedAt     time.Time
	Participants  []Participant
	Messages      []ChatMessage
	Evidence      []EvidenceRecord
}

type Participant struct {
	ID       string `json:"id"`
	UserID   string `json:"userId"`
	Username string `json:"username"`
	IsReady  bool   `json:"isReady"`
	Vote     string `json:"vote"`
	Score    int    `json:"score"`
}

type ChatMessage struct {
	ID        string    `json:"id"`
	UserID    string    `json:"userId"`
	Username  string    `json:"username"`
	Text      string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
}

type EvidenceRecord struct {
	ID           string    `json:"id"`
	UserID       string    `json:"userId"`
	EvidenceID   string    `json:"evidenceId"`
	RoomID       string    `json:"room"`
	DiscoveredAt time.Time `json:"discoveredAt"`
}

// Mystery is the generated scenario. Once attached to a game it is never
// mutated, so snapshots may share the pointer.
type Mystery struct {
	ID         string     `json:"id"`
	Title      string     `json:"title"`
	Setting    string     `json:"setting"`
	Victim     Victim     `json:"victim"`
	CrimeScene string     `json:"crimeScene"`
	Suspects   []Suspect  `json:"suspects"`
	Evidence   []Evidence `json:"evidence"`
	Rooms      []Room     `json:"rooms"`
	Murderer   Murderer   `json:"murderer"`
	Difficulty string     `json:"difficulty"`
}

type Victim struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Background  string `json:"background"`
}

type Suspect struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Role        string `json:"role"`
	Description string `json:"description"`
	Motive      string `json:"motive"`
	Alibi       string `json:"alibi"`
	ImageURL    string `json:"imageUrl,omitempty"`
}

type Evidence struct {
	ID           string `json:"id"`
	Title        string `json:"title"`
	Description  string `json:"description"`
	Room         string `json:"room"`
	Significance string `json:"significance"`
	IsRedHerring bool   `json:"isRedHerring"`
}

type Room struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Evidence    []string `json:"evidence"`
}

type Murderer struct {
	SuspectID       string `json:"suspectId"`
	Method          string `json:"method"`
	Confession      string `json:"confession"`
	AlternateEnding string `json:"alternateEnding"`
}

// GameState is the read model sent to clients. It is rebuilt wholly from the
// store on every change, so duplicate delivery is self-correcting.
type GameState struct {
	ID                 string            `json:"id"`
	RoomCode           string            `json:"roomCode"`
	HostID             string            `json:"hostId"`
	Phase              string            `json:"phase"`
	Mystery            *Mystery          `json:"mystery"`
	Participants       []Participant     `json:"participants"`
	Messages           []ChatMessage     `json:"messages"`
	DiscoveredEvidence []EvidenceRecord  `json:"discoveredEvidence"`
	TimeRemaining      int               `json:"timeRemaining"`
	Votes              map[string]string `json:"votes"`
	CreatedAt          time.Time         `json:"createdAt"`
}

func (m *Mystery) suspect(id string) *Suspect {
	if m == nil {
		return nil
	}
	for i := range m.Suspects {
		if m.Suspects[i].ID == id {
			return &m.Suspects[i]
		}
	}
	return nil
}

func (m *Mystery) evidenceItem(id string) *Evidence {
	if m == nil {
		return nil
	}
	for i := range m.Evidence {
		if m.Evidence[i].ID == id {
			return &m.Evidence[i]
		}
	}
	return nil
}

func (m *Mystery) room(id string) *Room {
	if m == nil {
		return nil
	}
	for i := range m.Rooms {
		if m.Rooms[i].ID == id {
			return &m.Rooms[i]
		}
	}
	return nil
}

func (g *Game) participant(userID string) *Participant {
	for i := range g.Participants {
		if g.Participants[i].UserID == userID {
			return &g.Participants[i]
		}
	}
	return nil
}

func (g *Game) evidenceDiscovered(evidenceID string) bool {
	for i := range g.Evidence {
		if g.Evidence[i].EvidenceID == evidenceID {
			return true
		}
	}
	return false
}
