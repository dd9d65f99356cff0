package db

import (
	"time"

	"gorm.io/datatypes"
)

type Game struct {
	ID            uint           `gorm:"primaryKey"`
	RoomCode      string         `gorm:"size:6;uniqueIndex;not null"`
	HostID        string         `gorm:"size:64;not null"`
	Phase         string         `gorm:"size:32;not null"`
	Mystery       datatypes.JSON `gorm:"type:jsonb"`
	TimeRemaining int            `gorm:"not null;default:0"`
	CreatedAt     time.Time      `gorm:"not null"`
	UpdatedAt     time.Time      `gorm:"not null"`
	Participants  []Participant
	Messages      []Message
	Evidence      []Evidence
	Events        []Event
}

type Participant struct {
	ID        uint      `gorm:"primaryKey"`
	GameID    uint      `gorm:"index;not null;uniqueIndex:idx_participants_game_user"`
	UserID    string    `gorm:"size:64;not null;uniqueIndex:idx_participants_game_user"`
	Username  string    `gorm:"size:64;not null"`
	IsReady   bool      `gorm:"not null;default:false"`
	Vote      string    `gorm:"size:64"`
	Score     int       `gorm:"not null;default:0"`
	CreatedAt time.Time `gorm:"not null"`
	UpdatedAt time.Time `gorm:"not null"`
}

type Message struct {
	ID        uint      `gorm:"primaryKey"`
	GameID    uint      `gorm:"index;not null"`
	UserID    string    `gorm:"size:64;not null"`
	Username  string    `gorm:"size:64;not null"`
	Text      string    `gorm:"size:500;not null"`
	CreatedAt time.Time `gorm:"not null"`
}

type Evidence struct {
	ID           uint      `gorm:"primaryKey"`
	GameID       uint      `gorm:"index;not null;uniqueIndex:idx_evidence_game_item"`
	UserID       string    `gorm:"size:64;not null"`
	EvidenceID   string    `gorm:"size:64;not null;uniqueIndex:idx_evidence_game_item"`
	RoomID       string    `gorm:"size:64;not null"`
	DiscoveredAt time.Time `gorm:"not null"`
}

type Event struct {
	ID        uint           `gorm:"primaryKey"`
	GameID    uint           `gorm:"index;not null"`
	Type      string         `gorm:"size:64;not null"`
	Payload   datatypes.JSON `gorm:"type:jsonb;not null"`
	CreatedAt time.Time      `gorm:"not null"`
}
