package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"mystery-manor/internal/config"

	"go.uber.org/zap"
)

// ContentGenerator produces the generated scenario content. GenerateMystery
// may fail and callers must surface that; GenerateRoomNarration never fails,
// degrading to a deterministic fallback because narration is cosmetic while
// discovery correctness is not.
type ContentGenerator interface {
	GenerateMystery(ctx context.Context, difficulty string) (*Mystery, error)
	GenerateRoomNarration(ctx context.Context, mystery *Mystery, roomID string, playerNames []string) string
}

type openAIChatRequest struct {
	Model          string              `json:"model"`
	Messages       []openAIChatMessage `json:"messages"`
	ResponseFormat *openAIFormatOption `json:"response_format,omitempty"`
	Temperature    float64             `json:"temperature,omitempty"`
	MaxTokens      int                 `json:"max_tokens,omitempty"`
}

type openAIChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type openAIFormatOption struct {
	Type string `json:"type"`
}

type openAIChatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

type openAIGenerator struct {
	apiKey string
	model  string
	client *http.Client
	logger *zap.Logger
}

func newOpenAIGenerator(cfg config.Config, logger *zap.Logger) *openAIGenerator {
	return &openAIGenerator{
		apiKey: strings.TrimSpace(cfg.OpenAIAPIKey),
		model:  cfg.OpenAIModel,
		client: &http.Client{Timeout: 60 * time.Second},
		logger: logger,
	}
}

const mysterySystemPrompt = "You are a master mystery writer creating detective games. " +
	"Generate compelling, logical mysteries with well-developed characters and intricate plots. " +
	"Always respond with valid JSON."

func mysteryUserPrompt(difficulty string) string {
	return fmt.Sprintf(`Generate a murder mystery for a multiplayer detective game.

REQUIREMENTS:
- Difficulty level: %s
- 4-6 suspects with distinct personalities, motives, and alibis
- 6-10 pieces of evidence (mix of real clues and red herrings)
- 5-8 explorable rooms/locations
- One clear murderer with logical method and confession
- Victorian or modern noir setting

OUTPUT FORMAT (JSON):
{
  "id": "unique-mystery-id",
  "title": "Mystery Title",
  "setting": "Location description",
  "victim": {"name": "...", "description": "...", "background": "..."},
  "crimeScene": "Primary crime scene description",
  "suspects": [{"id": "suspect-1", "name": "...", "role": "...", "description": "...", "motive": "...", "alibi": "..."}],
  "evidence": [{"id": "evidence-1", "title": "...", "description": "...", "room": "room-1", "significance": "low|medium|high|critical", "isRedHerring": false}],
  "rooms": [{"id": "room-1", "name": "...", "description": "...", "evidence": ["evidence-1"]}],
  "murderer": {"suspectId": "suspect-1", "method": "...", "confession": "...", "alternateEnding": "..."},
  "difficulty": "%s"
}

Create an engaging, logical mystery with interconnected clues that lead to the murderer.`, difficulty, difficulty)
}

func (g *openAIGenerator) GenerateMystery(ctx context.Context, difficulty string) (*Mystery, error) {
	content, err := g.complete(ctx, openAIChatRequest{
		Model: g.model,
		Messages: []openAIChatMessage{
			{Role: "system", Content: mysterySystemPrompt},
			{Role: "user", Content: mysteryUserPrompt(difficulty)},
		},
		ResponseFormat: &openAIFormatOption{Type: "json_object"},
		Temperature:    0.8,
		MaxTokens:      4000,
	})
	if err != nil {
		return nil, err
	}
	mystery, err := decodeMystery([]byte(content))
	if err != nil {
		return nil, err
	}
	mystery.Difficulty = difficulty
	return mystery, nil
}

func (g *openAIGenerator) GenerateRoomNarration(ctx context.Context, mystery *Mystery, roomID string, playerNames []string) string {
	room := mystery.room(roomID)
	if room == nil {
		return "You find yourself in a dimly lit room with an air of mystery."
	}
	content, err := g.complete(ctx, openAIChatRequest{
		Model: g.model,
		Messages: []openAIChatMessage{
			{Role: "user", Content: narrationPrompt(mystery, room, playerNames)},
		},
		Temperature: 0.7,
		MaxTokens:   300,
	})
	if err != nil || strings.TrimSpace(content) == "" {
		if err != nil {
			g.logger.Warn("room narration failed, using fallback",
				zap.String("room_id", roomID),
				zap.Error(err),
			)
		}
		return fallbackNarration(room)
	}
	return strings.TrimSpace(content)
}

func narrationPrompt(mystery *Mystery, room *Room, playerNames []string) string {
	clues := make([]string, 0, len(room.Evidence))
	for _, evidenceID := range room.Evidence {
		if item := mystery.evidenceItem(evidenceID); item != nil {
			clues = append(clues, item.Title+" - "+item.Description)
		}
	}
	return fmt.Sprintf(`You are the game master for "%s". A player is investigating the %s.

CONTEXT:
- Setting: %s
- Crime: Murder of %s
- Room: %s
- Room description: %s
- Players present: %s
- Available evidence: %s

Provide an atmospheric description of what the player sees when entering this room. Be immersive and hint at clues without being too obvious. Keep it under 200 words.`,
		mystery.Title, room.Name, mystery.Setting, mystery.Victim.Name,
		room.Name, room.Description,
		strings.Join(playerNames, ", "), strings.Join(clues, ", "))
}

func fallbackNarration(room *Room) string {
	return fmt.Sprintf("You enter the %s. %s", room.Name, room.Description)
}

func (g *openAIGenerator) complete(ctx context.Context, reqBody openAIChatRequest) (string, error) {
	if g.apiKey == "" {
		return "", errors.New("OpenAI API key is not configured")
	}
	payload, err := json.Marshal(reqBody)
	if err != nil {
		return "", errors.New("failed to build OpenAI request")
	}

	reqCtx, cancel := context.WithTimeout(ctx, 60*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodPost, "https://api.openai.com/v1/chat/completions", bytes.NewReader(payload))
	if err != nil {
		return "", errors.New("failed to build OpenAI request")
	}
	req.Header.Set("Authorization", "Bearer "+g.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.client.Do(req)
	if err != nil {
		return "", errors.New("failed to reach OpenAI")
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", errors.New("failed to read OpenAI response")
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("OpenAI request failed (%d)", resp.StatusCode)
	}

	var parsed openAIChatResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", errors.New("failed to parse OpenAI response")
	}
	if parsed.Error != nil && parsed.Error.Message != "" {
		return "", fmt.Errorf("OpenAI error: %s", parsed.Error.Message)
	}
	if len(parsed.Choices) == 0 {
		return "", errors.New("OpenAI returned no choices")
	}
	return parsed.Choices[0].Message.Content, nil
}

// decodeMystery parses generated JSON and enforces the structural invariants
// before the payload is allowed near a game.
func decodeMystery(raw []byte) (*Mystery, error) {
	var mystery Mystery
	if err := json.Unmarshal(raw, &mystery); err != nil {
		return nil, fmt.Errorf("malformed mystery payload: %w", err)
	}
	if err := validateMystery(&mystery); err != nil {
		return nil, err
	}
	return &mystery, nil
}
