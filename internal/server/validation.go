package server

import (
	"errors"
	"fmt"
	"strings"
)

const maxUsernameLength = 20

// validateMystery checks the invariants a generated scenario must satisfy:
// at least one suspect, evidence item and room; the murderer resolves to a
// suspect; every evidence id a room references resolves to an item.
func validateMystery(mystery *Mystery) error {
	if mystery == nil {
		return errors.New("mystery is nil")
	}
	if len(mystery.Suspects) == 0 {
		return errors.New("mystery has no suspects")
	}
	if len(mystery.Evidence) == 0 {
		return errors.New("mystery has no evidence")
	}
	if len(mystery.Rooms) == 0 {
		return errors.New("mystery has no rooms")
	}
	if mystery.Murderer.SuspectID == "" {
		return errors.New("mystery has no murderer")
	}
	if mystery.suspect(mystery.Murderer.SuspectID) == nil {
		return fmt.Errorf("murderer %q is not a suspect", mystery.Murderer.SuspectID)
	}
	for _, room := range mystery.Rooms {
		for _, evidenceID := range room.Evidence {
			if mystery.evidenceItem(evidenceID) == nil {
				return fmt.Errorf("room %q references unknown evidence %q", room.ID, evidenceID)
			}
		}
	}
	return nil
}

func validateUsername(name string) (string, error) {
	trimmed := strings.Join(strings.Fields(strings.TrimSpace(name)), " ")
	if trimmed == "" {
		return "", errors.New("username is required")
	}
	if len(trimmed) > maxUsernameLength {
		return "", fmt.Errorf("username must be %d characters or fewer", maxUsernameLength)
	}
	return trimmed, nil
}
