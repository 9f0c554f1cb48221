package domain

import (
	"fmt"

	"github.com/google/uuid"
)

// SessionID identifies a hub session. It is created once when the relying
// party's request is first received and carried unchanged through every
// subsequent state.
type SessionID string

// NewSessionID generates a fresh random session id.
func NewSessionID() SessionID {
	return SessionID(uuid.New().String())
}

// ParseSessionID validates a session id received from the outside.
func ParseSessionID(s string) (SessionID, error) {
	if _, err := uuid.Parse(s); err != nil {
		return "", fmt.Errorf("invalid session id: %w", err)
	}
	return SessionID(s), nil
}

func (id SessionID) String() string {
	return string(id)
}

func (id SessionID) IsZero() bool {
	return id == ""
}
