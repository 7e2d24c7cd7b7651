package models

import (
	"fmt"
	"strings"
)

// GameID identifies one of the logical games shown on the dashboard
type GameID string

const (
	GameA GameID = "A" // memory
	GameB GameID = "B" // problem solving
	GameC GameID = "C" // focus
)

// DefaultGames is the fixed display and aggregation order
var DefaultGames = []GameID{GameA, GameB, GameC}

// DefaultGameCodes maps each game to the opaque numeric code ranking sources expect (normal difficulty)
var DefaultGameCodes = map[GameID]int{
	GameA: 10102,
	GameB: 30102,
	GameC: 20102,
}

// ParseGameID validates a game identifier
func ParseGameID(s string) (GameID, error) {
	switch id := GameID(strings.ToUpper(strings.TrimSpace(s))); id {
	case GameA, GameB, GameC:
		return id, nil
	default:
		return "", fmt.Errorf("unknown game %q", s)
	}
}
