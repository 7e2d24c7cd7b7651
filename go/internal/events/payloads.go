package events

import (
	"time"

	"github.com/mcdev12/rankboard/go/internal/models"
)

// Event payload types shared by the gateway and the JetStream publisher

// WindowAppliedPayload is the payload for a WindowApplied event
type WindowAppliedPayload struct {
	Start       time.Time `json:"start"`
	End         time.Time `json:"end"`
	DurationSec int       `json:"duration_sec"`
}

// CountdownTickPayload is the payload for a CountdownTick event
type CountdownTickPayload struct {
	RemainingSec int     `json:"remaining_sec"`
	Display      string  `json:"display"`
	Percent      float64 `json:"percent"`
	Offset       float64 `json:"offset"`
	Running      bool    `json:"running"`
}

// RankingsPublishedPayload is the payload for a RankingsPublished event
type RankingsPublishedPayload = models.Snapshot

// WindowResetPayload is the payload for a WindowReset event
type WindowResetPayload struct {
	ResetAt time.Time `json:"reset_at"`
}
