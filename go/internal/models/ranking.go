package models

import "time"

// RankEntry is one row of a per-game leaderboard as returned by a ranking source.
// The JSON names match the ranking API wire format.
type RankEntry struct {
	Participant string `json:"nickname"`
	TopScore    int    `json:"top"`
}

// RankedEntry is a RankEntry labelled with its 1-based position in a game's list
type RankedEntry struct {
	Rank        int    `json:"rank"`
	Participant string `json:"participant"`
	TopScore    int    `json:"top_score"`
}

// GameList is the raw ranked list fetched for one game
type GameList struct {
	Game    GameID      `json:"game"`
	Entries []RankEntry `json:"entries"`
}

// GameRanking is a game's truncated top-N list ready for display
type GameRanking struct {
	Game    GameID        `json:"game"`
	Code    int           `json:"code"`
	Entries []RankedEntry `json:"entries"`
}

// ScoreEntry is one row of the combined leaderboard
type ScoreEntry struct {
	Rank        int    `json:"rank"`
	Participant string `json:"participant"`
	TotalPoints int    `json:"total_points"`
}

// ScoreBoard is the combined ranking, descending by TotalPoints
type ScoreBoard []ScoreEntry

// Snapshot is everything published by one refresh cycle
type Snapshot struct {
	WindowStart time.Time     `json:"window_start"`
	WindowEnd   time.Time     `json:"window_end"`
	Games       []GameRanking `json:"games"`
	Combined    ScoreBoard    `json:"combined"`
	PublishedAt time.Time     `json:"published_at"`
}
