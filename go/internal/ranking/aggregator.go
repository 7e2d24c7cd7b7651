package ranking

import (
	"sort"

	"github.com/mcdev12/rankboard/go/internal/models"
)

// TopN is how many entries of each game's list are displayed and scored
const TopN = 7

// Score returns the points awarded for finishing at 1-based rank within a game's top list.
// Rank 1 earns TopN points, rank TopN earns 1, anything outside the top list earns nothing.
func Score(rank int) int {
	if rank < 1 || rank > TopN {
		return 0
	}
	return TopN + 1 - rank
}

// Top truncates a game's list to the first n entries and labels them with 1-based ranks.
// The source order is trusted; nothing is re-sorted.
func Top(entries []models.RankEntry, n int) []models.RankedEntry {
	if n > len(entries) {
		n = len(entries)
	}
	if n < 0 {
		n = 0
	}
	ranked := make([]models.RankedEntry, 0, n)
	for i, e := range entries[:n] {
		ranked = append(ranked, models.RankedEntry{
			Rank:        i + 1,
			Participant: e.Participant,
			TopScore:    e.TopScore,
		})
	}
	return ranked
}

// Aggregate sums Score over the top entries of every list, in the order the lists are given,
// and returns the combined board sorted by total points. Equal totals keep the order in
// which participants were first seen. Duplicates inside one list are not merged.
func Aggregate(lists []models.GameList) models.ScoreBoard {
	totals := make(map[string]int)
	var order []string

	for _, list := range lists {
		for _, e := range Top(list.Entries, TopN) {
			if _, seen := totals[e.Participant]; !seen {
				order = append(order, e.Participant)
			}
			totals[e.Participant] += Score(e.Rank)
		}
	}

	board := make(models.ScoreBoard, 0, len(order))
	for _, p := range order {
		board = append(board, models.ScoreEntry{Participant: p, TotalPoints: totals[p]})
	}
	sort.SliceStable(board, func(i, j int) bool {
		return board[i].TotalPoints > board[j].TotalPoints
	})
	for i := range board {
		board[i].Rank = i + 1
	}
	return board
}

// Rankings builds the per-game display lists in the order the lists are given
func Rankings(lists []models.GameList, codes map[models.GameID]int) []models.GameRanking {
	out := make([]models.GameRanking, 0, len(lists))
	for _, list := range lists {
		out = append(out, models.GameRanking{
			Game:    list.Game,
			Code:    codes[list.Game],
			Entries: Top(list.Entries, TopN),
		})
	}
	return out
}
