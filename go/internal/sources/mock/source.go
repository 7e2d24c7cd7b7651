package mock

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/mcdev12/rankboard/go/internal/models"
	"github.com/mcdev12/rankboard/go/internal/sources/base"
)

// SourceKey is the registry key of the in-memory source
const SourceKey = "mock"

func init() {
	if err := base.RegisterSource(SourceKey, func(cfg base.Config) (base.RankingSource, error) {
		return NewSource(cfg.Codes, DefaultTable()), nil
	}); err != nil {
		panic(fmt.Sprintf("register mock source: %v", err))
	}
}

// Source serves fixed leaderboards keyed by game code. The window is ignored.
type Source struct {
	codes map[models.GameID]int
	table map[int][]models.RankEntry
}

// NewSource creates an in-memory source over table (game code -> ranked entries)
func NewSource(codes map[models.GameID]int, table map[int][]models.RankEntry) *Source {
	return &Source{codes: codes, table: table}
}

// Fetch returns a copy of the list stored for the game's code, or an empty list for unknown codes
func (s *Source) Fetch(ctx context.Context, game models.GameID, window models.TimeWindow) ([]models.RankEntry, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", base.ErrSourceTimeout, err)
	}

	code, err := base.CodeFor(s.codes, game)
	if err != nil {
		return nil, err
	}

	list := s.table[code]
	out := make([]models.RankEntry, len(list))
	copy(out, list)

	log.Debug().
		Str("game", string(game)).
		Int("code", code).
		Int("entries", len(out)).
		Msg("served mock ranking")
	return out, nil
}

// DefaultTable is the sample data set shipped with the dashboard
func DefaultTable() map[int][]models.RankEntry {
	return map[int][]models.RankEntry{
		models.DefaultGameCodes[models.GameA]: {
			{Participant: "MemoryKing", TopScore: 520},
			{Participant: "BlueFox", TopScore: 510},
			{Participant: "Nero", TopScore: 495},
			{Participant: "Sunny", TopScore: 480},
			{Participant: "ZeroOne", TopScore: 470},
			{Participant: "MintLeaf", TopScore: 455},
			{Participant: "Nova", TopScore: 440},
		},
		models.DefaultGameCodes[models.GameB]: {
			{Participant: "LogicMaster", TopScore: 630},
			{Participant: "Nero", TopScore: 610},
			{Participant: "BlueFox", TopScore: 590},
			{Participant: "ZeroOne", TopScore: 585},
			{Participant: "Sunny", TopScore: 570},
			{Participant: "AIplayer", TopScore: 565},
			{Participant: "MintLeaf", TopScore: 550},
		},
		models.DefaultGameCodes[models.GameC]: {
			{Participant: "Nova", TopScore: 710},
			{Participant: "BlueFox", TopScore: 700},
			{Participant: "MemoryKing", TopScore: 690},
			{Participant: "Sunny", TopScore: 680},
			{Participant: "Nero", TopScore: 670},
			{Participant: "AIplayer", TopScore: 660},
			{Participant: "ZeroOne", TopScore: 645},
		},
	}
}
