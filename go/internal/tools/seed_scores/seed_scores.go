package main

import (
	"context"
	"fmt"
	"os"
	"sort"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/mcdev12/rankboard/go/internal/dbconfig"
	"github.com/mcdev12/rankboard/go/internal/models"
	"github.com/mcdev12/rankboard/go/internal/sources/mock"
	"github.com/mcdev12/rankboard/go/internal/sources/postgres"
)

// scoreRow is one game_scores insert
type scoreRow struct {
	GameCode int
	Nickname string
	Score    int
	PlayedAt time.Time
}

func main() {
	// 1) Pick the instant the sample plays are recorded around
	at := time.Now()
	if v := os.Getenv("SEED_AT"); v != "" {
		parsed, err := time.Parse(time.RFC3339, v)
		if err != nil {
			fmt.Fprintf(os.Stderr, "parse SEED_AT: %v\n", err)
			os.Exit(1)
		}
		at = parsed
	}

	// 2) Connect using shared dbconfig
	ctx := context.Background()
	cfg := dbconfig.NewConfigFromEnv()
	pool, err := pgxpool.New(ctx, cfg.DSN())
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to connect: %v\n", err)
		os.Exit(1)
	}
	defer pool.Close()

	if err := postgres.EnsureSchema(ctx, pool); err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}

	// 3) Insert everything in one transaction
	rows := scoreRows(mock.DefaultTable(), at)
	var inserted int64
	err = pgx.BeginFunc(ctx, pool, func(tx pgx.Tx) error {
		n, err := insertRows(ctx, tx, rows)
		inserted = n
		return err
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "seed failed: %v\n", err)
		os.Exit(1)
	}

	// 4) Print summary
	fmt.Printf(
		"Scores seed complete: %d rows, %d inserted, played at %s\n",
		len(rows), inserted, at.Format(time.RFC3339),
	)
}

// scoreRows turns a ranking table into plays spaced one minute apart ending at at,
// so a window covering the last hour sees every one of them
func scoreRows(table map[int][]models.RankEntry, at time.Time) []scoreRow {
	codes := make([]int, 0, len(table))
	for code := range table {
		codes = append(codes, code)
	}
	sort.Ints(codes)

	var rows []scoreRow
	for _, code := range codes {
		for _, e := range table[code] {
			rows = append(rows, scoreRow{GameCode: code, Nickname: e.Participant, Score: e.TopScore})
		}
	}
	for i := range rows {
		rows[i].PlayedAt = at.Add(-time.Duration(len(rows)-i) * time.Minute)
	}
	return rows
}

func insertRows(ctx context.Context, db postgres.Execer, rows []scoreRow) (int64, error) {
	var inserted int64
	for _, r := range rows {
		tag, err := db.Exec(ctx,
			`INSERT INTO game_scores (game_code, nickname, score, played_at) VALUES ($1, $2, $3, $4)`,
			r.GameCode, r.Nickname, r.Score, r.PlayedAt,
		)
		if err != nil {
			return inserted, fmt.Errorf("insert %s/%d: %w", r.Nickname, r.GameCode, err)
		}
		inserted += tag.RowsAffected()
	}
	return inserted, nil
}
