// internal/database/rounds.go
package database

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/tazjel/baloot-ai-sub002/internal/models"
)

// EnsureRoundSchema creates the archive table when it does not exist.
// Called once at archiver startup.
func EnsureRoundSchema(ctx context.Context, pool *pgxpool.Pool) error {
	q := `
		CREATE TABLE IF NOT EXISTS match_rounds (
			room_id      UUID        NOT NULL,
			round_number INT         NOT NULL,
			contract     JSONB       NOT NULL,
			breakdown    JSONB       NOT NULL,
			tricks       JSONB       NOT NULL,
			dealer       INT         NOT NULL,
			initial_hands JSONB      NOT NULL,
			recorded_at  BIGINT      NOT NULL,
			PRIMARY KEY (room_id, round_number)
		)
	`
	if _, err := pool.Exec(ctx, q); err != nil {
		return fmt.Errorf("ensure match_rounds schema: %w", err)
	}
	return nil
}

// InsertRoundRecords appends a batch of round records to the durable
// per-match archive inside one transaction. Re-inserting the same
// (room, round) pair overwrites, so replays after a worker crash are safe.
func InsertRoundRecords(ctx context.Context, pool *pgxpool.Pool, records []models.RoundRecord) error {
	if len(records) == 0 {
		return nil
	}
	err := pgx.BeginTxFunc(ctx, pool, pgx.TxOptions{}, func(tx pgx.Tx) error {
		q := `
			INSERT INTO match_rounds
				(room_id, round_number, contract, breakdown, tricks, dealer, initial_hands, recorded_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
			ON CONFLICT (room_id, round_number)
			DO UPDATE SET contract=$3, breakdown=$4, tricks=$5, dealer=$6, initial_hands=$7, recorded_at=$8
		`
		for _, rec := range records {
			contract, err := json.Marshal(rec.Contract)
			if err != nil {
				return fmt.Errorf("marshal contract: %w", err)
			}
			breakdown, err := json.Marshal(rec.Breakdown)
			if err != nil {
				return fmt.Errorf("marshal breakdown: %w", err)
			}
			tricks, err := json.Marshal(rec.Tricks)
			if err != nil {
				return fmt.Errorf("marshal tricks: %w", err)
			}
			hands, err := json.Marshal(rec.InitialHands)
			if err != nil {
				return fmt.Errorf("marshal initial hands: %w", err)
			}
			if _, err := tx.Exec(ctx, q,
				rec.RoomID, rec.RoundNumber, contract, breakdown, tricks,
				int(rec.Dealer), hands, rec.Timestamp); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("tx insert round records: %w", err)
	}
	return nil
}
