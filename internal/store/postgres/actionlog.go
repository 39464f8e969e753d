package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/kestrelhq/kestrel/internal/accounts"
)

// ActionLogRepo persists admin action entries.
//
// Schema:
//
//	CREATE TABLE action_log (
//	    id          UUID PRIMARY KEY,
//	    actor       TEXT NOT NULL,
//	    action      TEXT NOT NULL,
//	    target_type TEXT NOT NULL,
//	    target_id   TEXT NOT NULL,
//	    details     JSONB,
//	    created_at  TIMESTAMPTZ NOT NULL
//	);
type ActionLogRepo struct {
	pool *pgxpool.Pool
}

func NewActionLogRepo(pool *pgxpool.Pool) *ActionLogRepo {
	return &ActionLogRepo{pool: pool}
}

func (r *ActionLogRepo) Record(ctx context.Context, entry *accounts.ActionEntry) error {
	var details []byte
	if entry.Details != nil {
		var err error
		details, err = json.Marshal(entry.Details)
		if err != nil {
			return fmt.Errorf("actionLogRepo.Record: marshal details: %w", err)
		}
	}

	_, err := r.pool.Exec(ctx,
		`INSERT INTO action_log (id, actor, action, target_type, target_id, details, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		entry.ID, entry.Actor, entry.Action, entry.TargetType, entry.TargetID,
		details, entry.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("actionLogRepo.Record: %w", err)
	}

	return nil
}

func (r *ActionLogRepo) List(ctx context.Context, limit, offset int) ([]*accounts.ActionEntry, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, actor, action, target_type, target_id, details, created_at
		 FROM action_log
		 ORDER BY created_at DESC
		 LIMIT $1 OFFSET $2`,
		limit, offset,
	)
	if err != nil {
		return nil, fmt.Errorf("actionLogRepo.List: %w", err)
	}
	defer rows.Close()

	var entries []*accounts.ActionEntry
	for rows.Next() {
		var e accounts.ActionEntry
		var details []byte

		if err := rows.Scan(&e.ID, &e.Actor, &e.Action, &e.TargetType, &e.TargetID, &details, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("actionLogRepo.List: scan: %w", err)
		}
		if len(details) > 0 {
			if err := json.Unmarshal(details, &e.Details); err != nil {
				return nil, fmt.Errorf("actionLogRepo.List: unmarshal details: %w", err)
			}
		}
		entries = append(entries, &e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("actionLogRepo.List: rows: %w", err)
	}

	return entries, nil
}
