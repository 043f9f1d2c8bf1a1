// SPDX-License-Identifier: AGPL-3.0-only
package database

import (
	"context"
	"encoding/json"
	"time"
)

type FeedState struct {
	Scope     string
	Key       string
	Value     json.RawMessage
	CreatedAt time.Time
	UpdatedAt time.Time
}

const getStateValue = `
SELECT value FROM feed_state WHERE scope = $1 AND key = $2
`

type GetStateValueParams struct {
	Scope string
	Key   string
}

func (q *Queries) GetStateValue(ctx context.Context, arg GetStateValueParams) (json.RawMessage, error) {
	row := q.db.QueryRowContext(ctx, getStateValue, arg.Scope, arg.Key)
	var value json.RawMessage
	err := row.Scan(&value)
	return value, err
}

const upsertStateValue = `
INSERT INTO feed_state (scope, key, value, created_at, updated_at)
VALUES ($1, $2, $3, $4, $4)
ON CONFLICT (scope, key) DO UPDATE SET value = EXCLUDED.value, updated_at = EXCLUDED.updated_at
`

type UpsertStateValueParams struct {
	Scope     string
	Key       string
	Value     json.RawMessage
	UpdatedAt time.Time
}

func (q *Queries) UpsertStateValue(ctx context.Context, arg UpsertStateValueParams) error {
	_, err := q.db.ExecContext(ctx, upsertStateValue, arg.Scope, arg.Key, arg.Value, arg.UpdatedAt)
	return err
}

const deleteStateValue = `
DELETE FROM feed_state WHERE scope = $1 AND key = $2
`

type DeleteStateValueParams struct {
	Scope string
	Key   string
}

func (q *Queries) DeleteStateValue(ctx context.Context, arg DeleteStateValueParams) error {
	_, err := q.db.ExecContext(ctx, deleteStateValue, arg.Scope, arg.Key)
	return err
}

const listStateKeys = `
SELECT key FROM feed_state WHERE scope = $1 ORDER BY key
`

func (q *Queries) ListStateKeys(ctx context.Context, scope string) ([]string, error) {
	rows, err := q.db.QueryContext(ctx, listStateKeys, scope)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var keys []string
	for rows.Next() {
		var key string
		if err := rows.Scan(&key); err != nil {
			return nil, err
		}
		keys = append(keys, key)
	}
	return keys, rows.Err()
}
