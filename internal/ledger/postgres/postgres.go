// Package postgres persists the ledger state in PostgreSQL. The chain is a
// single consistent snapshot, so Save rewrites both tables inside one
// transaction rather than diffing rows.
package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/dstepanenko/chainvault/internal/dbx"
	"github.com/dstepanenko/chainvault/internal/ledger"
	"github.com/dstepanenko/chainvault/internal/models"
)

type Store struct {
	db *sql.DB
}

func New(db *sql.DB) *Store {
	return &Store{db: db}
}

func (s *Store) Load(ctx context.Context) (*ledger.State, error) {
	state := &ledger.State{Events: make(map[string][]models.AccessEvent)}

	rows, err := s.db.QueryContext(ctx,
		`SELECT idx, ts, file_id, owner, authorized_users, metadata, data, prev_hash, block_hash
		   FROM ledger_blocks ORDER BY idx`)
	if err != nil {
		return nil, fmt.Errorf("query blocks: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			b        models.Block
			users    []byte
			metadata []byte
		)
		if err := rows.Scan(&b.Index, &b.Timestamp, &b.FileID, &b.Owner, &users, &metadata, &b.Data, &b.PrevHash, &b.BlockHash); err != nil {
			return nil, fmt.Errorf("scan block: %w", err)
		}
		if err := json.Unmarshal(users, &b.AuthorizedUsers); err != nil {
			return nil, fmt.Errorf("decode authorized users: %w", err)
		}
		if len(metadata) > 0 {
			b.Metadata = &models.FileMetadata{}
			if err := json.Unmarshal(metadata, b.Metadata); err != nil {
				return nil, fmt.Errorf("decode metadata: %w", err)
			}
		}
		state.Blocks = append(state.Blocks, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate blocks: %w", err)
	}

	eventRows, err := s.db.QueryContext(ctx,
		`SELECT id, file_id, kind, actor, ts, granted, reason, prev_hash, hash
		   FROM access_events ORDER BY file_id, pos`)
	if err != nil {
		return nil, fmt.Errorf("query events: %w", err)
	}
	defer eventRows.Close()

	for eventRows.Next() {
		var e models.AccessEvent
		if err := eventRows.Scan(&e.ID, &e.FileID, &e.Kind, &e.Actor, &e.Timestamp, &e.Granted, &e.Reason, &e.PrevHash, &e.Hash); err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		state.Events[e.FileID] = append(state.Events[e.FileID], e)
	}
	if err := eventRows.Err(); err != nil {
		return nil, fmt.Errorf("iterate events: %w", err)
	}

	return state, nil
}

func (s *Store) Save(ctx context.Context, state *ledger.State) error {
	return dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM access_events`); err != nil {
			return fmt.Errorf("clear events: %w", err)
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM ledger_blocks`); err != nil {
			return fmt.Errorf("clear blocks: %w", err)
		}

		for i := range state.Blocks {
			b := &state.Blocks[i]

			users, err := json.Marshal(usersOrEmpty(b.AuthorizedUsers))
			if err != nil {
				return fmt.Errorf("encode authorized users: %w", err)
			}
			var metadata []byte
			if b.Metadata != nil {
				if metadata, err = json.Marshal(b.Metadata); err != nil {
					return fmt.Errorf("encode metadata: %w", err)
				}
			}

			if _, err := tx.ExecContext(ctx,
				`INSERT INTO ledger_blocks (idx, ts, file_id, owner, authorized_users, metadata, data, prev_hash, block_hash)
				 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
				b.Index, b.Timestamp, b.FileID, b.Owner, users, metadata, b.Data, b.PrevHash, b.BlockHash); err != nil {
				return fmt.Errorf("insert block %d: %w", b.Index, err)
			}
		}

		for fileID, events := range state.Events {
			for pos := range events {
				e := &events[pos]
				if _, err := tx.ExecContext(ctx,
					`INSERT INTO access_events (id, file_id, kind, actor, ts, granted, reason, prev_hash, hash, pos)
					 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
					e.ID, fileID, e.Kind, e.Actor, e.Timestamp, e.Granted, e.Reason, e.PrevHash, e.Hash, pos); err != nil {
					return fmt.Errorf("insert event %s: %w", e.ID, err)
				}
			}
		}

		return nil
	})
}

func usersOrEmpty(users []string) []string {
	if users == nil {
		return []string{}
	}
	return users
}
