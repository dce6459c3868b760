// Copyright (c) 2026 Farmo. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package activity

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/taibuivan/farmo/pkg/uuid"
)

// # Audit Store

// PostgresStore implements the Store interface using pgx.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewStore creates a new PostgreSQL implementation of the Store.
func NewStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

/*
Insert appends one event row into the users.activity table.

Parameters:
  - context: context.Context
  - event: *Event

Returns:
  - error: Execution errors
*/
func (store *PostgresStore) Insert(context context.Context, event *Event) error {
	const query = `
		INSERT INTO users.activity (
			id, principalid, eventtype, text, createdat
		) VALUES ($1, $2, $3, $4, $5)`

	if event.CreatedAt.IsZero() {
		event.CreatedAt = time.Now()
	}

	_, err := store.pool.Exec(context, query,
		event.ID,
		event.PrincipalID,
		event.EventType,
		event.Text,
		event.CreatedAt,
	)

	if err != nil {
		return fmt.Errorf("postgres_activity_store_insert_failed: %w", err)
	}

	return nil
}

// # Recorder

// Recorder is the fire-and-forget facade the session and auth services call.
type Recorder struct {
	store  Store
	logger *slog.Logger
}

// NewRecorder constructs a [Recorder] over the given store.
func NewRecorder(store Store, logger *slog.Logger) *Recorder {
	return &Recorder{store: store, logger: logger}
}

// Record appends an audit event, swallowing any failure. The caller's flow is
// never blocked or failed by the audit path.
func (recorder *Recorder) Record(ctx context.Context, principalID, eventType, text string) {
	event := &Event{
		ID:          uuid.New(),
		PrincipalID: principalID,
		EventType:   eventType,
		Text:        text,
	}

	if err := recorder.store.Insert(ctx, event); err != nil {
		recorder.logger.WarnContext(ctx, "activity_record_failed",
			slog.String("event_type", eventType),
			slog.String("principal_id", principalID),
			slog.Any("error", err),
		)
	}
}
