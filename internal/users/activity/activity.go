// Copyright (c) 2026 Farmo. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package activity is the audit sink for security-relevant account events.

Logins, logouts, rotations, and password changes are recorded here as
append-only rows. Recording is strictly fire-and-forget: a failed audit write
is logged and swallowed, never propagated into the authentication flow that
triggered it.
*/
package activity

import (
	"context"
	"time"
)

// Event is one append-only audit record.
type Event struct {
	ID          string    `json:"id"`
	PrincipalID string    `json:"principal_id"`
	EventType   string    `json:"event_type"`
	Text        string    `json:"text"`
	CreatedAt   time.Time `json:"created_at"`
}

// Store persists audit events.
type Store interface {

	/*
		Insert appends one event row.

		Parameters:
		  - context: context.Context
		  - event: *Event

		Returns:
		  - error: Persistence failures
	*/
	Insert(context context.Context, event *Event) error
}
