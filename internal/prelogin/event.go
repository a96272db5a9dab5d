// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 OnlineModeVerify Contributors

// Package prelogin connects the verification gate to a game server's login
// pipeline.
//
// A host calls Listener.OnPreLogin for every connecting player before the
// player is spawned, either in process through the Event interface or over
// HTTP through Handler. A rejected attempt is disallowed with KICK_OTHER and
// the gate's message.
package prelogin

import (
	"sync"

	"github.com/google/uuid"
	"github.com/oklog/ulid/v2"
)

// Result is the login result a host applies to a connecting player.
type Result string

// Login results.
const (
	ResultAllowed   Result = "ALLOWED"
	ResultKickOther Result = "KICK_OTHER"
)

// Event is one asynchronous pre-login attempt as seen by the host.
type Event interface {
	// UniqueID is the account identifier presented by the client.
	UniqueID() uuid.UUID
	// Name is the display name presented by the client.
	Name() string
	// Result is the current login result. Anything other than ResultAllowed
	// means an earlier listener already refused the player.
	Result() Result
	// Disallow refuses the login with result and a message for the player.
	Disallow(result Result, message string)
}

// Attempt is an Event created for a login attempt received over the wire.
// It is safe for concurrent use.
type Attempt struct {
	id       ulid.ULID
	uniqueID uuid.UUID
	name     string

	mu      sync.Mutex
	result  Result
	message string
}

// NewAttempt creates an allowed Attempt with a fresh attempt ID.
func NewAttempt(uniqueID uuid.UUID, name string) *Attempt {
	return &Attempt{
		id:       ulid.Make(),
		uniqueID: uniqueID,
		name:     name,
		result:   ResultAllowed,
	}
}

// ID names the attempt in logs and responses.
func (a *Attempt) ID() ulid.ULID { return a.id }

// UniqueID implements Event.
func (a *Attempt) UniqueID() uuid.UUID { return a.uniqueID }

// Name implements Event.
func (a *Attempt) Name() string { return a.name }

// Result implements Event.
func (a *Attempt) Result() Result {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.result
}

// Message returns the kick message, empty while the attempt is allowed.
func (a *Attempt) Message() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.message
}

// Disallow implements Event.
func (a *Attempt) Disallow(result Result, message string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.result = result
	a.message = message
}
