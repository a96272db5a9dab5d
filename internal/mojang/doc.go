// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 OnlineModeVerify Contributors

// Package mojang talks to the Mojang session server.
//
// The only question asked is whether a profile exists for an account UUID:
// the profile endpoint answers 200 for a purchased account and 204 for an
// unknown one. Any other answer, and any transport failure, is reported as an
// error so the caller can tell an outage apart from a negative answer.
//
// Outbound requests share a token bucket so a burst of joins cannot exceed
// the session server's request allowance.
package mojang
