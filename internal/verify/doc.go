// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 OnlineModeVerify Contributors

// Package verify decides whether a joining player may enter a premium-only
// server.
//
// The Gate answers from its Cache when it can. On a miss it recognises
// offline-mode identifiers locally and only asks the session server about
// the rest. Positive and negative answers are cached; outages are not, so
// the next attempt asks again.
//
// Cache entries expire after a span without access (seven days by default),
// so regular players are never looked up twice while idle identifiers are
// eventually forgotten.
package verify
