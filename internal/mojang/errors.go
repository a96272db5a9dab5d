// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 OnlineModeVerify Contributors

package mojang

// Error codes attached to oops errors returned by Client.
const (
	// CodeUnreachable means the request could not be sent or the response
	// could not be read.
	CodeUnreachable = "MOJANG_UNREACHABLE"

	// CodeUnexpectedStatus means the session server answered with a status
	// other than 200 or 204.
	CodeUnexpectedStatus = "MOJANG_UNEXPECTED_STATUS"

	// CodeRateLimited means no outbound request slot was available before
	// the request deadline.
	CodeRateLimited = "MOJANG_RATE_LIMITED"
)
