// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 OnlineModeVerify Contributors

package verify

// Result is the outcome category of a login attempt.
type Result int

// Login attempt outcomes.
const (
	// Admit lets the player join.
	Admit Result = iota
	// RejectNotPremium kicks a player whose account is not purchased.
	RejectNotPremium
	// RejectServiceUnavailable kicks a player because the session server
	// could not give an answer.
	RejectServiceUnavailable
)

// String returns the metric and log label of r.
func (r Result) String() string {
	switch r {
	case Admit:
		return "admit"
	case RejectNotPremium:
		return "reject_not_premium"
	case RejectServiceUnavailable:
		return "reject_service_unavailable"
	default:
		return "unknown"
	}
}

// Decision is the answer for one login attempt.
type Decision struct {
	Result Result
	// Message is shown to a rejected player. Empty for Admit.
	Message string
}

// Allowed reports whether the player may join.
func (d Decision) Allowed() bool {
	return d.Result == Admit
}

// Messages holds the kick messages shown to rejected players.
type Messages struct {
	NotPremium  string
	ServiceDown string
}
