// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 OnlineModeVerify Contributors

package prelogin

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/samber/oops"

	"github.com/mcsunnyside/onlinemodeverify/pkg/errutil"
)

// CodeBadRequest marks a malformed pre-login request.
const CodeBadRequest = "PRELOGIN_BAD_REQUEST"

// Path is the route of the pre-login endpoint.
const Path = "/v1/prelogin"

const maxRequestBytes = 4 << 10

type preLoginRequest struct {
	UUID string `json:"uuid"`
	Name string `json:"name"`
}

type preLoginResponse struct {
	Result    Result `json:"result"`
	Message   string `json:"message,omitempty"`
	AttemptID string `json:"attempt_id"`
}

type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

// Handler serves the pre-login endpoint for hosts that run out of process.
//
// The body is a JSON object with "uuid" (dashed or 32 hex digits) and
// "name". The reply carries the login result, the kick message and the
// attempt ID.
func (l *Listener) Handler() http.Handler {
	return http.HandlerFunc(l.servePreLogin)
}

func (l *Listener) servePreLogin(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		writeJSON(w, http.StatusMethodNotAllowed, errorResponse{Error: "method not allowed"})
		return
	}

	id, name, err := decodeRequest(w, r)
	if err != nil {
		errutil.LogWarn(r.Context(), l.logger, "rejecting malformed pre-login request", err,
			"remote_addr", r.RemoteAddr)
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error(), Code: CodeBadRequest})
		return
	}

	attempt := NewAttempt(id, name)
	ctx := r.Context()
	l.logger.DebugContext(ctx, "pre-login attempt received",
		"attempt_id", attempt.ID().String(), "uuid", id.String(), "name", name)

	l.OnPreLogin(ctx, attempt)

	writeJSON(w, http.StatusOK, preLoginResponse{
		Result:    attempt.Result(),
		Message:   attempt.Message(),
		AttemptID: attempt.ID().String(),
	})
}

func decodeRequest(w http.ResponseWriter, r *http.Request) (uuid.UUID, string, error) {
	var req preLoginRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBytes))
	if err := dec.Decode(&req); err != nil {
		return uuid.Nil, "", oops.Code(CodeBadRequest).Wrapf(err, "decoding request body")
	}

	id, err := uuid.Parse(strings.TrimSpace(req.UUID))
	if err != nil {
		return uuid.Nil, "", oops.Code(CodeBadRequest).
			With("uuid", req.UUID).
			Wrapf(err, "parsing uuid")
	}
	if req.Name == "" {
		return uuid.Nil, "", oops.Code(CodeBadRequest).Errorf("name is required")
	}
	return id, req.Name, nil
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	//nolint:errcheck // the client may already be gone
	json.NewEncoder(w).Encode(body)
}
