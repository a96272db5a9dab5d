// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 OnlineModeVerify Contributors

// Package identity classifies player identifiers.
//
// A server running in offline mode derives a player's UUID from the display
// name alone. Such identifiers can be recognised locally, without asking the
// session server whether the account exists.
package identity

import (
	"crypto/md5" //nolint:gosec // name-based UUIDv3 is defined over MD5
	"encoding/hex"

	"github.com/google/uuid"
)

// offlinePrefix is prepended to the display name before hashing.
const offlinePrefix = "OfflinePlayer:"

// OfflineUUID returns the identifier an offline-mode server assigns to name.
//
// The name is hashed without a namespace, which is what separates this from
// uuid.NewMD5: the digest covers only the UTF-8 bytes of "OfflinePlayer:"+name.
func OfflineUUID(name string) uuid.UUID {
	sum := md5.Sum([]byte(offlinePrefix + name)) //nolint:gosec // see import
	var id uuid.UUID
	copy(id[:], sum[:])
	id[6] = (id[6] & 0x0f) | 0x30 // version 3
	id[8] = (id[8] & 0x3f) | 0x80 // RFC 4122 variant
	return id
}

// IsOffline reports whether id is the offline identifier derived from name.
func IsOffline(id uuid.UUID, name string) bool {
	return OfflineUUID(name) == id
}

// Compact renders id as 32 lowercase hex digits with no separators.
func Compact(id uuid.UUID) string {
	return hex.EncodeToString(id[:])
}
