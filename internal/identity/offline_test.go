// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 OnlineModeVerify Contributors

package identity_test

import (
	"crypto/md5" //nolint:gosec // reference derivation
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"github.com/mcsunnyside/onlinemodeverify/internal/identity"
)

// referenceOfflineUUID derives the identifier byte by byte, independent of
// the package under test.
func referenceOfflineUUID(name string) uuid.UUID {
	sum := md5.Sum([]byte("OfflinePlayer:" + name)) //nolint:gosec // reference derivation
	sum[6] = sum[6]&0x0f | 0x30
	sum[8] = sum[8]&0x3f | 0x80
	return uuid.UUID(sum)
}

func TestOfflineUUID_MatchesNameBasedDerivation(t *testing.T) {
	names := []string{"Steve", "Alex", "Notch", "", "名前", "a b c", strings.Repeat("x", 64)}

	for _, name := range names {
		t.Run(name, func(t *testing.T) {
			got := identity.OfflineUUID(name)
			assert.Equal(t, referenceOfflineUUID(name), got)
			assert.Equal(t, uuid.Version(3), got.Version())
			assert.Equal(t, uuid.RFC4122, got.Variant())
		})
	}
}

func TestOfflineUUID_KnownValues(t *testing.T) {
	// Values produced by java.util.UUID.nameUUIDFromBytes("OfflinePlayer:<name>").
	tests := []struct {
		name string
		want string
	}{
		{"Notch", "b50ad385-829d-3141-a216-7e7d7539ba7f"},
		{"Steve", "5627dd98-e6be-3c21-b8a8-e92344183641"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, uuid.MustParse(tt.want), identity.OfflineUUID(tt.name))
		})
	}
}

func TestOfflineUUID_IsDeterministic(t *testing.T) {
	assert.Equal(t, identity.OfflineUUID("Steve"), identity.OfflineUUID("Steve"))
	assert.NotEqual(t, identity.OfflineUUID("Steve"), identity.OfflineUUID("steve"))
}

func TestIsOffline(t *testing.T) {
	t.Run("derived identifier is offline", func(t *testing.T) {
		for _, name := range []string{"Steve", "Alex", "jeb_", ""} {
			assert.True(t, identity.IsOffline(identity.OfflineUUID(name), name), name)
		}
	})

	t.Run("random identifiers are not offline", func(t *testing.T) {
		for range 100 {
			assert.False(t, identity.IsOffline(uuid.New(), "Steve"))
		}
	})

	t.Run("identifier derived for another name is not offline", func(t *testing.T) {
		assert.False(t, identity.IsOffline(identity.OfflineUUID("Alex"), "Steve"))
	})

	t.Run("nil identifier is not offline", func(t *testing.T) {
		assert.False(t, identity.IsOffline(uuid.Nil, "Steve"))
	})
}

func TestCompact(t *testing.T) {
	id := uuid.MustParse("069A79F4-44E9-4726-A5BE-FCA90E38AAF5")

	got := identity.Compact(id)

	assert.Equal(t, "069a79f444e94726a5befca90e38aaf5", got)
	assert.Len(t, got, 32)
	assert.Equal(t, strings.ReplaceAll(id.String(), "-", ""), got)
}
