package export_test

import (
	"encoding/hex"
	"testing"

	"github.com/openkeyhub/governance/internal/export"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashPrincipal(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		principal  string
		salt       string
		iterations uint32
		want       string
	}{
		{
			name:       "SHA256 basic test",
			principal:  "alice",
			salt:       "test_salt",
			iterations: 1,
			want:       "11267755dffe05a38e343e1278c9ca21154391a3ea656160d1fb460be2a7dbef",
		},
		{
			name:       "SHA256 multiple iterations",
			principal:  "alice",
			salt:       "test_salt",
			iterations: 3,
			want:       "304af46cfcd042c6d4e20c021266270617a378afe02b398a3d51d3f14140ef9b",
		},
		{
			name:       "Different salt",
			principal:  "alice",
			salt:       "different_salt",
			iterations: 1,
			want:       "619ce0042689395bb5d11bf730e8481a4eff32789cca9befeb0ee58e66568979",
		},
		{
			name:       "Different principal",
			principal:  "bob",
			salt:       "test_salt",
			iterations: 1,
			want:       "2b587028e725fd3466ef632823cdb3e2c024f00d51c47d33dccab7d8345f1659",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got := export.HashPrincipal(tt.principal, tt.salt, export.HashTypeSHA256, tt.iterations, 0)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestHashPrincipalArgon2id(t *testing.T) {
	t.Parallel()

	got := export.HashPrincipal("alice", "test_salt", export.HashTypeArgon2id, 1, 1)

	raw, err := hex.DecodeString(got)
	require.NoError(t, err)
	assert.Len(t, raw, 32)

	assert.Equal(t, got, export.HashPrincipal("alice", "test_salt", export.HashTypeArgon2id, 1, 1))
	assert.NotEqual(t, got, export.HashPrincipal("alice", "test_salt", export.HashTypeArgon2id, 1, 4))
	assert.NotEqual(t, got, export.HashPrincipal("bob", "test_salt", export.HashTypeArgon2id, 1, 1))
	assert.NotEqual(t, got, export.HashPrincipal("alice", "test_salt", export.HashTypeSHA256, 1, 1))
}

func TestHashType(t *testing.T) {
	t.Parallel()

	assert.True(t, export.HashTypeArgon2id.IsValid())
	assert.True(t, export.HashTypeSHA256.IsValid())
	assert.False(t, export.HashType("md5").IsValid())
}
