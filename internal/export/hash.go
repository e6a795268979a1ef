package export

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"sync"

	"github.com/sourcegraph/conc/pool"
	"go.uber.org/zap"
	"golang.org/x/crypto/argon2"
)

// HashType represents the different hashing algorithms available.
type HashType string

const (
	// HashTypeArgon2id uses the Argon2id algorithm for hashing.
	HashTypeArgon2id HashType = "argon2id"
	// HashTypeSHA256 uses the SHA256 algorithm for hashing.
	HashTypeSHA256 HashType = "sha256"
)

// IsValid reports whether the hash type is supported.
func (h HashType) IsValid() bool {
	return h == HashTypeArgon2id || h == HashTypeSHA256
}

// HashPrincipal converts a principal to a hash using the specified algorithm with the provided salt.
func HashPrincipal(principal, salt string, hashType HashType, iterations, memory uint32) string {
	input := []byte(principal)

	var hash []byte

	switch hashType {
	case HashTypeArgon2id:
		hash = argon2.IDKey(input, []byte(salt), iterations, memory*1024, 1, 32)
	case HashTypeSHA256:
		// Iterative SHA256 hashing with salt
		hash = []byte(salt)

		h := sha256.New()
		for range iterations {
			h.Reset()
			h.Write(input)
			h.Write(hash)
			hash = h.Sum(nil)
		}
	}

	return hex.EncodeToString(hash)
}

// hashPrincipals hashes each distinct principal once and returns the hashes keyed by principal.
func hashPrincipals(
	ctx context.Context, principals []string, cfg *Config, logger *zap.Logger,
) (map[string]string, error) {
	hashes := make(map[string]string, len(principals))
	if len(principals) == 0 {
		return hashes, nil
	}

	var (
		mu        sync.Mutex
		processed int
	)

	total := len(principals)
	step := max(total/10, 1)

	p := pool.New().WithMaxGoroutines(max(cfg.Concurrency, 1)).WithContext(ctx)
	for _, principal := range principals {
		p.Go(func(ctx context.Context) error {
			if err := ctx.Err(); err != nil {
				return err
			}

			hash := HashPrincipal(principal, cfg.Salt, cfg.HashType, cfg.Iterations, cfg.Memory)

			mu.Lock()
			defer mu.Unlock()

			hashes[principal] = hash
			processed++
			if processed%step == 0 || processed == total {
				logger.Info("Hashing principals",
					zap.Int("processed", processed),
					zap.Int("total", total))
			}
			return nil
		})
	}

	if err := p.Wait(); err != nil {
		return nil, err
	}
	return hashes, nil
}
