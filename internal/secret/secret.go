// Package secret provisions the token signing key once at process start.
package secret

import (
	"bytes"
	"context"
	"errors"
	"fmt"

	"authgate/internal/config"
	"authgate/internal/storage"
	"authgate/internal/token"
)

// maxObjectSize bounds what is downloaded when the key lives in object storage.
const maxObjectSize = 4 << 10

// Load returns the signing key named by cfg: the object at SecretBucket/SecretKey
// when configured, otherwise JWTSecret. objects may be nil when the key is inline.
func Load(ctx context.Context, cfg config.Auth, objects storage.Service) ([]byte, error) {
	var key []byte

	if cfg.SecretFromStorage() {
		if objects == nil {
			return nil, errors.New("signing secret is stored remotely but no storage service is configured")
		}

		info, err := objects.Stat(ctx, cfg.SecretBucket, cfg.SecretKey)
		if err != nil {
			return nil, fmt.Errorf("stat signing secret: %w", err)
		}
		if info.Size > maxObjectSize {
			return nil, fmt.Errorf("signing secret object is %d bytes, limit is %d", info.Size, maxObjectSize)
		}

		raw, err := objects.Fetch(ctx, cfg.SecretBucket, cfg.SecretKey)
		if err != nil {
			return nil, fmt.Errorf("fetch signing secret: %w", err)
		}
		key = trimLineEnding(raw)
	} else {
		key = bytes.TrimSpace([]byte(cfg.JWTSecret))
	}

	if len(key) < token.MinSecretLength {
		return nil, fmt.Errorf("signing secret must be at least %d bytes, got %d", token.MinSecretLength, len(key))
	}
	return key, nil
}

// trimLineEnding drops a single trailing "\n" or "\r\n" left by editors and
// echo. Stored keys are otherwise used byte for byte.
func trimLineEnding(raw []byte) []byte {
	key, ok := bytes.CutSuffix(raw, []byte("\n"))
	if !ok {
		return raw
	}
	key, _ = bytes.CutSuffix(key, []byte("\r"))
	return key
}
