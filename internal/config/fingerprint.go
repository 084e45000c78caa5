package config

import (
	"encoding/hex"
	"fmt"
	"os"

	"github.com/zeebo/blake3"
)

// fingerprint computes the BLAKE3 hash of raw config bytes, hex-encoded.
// Logged at startup and printed by `rook check` so operators can tell at a
// glance which config revision a running server was started with.
func fingerprint(data []byte) string {
	sum := blake3.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// FingerprintFile computes the config fingerprint straight from disk.
func FingerprintFile(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read file: %w", err)
	}
	return fingerprint(data), nil
}
