package idhash

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// ComputePositionID computes a deterministic position id using SHA256.
// Formula: SHA256(instrument|entry_time_ms|entry_price)
// The price is fixed to six decimals so the formula does not depend on
// float formatting defaults. Returns hex-encoded hash (64 characters).
func ComputePositionID(instrument string, entryTimeMs int64, entryPrice float64) string {
	data := fmt.Sprintf("%s|%d|%.6f", instrument, entryTimeMs, entryPrice)

	hash := sha256.Sum256([]byte(data))
	return hex.EncodeToString(hash[:])
}
