package idhash

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// ComputeScanID computes a deterministic scan record id using SHA256.
// Formula: SHA256(instrument|scan_time_ms)
// Returns hex-encoded hash (64 characters). Re-running the same scan
// cycle produces the same id, so stores can deduplicate on insert.
func ComputeScanID(instrument string, scanTimeMs int64) string {
	data := fmt.Sprintf("%s|%d", instrument, scanTimeMs)

	hash := sha256.Sum256([]byte(data))
	return hex.EncodeToString(hash[:])
}
