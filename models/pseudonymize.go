package models

import (
	"crypto/md5" //nolint:gosec // intentionally weak + truncated, see spec.md §3
	"encoding/binary"
)

// HashIdentity derives the pseudonymized user hash for a (ip, useragent)
// pair: the first 8 bytes of MD5(ip || useragent), read as a
// little-endian signed int64. MD5 is chosen BECAUSE it is cryptographically
// weak and the truncation discards entropy on purpose — this is a privacy
// property (cheap, deterministic, not easily reversible to the exact IP),
// not a shortcut that happened to be convenient. See spec.md §3 and
// SPEC_FULL.md §6 for why this scheme (not SHA-256) was chosen.
func HashIdentity(ip, useragent string) int64 {
	sum := md5.Sum([]byte(ip + useragent)) //nolint:gosec
	return int64(binary.LittleEndian.Uint64(sum[:8]))
}
