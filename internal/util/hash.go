// Package util contains internal helpers (hashing, sharding, padding).
//revive:disable:var-naming  // allow 'util' as an internal helpers package name
package util

import "encoding/binary"

// Fingerprint32 hashes an arbitrary byte key into a 32-bit fingerprint.
// It is a murmur-style multiply/shift/xor mix processing four little-endian
// bytes per step, with the remaining 1..3 bytes folded in at the end.
//
// Properties the cache relies on:
//   - deterministic for a given (data, seed) within a process;
//   - good avalanche, so the top bits (used for shard selection) and the
//     low bits (used for bucket selection) are independently well dispersed.
//
// No cross-process or on-disk stability is promised.
func Fingerprint32(data []byte, seed uint32) uint32 {
	const (
		m = 0xc6a4a793
		r = 24
	)
	h := seed ^ uint32(len(data))*m

	i := 0
	for ; i+4 <= len(data); i += 4 {
		h += binary.LittleEndian.Uint32(data[i:])
		h *= m
		h ^= h >> 16
	}

	if tail := data[i:]; len(tail) > 0 {
		for j, b := range tail {
			h += uint32(b) << (8 * uint(j))
		}
		h *= m
		h ^= h >> r
	}
	return h
}
