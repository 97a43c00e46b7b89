package util

// ShardBits converts a power-of-two shard count into the number of hash bits
// needed to address a shard. A count of 1 yields 0 bits (single shard).
func ShardBits(shards int) uint {
	if shards <= 1 {
		return 0
	}
	return Log2(uint64(shards))
}

// ShardIndex maps a 32-bit key fingerprint to a shard index using the TOP
// bits of the hash. Buckets inside a shard use the low bits, so taking the
// top bits here keeps per-shard bucket distribution uniform.
func ShardIndex(hash uint32, shardBits uint) int {
	if shardBits == 0 {
		return 0
	}
	return int(hash >> (32 - shardBits))
}
