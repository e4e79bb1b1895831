package chainmap

const (
	offset32 = 2166136261
	prime32  = 16777619
)

// FNV1a hashes key with 32-bit FNV-1a and reduces it to a slot index
func FNV1a(capacity int, key string) int {
	return int(uint64(hashKey(key)) % uint64(capacity))
}

// hashKey computes a 32-bit FNV-1a hash of the key
func hashKey(key string) uint32 {
	hash := uint32(offset32)
	for i := 0; i < len(key); i++ {
		hash ^= uint32(key[i])
		hash *= prime32
	}
	return hash
}
