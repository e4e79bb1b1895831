// Package hashfn provides ready-made chainmap.HashFunc implementations and a
// registry that resolves them by name.
package hashfn

import (
	"encoding/binary"
	"hash/maphash"
	"sort"
	"strconv"
	"strings"

	"github.com/cespare/xxhash/v2"
	sha256 "github.com/minio/sha256-simd"
	"github.com/pkg/errors"

	"github.com/theflywheel/chainmap"
)

// ErrUnknown is returned by Lookup for an unregistered name
var ErrUnknown = errors.New("unknown hash function")

// DJB2 is Bernstein's hash (h*33 + c), computed in uint32 so the index is
// never negative.
func DJB2(capacity int, key string) int {
	hash := uint32(5381)
	for i := 0; i < len(key); i++ {
		hash = (hash << 5) + hash + uint32(key[i])
	}
	return reduce(uint64(hash), capacity)
}

// XXHash uses the 64-bit xxHash of the key
func XXHash(capacity int, key string) int {
	return reduce(xxhash.Sum64String(key), capacity)
}

// SHA256 uses the first eight bytes of the key's SHA-256 digest. It is slow
// but distributes adversarial keys well.
func SHA256(capacity int, key string) int {
	sum := sha256.Sum256([]byte(key))
	return reduce(binary.BigEndian.Uint64(sum[:8]), capacity)
}

// NewMaphash returns a hash seeded with seed. Indices are stable only for
// the lifetime of the process that made the seed.
func NewMaphash(seed maphash.Seed) chainmap.HashFunc {
	return func(capacity int, key string) int {
		return reduce(maphash.String(seed, key), capacity)
	}
}

// Constant sends every key to slot, modulo capacity. Useful to force
// collisions.
func Constant(slot int) chainmap.HashFunc {
	return func(capacity int, _ string) int {
		return slot % capacity
	}
}

// Fixed maps each listed key to its slot and every other key to fallback
func Fixed(slots map[string]int, fallback chainmap.HashFunc) chainmap.HashFunc {
	if fallback == nil {
		fallback = chainmap.FNV1a
	}
	return func(capacity int, key string) int {
		if i, ok := slots[key]; ok {
			return i % capacity
		}
		return fallback(capacity, key)
	}
}

func reduce(hash uint64, capacity int) int {
	return int(hash % uint64(capacity))
}

var registry = map[string]func() chainmap.HashFunc{
	"djb2":    func() chainmap.HashFunc { return DJB2 },
	"fnv1a":   func() chainmap.HashFunc { return chainmap.FNV1a },
	"xxhash":  func() chainmap.HashFunc { return XXHash },
	"sha256":  func() chainmap.HashFunc { return SHA256 },
	"maphash": func() chainmap.HashFunc { return NewMaphash(maphash.MakeSeed()) },
}

// Lookup resolves a hash function by name (case-insensitive). "constant:N"
// selects Constant(N).
func Lookup(name string) (chainmap.HashFunc, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	if rest, ok := strings.CutPrefix(name, "constant:"); ok {
		slot, err := strconv.Atoi(rest)
		if err != nil || slot < 0 {
			return nil, errors.Wrapf(ErrUnknown, "bad constant slot %q", rest)
		}
		return Constant(slot), nil
	}
	mk, ok := registry[name]
	if !ok {
		return nil, errors.Wrapf(ErrUnknown, "%q (known: %s)", name, strings.Join(Names(), ", "))
	}
	return mk(), nil
}

// Names returns the registered names in sorted order
func Names() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
