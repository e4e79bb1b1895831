package workload

import (
	"fmt"
	"math"
	"math/rand"

	"github.com/google/uuid"
	"github.com/pkg/errors"
)

const charset = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// Generate returns spec.Count distinct keys. The same spec always yields the
// same keys.
func Generate(spec KeySpec) ([]string, error) {
	if err := spec.Validate(); err != nil {
		return nil, err
	}
	rng := rand.New(rand.NewSource(spec.Seed))
	keys := make([]string, 0, spec.Count)

	switch spec.Kind {
	case KindSequential:
		for i := 0; i < spec.Count; i++ {
			keys = append(keys, fmt.Sprintf("key-%08d", i))
		}
		return keys, nil

	case KindUUID:
		seen := make(map[string]struct{}, spec.Count)
		for len(keys) < spec.Count {
			id, err := uuid.NewRandomFromReader(rng)
			if err != nil {
				return nil, errors.Wrap(err, "generate uuid")
			}
			key := id.String()
			if _, dup := seen[key]; dup {
				continue
			}
			seen[key] = struct{}{}
			keys = append(keys, key)
		}
		return keys, nil

	case KindAlnum:
		if float64(spec.Count) > math.Pow(float64(len(charset)), float64(spec.Length)) {
			return nil, errors.Errorf("cannot make %d distinct keys of length %d", spec.Count, spec.Length)
		}
		seen := make(map[string]struct{}, spec.Count)
		buf := make([]byte, spec.Length)
		for len(keys) < spec.Count {
			for i := range buf {
				buf[i] = charset[rng.Intn(len(charset))]
			}
			key := string(buf)
			if _, dup := seen[key]; dup {
				continue
			}
			seen[key] = struct{}{}
			keys = append(keys, key)
		}
		return keys, nil
	}
	return nil, errors.Errorf("unknown key kind %q", spec.Kind)
}
