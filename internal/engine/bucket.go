package engine

import (
	"hash/fnv"

	"github.com/pagecraft/pagecraft/internal/config"
)

// bucketOf maps a visitor/experiment pair to a stable bucket in [0, 100).
// FNV-32a over "sessionID:experimentSlug" keeps the mapping a pure function
// of the pair: independent of request order, counters, and restarts, and
// uniform enough mod 100 for allocation splits.
func bucketOf(sessionID, experimentSlug string) int {
	h := fnv.New32a()
	h.Write([]byte(sessionID))
	h.Write([]byte{':'})
	h.Write([]byte(experimentSlug))
	return int(h.Sum32() % 100)
}

// bucket selects the variant owning the visitor's bucket: variants are
// walked in declared order accumulating allocation, and the first variant
// whose cumulative allocation exceeds the bucket wins.
func bucket(sessionID, experimentSlug string, variants []config.Variant) config.Variant {
	return variantFor(bucketOf(sessionID, experimentSlug), variants)
}

func variantFor(bucket int, variants []config.Variant) config.Variant {
	cumulative := 0
	for _, v := range variants {
		cumulative += v.Allocation
		if bucket < cumulative {
			return v
		}
	}
	// Unreachable when allocations sum to 100.
	return variants[0]
}
