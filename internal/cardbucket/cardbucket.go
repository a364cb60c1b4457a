// Package cardbucket collapses high-cardinality card identifiers into a
// low-cardinality model feature without memorizing individual card numbers.
//
// The hash is XXH64 with the default (zero) seed, reduced modulo 100. XXH64
// is fixed here deliberately: the bucket for a given card token must be
// identical across process restarts, hosts, and reimplementations, which
// rules out any runtime-seeded general-purpose hash.
package cardbucket

import "github.com/cespare/xxhash/v2"

// BucketCount is the number of card buckets the model was trained with.
const BucketCount = 100

// Bucket maps a card token to its stable bucket in [0, BucketCount).
func Bucket(cardToken string) int {
	return int(xxhash.Sum64String(cardToken) % BucketCount)
}
