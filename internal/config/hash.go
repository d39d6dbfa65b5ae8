package config

import (
	"encoding/json"
	"hash/fnv"
)

// fingerprint hashes the JSON form of v. Struct field order makes the
// encoding stable. A nil or unencodable value hashes to 0.
func fingerprint(v any) uint64 {
	b, err := json.Marshal(v)
	if err != nil || string(b) == "null" {
		return 0
	}
	h := fnv.New64a()
	_, _ = h.Write(b)
	return h.Sum64()
}
