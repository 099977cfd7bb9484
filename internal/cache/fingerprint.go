package cache

import (
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/cespare/xxhash/v2"
)

// FingerprintWidth is the number of hex characters in a fingerprint.
// Fingerprints are 64-bit xxHash digests; they are cache keys, not integrity checks.
const FingerprintWidth = 16

// Fingerprint derives the cache key for a generation request from the type tag,
// the full source text, its modification time and the request options.
// Options are serialized canonically, so key order never changes the result.
func Fingerprint(typeTag, source string, mtime time.Time, options any) (string, error) {
	opts, err := canonicalJSON(options)
	if err != nil {
		return "", fmt.Errorf("serialize options: %w", err)
	}

	d := xxhash.New()
	for _, part := range []string{
		typeTag,
		source,
		strconv.FormatInt(mtime.UTC().UnixNano(), 10),
		opts,
	} {
		_, _ = d.WriteString(part)
		_, _ = d.Write([]byte{0})
	}

	return fmt.Sprintf("%0*x", FingerprintWidth, d.Sum64()), nil
}

// canonicalJSON round-trips v through a generic value so maps at every level
// are emitted with sorted keys.
func canonicalJSON(v any) (string, error) {
	if v == nil {
		return "null", nil
	}

	raw, err := json.Marshal(v)
	if err != nil {
		return "", err
	}

	var generic any
	if err := json.Unmarshal(raw, &generic); err != nil {
		return "", err
	}

	out, err := json.Marshal(generic)
	if err != nil {
		return "", err
	}

	return string(out), nil
}
