package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"sort"
)

// Keyer derives cache keys for a namespace and its lookup parameters.
//
// Contract:
// - Determinism: same inputs must produce same key, regardless of map iteration order.
// - Concurrency: implementations must be safe for concurrent use.
type Keyer interface {
	Key(namespace string, params any) (string, error)
}

// HashKeyer builds keys of the form <prefix>:<namespace>:<hash>, where hash
// is the first 16 hex characters of SHA-256 over the canonical JSON of params.
type HashKeyer struct {
	prefix string
}

// NewHashKeyer creates a keyer. An empty prefix defaults to "healthgate".
func NewHashKeyer(prefix string) *HashKeyer {
	if prefix == "" {
		prefix = "healthgate"
	}
	return &HashKeyer{prefix: prefix}
}

// Key generates a deterministic cache key.
func (k *HashKeyer) Key(namespace string, params any) (string, error) {
	canonical, err := canonicalize(params)
	if err != nil {
		return "", fmt.Errorf("cache: failed to canonicalize params: %w", err)
	}

	sum := sha256.Sum256(canonical)
	key := fmt.Sprintf("%s:%s:%s", k.prefix, namespace, hex.EncodeToString(sum[:8]))
	if err := ValidateKey(key); err != nil {
		return "", err
	}
	return key, nil
}

func canonicalize(v any) ([]byte, error) {
	switch val := v.(type) {
	case nil:
		return []byte("null"), nil
	case map[string]any:
		return canonicalizeMap(val)
	case map[string]string:
		m := make(map[string]any, len(val))
		for k, s := range val {
			m[k] = s
		}
		return canonicalizeMap(m)
	case []any:
		out := []byte("[")
		for i, item := range val {
			if i > 0 {
				out = append(out, ',')
			}
			b, err := canonicalize(item)
			if err != nil {
				return nil, err
			}
			out = append(out, b...)
		}
		return append(out, ']'), nil
	default:
		return json.Marshal(v)
	}
}

func canonicalizeMap(m map[string]any) ([]byte, error) {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	out := []byte("{")
	for i, k := range keys {
		if i > 0 {
			out = append(out, ',')
		}
		kb, err := json.Marshal(k)
		if err != nil {
			return nil, err
		}
		vb, err := canonicalize(m[k])
		if err != nil {
			return nil, err
		}
		out = append(out, kb...)
		out = append(out, ':')
		out = append(out, vb...)
	}
	return append(out, '}'), nil
}

var _ Keyer = (*HashKeyer)(nil)
