package checklist

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
)

// Fingerprint derives the deterministic identity digest of a checklist.
//
// The form state is serialized to canonical JSON: object keys emit in
// lexicographically sorted order, array order is preserved (a different photo
// order is a different submission). The digest is sha256 over the UTF-8 bytes,
// rendered as lowercase hex. Pure function: no I/O, no randomness, stable
// across process restarts and key insertion order.
//
// Photo descriptors contribute only {url, name, contentType}; changes to a
// photo's binary content without a descriptor change are invisible to the hash.
func Fingerprint(c Checklist) (string, error) {
	canonical, err := canonicalJSON(c)
	if err != nil {
		return "", fmt.Errorf("canonicalize checklist: %w", err)
	}

	sum := sha256.Sum256(canonical)
	return hex.EncodeToString(sum[:]), nil
}

// canonicalJSON marshals v, round-trips it through generic maps and marshals
// again. encoding/json emits map keys sorted, so the second pass is canonical
// regardless of struct field or insertion order.
func canonicalJSON(v any) ([]byte, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}

	var generic any
	if err := json.Unmarshal(raw, &generic); err != nil {
		return nil, err
	}

	return json.Marshal(generic)
}
