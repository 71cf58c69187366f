package artifacts

import (
	"fmt"

	"rigcheck/services/checklist"
)

// legacyTypeAliases maps checklist types to older storage prefixes that blobs
// may still live under. Retrieval probes these after the canonical path.
var legacyTypeAliases = map[string][]string{
	string(checklist.VariantReduced): {"short"},
}

// CanonicalPath is the deterministic storage location for an archive.
func CanonicalPath(checklistType, hash string) string {
	return fmt.Sprintf("%s/%s.zip", checklistType, hash)
}

// CandidatePaths lists storage locations to probe for an archive, canonical
// path first, then legacy aliases in fixed order.
func CandidatePaths(checklistType, hash string) []string {
	paths := []string{CanonicalPath(checklistType, hash)}
	for _, alias := range legacyTypeAliases[checklistType] {
		paths = append(paths, CanonicalPath(alias, hash))
	}
	return paths
}

// SafeFileName renders a fingerprint as a download filename, replacing
// characters outside [A-Za-z0-9._-] with underscores.
func SafeFileName(hash, ext string) string {
	var b []byte
	for _, ch := range hash {
		switch {
		case ch >= 'a' && ch <= 'z', ch >= 'A' && ch <= 'Z', ch >= '0' && ch <= '9':
			b = append(b, byte(ch))
		case ch == '.' || ch == '_' || ch == '-':
			b = append(b, byte(ch))
		default:
			b = append(b, '_')
		}
	}
	return string(b) + ext
}
