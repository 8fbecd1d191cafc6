package cache

import (
	"fmt"
	"hash/fnv"
	"os"
	"sort"
)

// Fingerprint hashes the identity and modification state of a file list into
// a short stable string. Two scans of an unchanged folder produce the same
// fingerprint; any added, removed, resized or rewritten file changes it.
func Fingerprint(files []string) (string, error) {
	sorted := make([]string, len(files))
	copy(sorted, files)
	sort.Strings(sorted)

	h := fnv.New64a()
	for _, path := range sorted {
		info, err := os.Stat(path)
		if err != nil {
			return "", fmt.Errorf("failed to stat %s: %w", path, err)
		}
		fmt.Fprintf(h, "%s|%d|%d\n", path, info.Size(), info.ModTime().UnixNano())
	}

	return fmt.Sprintf("%016x", h.Sum64()), nil
}
