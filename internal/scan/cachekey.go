package scan

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"
	"strings"
	"time"
)

// CacheKey derives the deterministic run cache key from the profile,
// the model set, the active prompt count, and the UTC calendar day.
// Model order never matters: the set is sorted before hashing. Two runs
// sharing a key within the cache window are equivalent.
func CacheKey(profileID string, models []string, promptCount int, day time.Time) string {
	sorted := make([]string, len(models))
	copy(sorted, models)
	sort.Strings(sorted)

	payload := fmt.Sprintf("%s|%s|%d|%s",
		profileID,
		strings.Join(sorted, ","),
		promptCount,
		day.UTC().Format("2006-01-02"),
	)
	sum := sha256.Sum256([]byte(payload))
	return hex.EncodeToString(sum[:])
}
