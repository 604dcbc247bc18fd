package classify

import (
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"strconv"
)

// CacheKey derives the content-addressed key for one classification.
// encoding/json marshals map keys in sorted order, which gives the
// canonical meta serialization: semantically identical meta hashes
// identically regardless of insertion order. The final score is part of
// the key, so a rescore under a changed rubric never collides with an
// older entry.
func CacheKey(contentID, rubricVersion, model string, meta map[string]string, finalScore float64) string {
	if meta == nil {
		meta = map[string]string{}
	}
	canonicalMeta, _ := json.Marshal(meta)

	h := sha256.New()
	h.Write([]byte(contentID))
	h.Write([]byte{0})
	h.Write([]byte(rubricVersion))
	h.Write([]byte{0})
	h.Write([]byte(model))
	h.Write([]byte{0})
	h.Write(canonicalMeta)
	h.Write([]byte{0})
	h.Write([]byte(strconv.FormatFloat(finalScore, 'f', -1, 64)))

	return fmt.Sprintf("%x", h.Sum(nil))
}
