package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

func JobStatusKey(jobID uuid.UUID) string {
	return fmt.Sprintf("job:%s", jobID)
}

// SearchResultKey identifies one search call. Queries differing only in case or
// surrounding whitespace share a key.
func SearchResultKey(query string, count int) string {
	sum := sha256.Sum256([]byte(strings.ToLower(strings.TrimSpace(query))))
	return fmt.Sprintf("search:%s:%d", hex.EncodeToString(sum[:16]), count)
}
