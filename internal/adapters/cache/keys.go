package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
)

const keyVersion = "v1"

// lookupKey builds a stable key from the normalized query and result bound
func lookupKey(namespace, query string, limit int) string {
	normalized := strings.Join(strings.Fields(strings.ToLower(query)), " ")
	sum := sha256.Sum256([]byte(fmt.Sprintf("%s|%d", normalized, limit)))
	return fmt.Sprintf("%s:%s:%s", namespace, keyVersion, hex.EncodeToString(sum[:16]))
}
