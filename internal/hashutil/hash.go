package hashutil

import (
	"crypto/sha1"
	"encoding/hex"
)

// Digest returns the hex sha1 of b. Used to tag resource snapshots so two
// installs of the same content are recognizable in the logs.
func Digest(b []byte) string {
	sum := sha1.Sum(b)
	return hex.EncodeToString(sum[:])
}
