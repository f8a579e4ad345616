package util

import (
	"encoding/binary"
	"fmt"
	"hash/fnv"
	"time"

	"github.com/valyala/fastrand"
)

// GenerateCodeHash builds a short tournament code from the current time
// salted with a random word, so two timers created in the same instant do
// not collide.
func GenerateCodeHash() (int64, error) {
	h := fnv.New32a()
	bytes, err := time.Now().MarshalBinary()
	if err != nil {
		return 0, fmt.Errorf("hash binary encode error: %v", err)
	}

	salt := make([]byte, 4)
	binary.LittleEndian.PutUint32(salt, fastrand.Uint32())

	if _, err := h.Write(append(bytes, salt...)); err != nil {
		return 0, fmt.Errorf("hash write error: %w", err)
	}

	return int64(h.Sum32() >> 20), nil
}
