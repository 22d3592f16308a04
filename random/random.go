// Package random generates the human-quotable payment references printed
// on bank slips.
package random

import (
	crand "crypto/rand"
	"encoding/binary"
	mrand "math/rand"
	"time"
)

// Tracking codes shown to users on bank slips avoid lookalike characters.
const trackingCharset = "23456789ACDEFGHJKLMNPQRTUVWXY"

func init() {
	var b [8]byte
	_, err := crand.Read(b[:])
	if err != nil {
		mrand.Seed(time.Now().UnixNano())
		return
	}
	mrand.Seed(int64(binary.LittleEndian.Uint64(b[:])))
}

// TrackingCode returns a payment reference like "TRK-8F2KQ7WD". Codes are
// labels for humans, not capabilities: uniqueness and auth both live on the
// attempt row.
func TrackingCode() string {
	b := make([]byte, 8)
	for i := range b {
		b[i] = trackingCharset[mrand.Intn(len(trackingCharset))]
	}
	return "TRK-" + string(b)
}
