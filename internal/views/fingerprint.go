package views

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"

	"golang.org/x/crypto/blake2b"

	"video-platform/internal/identity"
)

// Fingerprinter derives the opaque viewer token used as the ledger key.
// Signed-in viewers are keyed by user id; anonymous viewers by client address
// alone; client-supplied headers never take part. The keyed hash keeps addresses out of the ledger.
type Fingerprinter struct {
	key []byte
}

// NewFingerprinter returns a fingerprinter using key. With an empty key a
// random one is generated, which means ledger entries stop matching after a
// restart.
func NewFingerprinter(key string) (*Fingerprinter, error) {
	k := []byte(key)
	if len(k) == 0 {
		k = make([]byte, 32)
		if _, err := rand.Read(k); err != nil {
			return nil, fmt.Errorf("failed to generate fingerprint key: %w", err)
		}
		log.Warn("FINGERPRINT_KEY not set; anonymous view fingerprints will not survive a restart")
	}
	if len(k) > blake2b.Size {
		sum := blake2b.Sum256(k)
		k = sum[:]
	}
	return &Fingerprinter{key: k}, nil
}

// Fingerprint returns the viewer token for a request.
func (f *Fingerprinter) Fingerprint(id identity.Identity, clientIP string) string {
	h, err := blake2b.New(16, f.key)
	if err != nil {
		// key length is checked in NewFingerprinter
		panic(err)
	}
	if id.Anonymous() {
		h.Write([]byte("anon\x00" + clientIP))
	} else {
		h.Write([]byte("user\x00" + id.UserID))
	}
	return hex.EncodeToString(h.Sum(nil))
}
