package crypto

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// fingerprintBytes is how much of the SHA-256 digest is shown.
const fingerprintBytes = 10

// Fingerprint returns a short hex fingerprint of an exported public key,
// grouped in fours so two people can compare it aloud, e.g.
// "3f2a 91c0 7d44 e5b8 0a16".
func Fingerprint(pub []byte) string {
	sum := sha256.Sum256(pub)
	h := hex.EncodeToString(sum[:fingerprintBytes])

	var b strings.Builder
	for i := 0; i < len(h); i += 4 {
		if i > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(h[i : i+4])
	}
	return b.String()
}
