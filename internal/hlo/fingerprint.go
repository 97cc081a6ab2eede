package hlo

import (
	"crypto/sha256"
	"encoding/hex"

	"golang.org/x/text/unicode/norm"
)

// DomainModule is the domain prefix for module fingerprints. The version
// suffix enables future algorithm migration without colliding with old
// fingerprints.
const DomainModule = "loom/module/v1"

// Fingerprint computes a content-addressed identity for the module's
// structure: SHA-256 over the NFC-normalized canonical text rendering,
// with domain separation. Structurally identical modules fingerprint
// identically regardless of their generated ids, so a pass run that
// changes nothing leaves the fingerprint unchanged.
func Fingerprint(m *Module) string {
	canonical := norm.NFC.String(Print(m))
	h := sha256.New()
	h.Write([]byte(DomainModule))
	h.Write([]byte{0x00}) // null separator prevents domain/data boundary ambiguity
	h.Write([]byte(canonical))
	return hex.EncodeToString(h.Sum(nil))
}
