package dump

import (
	"encoding/hex"

	"golang.org/x/crypto/blake2b"
)

// Checksum returns the hex-encoded BLAKE2b-256 digest of a dump file's
// contents. It is recorded in the ledger alongside each dump path rather
// than embedded in the text format itself, so a dumped file can be
// verified out-of-band without changing the format's section layout.
func Checksum(data []byte) string {
	h, _ := blake2b.New256(nil) // error is only for an invalid key size; nil key is always valid
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}
