package hash

import (
	"crypto/sha256"
	"encoding/hex"

	"github.com/chazu/layoutc/vm"
)

// Fingerprint computes the SHA-256 content hash of a compiled program.
//
// The hash is computed over a deterministic serialization of the program's
// code, literal pool, block table and frame layout. Compiling the same
// layout with the same environment and options always produces the same
// fingerprint, whether the template was read from JSON or CBOR.
func Fingerprint(p *vm.CompiledProgram) ([32]byte, error) {
	data, err := Serialize(p)
	if err != nil {
		return [32]byte{}, err
	}
	return sha256.Sum256(data), nil
}

// Hex formats a fingerprint for display.
func Hex(sum [32]byte) string {
	return hex.EncodeToString(sum[:])
}
