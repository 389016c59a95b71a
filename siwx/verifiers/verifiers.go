// Package verifiers implements sign-in signature checks for every
// supported namespace.
package verifiers

import (
	"encoding/base64"
	"encoding/hex"
	"strings"

	"github.com/chinmay1088/chainkit/siwx"
	"github.com/mr-tron/base58"
)

// All returns one verifier per supported namespace
func All() []siwx.Verifier {
	return []siwx.Verifier{EVM{}, Solana{}, Bitcoin{}, Polkadot{}}
}

// NewSet builds a VerifierSet covering every namespace
func NewSet() (*siwx.VerifierSet, error) {
	return siwx.NewVerifierSet(All()...)
}

// safely turns a panic inside a verification library into false
func safely(fn func() bool) (ok bool) {
	defer func() {
		if recover() != nil {
			ok = false
		}
	}()
	return fn()
}

func decodeHex(s string) ([]byte, bool) {
	s = strings.TrimPrefix(strings.TrimPrefix(s, "0x"), "0X")
	b, err := hex.DecodeString(s)
	if err != nil {
		return nil, false
	}
	return b, true
}

// decodeSignature accepts base58, hex or base64 encodings of a signature
// of the given size
func decodeSignature(sig string, size int) ([]byte, bool) {
	if strings.HasPrefix(sig, "0x") {
		b, ok := decodeHex(sig)
		return b, ok && len(b) == size
	}
	if b, err := base58.Decode(sig); err == nil && len(b) == size {
		return b, true
	}
	if b, ok := decodeHex(sig); ok && len(b) == size {
		return b, true
	}
	if b, err := base64.StdEncoding.DecodeString(sig); err == nil && len(b) == size {
		return b, true
	}
	return nil, false
}
