package verifiers

import (
	"bytes"
	"context"
	"errors"

	"github.com/ChainSafe/go-schnorrkel"
	"github.com/chinmay1088/chainkit/network"
	"github.com/chinmay1088/chainkit/siwx"
	"github.com/mr-tron/base58"
	"golang.org/x/crypto/blake2b"
)

var ss58Prefix = []byte("SS58PRE")

// signing context substrate wallets use for sr25519
var substrateContext = []byte("substrate")

// Polkadot verifies sr25519 signatures. Extension wallets wrap the payload
// in <Bytes>..</Bytes> before signing, both forms are accepted.
type Polkadot struct{}

func (Polkadot) Namespace() network.Namespace {
	return network.NamespacePolkadot
}

func (Polkadot) Verify(_ context.Context, session siwx.Session) bool {
	return safely(func() bool {
		pubBytes, err := DecodeSS58(session.Data.AccountAddress)
		if err != nil {
			return false
		}
		sigBytes, ok := decodeHex(session.Signature)
		if !ok {
			return false
		}
		// MultiSignature encoding prefixes 0x01 for sr25519
		if len(sigBytes) == 65 && sigBytes[0] == 0x01 {
			sigBytes = sigBytes[1:]
		}
		if len(sigBytes) != schnorrkel.SignatureSize {
			return false
		}

		var pk [schnorrkel.PublicKeySize]byte
		copy(pk[:], pubBytes)
		pub := new(schnorrkel.PublicKey)
		if err := pub.Decode(pk); err != nil {
			return false
		}

		var sb [schnorrkel.SignatureSize]byte
		copy(sb[:], sigBytes)
		sig := new(schnorrkel.Signature)
		if err := sig.Decode(sb); err != nil {
			return false
		}

		for _, msg := range [][]byte{[]byte(session.Message), WrapBytes(session.Message)} {
			ok, err := pub.Verify(sig, schnorrkel.NewSigningContext(substrateContext, msg))
			if err == nil && ok {
				return true
			}
		}
		return false
	})
}

// WrapBytes returns message in the <Bytes> envelope used by extensions
func WrapBytes(message string) []byte {
	return []byte("<Bytes>" + message + "</Bytes>")
}

// DecodeSS58 returns the 32-byte public key of an SS58 address. A 0x hex
// public key is accepted as well.
func DecodeSS58(address string) ([]byte, error) {
	if b, ok := decodeHex(address); ok && len(address) > 2 && address[:2] == "0x" {
		if len(b) != 32 {
			return nil, errors.New("invalid public key length")
		}
		return b, nil
	}

	raw, err := base58.Decode(address)
	if err != nil {
		return nil, err
	}
	if len(raw) == 0 {
		return nil, errors.New("empty address")
	}

	prefixLen := 1
	if raw[0]&0x40 != 0 {
		prefixLen = 2
	}
	if len(raw) != prefixLen+32+2 {
		return nil, errors.New("unsupported ss58 address length")
	}

	body := raw[:len(raw)-2]
	if !bytes.Equal(ss58Checksum(body), raw[len(raw)-2:]) {
		return nil, errors.New("invalid ss58 checksum")
	}
	return raw[prefixLen : prefixLen+32], nil
}

// EncodeSS58 encodes a public key with a single byte network prefix
func EncodeSS58(pub []byte, prefix byte) string {
	body := append([]byte{prefix}, pub...)
	return base58.Encode(append(body, ss58Checksum(body)...))
}

func ss58Checksum(body []byte) []byte {
	sum := blake2b.Sum512(append(append([]byte(nil), ss58Prefix...), body...))
	return sum[:2]
}
