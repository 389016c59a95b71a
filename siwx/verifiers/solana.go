package verifiers

import (
	"context"

	"github.com/chinmay1088/chainkit/network"
	"github.com/chinmay1088/chainkit/siwx"
	"github.com/gagliardetto/solana-go"
)

// Solana verifies ed25519 signatures over the raw message
type Solana struct{}

func (Solana) Namespace() network.Namespace {
	return network.NamespaceSolana
}

func (Solana) Verify(_ context.Context, session siwx.Session) bool {
	return safely(func() bool {
		pub, err := solana.PublicKeyFromBase58(session.Data.AccountAddress)
		if err != nil {
			return false
		}
		raw, ok := decodeSignature(session.Signature, solana.SignatureLength)
		if !ok {
			return false
		}
		return solana.SignatureFromBytes(raw).Verify(pub, []byte(session.Message))
	})
}
