package verifiers

import (
	"context"

	"github.com/chinmay1088/chainkit/network"
	"github.com/chinmay1088/chainkit/siwx"
	"github.com/ethereum/go-ethereum/accounts"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

// EVM verifies EIP-191 personal_sign signatures
type EVM struct{}

func (EVM) Namespace() network.Namespace {
	return network.NamespaceEVM
}

func (EVM) Verify(_ context.Context, session siwx.Session) bool {
	return safely(func() bool {
		if !common.IsHexAddress(session.Data.AccountAddress) {
			return false
		}
		sig, ok := decodeHex(session.Signature)
		if !ok || len(sig) != crypto.SignatureLength {
			return false
		}

		// wallets return v as 27/28, recovery wants 0/1
		if sig[crypto.RecoveryIDOffset] >= 27 {
			sig[crypto.RecoveryIDOffset] -= 27
		}
		if sig[crypto.RecoveryIDOffset] > 1 {
			return false
		}

		pub, err := crypto.SigToPub(accounts.TextHash([]byte(session.Message)), sig)
		if err != nil {
			return false
		}
		return crypto.PubkeyToAddress(*pub) == common.HexToAddress(session.Data.AccountAddress)
	})
}
