package verifiers

import (
	"bytes"
	"context"
	"encoding/base64"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcec/v2/ecdsa"
	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/wire"
	"github.com/chinmay1088/chainkit/network"
	"github.com/chinmay1088/chainkit/siwx"
)

const bitcoinMessageMagic = "Bitcoin Signed Message:\n"

// compact signature header ranges (BIP-137)
const (
	headerUncompressedP2PKH = 27
	headerCompressedP2PKH   = 31
	headerP2SHP2WPKH        = 35
	headerP2WPKH            = 39
	headerMax               = 42
)

// Bitcoin verifies BIP-137 signed messages for P2PKH, P2SH-P2WPKH and
// P2WPKH addresses
type Bitcoin struct{}

func (Bitcoin) Namespace() network.Namespace {
	return network.NamespaceBitcoin
}

// BitcoinMessageHash is the digest wallets sign for message
func BitcoinMessageHash(message string) []byte {
	var buf bytes.Buffer
	_ = wire.WriteVarString(&buf, 0, bitcoinMessageMagic)
	_ = wire.WriteVarString(&buf, 0, message)
	return chainhash.DoubleHashB(buf.Bytes())
}

// BitcoinParams returns the chain parameters implied by a CAIP id
func BitcoinParams(chainID network.CaipNetworkID) *chaincfg.Params {
	if chainID.Reference() == network.BitcoinTestnetRef {
		return &chaincfg.TestNet3Params
	}
	return &chaincfg.MainNetParams
}

func (Bitcoin) Verify(_ context.Context, session siwx.Session) bool {
	return safely(func() bool {
		sig, err := base64.StdEncoding.DecodeString(session.Signature)
		if err != nil || len(sig) != 65 {
			return false
		}
		header := sig[0]
		if header < headerUncompressedP2PKH || header > headerMax {
			return false
		}

		// segwit headers carry the same recovery id, btcec only knows 27-34
		normalized := append([]byte(nil), sig...)
		if header >= headerP2SHP2WPKH {
			normalized[0] = headerCompressedP2PKH + (header-headerUncompressedP2PKH)%4
		}

		pub, compressed, err := ecdsa.RecoverCompact(normalized, BitcoinMessageHash(session.Message))
		if err != nil {
			return false
		}

		params := BitcoinParams(session.Data.ChainID)
		target, err := btcutil.DecodeAddress(session.Data.AccountAddress, params)
		if err != nil {
			return false
		}

		for _, candidate := range bitcoinAddresses(pub, compressed, params) {
			if candidate.EncodeAddress() == target.EncodeAddress() {
				return true
			}
		}
		return false
	})
}

func bitcoinAddresses(pub *btcec.PublicKey, compressed bool, params *chaincfg.Params) []btcutil.Address {
	var serialized []byte
	if compressed {
		serialized = pub.SerializeCompressed()
	} else {
		serialized = pub.SerializeUncompressed()
	}
	pkHash := btcutil.Hash160(serialized)

	var out []btcutil.Address
	if addr, err := btcutil.NewAddressPubKeyHash(pkHash, params); err == nil {
		out = append(out, addr)
	}
	if !compressed {
		return out
	}
	if addr, err := btcutil.NewAddressWitnessPubKeyHash(pkHash, params); err == nil {
		out = append(out, addr)
	}
	redeem := append([]byte{0x00, 0x14}, pkHash...)
	if addr, err := btcutil.NewAddressScriptHash(redeem, params); err == nil {
		out = append(out, addr)
	}
	return out
}
